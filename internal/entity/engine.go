// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package entity

import (
	"fmt"
	"strings"
)

// Engine names the native or embedded library backing a vector index.
type Engine string

const (
	EngineFaiss  Engine = "faiss"
	EngineNmslib Engine = "nmslib"
	EngineLucene Engine = "lucene"

	// DefaultEngine is the lightweight backend used when nothing asks for
	// training, compression or a non-float data type.
	DefaultEngine = EngineNmslib
	// TrainingEngine is the backend that supports training and quantization.
	TrainingEngine = EngineFaiss
)

var engines = []Engine{EngineFaiss, EngineNmslib, EngineLucene}

func ParseEngine(s string) (Engine, error) {
	for _, e := range engines {
		if string(e) == strings.ToLower(s) {
			return e, nil
		}
	}
	return "", fmt.Errorf("Invalid engine type: %s", s)
}

func Engines() []Engine {
	return append([]Engine(nil), engines...)
}

func (e Engine) String() string {
	return string(e)
}
