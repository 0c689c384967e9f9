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

package vjson

import (
	"github.com/bytedance/sonic"
)

var (
	// api keeps map keys in iteration order, which is enough for responses.
	api = sonic.ConfigDefault
	// canonical sorts map keys so equal values encode to equal bytes.
	canonical = sonic.ConfigStd
)

// Marshal encodes v. Types implementing json.Marshaler encode themselves.
func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalCanonical marshals v with map keys sorted, so equal values always
// produce equal bytes.
func MarshalCanonical(v interface{}) ([]byte, error) {
	return canonical.Marshal(v)
}

// Unmarshal decodes data into v; untyped numbers become float64.
func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}
