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
	"github.com/spf13/cast"
)

type JsonMap map[string]interface{}

type JsonArr []interface{}

func ByteToJsonMap(bytes []byte) (JsonMap, error) {
	maps := make(map[string]interface{})
	if err := Unmarshal(bytes, &maps); err != nil {
		return nil, err
	}
	return maps, nil
}

func (jm JsonMap) Has(key string) bool {
	_, ok := jm[key]
	return ok
}

// GetJsonMap returns the object under key, or nil when absent or not an object.
func (jm JsonMap) GetJsonMap(key string) JsonMap {
	if obj, ok := jm[key].(map[string]interface{}); ok {
		return JsonMap(obj)
	}
	return nil
}

func (jm JsonMap) GetJsonArr(key string) JsonArr {
	if obj, ok := jm[key].([]interface{}); ok {
		return JsonArr(obj)
	}
	return nil
}

func (jm JsonMap) GetString(key string) string {
	return cast.ToString(jm[key])
}

func (jm JsonMap) GetInt(key string) (int, error) {
	return cast.ToIntE(jm[key])
}
