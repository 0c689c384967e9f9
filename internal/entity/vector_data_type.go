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

// VectorDataType is the element type of a vector field.
type VectorDataType string

const (
	VectorDataTypeFloat  VectorDataType = "float"
	VectorDataTypeByte   VectorDataType = "byte"
	VectorDataTypeBinary VectorDataType = "binary"
)

var vectorDataTypes = []VectorDataType{VectorDataTypeBinary, VectorDataTypeByte, VectorDataTypeFloat}

// ParseVectorDataType maps the data_type field value; empty means float.
func ParseVectorDataType(s string) (VectorDataType, error) {
	if s == "" {
		return VectorDataTypeFloat, nil
	}
	for _, dt := range vectorDataTypes {
		if string(dt) == strings.ToLower(s) {
			return dt, nil
		}
	}
	names := make([]string, 0, len(vectorDataTypes))
	for _, dt := range vectorDataTypes {
		names = append(names, string(dt))
	}
	return "", fmt.Errorf("Invalid value provided for [data_type] field. Supported values are [%s]", strings.Join(names, ","))
}

func (dt VectorDataType) String() string {
	return string(dt)
}
