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

	"github.com/spf13/cast"
)

const (
	NameField       = "name"
	ParametersField = "parameters"
)

// FieldSpec is the user supplied definition of a vector field, before any
// defaults are applied. Empty strings mean "not set".
type FieldSpec struct {
	Name             string            `json:"name,omitempty"`
	Dimension        int               `json:"dimension,omitempty"`
	VectorDataType   string            `json:"data_type,omitempty"`
	SpaceType        string            `json:"space_type,omitempty"`
	Engine           string            `json:"engine,omitempty"`
	Method           *ComponentContext `json:"method,omitempty"`
	ModelID          string            `json:"model_id,omitempty"`
	Mode             string            `json:"mode,omitempty"`
	CompressionLevel string            `json:"compression_level,omitempty"`
	CreatedVersion   string            `json:"created_version,omitempty"`
}

// ComponentContext is a raw {name, parameters} pair as supplied by the user.
// A nil Parameters map means the user gave no parameters at all.
type ComponentContext struct {
	Name       string                 `json:"name,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

func (cc *ComponentContext) HasParameters() bool {
	return cc != nil && cc.Parameters != nil
}

// Map renders cc back to the shape it was parsed from.
func (cc *ComponentContext) Map() map[string]interface{} {
	m := map[string]interface{}{}
	if cc.Name != "" {
		m[NameField] = cc.Name
	}
	if cc.Parameters != nil {
		m[ParametersField] = cc.Parameters
	}
	return m
}

// ParseComponentContext accepts an already parsed context or a decoded JSON
// object with optional "name" and "parameters" keys.
func ParseComponentContext(v interface{}) (*ComponentContext, error) {
	switch t := v.(type) {
	case *ComponentContext:
		return t, nil
	case ComponentContext:
		return &t, nil
	case map[string]interface{}:
		cc := &ComponentContext{}
		for k, raw := range t {
			switch k {
			case NameField:
				name, ok := raw.(string)
				if !ok {
					return nil, fmt.Errorf("Component name must be a string, got %T", raw)
				}
				cc.Name = name
			case ParametersField:
				if raw == nil {
					continue
				}
				params, err := cast.ToStringMapE(raw)
				if err != nil {
					return nil, fmt.Errorf("Component parameters must be an object, got %T", raw)
				}
				cc.Parameters = params
			default:
				return nil, fmt.Errorf("Invalid parameter for component: %s", k)
			}
		}
		return cc, nil
	}
	return nil, fmt.Errorf("Unable to parse component context from %T", v)
}

// LegacySettings are the index level algorithm settings that predate
// per-field method definitions.
type LegacySettings struct {
	M              int    `toml:"m,omitempty" json:"m"`
	EfConstruction int    `toml:"ef_construction,omitempty" json:"ef_construction"`
	SpaceType      string `toml:"space_type,omitempty" json:"space_type"`
}
