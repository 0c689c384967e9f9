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

package mapping

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/vjson"
	"github.com/spf13/cast"
	"golang.org/x/exp/slices"
)

const (
	TypeKnnVector = "knn_vector"

	SettingM              = "index.knn.algo_param.m"
	SettingEfConstruction = "index.knn.algo_param.ef_construction"
	SettingSpaceType      = "index.knn.space_type"
	SettingCreatedVersion = "index.version.created"
)

const invalidFieldChars = `\/*?"<>| ,#`

var (
	fieldKeys  = []string{"type", "dimension", "data_type", "space_type", "mode", "compression_level", "model_id", "method", "doc_values", "store"}
	methodKeys = []string{"name", "engine", "space_type", "parameters"}
)

// Settings are the index level values that apply to every field.
type Settings struct {
	Legacy         *entity.LegacySettings
	CreatedVersion string
}

// ParseSettings reads flat or nested index settings. Both
// {"index.knn.space_type": "l1"} and {"index": {"knn": {"space_type": "l1"}}}
// are accepted.
func ParseSettings(raw vjson.JsonMap) (*Settings, error) {
	flat := map[string]interface{}{}
	flatten("", raw, flat)

	s := &Settings{CreatedVersion: cast.ToString(flat[SettingCreatedVersion])}
	legacy := &entity.LegacySettings{SpaceType: cast.ToString(flat[SettingSpaceType])}
	var err error
	if v, ok := flat[SettingM]; ok {
		if legacy.M, err = cast.ToIntE(v); err != nil || legacy.M <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("Failed to parse value [%v] for setting [%s]", v, SettingM))
		}
	}
	if v, ok := flat[SettingEfConstruction]; ok {
		if legacy.EfConstruction, err = cast.ToIntE(v); err != nil || legacy.EfConstruction <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("Failed to parse value [%v] for setting [%s]", v, SettingEfConstruction))
		}
	}
	if legacy.M != 0 || legacy.EfConstruction != 0 || legacy.SpaceType != "" {
		s.Legacy = legacy
	}
	return s, nil
}

func flatten(prefix string, m map[string]interface{}, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]interface{}); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// ParseField turns one knn_vector field definition into a FieldSpec.
func ParseField(name string, raw vjson.JsonMap) (entity.FieldSpec, error) {
	field := entity.FieldSpec{Name: name}
	if err := validateFieldName(name); err != nil {
		return field, err
	}
	if t := raw.GetString("type"); t != TypeKnnVector {
		return field, errors.NewValidationError(fmt.Sprintf("field [%s] is of type [%s], not [%s]", name, t, TypeKnnVector))
	}
	for k := range raw {
		if !slices.Contains(fieldKeys, k) {
			return field, errors.NewValidationError(fmt.Sprintf("unknown parameter [%s] on mapper [%s] of type [%s]", k, name, TypeKnnVector))
		}
	}

	if raw.Has("dimension") && raw["dimension"] != nil {
		dim, err := parseDimension(raw["dimension"])
		if err != nil {
			return field, errors.NewValidationError(fmt.Sprintf("Unable to parse [dimension] from provided value [%v] for vector [%s]", raw["dimension"], name))
		}
		if dim <= 0 {
			return field, errors.NewValidationError(fmt.Sprintf("Dimension value must be greater than 0 for vector: %s", name))
		}
		field.Dimension = dim
	}
	field.VectorDataType = raw.GetString("data_type")
	field.SpaceType = raw.GetString("space_type")
	field.Mode = raw.GetString("mode")
	field.CompressionLevel = raw.GetString("compression_level")
	field.ModelID = raw.GetString("model_id")

	if raw.Has("method") && raw["method"] != nil {
		method := raw.GetJsonMap("method")
		if method == nil {
			return field, errors.NewValidationError(fmt.Sprintf("[method] of field [%s] must be an object", name))
		}
		for k := range method {
			if !slices.Contains(methodKeys, k) {
				return field, errors.NewValidationError(fmt.Sprintf("Invalid parameter for method of field [%s]: %s", name, k))
			}
		}
		field.Engine = method.GetString("engine")
		if s := method.GetString("space_type"); s != "" {
			if field.SpaceType != "" && field.SpaceType != s {
				return field, errors.NewValidationError(fmt.Sprintf(
					"Space type in \"method\" and top level space type should be same or one of them should be defined for field [%s]", name))
			}
			field.SpaceType = s
		}
		ctx := map[string]interface{}{}
		for _, k := range []string{entity.NameField, entity.ParametersField} {
			if v, ok := method[k]; ok {
				ctx[k] = v
			}
		}
		cc, err := entity.ParseComponentContext(ctx)
		if err != nil {
			return field, errors.NewValidationError(err.Error())
		}
		field.Method = cc
	}

	if field.ModelID == "" && field.Dimension == 0 {
		return field, errors.NewValidationError("Dimension cannot be null")
	}
	return field, nil
}

func parseDimension(v interface{}) (int, error) {
	if f, ok := v.(float64); ok {
		if math.Trunc(f) != f || math.Abs(f) > math.MaxInt32 {
			return 0, fmt.Errorf("not an integer: %v", f)
		}
		return int(f), nil
	}
	return cast.ToIntE(v)
}

func validateFieldName(name string) error {
	if i := strings.IndexAny(name, invalidFieldChars); i >= 0 {
		return errors.NewValidationError(fmt.Sprintf(
			"Vector field name must not include invalid characters of %q. Provided field name=[%s] had a disallowed character [%c]",
			invalidFieldChars, name, name[i]))
	}
	return nil
}

// ParseMapping walks the properties of a mapping, descending into object
// fields, and returns every knn_vector field in name order. The document may
// be a bare mapping, {"mappings": ...} or a full index body with
// "settings".
func ParseMapping(data []byte) ([]entity.FieldSpec, *Settings, error) {
	root, err := vjson.ByteToJsonMap(data)
	if err != nil {
		return nil, nil, errors.CodecError("parse mapping", err)
	}
	settings, err := ParseSettings(root.GetJsonMap("settings"))
	if err != nil {
		return nil, nil, err
	}
	mappings := root
	if m := root.GetJsonMap("mappings"); m != nil {
		mappings = m
	}
	props := mappings.GetJsonMap("properties")
	if props == nil {
		return nil, nil, errors.MissingParam("properties")
	}

	var fields []entity.FieldSpec
	if err := walkProperties("", props, func(name string, raw vjson.JsonMap) error {
		field, err := ParseField(name, raw)
		if err != nil {
			return err
		}
		if field.CreatedVersion == "" {
			field.CreatedVersion = settings.CreatedVersion
		}
		fields = append(fields, field)
		return nil
	}); err != nil {
		return nil, nil, err
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, settings, nil
}

func walkProperties(prefix string, props vjson.JsonMap, fn func(name string, raw vjson.JsonMap) error) error {
	for name := range props {
		def := props.GetJsonMap(name)
		if def == nil {
			continue
		}
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		if def.GetString("type") == TypeKnnVector {
			if err := fn(full, def); err != nil {
				return err
			}
			continue
		}
		if sub := def.GetJsonMap("properties"); sub != nil {
			if err := walkProperties(full, sub, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

