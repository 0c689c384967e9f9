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

package query

import (
	"fmt"

	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/valyala/fastjson"
)

const (
	MaxK                = 10000
	MinOversampleFactor = 1.0
	MaxOversampleFactor = 100.0
)

// KnnQuery is a parsed knn clause for one field.
type KnnQuery struct {
	Field            string
	Vector           []float32
	K                int
	MaxDistance      *float32
	MinScore         *float32
	MethodParameters map[string]interface{}
	// Rescore is nil when the query leaves rescoring to the index default.
	Rescore *resolver.RescoreContext
	Filter  interface{}
}

// Type reports which of k, max_distance or min_score the query uses.
func (q *KnnQuery) Type() resolver.QueryType {
	switch {
	case q.MaxDistance != nil:
		return resolver.QueryMaxDistance
	case q.MinScore != nil:
		return resolver.QueryMinScore
	}
	return resolver.QueryK
}

// Parse reads {"query": {"knn": {field: {...}}}}, {"knn": {field: {...}}}
// or a bare clause, in which case field must be given.
func Parse(data []byte, field string) (*KnnQuery, error) {
	var fast fastjson.Parser
	v, err := fast.ParseBytes(data)
	if err != nil {
		log.Warnf("knn query is not valid json, err: %s", err.Error())
		return nil, errors.CodecError("parse knn query", err)
	}
	if q := v.Get("query"); q != nil {
		v = q
	}
	if knn := v.Get("knn"); knn != nil {
		obj, err := knn.Object()
		if err != nil || obj.Len() != 1 {
			return nil, errors.NewValidationError("[knn] must be an object with exactly one field")
		}
		var clause *fastjson.Value
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if field == "" {
				field = string(key)
			}
			if string(key) == field {
				clause = val
			}
		})
		if clause == nil {
			return nil, errors.NewValidationError(fmt.Sprintf("[knn] has no clause for field [%s]", field))
		}
		v = clause
	}
	if field == "" {
		return nil, errors.MissingParam("field")
	}
	return parseClause(field, v)
}

func parseClause(field string, v *fastjson.Value) (*KnnQuery, error) {
	obj, err := v.Object()
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("[knn] clause must be an object but received %s", v.Type().String()))
	}
	q := &KnnQuery{Field: field}
	ve := errors.NewValidationError()

	obj.Visit(func(key []byte, val *fastjson.Value) {
		switch name := string(key); name {
		case "vector":
			arr, err := val.Array()
			if err != nil {
				ve.Append("[knn] vector must be an array of numbers")
				return
			}
			q.Vector = make([]float32, len(arr))
			for i, e := range arr {
				f, err := e.Float64()
				if err != nil {
					ve.Append("[knn] vector must be an array of numbers")
					return
				}
				q.Vector[i] = float32(f)
			}
		case "k":
			k, err := val.Int()
			if err != nil {
				ve.Append("[knn] k must be an integer")
				return
			}
			q.K = k
		case "max_distance":
			f, err := val.Float64()
			if err != nil {
				ve.Append("[knn] max_distance must be a number")
				return
			}
			d := float32(f)
			q.MaxDistance = &d
		case "min_score":
			f, err := val.Float64()
			if err != nil {
				ve.Append("[knn] min_score must be a number")
				return
			}
			s := float32(f)
			q.MinScore = &s
		case "method_parameters":
			m, ok := toInterface(val).(map[string]interface{})
			if !ok {
				ve.Append("[knn] method_parameters must be an object")
				return
			}
			q.MethodParameters = m
		case "rescore":
			rc, err := parseRescore(val)
			if err != nil {
				ve.Append(err.Error())
				return
			}
			q.Rescore = rc
		case "filter":
			q.Filter = toInterface(val)
		default:
			ve.Append(fmt.Sprintf("[knn] unknown token [%s]", name))
		}
	})
	if err := ve.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *KnnQuery) validate() error {
	if len(q.Vector) == 0 {
		return errors.NewValidationError("[knn] requires query vector")
	}
	set := 0
	if q.K != 0 {
		set++
	}
	if q.MaxDistance != nil {
		set++
	}
	if q.MinScore != nil {
		set++
	}
	if set != 1 {
		return errors.NewValidationError("[knn] requires exactly one of k, distance or score to be set")
	}
	if q.K != 0 && (q.K < 0 || q.K > MaxK) {
		return errors.NewValidationError(fmt.Sprintf("[knn] requires k to be in the range (0, %d]", MaxK))
	}
	return nil
}

// parseRescore accepts true, false or {"oversample_factor": f}. true leaves
// the choice to the index default.
func parseRescore(v *fastjson.Value) (*resolver.RescoreContext, error) {
	switch v.Type() {
	case fastjson.TypeTrue:
		return nil, nil
	case fastjson.TypeFalse:
		return &resolver.RescoreContext{}, nil
	case fastjson.TypeObject:
		f := v.GetFloat64("oversample_factor")
		if f < MinOversampleFactor || f > MaxOversampleFactor {
			return nil, fmt.Errorf("Oversample factor [%v] must be in the range [%.1f, %.1f]", f, MinOversampleFactor, MaxOversampleFactor)
		}
		return &resolver.RescoreContext{Enabled: true, OversampleFactor: float32(f)}, nil
	}
	return nil, fmt.Errorf("[knn] rescore must be a boolean or an object")
}

// toInterface converts a fastjson value to the shapes encoding/json
// produces, keeping integral numbers as int.
func toInterface(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		m := make(map[string]interface{}, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = toInterface(val)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			out[i] = toInterface(e)
		}
		return out
	case fastjson.TypeNumber:
		if i, err := v.Int(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
