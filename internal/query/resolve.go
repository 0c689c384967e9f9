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
	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
)

// ResolvedQuery is a knn query with every value checked and converted for
// the field's index.
type ResolvedQuery struct {
	Field            string                  `json:"field"`
	Type             string                  `json:"type"`
	K                int                     `json:"k,omitempty"`
	Radius           *float32                `json:"radius,omitempty"`
	MethodParameters map[string]interface{}  `json:"method_parameters,omitempty"`
	Rescore          resolver.RescoreContext `json:"rescore"`
	FloatVector      []float32               `json:"float_vector,omitempty"`
	ByteVector       []byte                  `json:"byte_vector,omitempty"`
	Filter           interface{}             `json:"filter,omitempty"`
}

// Resolve runs q through the search resolver of cfg.
func Resolve(cfg *resolver.IndexConfig, q *KnnQuery) (*ResolvedQuery, error) {
	sr := cfg.SearchResolver()
	ctx := resolver.QueryContext{Type: q.Type()}

	params, err := sr.ResolveMethodParameters(ctx, q.MethodParameters)
	if err != nil {
		return nil, err
	}
	radius, err := sr.ResolveRadius(ctx, q.MaxDistance, q.MinScore)
	if err != nil {
		return nil, err
	}
	filter, err := sr.ResolveFilter(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	out := &ResolvedQuery{
		Field:            q.Field,
		Type:             ctx.Type.String(),
		K:                q.K,
		Radius:           radius,
		MethodParameters: params,
		Rescore:          sr.ResolveRescoreContext(ctx, q.Rescore),
		Filter:           filter,
	}

	if cfg.VectorDataType != entity.VectorDataTypeFloat {
		if out.ByteVector, err = sr.ResolveByteQueryVector(ctx, q.Vector); err != nil {
			return nil, err
		}
		if out.ByteVector != nil {
			return out, nil
		}
	}
	if out.FloatVector, err = sr.ResolveFloatQueryVector(ctx, q.Vector); err != nil {
		return nil, err
	}
	return out, nil
}
