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

package resolver

import (
	"fmt"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type QueryType int

const (
	QueryK QueryType = iota
	QueryMaxDistance
	QueryMinScore
)

func (t QueryType) String() string {
	switch t {
	case QueryMaxDistance:
		return "max_distance"
	case QueryMinScore:
		return "min_score"
	}
	return "k"
}

// QueryContext describes the query being resolved.
type QueryContext struct {
	Type QueryType
}

func (q QueryContext) IsRadial() bool {
	return q.Type == QueryMaxDistance || q.Type == QueryMinScore
}

// RescoreContext controls the full precision second pass over
// oversampled quantized results.
type RescoreContext struct {
	Enabled          bool    `json:"enabled"`
	OversampleFactor float32 `json:"oversample_factor,omitempty"`
}

var RescoreDisabled = RescoreContext{}

// SearchResolver turns raw query inputs into values the index can execute.
type SearchResolver interface {
	ResolveMethodParameters(ctx QueryContext, params map[string]interface{}) (map[string]interface{}, error)
	ResolveRescoreContext(ctx QueryContext, user *RescoreContext) RescoreContext
	ResolveRadius(ctx QueryContext, maxDistance, minScore *float32) (*float32, error)
	ResolveFloatQueryVector(ctx QueryContext, v []float32) ([]float32, error)
	ResolveByteQueryVector(ctx QueryContext, v []float32) ([]byte, error)
	ResolveFilter(ctx QueryContext, filter interface{}) (interface{}, error)
}

// SearchPolicy is one layer of query time behavior. A nil hook defers to
// the layers registered before it, and finally to the engine defaults.
type SearchPolicy struct {
	Name             string
	MethodParameters func(ctx QueryContext, params map[string]interface{}) (map[string]interface{}, error)
	DefaultRescore   func(ctx QueryContext) *RescoreContext
	Radius           func(ctx QueryContext, maxDistance, minScore *float32) (*float32, error)
	Filter           func(ctx QueryContext, filter interface{}) (interface{}, error)
}

// SearchChain answers each SearchResolver call with the last registered
// policy that sets the matching hook, falling back to the engine defaults.
type SearchChain struct {
	cfg      *IndexConfig
	lib      *Library
	policies []SearchPolicy
}

func newSearchChain(cfg *IndexConfig, lib *Library, policies []SearchPolicy) *SearchChain {
	return &SearchChain{cfg: cfg, lib: lib, policies: policies}
}

// Policies lists the registered layer names, innermost first.
func (s *SearchChain) Policies() []string {
	names := make([]string, 0, len(s.policies))
	for _, p := range s.policies {
		names = append(names, p.Name)
	}
	return names
}

func (s *SearchChain) ResolveMethodParameters(ctx QueryContext, params map[string]interface{}) (map[string]interface{}, error) {
	for i := len(s.policies) - 1; i >= 0; i-- {
		if fn := s.policies[i].MethodParameters; fn != nil {
			return fn(ctx, params)
		}
	}
	if len(params) == 0 {
		return nil, nil
	}
	keys := maps.Keys(params)
	slices.Sort(keys)
	ve := errors.NewValidationError()
	for _, k := range keys {
		ve.Append(fmt.Sprintf("Unknown parameter '%s'", k))
	}
	return nil, ve
}

func (s *SearchChain) ResolveRescoreContext(ctx QueryContext, user *RescoreContext) RescoreContext {
	if user != nil {
		return *user
	}
	for i := len(s.policies) - 1; i >= 0; i-- {
		if fn := s.policies[i].DefaultRescore; fn != nil {
			if rc := fn(ctx); rc != nil {
				return *rc
			}
			return RescoreDisabled
		}
	}
	return RescoreDisabled
}

func (s *SearchChain) ResolveRadius(ctx QueryContext, maxDistance, minScore *float32) (*float32, error) {
	for i := len(s.policies) - 1; i >= 0; i-- {
		if fn := s.policies[i].Radius; fn != nil {
			return fn(ctx, maxDistance, minScore)
		}
	}
	return s.defaultRadius(ctx, maxDistance, minScore)
}

func (s *SearchChain) defaultRadius(ctx QueryContext, maxDistance, minScore *float32) (*float32, error) {
	if !ctx.IsRadial() {
		return nil, nil
	}
	if s.cfg.VectorDataType == entity.VectorDataTypeBinary {
		return nil, errors.Unsupported("Binary data type does not support radial search")
	}
	if !s.lib.SupportsRadial() {
		return nil, errors.Unsupported("Engine [%s] does not support radial search", s.lib.Engine)
	}

	space := s.cfg.SpaceType
	var threshold float32
	switch ctx.Type {
	case QueryMaxDistance:
		if maxDistance == nil {
			return nil, errors.NewValidationError("[max_distance] must be set for a max_distance query")
		}
		if *maxDistance < 0 && space != entity.SpaceInnerProduct {
			return nil, errors.NewValidationError(fmt.Sprintf("max_distance must be greater than or equal to 0 when space type is %s", space))
		}
		threshold = s.lib.DistanceToThreshold(*maxDistance, space)
	case QueryMinScore:
		if minScore == nil {
			return nil, errors.NewValidationError("[min_score] must be set for a min_score query")
		}
		if *minScore < 0 || (*minScore > 1 && space != entity.SpaceInnerProduct) {
			return nil, errors.NewValidationError("score must be in [0,1]")
		}
		t, err := s.lib.ScoreToThreshold(*minScore, space)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		threshold = t
	}
	return &threshold, nil
}

func (s *SearchChain) ResolveFloatQueryVector(_ QueryContext, v []float32) ([]float32, error) {
	if err := s.cfg.vectorValidator.Validate(v); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	out := make([]float32, len(v))
	for i, x := range v {
		if err := s.cfg.dimensionValidator.Validate(x); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		out[i] = s.cfg.dimensionProcessor.Process(x)
	}
	return out, nil
}

// ResolveByteQueryVector converts a query vector for byte and binary fields.
// Byte fields on engines other than lucene are only checked; those engines
// take the float form, so the result is nil.
func (s *SearchChain) ResolveByteQueryVector(_ QueryContext, v []float32) ([]byte, error) {
	var check PerDimensionValidator
	switch s.cfg.VectorDataType {
	case entity.VectorDataTypeBinary:
		check = BinaryDimensionValidator
	case entity.VectorDataTypeByte:
		check = ByteDimensionValidator
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("Byte query vectors are not supported for [%s] data type", s.cfg.VectorDataType))
	}
	if err := s.cfg.vectorValidator.Validate(v); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	out := make([]byte, len(v))
	for i, x := range v {
		if err := check.Validate(x); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		out[i] = byte(int8(x))
	}
	if s.cfg.VectorDataType == entity.VectorDataTypeByte && s.lib.Engine != entity.EngineLucene {
		return nil, nil
	}
	return out, nil
}

func (s *SearchChain) ResolveFilter(ctx QueryContext, filter interface{}) (interface{}, error) {
	for i := len(s.policies) - 1; i >= 0; i-- {
		if fn := s.policies[i].Filter; fn != nil {
			return fn(ctx, filter)
		}
	}
	if filter != nil && s.lib.CreatesCustomSegmentFiles() && !s.lib.SupportsFilters() {
		return nil, errors.Unsupported("Engine [%s] does not support filters", s.lib.Engine)
	}
	return filter, nil
}

// methodParameterPolicy accepts only the whitelisted query time parameters,
// checked with the same schema used at index time.
func methodParameterPolicy(name string, allowed ...*Parameter) SearchPolicy {
	return SearchPolicy{
		Name: name,
		MethodParameters: func(ctx QueryContext, params map[string]interface{}) (map[string]interface{}, error) {
			if len(params) == 0 {
				return nil, nil
			}
			if ctx.IsRadial() {
				return nil, errors.NewValidationError("Radial search does not support any parameters")
			}
			keys := maps.Keys(params)
			slices.Sort(keys)
			ve := errors.NewValidationError()
			out := make(map[string]interface{}, len(params))
			for _, k := range keys {
				var p *Parameter
				for _, a := range allowed {
					if a.Name == k {
						p = a
					}
				}
				if p == nil {
					ve.Append(fmt.Sprintf("Unknown parameter '%s'", k))
					continue
				}
				v, msg, err := p.Validate(params[k], nil)
				if err != nil {
					ve.Append(err.Error())
					continue
				}
				if msg != "" {
					ve.Append(msg)
					continue
				}
				out[k] = v
			}
			if err := ve.ErrorOrNil(); err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// rescorePolicy supplies the oversampling default for quantized indices.
func rescorePolicy(bits int) SearchPolicy {
	var factor float32
	switch bits {
	case 1:
		factor = 5
	case 2:
		factor = 3
	case 4:
		factor = 1.5
	}
	return SearchPolicy{
		Name: fmt.Sprintf("rescore_%dbit", bits),
		DefaultRescore: func(QueryContext) *RescoreContext {
			if factor == 0 {
				return nil
			}
			return &RescoreContext{Enabled: true, OversampleFactor: factor}
		},
	}
}
