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
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
)

// Resolver turns field specs into index configs. It holds only limits and
// defaults, so one instance can serve concurrent callers.
type Resolver struct {
	maxDimensions  map[entity.Engine]int
	defaultVersion string
}

type Option func(*Resolver)

// WithMaxDimension overrides the dimension limit of one engine.
func WithMaxDimension(e entity.Engine, n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDimensions[e] = n
		}
	}
}

// WithDefaultVersion sets the created version assumed when a field has none.
func WithDefaultVersion(v string) Option {
	return func(r *Resolver) {
		if nv := NormalizeVersion(v); nv != "" {
			r.defaultVersion = nv
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{maxDimensions: map[entity.Engine]int{}, defaultVersion: CurrentVersion}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = New()

// Resolve resolves field with the default limits.
func Resolve(field entity.FieldSpec, shouldTrain bool, legacy *entity.LegacySettings) (*IndexConfig, error) {
	return defaultResolver.Resolve(field, shouldTrain, legacy)
}

func fatal(msg string) error {
	ve := errors.NewValidationError(msg)
	ve.Fatal = true
	return ve
}

func fatalf(format string, args ...interface{}) error {
	return fatal(fmt.Sprintf(format, args...))
}

// Resolve applies defaults to field, validates the method tree against the
// selected engine and builds the index config. shouldTrain states whether
// the caller is about to train a model. legacy carries the index level
// settings used when the field names no method.
func (r *Resolver) Resolve(field entity.FieldSpec, shouldTrain bool, legacy *entity.LegacySettings) (*IndexConfig, error) {
	if field.ModelID != "" {
		if field.Method != nil {
			return nil, fatalf("Method and model can not be both specified in the mapping: %s", field.Name)
		}
		return nil, errors.Unsupported("field [%s] is backed by model [%s] and takes its configuration from the model", field.Name, field.ModelID)
	}
	if field.Dimension == 0 {
		return nil, fatalf("Dimension cannot be null")
	}
	if field.Dimension < 0 {
		return nil, fatalf("Dimension value must be greater than 0 for vector: %s", field.Name)
	}

	dt, err := entity.ParseVectorDataType(field.VectorDataType)
	if err != nil {
		return nil, fatal(err.Error())
	}
	mode, err := entity.ParseWorkloadMode(field.Mode)
	if err != nil {
		return nil, fatal(err.Error())
	}
	compression, err := entity.ParseCompressionLevel(field.CompressionLevel)
	if err != nil {
		return nil, fatal(err.Error())
	}

	method := field.Method
	engineName, spaceName := field.Engine, field.SpaceType
	if method == nil && dt == entity.VectorDataTypeFloat && mode.IsDefault() && compression.IsDefault() && legacy != nil {
		method = legacyMethod(legacy)
		if engineName == "" {
			engineName = string(entity.DefaultEngine)
		}
		if spaceName == "" {
			spaceName = legacy.SpaceType
		}
		log.Debugf("field [%s] has no method, using legacy index settings %+v", field.Name, *legacy)
	}

	space := entity.DefaultSpace
	if spaceName != "" {
		if space, err = entity.ParseSpaceType(spaceName); err != nil {
			return nil, fatal(err.Error())
		}
	} else if dt == entity.VectorDataTypeBinary {
		space = entity.DefaultBinarySpace
	}

	if dt == entity.VectorDataTypeBinary && field.Dimension%8 != 0 {
		return nil, fatalf("Dimension should be multiply of 8 for binary vector data type")
	}

	engine := entity.DefaultEngine
	if engineName != "" {
		if engine, err = entity.ParseEngine(engineName); err != nil {
			return nil, fatal(err.Error())
		}
	} else if dt != entity.VectorDataTypeFloat || !mode.IsDefault() || !compression.IsDefault() {
		engine = entity.TrainingEngine
	}

	version := r.defaultVersion
	if field.CreatedVersion != "" {
		if version = NormalizeVersion(field.CreatedVersion); version == "" {
			return nil, fatalf("Invalid created version: %s", field.CreatedVersion)
		}
	}

	lib, ok := LibraryFor(engine)
	if !ok {
		return nil, fatalf("Invalid engine type: %s", engine)
	}

	b := NewBuilder(field.Dimension, dt, space, engine, mode, compression)
	b.name = field.Name
	b.version = version

	if max := r.maxDimension(lib, version); field.Dimension > max {
		b.AddMessage(fmt.Sprintf("Dimension value cannot be greater than %d for vector with engine: %s", max, engine))
	}
	b.AddMessage(space.CheckVectorDataType(dt))

	if method == nil {
		method = &entity.ComponentContext{}
	}
	methodName := method.Name
	if methodName == "" {
		if method.HasParameters() {
			return nil, b.Fatal("Invalid configuration. Need to specify the name")
		}
		methodName = string(MethodHNSW)
	}
	m, ok := lib.Method(methodName)
	if !ok {
		return nil, b.Fatal(fmt.Sprintf("Invalid method name: %s for engine: %s", methodName, engine))
	}
	if !m.SupportsSpace(space) {
		b.AddMessage(fmt.Sprintf("\"%s\" with \"%s\" configuration does not support space type: \"%s\".", engine, methodName, space))
	}
	log.Debugf("field [%s] resolving engine [%s] method [%s] space [%s] data type [%s]", field.Name, engine, methodName, space, dt)

	b.AddSearchPolicy(m.Policy)
	tree, err := m.Component.Resolve(method, b)
	if err != nil {
		return nil, err
	}
	tree[SpaceTypeField] = string(space)

	b.trainingRequired = IsTrainingRequired(m.Component, tree)
	if shouldTrain && !b.trainingRequired {
		b.AddMessage("Provided method does not require training, when it should")
	} else if !shouldTrain && b.trainingRequired {
		b.AddMessage("Provided method requires training, but should not.")
	}
	b.overheadKB = EstimateOverhead(m.Component, tree, field.Dimension)

	if err := m.Component.Finish(b, tree); err != nil {
		return nil, err
	}
	if b.LibraryVectorDataType() != entity.VectorDataTypeFloat {
		tree[VectorDataTypeField] = string(b.LibraryVectorDataType())
	}
	return b.Build(lib, m.Kind, tree)
}

func (r *Resolver) maxDimension(lib *Library, version string) int {
	if n, ok := r.maxDimensions[lib.Engine]; ok {
		return n
	}
	return lib.MaxDimension(version)
}

func legacyMethod(legacy *entity.LegacySettings) *entity.ComponentContext {
	params := map[string]interface{}{}
	if legacy.M > 0 {
		params[ParamM] = legacy.M
	}
	if legacy.EfConstruction > 0 {
		params[ParamEfConstruction] = legacy.EfConstruction
	}
	return &entity.ComponentContext{Name: string(MethodHNSW), Parameters: params}
}
