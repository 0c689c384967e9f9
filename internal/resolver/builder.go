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
	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"golang.org/x/exp/slices"
)

// Builder carries the required top level values while a method tree is
// resolved, and collects validation messages and derived settings. Derived
// settings are last write wins.
type Builder struct {
	name           string
	dimension      int
	vectorDataType entity.VectorDataType
	space          entity.SpaceType
	engine         entity.Engine
	mode           entity.WorkloadMode
	compression    entity.CompressionLevel
	version        string

	messages *errors.ValidationError

	libraryDataType    entity.VectorDataType
	dimensionValidator PerDimensionValidator
	dimensionProcessor PerDimensionProcessor
	quantization       entity.QuantizationType
	policies           []SearchPolicy
	overheadKB         int
	trainingRequired   bool
}

// NewBuilder starts a builder for one field. Derived settings begin at the
// defaults of the data type.
func NewBuilder(dimension int, dt entity.VectorDataType, space entity.SpaceType, engine entity.Engine,
	mode entity.WorkloadMode, compression entity.CompressionLevel) *Builder {
	return &Builder{
		dimension:          dimension,
		vectorDataType:     dt,
		space:              space,
		engine:             engine,
		mode:               mode,
		compression:        compression,
		messages:           errors.NewValidationError(),
		libraryDataType:    dt,
		dimensionValidator: DimensionValidatorFor(dt),
		dimensionProcessor: NoopProcessor,
		quantization:       entity.QuantizationNone,
	}
}

func (b *Builder) Dimension() int                            { return b.dimension }
func (b *Builder) VectorDataType() entity.VectorDataType      { return b.vectorDataType }
func (b *Builder) SpaceType() entity.SpaceType                { return b.space }
func (b *Builder) Engine() entity.Engine                      { return b.engine }
func (b *Builder) Mode() entity.WorkloadMode                  { return b.mode }
func (b *Builder) Compression() entity.CompressionLevel       { return b.compression }
func (b *Builder) LibraryVectorDataType() entity.VectorDataType { return b.libraryDataType }
func (b *Builder) Quantization() entity.QuantizationType      { return b.quantization }

func (b *Builder) SetLibraryVectorDataType(dt entity.VectorDataType) {
	b.libraryDataType = dt
}

func (b *Builder) SetPerDimensionValidator(v PerDimensionValidator) {
	b.dimensionValidator = v
}

func (b *Builder) SetPerDimensionProcessor(p PerDimensionProcessor) {
	b.dimensionProcessor = p
}

func (b *Builder) SetQuantization(q entity.QuantizationType) {
	b.quantization = q
}

// AddSearchPolicy appends a query time policy layer. Later layers take
// precedence over earlier ones for the hooks they set.
func (b *Builder) AddSearchPolicy(p SearchPolicy) {
	b.policies = append(b.policies, p)
}

func (b *Builder) AddMessage(msg string) {
	b.messages.Append(msg)
}

func (b *Builder) HasMessages() bool {
	return len(b.messages.Messages) > 0
}

// Fatal records msg and returns the error that aborts resolution, carrying
// every message seen so far.
func (b *Builder) Fatal(msg string) error {
	b.messages.Append(msg)
	ve := b.sortedMessages()
	ve.Fatal = true
	return ve
}

func (b *Builder) sortedMessages() *errors.ValidationError {
	msgs := slices.Clone(b.messages.Messages)
	slices.Sort(msgs)
	return &errors.ValidationError{Messages: msgs}
}

// Build freezes the builder into an IndexConfig, or fails with every
// accumulated message.
func (b *Builder) Build(lib *Library, method MethodKind, tree Tree) (*IndexConfig, error) {
	if b.HasMessages() {
		return nil, b.sortedMessages()
	}
	desc, _ := tree[IndexDescriptionField].(string)
	cfg := &IndexConfig{
		Name:                  b.name,
		Dimension:             b.dimension,
		VectorDataType:        b.vectorDataType,
		LibraryVectorDataType: b.libraryDataType,
		SpaceType:             b.space,
		Engine:                b.engine,
		Method:                method,
		Mode:                  b.mode,
		Compression:           b.compression,
		CreatedVersion:        b.version,
		Quantization:          b.quantization,
		TrainingRequired:      b.trainingRequired,
		EstimatedOverheadKB:   b.overheadKB,
		Descriptor:            desc,
		parameters:            deepCopy(tree),
		vectorValidator:       NewVectorValidator(b.dimension, b.vectorDataType, b.space),
		dimensionValidator:    b.dimensionValidator,
		dimensionProcessor:    b.dimensionProcessor,
	}
	cfg.search = newSearchChain(cfg, lib, slices.Clone(b.policies))
	return cfg, nil
}

func deepCopy(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]interface{}); ok {
			out[k] = deepCopy(sub)
			continue
		}
		out[k] = v
	}
	return out
}
