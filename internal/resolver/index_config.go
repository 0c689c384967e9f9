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
	"encoding/hex"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/vjson"
	"github.com/spaolacci/murmur3"
)

// IndexConfig is the immutable result of resolving a vector field.
type IndexConfig struct {
	Name                  string                  `json:"name,omitempty"`
	Dimension             int                     `json:"dimension"`
	VectorDataType        entity.VectorDataType   `json:"data_type"`
	LibraryVectorDataType entity.VectorDataType   `json:"library_data_type"`
	SpaceType             entity.SpaceType        `json:"space_type"`
	Engine                entity.Engine           `json:"engine"`
	Method                MethodKind              `json:"method"`
	Mode                  entity.WorkloadMode     `json:"mode"`
	Compression           entity.CompressionLevel `json:"compression_level"`
	CreatedVersion        string                  `json:"created_version"`
	Quantization          entity.QuantizationType `json:"quantization"`
	TrainingRequired      bool                    `json:"training_required"`
	EstimatedOverheadKB   int                     `json:"estimated_overhead_kb"`
	Descriptor            string                  `json:"index_description,omitempty"`

	parameters         map[string]interface{}
	vectorValidator    VectorValidator
	dimensionValidator PerDimensionValidator
	dimensionProcessor PerDimensionProcessor
	search             *SearchChain
}

// WithName returns a copy of the config bound to another field. The
// resolved state is shared.
func (c *IndexConfig) WithName(name string) *IndexConfig {
	out := *c
	out.Name = name
	return &out
}

// Parameters returns a copy of the resolved library parameter tree.
func (c *IndexConfig) Parameters() map[string]interface{} {
	return deepCopy(c.parameters)
}

func (c *IndexConfig) SearchResolver() SearchResolver {
	return c.search
}

func (c *IndexConfig) SearchPolicies() []string {
	return c.search.Policies()
}

func (c *IndexConfig) VectorValidator() VectorValidator {
	return c.vectorValidator
}

func (c *IndexConfig) PerDimensionValidator() PerDimensionValidator {
	return c.dimensionValidator
}

func (c *IndexConfig) PerDimensionProcessor() PerDimensionProcessor {
	return c.dimensionProcessor
}

// PrepareVector validates a document vector and applies the per dimension
// processor, returning the vector to index.
func (c *IndexConfig) PrepareVector(v []float32) ([]float32, error) {
	if err := c.vectorValidator.Validate(v); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	out := make([]float32, len(v))
	for i, x := range v {
		if err := c.dimensionValidator.Validate(x); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		out[i] = c.dimensionProcessor.Process(x)
	}
	return out, nil
}

// Fingerprint hashes everything that determines the native index layout.
// Equal inputs always yield equal fingerprints.
func (c *IndexConfig) Fingerprint() (string, error) {
	data, err := vjson.MarshalCanonical(map[string]interface{}{
		"dimension":         c.Dimension,
		"data_type":         c.VectorDataType,
		"library_data_type": c.LibraryVectorDataType,
		"space_type":        c.SpaceType,
		"engine":            c.Engine,
		"quantization":      c.Quantization,
		"parameters":        c.parameters,
	})
	if err != nil {
		return "", errors.CodecError("fingerprint", err)
	}
	h1, h2 := murmur3.Sum128(data)
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(h1 >> (56 - 8*i))
		buf[8+i] = byte(h2 >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:]), nil
}

// MarshalJSON includes the parameter tree next to the exported fields.
func (c *IndexConfig) MarshalJSON() ([]byte, error) {
	type plain IndexConfig
	return vjson.MarshalCanonical(struct {
		*plain
		Parameters map[string]interface{} `json:"parameters"`
	}{plain: (*plain)(c), Parameters: c.parameters})
}
