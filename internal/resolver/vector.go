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
	"math"

	"github.com/jmazanec15/k-NN-1/internal/entity"
)

const (
	fp16Max = 65504.0
	fp16Min = -65504.0

	byteMax = 127
	byteMin = -128
)

// PerDimensionValidator checks a single vector element.
type PerDimensionValidator struct {
	name  string
	check func(v float32) error
}

func (p PerDimensionValidator) Name() string {
	return p.name
}

func (p PerDimensionValidator) Validate(v float32) error {
	if p.check == nil {
		return nil
	}
	return p.check(v)
}

var (
	FloatDimensionValidator = PerDimensionValidator{name: "float", check: checkFinite}

	ByteDimensionValidator = PerDimensionValidator{name: "byte", check: func(v float32) error {
		return checkByteRange(v, entity.VectorDataTypeByte)
	}}

	BinaryDimensionValidator = PerDimensionValidator{name: "binary", check: func(v float32) error {
		return checkByteRange(v, entity.VectorDataTypeBinary)
	}}

	FP16DimensionValidator = PerDimensionValidator{name: "fp16", check: func(v float32) error {
		if err := checkFinite(v); err != nil {
			return err
		}
		if v < fp16Min || v > fp16Max {
			return fmt.Errorf("encoder name is set as [sq] and type is set as [fp16] in index mapping. But, KNN vector values are not within in the FP16 range [%.1f, %.1f]", fp16Min, fp16Max)
		}
		return nil
	}}
)

func checkFinite(v float32) error {
	f := float64(v)
	if math.IsNaN(f) {
		return fmt.Errorf("KNN vector values cannot be NaN")
	}
	if math.IsInf(f, 0) {
		return fmt.Errorf("KNN vector values cannot be infinity")
	}
	return nil
}

func checkByteRange(v float32, dt entity.VectorDataType) error {
	if err := checkFinite(v); err != nil {
		return err
	}
	if float32(math.Trunc(float64(v))) != v {
		return fmt.Errorf("[data_type] field was set as [%s] in index mapping. But, KNN vector values are floats instead of byte integers", dt)
	}
	if v < byteMin || v > byteMax {
		return fmt.Errorf("[data_type] field was set as [%s] in index mapping. But, KNN vector values are not within in the byte range [%d, %d]", dt, byteMin, byteMax)
	}
	return nil
}

// DimensionValidatorFor is the element check a data type starts out with.
func DimensionValidatorFor(dt entity.VectorDataType) PerDimensionValidator {
	switch dt {
	case entity.VectorDataTypeByte:
		return ByteDimensionValidator
	case entity.VectorDataTypeBinary:
		return BinaryDimensionValidator
	default:
		return FloatDimensionValidator
	}
}

// PerDimensionProcessor rewrites a single vector element before it is indexed
// or searched.
type PerDimensionProcessor struct {
	name    string
	process func(v float32) float32
}

func (p PerDimensionProcessor) Name() string {
	return p.name
}

func (p PerDimensionProcessor) Process(v float32) float32 {
	if p.process == nil {
		return v
	}
	return p.process(v)
}

var (
	NoopProcessor = PerDimensionProcessor{name: "noop"}

	ClipToFP16Processor = PerDimensionProcessor{name: "clip_fp16", process: func(v float32) float32 {
		if v > fp16Max {
			return fp16Max
		}
		if v < fp16Min {
			return fp16Min
		}
		return v
	}}
)

// VectorValidator checks whole vectors against the field dimension and space.
type VectorValidator struct {
	dimension int
	dataType  entity.VectorDataType
	space     entity.SpaceType
}

func NewVectorValidator(dimension int, dt entity.VectorDataType, space entity.SpaceType) VectorValidator {
	return VectorValidator{dimension: dimension, dataType: dt, space: space}
}

// ExpectedLength is the number of elements a vector must carry; binary
// fields pack eight dimensions per element.
func (v VectorValidator) ExpectedLength() int {
	if v.dataType == entity.VectorDataTypeBinary {
		return v.dimension / 8
	}
	return v.dimension
}

func (v VectorValidator) Validate(vec []float32) error {
	if len(vec) != v.ExpectedLength() {
		return fmt.Errorf("Query vector has invalid dimension: %d. Dimension should be: %d", len(vec), v.ExpectedLength())
	}
	return v.space.ValidateVector(vec)
}
