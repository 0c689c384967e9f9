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
	ParamM              = "m"
	ParamEfConstruction = "ef_construction"
	ParamEfSearch       = "ef_search"
	ParamEncoder        = "encoder"
	ParamNlist          = "nlist"
	ParamNprobes        = "nprobes"

	ParamSQType = "type"
	ParamSQClip = "clip"

	ParamPQM        = "m"
	ParamPQCodeSize = "code_size"

	ParamBits = "bits"

	DefaultM              = 16
	DefaultEfConstruction = 100
	DefaultEfSearch       = 100
	DefaultNlist          = 4
	DefaultNprobes        = 1
	MaxNlist              = 20000
	MaxNprobes            = 20000

	SQTypeFP16 = "fp16"

	DefaultPQM           = 1
	MaxPQM               = 1024
	DefaultPQCodeSize    = 8
	MaxPQCodeSize        = 128
	HNSWPQCodeSize       = 8
	DefaultBinaryBits    = 1
)

var (
	flatEncoder = &Component{
		Name:      string(EncoderFlat),
		DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat, entity.VectorDataTypeByte, entity.VectorDataTypeBinary},
		Descriptor: &Descriptor{Base: func(b *Builder) string {
			if b.VectorDataType() == entity.VectorDataTypeByte {
				return ",SQ8_direct_signed"
			}
			return ",Flat"
		}},
	}

	sqEncoder = &Component{
		Name:      string(EncoderSQ),
		DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat},
		Params: []*Parameter{
			StringParameter(ParamSQType, SQTypeFP16, func(v string, _ *Builder) string {
				if v == SQTypeFP16 {
					return ""
				}
				return fmt.Sprintf("Invalid value for parameter '%s'. Supported values are [%s]", ParamSQType, SQTypeFP16)
			}).WithResolver(func(v interface{}, b *Builder, scope Scope) error {
				scope[ParamSQType] = v
				b.SetPerDimensionValidator(FP16DimensionValidator)
				return nil
			}),
			BoolParameter(ParamSQClip, false).WithResolver(func(v interface{}, b *Builder, scope Scope) error {
				clip := v.(bool)
				scope[ParamSQClip] = clip
				if !clip {
					return nil
				}
				if scope[ParamSQType] != SQTypeFP16 {
					return b.Fatal("Clip only supported for FP16 encoder.")
				}
				b.SetPerDimensionValidator(FloatDimensionValidator)
				b.SetPerDimensionProcessor(ClipToFP16Processor)
				return nil
			}),
		},
		Descriptor: newDescriptor(",SQ", part(ParamSQType, "", "")),
	}

	ivfPQEncoder  = pqEncoder(between(ParamPQCodeSize, 1, MaxPQCodeSize-1))
	hnswPQEncoder = pqEncoder(func(v int, _ *Builder) string {
		if v == HNSWPQCodeSize {
			return ""
		}
		return fmt.Sprintf("HNSW PQ code size must be %d", HNSWPQCodeSize)
	})

	binaryEncoder = &Component{
		Name:      string(EncoderBinary),
		DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat},
		Params: []*Parameter{
			IntParameter(ParamBits, DefaultBinaryBits, func(v int, _ *Builder) string {
				if _, err := entity.QuantizationForBits(v); err != nil {
					return err.Error()
				}
				return ""
			}).WithDefault(func(b *Builder) interface{} {
				if bits := b.Compression().BitCount(); bits > 0 {
					return bits
				}
				return DefaultBinaryBits
			}).WithResolver(func(v interface{}, b *Builder, scope Scope) error {
				bits := v.(int)
				q, err := entity.QuantizationForBits(bits)
				if err != nil {
					return b.Fatal(err.Error())
				}
				scope[ParamBits] = bits
				b.SetQuantization(q)
				b.SetLibraryVectorDataType(entity.VectorDataTypeBinary)
				b.AddSearchPolicy(rescorePolicy(bits))
				return nil
			}),
		},
		Descriptor: &Descriptor{Base: func(*Builder) string { return ",Flat" }, Clear: true},
	}
)

func pqEncoder(codeSizeCheck func(v int, b *Builder) string) *Component {
	return &Component{
		Name:             string(EncoderPQ),
		DataTypes:        []entity.VectorDataType{entity.VectorDataTypeFloat},
		RequiresTraining: true,
		Params: []*Parameter{
			IntParameter(ParamPQM, DefaultPQM, func(v int, b *Builder) string {
				if v <= 0 || v >= MaxPQM {
					return fmt.Sprintf("Invalid value for parameter '%s'. Value must be in range (0, %d)", ParamPQM, MaxPQM)
				}
				if b != nil && b.Dimension()%v != 0 {
					return fmt.Sprintf("Dimension %d must be divisible by m (%d)", b.Dimension(), v)
				}
				return ""
			}),
			IntParameter(ParamPQCodeSize, DefaultPQCodeSize, codeSizeCheck),
		},
		Overhead: func(dimension int, params Scope) int {
			codeSize, _ := params[ParamPQCodeSize].(int)
			return overheadKB(4 * math.Pow(2, float64(codeSize)) * float64(dimension))
		},
		Descriptor: newDescriptor(",PQ", part(ParamPQM, "", ""), part(ParamPQCodeSize, "x", "")),
	}
}

// overheadKB rounds a byte estimate to whole KB plus one, saturating at
// math.MaxInt32.
func overheadKB(bytes float64) int {
	kb := bytes/1024 + 1
	if kb > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(kb)
}

// defaultFaissEncoder follows the compression level first, then the
// workload mode.
func defaultFaissEncoder(b *Builder) *entity.ComponentContext {
	if bits := b.Compression().BitCount(); bits > 0 {
		return &entity.ComponentContext{Name: string(EncoderBinary), Parameters: map[string]interface{}{ParamBits: bits}}
	}
	if b.Compression().IsDefault() && b.Mode() == entity.ModeOnDisk {
		return &entity.ComponentContext{Name: string(EncoderBinary), Parameters: map[string]interface{}{ParamBits: entity.Compression32x.BitCount()}}
	}
	return &entity.ComponentContext{Name: string(EncoderFlat)}
}

func faissTopLevel(c *Component, b *Builder, tree Tree) error {
	_, err := Synthesize(c, tree, b, true)
	return err
}

var (
	efSearchParam = IntParameter(ParamEfSearch, DefaultEfSearch, positive(ParamEfSearch))
	nprobesParam  = IntParameter(ParamNprobes, DefaultNprobes, between(ParamNprobes, 1, MaxNprobes-1))
)

func faissHNSW() *Method {
	return &Method{
		Kind: MethodHNSW,
		Component: &Component{
			Name:      string(MethodHNSW),
			DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat, entity.VectorDataTypeBinary, entity.VectorDataTypeByte},
			Params: []*Parameter{
				IntParameter(ParamM, DefaultM, positive(ParamM)),
				IntParameter(ParamEfConstruction, DefaultEfConstruction, positive(ParamEfConstruction)),
				efSearchParam,
				ComponentParameter(ParamEncoder, defaultFaissEncoder, flatEncoder, sqEncoder, hnswPQEncoder, binaryEncoder),
			},
			Descriptor:  newDescriptor("HNSW", part(ParamM, "", ""), part(ParamEncoder, "", "")),
			PostResolve: faissTopLevel,
		},
		Spaces: []entity.SpaceType{entity.SpaceHamming, entity.SpaceL2, entity.SpaceInnerProduct},
		Policy: methodParameterPolicy("faiss_hnsw", efSearchParam),
	}
}

func faissIVF() *Method {
	return &Method{
		Kind: MethodIVF,
		Component: &Component{
			Name:             string(MethodIVF),
			DataTypes:        []entity.VectorDataType{entity.VectorDataTypeFloat, entity.VectorDataTypeBinary},
			RequiresTraining: true,
			Params: []*Parameter{
				nprobesParam,
				IntParameter(ParamNlist, DefaultNlist, between(ParamNlist, 1, MaxNlist-1)),
				ComponentParameter(ParamEncoder, defaultFaissEncoder, flatEncoder, sqEncoder, ivfPQEncoder, binaryEncoder),
			},
			Overhead: func(dimension int, params Scope) int {
				nlist, _ := params[ParamNlist].(int)
				return 4*nlist*dimension/1024 + 1
			},
			Descriptor:  newDescriptor("IVF", part(ParamNlist, "", ""), part(ParamEncoder, "", "")),
			PostResolve: faissTopLevel,
		},
		Spaces: []entity.SpaceType{entity.SpaceL2, entity.SpaceInnerProduct, entity.SpaceHamming},
		Policy: methodParameterPolicy("faiss_ivf", nprobesParam),
	}
}

func init() {
	register(&Library{
		Engine:         entity.EngineFaiss,
		methods:        methodsOf(faissHNSW(), faissIVF()),
		radial:         true,
		filters:        true,
		customSegments: true,
		distance: func(d float32, space entity.SpaceType) float32 {
			if space == entity.SpaceCosine {
				return 1 - d
			}
			return d
		},
	})
}
