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
)

const (
	ParamConfidenceInterval = "confidence_interval"

	DynamicConfidenceInterval = 0.0
	MinConfidenceInterval     = 0.9
	MaxConfidenceInterval     = 1.0
	LuceneSQBits              = 7
)

var luceneSQEncoder = &Component{
	Name:      string(EncoderSQ),
	DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat},
	Params: []*Parameter{
		DoubleParameter(ParamConfidenceInterval, DynamicConfidenceInterval, func(v float64, _ *Builder) string {
			if v == DynamicConfidenceInterval || (v >= MinConfidenceInterval && v <= MaxConfidenceInterval) {
				return ""
			}
			return fmt.Sprintf("Invalid value for parameter '%s'. Value must be %v or in range [%v, %v]",
				ParamConfidenceInterval, DynamicConfidenceInterval, MinConfidenceInterval, MaxConfidenceInterval)
		}),
		IntParameter(ParamBits, LuceneSQBits, oneOf(ParamBits, LuceneSQBits)),
	},
}

func luceneHNSW() *Method {
	return &Method{
		Kind: MethodHNSW,
		Component: &Component{
			Name:      string(MethodHNSW),
			DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat, entity.VectorDataTypeByte},
			Params: []*Parameter{
				IntParameter(ParamM, DefaultM, positive(ParamM)),
				IntParameter(ParamEfConstruction, DefaultEfConstruction, positive(ParamEfConstruction)),
				ComponentParameter(ParamEncoder, nil, luceneSQEncoder),
			},
		},
		Spaces: []entity.SpaceType{entity.SpaceL2, entity.SpaceCosine, entity.SpaceInnerProduct},
		Policy: methodParameterPolicy("lucene_hnsw", efSearchParam),
	}
}

// luceneDistance maps a raw distance to the similarity lucene thresholds on.
func luceneDistance(d float32, space entity.SpaceType) float32 {
	switch space {
	case entity.SpaceCosine:
		return (2 - d) / 2
	case entity.SpaceInnerProduct:
		if d <= 0 {
			return 1 / (1 - d)
		}
		return d + 1
	default:
		return 1 / (1 + d)
	}
}

func init() {
	register(&Library{
		Engine:  entity.EngineLucene,
		methods: methodsOf(luceneHNSW()),
		maxDimension: func(version string) int {
			if version != "" && !versionAtLeast(version, LuceneMaxDimensionVersion) {
				return LegacyLuceneMaxDimension
			}
			return DefaultMaxDimension
		},
		radial:  true,
		filters: true,
		distance: luceneDistance,
		score: func(s float32, _ entity.SpaceType) (float32, error) {
			return s, nil
		},
	})
}
