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
)

func nmslibHNSW() *Method {
	return &Method{
		Kind: MethodHNSW,
		Component: &Component{
			Name:      string(MethodHNSW),
			DataTypes: []entity.VectorDataType{entity.VectorDataTypeFloat},
			Params: []*Parameter{
				IntParameter(ParamM, DefaultM, positive(ParamM)),
				IntParameter(ParamEfConstruction, DefaultEfConstruction, positive(ParamEfConstruction)),
			},
		},
		Spaces: []entity.SpaceType{entity.SpaceL2, entity.SpaceL1, entity.SpaceLinf, entity.SpaceCosine, entity.SpaceInnerProduct},
		Policy: methodParameterPolicy("nmslib_hnsw", efSearchParam),
	}
}

func init() {
	register(&Library{
		Engine:         entity.EngineNmslib,
		methods:        methodsOf(nmslibHNSW()),
		customSegments: true,
	})
}
