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

package entity

import (
	"fmt"
	"strings"
)

// SpaceType is the similarity function of a vector field.
type SpaceType string

const (
	SpaceL2           SpaceType = "l2"
	SpaceL1           SpaceType = "l1"
	SpaceLinf         SpaceType = "linf"
	SpaceCosine       SpaceType = "cosinesimil"
	SpaceInnerProduct SpaceType = "innerproduct"
	SpaceHamming      SpaceType = "hamming"

	DefaultSpace       = SpaceL2
	DefaultBinarySpace = SpaceHamming
)

var spaceTypes = []SpaceType{SpaceL2, SpaceL1, SpaceLinf, SpaceCosine, SpaceInnerProduct, SpaceHamming}

func ParseSpaceType(s string) (SpaceType, error) {
	for _, st := range spaceTypes {
		if string(st) == strings.ToLower(s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("Unable to find space: %s", s)
}

func (st SpaceType) String() string {
	return string(st)
}

// CheckVectorDataType returns a message when st cannot be used with dt.
// Hamming is only defined over bits and bits only support hamming.
func (st SpaceType) CheckVectorDataType(dt VectorDataType) string {
	if (st == SpaceHamming) != (dt == VectorDataTypeBinary) {
		return fmt.Sprintf("Space type [%s] is not supported with [%s] data type", st, dt)
	}
	return ""
}

// ValidateVector checks a full float vector against the space.
func (st SpaceType) ValidateVector(v []float32) error {
	if st != SpaceCosine {
		return nil
	}
	for _, x := range v {
		if x != 0 {
			return nil
		}
	}
	return fmt.Errorf("zero vector is not supported when space type is [%s]", st)
}

// ScoreToDistance converts a similarity score to the raw distance used by
// native libraries.
func (st SpaceType) ScoreToDistance(score float32) (float32, error) {
	switch st {
	case SpaceInnerProduct:
		if score > 1 {
			return 1 - score, nil
		}
		if score == 0 {
			return 0, fmt.Errorf("score cannot be 0 when space type is %s", st)
		}
		return 1/score - 1, nil
	case SpaceCosine:
		return 2 - 2*score, nil
	default:
		if score == 0 {
			return 0, fmt.Errorf("score cannot be 0 when space type is %s", st)
		}
		return 1/score - 1, nil
	}
}
