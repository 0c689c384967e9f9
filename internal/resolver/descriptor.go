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
	"regexp"
	"strconv"
	"strings"

	"github.com/jmazanec15/k-NN-1/internal/entity"
)

const (
	IndexDescriptionField = "index_description"
	SpaceTypeField        = "space_type"
	VectorDataTypeField   = "data_type"

	binaryPrefix = "B"
)

// DescriptorPart appends prefix + value + suffix for one parameter.
type DescriptorPart struct {
	Param  string
	Prefix string
	Suffix string
}

// Descriptor is the template of the native index description a component
// contributes.
type Descriptor struct {
	Base  func(b *Builder) string
	Parts []DescriptorPart
	// Clear drops the component's parameters once its fragment is built.
	Clear bool
}

func newDescriptor(base string, parts ...DescriptorPart) *Descriptor {
	return &Descriptor{Base: func(*Builder) string { return base }, Parts: parts}
}

func part(param, prefix, suffix string) DescriptorPart {
	return DescriptorPart{Param: param, Prefix: prefix, Suffix: suffix}
}

// Synthesize builds the description fragment of c from tree, removing every
// value it encodes. A nested sub-tree is removed once it has no parameters
// left. At the top level the result is prefixed for binary libraries and
// stored under "index_description".
func Synthesize(c *Component, tree Tree, b *Builder, topLevel bool) (string, error) {
	d := c.Descriptor
	if d == nil {
		return "", nil
	}
	params := paramsOf(tree)

	var sb strings.Builder
	if d.Base != nil {
		sb.WriteString(d.Base(b))
	}
	for _, pt := range d.Parts {
		p := c.Param(pt.Param)
		if p == nil {
			return "", fmt.Errorf("descriptor of %s names undeclared parameter %s", c.Name, pt.Param)
		}
		raw, ok := params[pt.Param]
		if !ok {
			continue
		}
		if p.Kind != KindComponent {
			sb.WriteString(pt.Prefix)
			sb.WriteString(fmt.Sprint(raw))
			sb.WriteString(pt.Suffix)
			delete(params, pt.Param)
			continue
		}

		subTree, ok := raw.(Tree)
		if !ok {
			return "", fmt.Errorf("parameter %s of %s is not a component tree", pt.Param, c.Name)
		}
		name, _ := subTree[entity.NameField].(string)
		sub, ok := p.Components[name]
		if !ok {
			return "", fmt.Errorf("unknown component %s under %s", name, c.Name)
		}
		frag, err := Synthesize(sub, subTree, b, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(pt.Prefix)
		sb.WriteString(frag)
		sb.WriteString(pt.Suffix)
		if len(paramsOf(subTree)) == 0 {
			delete(params, pt.Param)
		}
	}
	if d.Clear {
		delete(tree, entity.ParametersField)
	}

	desc := sb.String()
	if topLevel {
		if b.LibraryVectorDataType() == entity.VectorDataTypeBinary {
			desc = binaryPrefix + desc
		}
		tree[IndexDescriptionField] = desc
	}
	return desc, nil
}

// Description is a parsed native index description such as "IVF88,PQ17x53".
type Description struct {
	Binary   bool
	Method   MethodKind
	// M for HNSW, nlist for IVF.
	Size     int
	Encoder  EncoderKind
	SQType   string
	PQM      int
	CodeSize int
	// Signed is set for the byte encoding "SQ8_direct_signed".
	Signed bool
}

var descriptionPattern = regexp.MustCompile(`^(B?)(HNSW|IVF)(\d+),(Flat|SQ8_direct_signed|SQ([a-z0-9]+)|PQ(\d+)x(\d+))$`)

func ParseDescription(desc string) (*Description, error) {
	m := descriptionPattern.FindStringSubmatch(desc)
	if m == nil {
		return nil, fmt.Errorf("invalid index description: %s", desc)
	}
	d := &Description{Binary: m[1] == binaryPrefix}
	switch m[2] {
	case "HNSW":
		d.Method = MethodHNSW
	case "IVF":
		d.Method = MethodIVF
	}
	d.Size, _ = strconv.Atoi(m[3])
	switch {
	case m[4] == "Flat":
		d.Encoder = EncoderFlat
	case m[4] == "SQ8_direct_signed":
		d.Encoder = EncoderFlat
		d.Signed = true
	case m[5] != "":
		d.Encoder = EncoderSQ
		d.SQType = m[5]
	default:
		d.Encoder = EncoderPQ
		d.PQM, _ = strconv.Atoi(m[6])
		d.CodeSize, _ = strconv.Atoi(m[7])
	}
	return d, nil
}
