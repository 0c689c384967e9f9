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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MethodKind is the closed set of index algorithms.
type MethodKind string

const (
	MethodHNSW MethodKind = "hnsw"
	MethodIVF  MethodKind = "ivf"
)

// EncoderKind is the closed set of vector encoders a method may nest.
type EncoderKind string

const (
	EncoderFlat   EncoderKind = "flat"
	EncoderSQ     EncoderKind = "sq"
	EncoderPQ     EncoderKind = "pq"
	EncoderBinary EncoderKind = "binary"
)

// Component is the schema of a method or an encoder.
type Component struct {
	Name             string
	Params           []*Parameter
	DataTypes        []entity.VectorDataType
	RequiresTraining bool
	// Overhead estimates the extra native memory in KB, from the component's
	// own resolved parameters.
	Overhead   func(dimension int, params Scope) int
	Descriptor *Descriptor
	// PostResolve runs once the whole tree under the component is resolved.
	PostResolve func(c *Component, b *Builder, tree Tree) error
}

func (c *Component) Param(name string) *Parameter {
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (c *Component) SupportsDataType(dt entity.VectorDataType) bool {
	return slices.Contains(c.DataTypes, dt)
}

// Resolve builds the parameter tree for c from the user context cc, which
// may be nil. Scalars are resolved in declared order before nested
// components. The post-resolve hook is not run here; see Finish.
func (c *Component) Resolve(cc *entity.ComponentContext, b *Builder) (Tree, error) {
	if !c.SupportsDataType(b.VectorDataType()) {
		b.AddMessage(fmt.Sprintf("\"%s\" does not support data type \"%s\"", c.Name, b.VectorDataType()))
	}

	var user map[string]interface{}
	if cc != nil {
		user = cc.Parameters
	}
	keys := maps.Keys(user)
	slices.Sort(keys)
	for _, k := range keys {
		if c.Param(k) == nil {
			b.AddMessage(fmt.Sprintf("Unknown parameter '%s' for component '%s'", k, c.Name))
		}
	}

	scope := Scope{}
	for _, p := range c.Params {
		if p.Kind == KindComponent {
			continue
		}
		raw, ok := user[p.Name]
		if !ok || raw == nil {
			if p.Default == nil {
				continue
			}
			if raw = p.Default(b); raw == nil {
				continue
			}
		}
		if err := p.resolveValue(raw, b, scope); err != nil {
			return nil, err
		}
	}
	for _, p := range c.Params {
		if p.Kind != KindComponent {
			continue
		}
		raw, ok := user[p.Name]
		if err := p.resolveComponent(raw, ok && raw != nil, b, scope); err != nil {
			return nil, err
		}
	}

	return Tree{entity.NameField: c.Name, entity.ParametersField: scope}, nil
}

// Finish runs the post-resolve hook of c on its resolved tree.
func (c *Component) Finish(b *Builder, tree Tree) error {
	if c.PostResolve == nil {
		return nil
	}
	return c.PostResolve(c, b, tree)
}

// IsTrainingRequired reports whether c, or any sub-component named in tree,
// needs a training pass.
func IsTrainingRequired(c *Component, tree Tree) bool {
	if c.RequiresTraining {
		return true
	}
	required := false
	c.walkNested(tree, func(sub *Component, subTree Tree) {
		required = required || IsTrainingRequired(sub, subTree)
	})
	return required
}

// EstimateOverhead sums the native memory estimate of c and its nested
// sub-components in KB.
func EstimateOverhead(c *Component, tree Tree, dimension int) int {
	total := 0
	if c.Overhead != nil {
		if kb := c.Overhead(dimension, paramsOf(tree)); kb > 0 {
			total += kb
		}
	}
	c.walkNested(tree, func(sub *Component, subTree Tree) {
		total += EstimateOverhead(sub, subTree, dimension)
	})
	return total
}

func (c *Component) walkNested(tree Tree, fn func(sub *Component, subTree Tree)) {
	params := paramsOf(tree)
	for _, p := range c.Params {
		if p.Kind != KindComponent {
			continue
		}
		subTree, ok := params[p.Name].(Tree)
		if !ok {
			continue
		}
		name, _ := subTree[entity.NameField].(string)
		if sub, ok := p.Components[name]; ok {
			fn(sub, subTree)
		}
	}
}

func paramsOf(tree Tree) Scope {
	if params, ok := tree[entity.ParametersField].(Scope); ok {
		return params
	}
	return Scope{}
}
