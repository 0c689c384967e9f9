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
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/spf13/cast"
)

// Tree is one node of the resolved library parameter tree. A component node
// holds "name" and "parameters"; the method node also carries top level
// keys such as "space_type" and "index_description".
type Tree = map[string]interface{}

// Scope is the parameter map of the component being resolved.
type Scope = map[string]interface{}

type ParamKind int

const (
	KindInt ParamKind = iota
	KindDouble
	KindBool
	KindString
	KindComponent
)

func (k ParamKind) String() string {
	switch k {
	case KindInt:
		return "Integer"
	case KindDouble:
		return "Double"
	case KindBool:
		return "Boolean"
	case KindString:
		return "String"
	case KindComponent:
		return "MethodComponentContext"
	}
	return "Unknown"
}

// Parameter is a typed leaf of a component schema.
type Parameter struct {
	Name string
	Kind ParamKind
	// Default returns the value used when the user leaves the parameter out.
	// A nil result leaves it unset.
	Default func(b *Builder) interface{}
	// Check returns a message when the coerced value is out of its domain.
	Check func(v interface{}, b *Builder) string
	// Resolve stores the coerced value into scope; scope[Name] = v when nil.
	Resolve func(v interface{}, b *Builder, scope Scope) error
	// Components are the sub-components a KindComponent parameter may name.
	Components map[string]*Component
	// DefaultComponent picks the sub-component when the user names none.
	DefaultComponent func(b *Builder) *entity.ComponentContext
}

func IntParameter(name string, def int, check func(v int, b *Builder) string) *Parameter {
	p := &Parameter{Name: name, Kind: KindInt}
	p.Default = func(*Builder) interface{} { return def }
	if check != nil {
		p.Check = func(v interface{}, b *Builder) string { return check(v.(int), b) }
	}
	return p
}

func DoubleParameter(name string, def float64, check func(v float64, b *Builder) string) *Parameter {
	p := &Parameter{Name: name, Kind: KindDouble}
	p.Default = func(*Builder) interface{} { return def }
	if check != nil {
		p.Check = func(v interface{}, b *Builder) string { return check(v.(float64), b) }
	}
	return p
}

func BoolParameter(name string, def bool) *Parameter {
	p := &Parameter{Name: name, Kind: KindBool}
	p.Default = func(*Builder) interface{} { return def }
	return p
}

func StringParameter(name, def string, check func(v string, b *Builder) string) *Parameter {
	p := &Parameter{Name: name, Kind: KindString}
	p.Default = func(*Builder) interface{} { return def }
	if check != nil {
		p.Check = func(v interface{}, b *Builder) string { return check(v.(string), b) }
	}
	return p
}

// ComponentParameter is a nested {name, parameters} value choosing one of
// components. def may be nil, meaning no sub-component by default.
func ComponentParameter(name string, def func(b *Builder) *entity.ComponentContext, components ...*Component) *Parameter {
	p := &Parameter{Name: name, Kind: KindComponent, DefaultComponent: def, Components: map[string]*Component{}}
	for _, c := range components {
		p.Components[c.Name] = c
	}
	return p
}

// WithDefault replaces the static default with one computed from the builder.
func (p *Parameter) WithDefault(fn func(b *Builder) interface{}) *Parameter {
	p.Default = fn
	return p
}

func (p *Parameter) WithResolver(fn func(v interface{}, b *Builder, scope Scope) error) *Parameter {
	p.Resolve = fn
	return p
}

// Validate coerces raw to the parameter's kind and runs the domain check.
// A wrong type is returned as an error, a domain violation as a message.
func (p *Parameter) Validate(raw interface{}, b *Builder) (interface{}, string, error) {
	v, err := p.coerce(raw)
	if err != nil {
		return nil, "", err
	}
	if p.Check != nil {
		if msg := p.Check(v, b); msg != "" {
			return v, msg, nil
		}
	}
	return v, "", nil
}

func (p *Parameter) resolveValue(raw interface{}, b *Builder, scope Scope) error {
	v, msg, err := p.Validate(raw, b)
	if err != nil {
		return b.Fatal(err.Error())
	}
	if msg != "" {
		b.AddMessage(msg)
		return nil
	}
	if p.Resolve != nil {
		return p.Resolve(v, b, scope)
	}
	scope[p.Name] = v
	return nil
}

func (p *Parameter) resolveComponent(raw interface{}, present bool, b *Builder, scope Scope) error {
	var cc *entity.ComponentContext
	if present {
		parsed, err := entity.ParseComponentContext(raw)
		if err != nil {
			return b.Fatal(err.Error())
		}
		cc = parsed
	} else if p.DefaultComponent != nil {
		cc = p.DefaultComponent(b)
	}
	if cc == nil {
		return nil
	}
	if cc.Name == "" {
		if cc.HasParameters() {
			return b.Fatal("Invalid configuration. Need to specify the name")
		}
		return nil
	}
	c, ok := p.Components[cc.Name]
	if !ok {
		return b.Fatal(fmt.Sprintf("Invalid name: %s for parameter [%s]", cc.Name, p.Name))
	}
	sub, err := c.Resolve(cc, b)
	if err != nil {
		return err
	}
	scope[p.Name] = sub
	return nil
}

func (p *Parameter) typeError(raw interface{}) error {
	return fmt.Errorf("value is not an instance of %s for parameter [%s]: %v", p.Kind, p.Name, raw)
}

func (p *Parameter) coerce(raw interface{}) (interface{}, error) {
	switch p.Kind {
	case KindInt:
		if v, ok := toInt(raw); ok {
			return v, nil
		}
	case KindDouble:
		if v, ok := toDouble(raw); ok {
			return v, nil
		}
	case KindBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case KindString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case KindComponent:
		if _, err := entity.ParseComponentContext(raw); err == nil {
			return raw, nil
		}
	}
	return nil, p.typeError(raw)
}

// toInt accepts any Go integer and integral floats, which is what decoded
// JSON numbers look like.
func toInt(raw interface{}) (int, bool) {
	switch t := raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		v, err := cast.ToIntE(t)
		return v, err == nil
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			f, err := t.Float64()
			if err != nil {
				return 0, false
			}
			return floatToInt(f)
		}
		v, err := t.Int64()
		return int(v), err == nil
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toDouble(raw interface{}) (float64, bool) {
	switch t := raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		v, err := cast.ToFloat64E(t)
		return v, err == nil
	case json.Number:
		v, err := t.Float64()
		return v, err == nil
	}
	return 0, false
}

func positive(name string) func(v int, b *Builder) string {
	return func(v int, _ *Builder) string {
		if v > 0 {
			return ""
		}
		return fmt.Sprintf("Invalid value for parameter '%s'. Value must be greater than 0", name)
	}
}

func between(name string, lo, hi int) func(v int, b *Builder) string {
	return func(v int, _ *Builder) string {
		if v >= lo && v <= hi {
			return ""
		}
		return fmt.Sprintf("Invalid value for parameter '%s'. Value must be in range [%d, %d]", name, lo, hi)
	}
}

func oneOf(name string, allowed ...int) func(v int, b *Builder) string {
	return func(v int, _ *Builder) string {
		for _, a := range allowed {
			if v == a {
				return ""
			}
		}
		return fmt.Sprintf("Invalid value for parameter '%s'. Supported values are %v", name, allowed)
	}
}
