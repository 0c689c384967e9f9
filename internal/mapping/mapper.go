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

package mapping

import (
	"context"
	"time"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/model"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// FieldError ties a resolution failure to the field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "field [" + e.Field + "]: " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Mapping is the resolved form of every vector field of an index.
type Mapping struct {
	Names  []string                          `json:"names"`
	Fields map[string]*resolver.IndexConfig `json:"fields"`
}

func (mp *Mapping) Field(name string) (*resolver.IndexConfig, bool) {
	cfg, ok := mp.Fields[name]
	return cfg, ok
}

// Mapper resolves parsed fields, delegating model backed fields to the
// model registry.
type Mapper struct {
	resolver    *resolver.Resolver
	models      *model.Registry
	legacy      *entity.LegacySettings
	concurrency int
	metrics     *MetricsRecorder
}

type MapperOption func(*Mapper)

// WithLegacy sets the legacy settings used when a mapping carries none.
func WithLegacy(l *entity.LegacySettings) MapperOption {
	return func(m *Mapper) { m.legacy = l }
}

func WithConcurrency(n int) MapperOption {
	return func(m *Mapper) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

func NewMapper(r *resolver.Resolver, models *model.Registry, opts ...MapperOption) *Mapper {
	if r == nil {
		r = resolver.New()
	}
	m := &Mapper{resolver: r, models: models, concurrency: defaultConcurrency, metrics: NewMetricsRecorder()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ResolveField resolves a single field. legacy overrides the mapper's
// default legacy settings when non-nil.
func (m *Mapper) ResolveField(field entity.FieldSpec, legacy *entity.LegacySettings) (*resolver.IndexConfig, error) {
	start := time.Now()
	if legacy == nil {
		legacy = m.legacy
	}

	var cfg *resolver.IndexConfig
	var err error
	if field.ModelID != "" {
		cfg, err = m.resolveModelField(field)
	} else {
		cfg, err = m.resolver.Resolve(field, false, legacy)
	}

	if err != nil {
		if ve := errors.AsValidationError(err); ve != nil {
			m.metrics.RecordValidationMessages(len(ve.Messages), ve.Fatal)
		}
		m.metrics.RecordResolve(field.Engine, "", "error", time.Since(start))
		log.Debugf("resolve field [%s] failed: %v", field.Name, err)
		return nil, err
	}
	m.metrics.RecordResolve(string(cfg.Engine), string(cfg.Method), "ok", time.Since(start))
	if log.IsDebugEnabled() {
		log.Debugf("field [%s] resolved to engine [%s] method [%s] description [%s]", field.Name, cfg.Engine, cfg.Method, cfg.Descriptor)
	}
	return cfg, nil
}

func (m *Mapper) resolveModelField(field entity.FieldSpec) (*resolver.IndexConfig, error) {
	if m.models == nil {
		return nil, errors.Unsupported("field [%s] references model [%s] but no model registry is configured", field.Name, field.ModelID)
	}
	cfg, err := m.models.ConfigFor(field)
	m.metrics.RecordModelLookup(errors.GetCode(err) != errors.ErrModelNotFound)
	return cfg, err
}

// ResolveAll resolves fields concurrently and returns the configs in input
// order. The first failure cancels the rest.
func (m *Mapper) ResolveAll(ctx context.Context, fields []entity.FieldSpec, legacy *entity.LegacySettings) ([]*resolver.IndexConfig, error) {
	out := make([]*resolver.IndexConfig, len(fields))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i := range fields {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg, err := m.ResolveField(fields[i], legacy)
			if err != nil {
				return &FieldError{Field: fields[i].Name, Err: err}
			}
			out[i] = cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveMapping parses a mapping document and resolves all of its vector
// fields.
func (m *Mapper) ResolveMapping(ctx context.Context, data []byte) (*Mapping, error) {
	fields, settings, err := ParseMapping(data)
	if err != nil {
		return nil, err
	}
	configs, err := m.ResolveAll(ctx, fields, settings.Legacy)
	if err != nil {
		return nil, err
	}
	m.metrics.RecordMapping(len(fields))

	mp := &Mapping{Names: make([]string, len(fields)), Fields: make(map[string]*resolver.IndexConfig, len(fields))}
	for i, f := range fields {
		mp.Names[i] = f.Name
		mp.Fields[f.Name] = configs[i]
	}
	return mp, nil
}
