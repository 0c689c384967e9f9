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

package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/patrickmn/go-cache"
	"go.uber.org/atomic"
)

// Registry keeps model metadata in memory. Entries expire after the
// configured ttl unless it is cache.NoExpiration.
type Registry struct {
	resolver *resolver.Resolver
	cache    *cache.Cache
	compress bool

	// serializes training of a given id with its existence check
	mu sync.Mutex

	hits   *atomic.Int64
	misses *atomic.Int64
}

type Stats struct {
	Models int   `json:"models"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func NewRegistry(r *resolver.Resolver, ttl time.Duration, compress bool) *Registry {
	if r == nil {
		r = resolver.New()
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Registry{
		resolver: r,
		cache:    cache.New(ttl, 2*time.Minute),
		compress: compress,
		hits:     atomic.NewInt64(0),
		misses:   atomic.NewInt64(0),
	}
}

// Train resolves the requested field as a training method and registers
// the result. The native training pass itself happens elsewhere; the model
// is stored as created once its configuration is valid.
func (r *Registry) Train(req TrainingRequest) (*Metadata, error) {
	if req.Field.ModelID != "" {
		return nil, errors.NewValidationError("a model can not be trained from a field that references another model")
	}
	id := req.ModelID
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache.Get(id); ok {
		return nil, errors.AlreadyExists("model " + id)
	}

	cfg, err := r.resolver.Resolve(req.Field, true, req.Legacy)
	if err != nil {
		log.Warnf("train model [%s] failed: %v", id, err)
		return nil, err
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}
	m := &Metadata{
		ID:          id,
		State:       StateCreated,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
		Field:       req.Field,
		Fingerprint: fp,
		Legacy:      req.Legacy,
		Config:      cfg,
	}
	r.cache.SetDefault(id, m)
	log.Infof("model [%s] created, engine [%s] method [%s] description [%s]", id, cfg.Engine, cfg.Method, cfg.Descriptor)
	return m, nil
}

func (r *Registry) Get(id string) (*Metadata, error) {
	if v, ok := r.cache.Get(id); ok {
		r.hits.Inc()
		return v.(*Metadata), nil
	}
	r.misses.Inc()
	return nil, errors.ModelNotFound(id)
}

func (r *Registry) Delete(id string) error {
	if _, ok := r.cache.Get(id); !ok {
		return errors.ModelNotFound(id)
	}
	r.cache.Delete(id)
	return nil
}

// ConfigFor returns the index config of a model backed field. The field may
// leave the dimension out, otherwise it must match the model.
func (r *Registry) ConfigFor(field entity.FieldSpec) (*resolver.IndexConfig, error) {
	if field.Method != nil {
		return nil, errors.NewValidationError("Method and model can not be both specified in the mapping: " + field.Name)
	}
	m, err := r.Get(field.ModelID)
	if err != nil {
		return nil, err
	}
	if m.State != StateCreated || m.Config == nil {
		return nil, errors.ModelNotReady(m.ID, string(m.State))
	}
	if field.Dimension != 0 && field.Dimension != m.Config.Dimension {
		return nil, errors.NewValidationError("Dimension of field " + field.Name + " does not match the dimension of model " + m.ID)
	}
	return m.Config.WithName(field.Name), nil
}

// Snapshot encodes the model for storage outside the process.
func (r *Registry) Snapshot(id string) ([]byte, error) {
	m, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return EncodeSnapshot(m, r.compress)
}

// Restore decodes a snapshot, re-resolves its field and registers it. The
// snapshot is rejected when the resolved config no longer matches its
// fingerprint.
func (r *Registry) Restore(data []byte) (*Metadata, error) {
	m, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	cfg, err := r.resolver.Resolve(m.Field, true, m.Legacy)
	if err != nil {
		return nil, err
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}
	if fp != m.Fingerprint {
		return nil, errors.Newf(errors.ErrConflict, "model %s fingerprint mismatch: stored %s, resolved %s", m.ID, m.Fingerprint, fp)
	}
	m.Config = cfg
	r.cache.SetDefault(m.ID, m)
	return m, nil
}

func (r *Registry) Stats() Stats {
	return Stats{Models: r.cache.ItemCount(), Hits: r.hits.Load(), Misses: r.misses.Load()}
}
