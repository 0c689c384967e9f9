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
	"time"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
)

// State is the lifecycle state of a trained model.
type State string

const (
	StateTraining State = "training"
	StateCreated  State = "created"
	StateFailed   State = "failed"
)

// Metadata describes a model and the index config it was trained for.
type Metadata struct {
	ID          string           `json:"model_id"`
	State       State            `json:"state"`
	Description string           `json:"description,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Field       entity.FieldSpec `json:"field"`
	Fingerprint string           `json:"fingerprint"`

	Legacy *entity.LegacySettings `json:"legacy,omitempty"`

	Config *resolver.IndexConfig `json:"config,omitempty" msgpack:"-"`
}

func (m *Metadata) Dimension() int {
	if m.Config == nil {
		return m.Field.Dimension
	}
	return m.Config.Dimension
}

// TrainingRequest asks for a model built from the given field definition.
// ModelID is generated when empty.
type TrainingRequest struct {
	ModelID     string           `json:"model_id,omitempty"`
	Description string           `json:"description,omitempty"`
	Field       entity.FieldSpec `json:"field"`
	// Legacy index settings, applied when the field has no method.
	Legacy *entity.LegacySettings `json:"legacy,omitempty"`
}
