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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Field resolution metrics
	fieldResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knn_mapping_field_resolve_duration_seconds",
			Help:    "Field resolution duration in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"engine", "status"},
	)

	fieldResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knn_mapping_field_resolutions_total",
			Help: "Total number of field resolutions",
		},
		[]string{"engine", "method", "status"},
	)

	validationMessageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knn_mapping_validation_messages_total",
			Help: "Total number of validation messages returned by resolution",
		},
		[]string{"fatal"},
	)

	// Mapping metrics
	mappingFieldsProcessed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "knn_mapping_vector_fields_count",
			Help:    "Number of vector fields per resolved mapping",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	modelLookupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knn_mapping_model_lookups_total",
			Help: "Total number of model lookups for model backed fields",
		},
		[]string{"hit"},
	)

	catalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knn_mapping_catalog_indices",
			Help: "Current number of indices with a stored mapping",
		},
	)
)

// MetricsRecorder provides methods to record mapping metrics
type MetricsRecorder struct{}

func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordResolve records one field resolution. engine and method are empty
// when resolution failed before they were known.
func (m *MetricsRecorder) RecordResolve(engine, method, status string, duration time.Duration) {
	if engine == "" {
		engine = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	fieldResolveDuration.WithLabelValues(engine, status).Observe(duration.Seconds())
	fieldResolveTotal.WithLabelValues(engine, method, status).Inc()
}

func (m *MetricsRecorder) RecordValidationMessages(count int, fatal bool) {
	label := "false"
	if fatal {
		label = "true"
	}
	validationMessageTotal.WithLabelValues(label).Add(float64(count))
}

func (m *MetricsRecorder) RecordMapping(fieldCount int) {
	mappingFieldsProcessed.Observe(float64(fieldCount))
}

func (m *MetricsRecorder) RecordModelLookup(hit bool) {
	hitStr := "miss"
	if hit {
		hitStr = "hit"
	}
	modelLookupTotal.WithLabelValues(hitStr).Inc()
}

func (m *MetricsRecorder) UpdateCatalogSize(size int) {
	catalogSize.Set(float64(size))
}
