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

package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knn_router_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knn_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	errorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knn_router_errors_total",
			Help: "Total number of errors",
		},
		[]string{"error_type", "operation"},
	)

	timeoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knn_router_timeouts_total",
			Help: "Total number of requests that ran past their deadline",
		},
		[]string{"operation"},
	)

	modelCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knn_router_models",
			Help: "Current number of registered models",
		},
	)
)

// MetricsRecorder provides methods to record router metrics
type MetricsRecorder struct{}

func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

func (m *MetricsRecorder) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, endpoint, code).Observe(duration.Seconds())
	httpRequestTotal.WithLabelValues(method, endpoint, code).Inc()
}

func (m *MetricsRecorder) RecordError(errorType, operation string) {
	errorTotal.WithLabelValues(errorType, operation).Inc()
}

func (m *MetricsRecorder) RecordTimeout(operation string) {
	timeoutTotal.WithLabelValues(operation).Inc()
}

func (m *MetricsRecorder) UpdateModelCount(n int) {
	modelCount.Set(float64(n))
}

// Middleware records every request under its route template, so path
// parameters do not blow up the label space.
func (m *MetricsRecorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
