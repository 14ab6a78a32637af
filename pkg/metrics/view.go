/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 The Merchplan Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics holds the prometheus collectors of the dashboard host.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ViewMetrics records every view recomputation and HTTP response.
type ViewMetrics struct {
	duration *prometheus.HistogramVec
	rows     *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewViewMetrics registers the view metrics on the provided registerer.
func NewViewMetrics(reg prometheus.Registerer) *ViewMetrics {
	if reg == nil {
		return &ViewMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "merchplan_view_duration_seconds",
		Help:    "Time spent filtering and aggregating one view.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"mode", "grouped"})
	rows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "merchplan_view_filtered_records",
		Help:    "Number of records left after filtering.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"mode"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "merchplan_http_requests_total",
		Help: "HTTP responses by route and status code.",
	}, []string{"route", "code"})
	reg.MustRegister(duration, rows, requests)
	return &ViewMetrics{
		duration: duration,
		rows:     rows,
		requests: requests,
	}
}

// ObserveView records the recomputation time and filtered record count of a view.
func (v *ViewMetrics) ObserveView(mode string, grouped bool, d time.Duration, filtered int) {
	if v == nil || v.duration == nil {
		return
	}
	mode = normalizeLabel(mode)
	v.duration.WithLabelValues(mode, strconv.FormatBool(grouped)).Observe(d.Seconds())
	v.rows.WithLabelValues(mode).Observe(float64(filtered))
}

// IncRequest counts one response.
func (v *ViewMetrics) IncRequest(route string, code int) {
	if v == nil || v.requests == nil {
		return
	}
	v.requests.WithLabelValues(normalizeLabel(route), strconv.Itoa(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
