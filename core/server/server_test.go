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

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
	"github.com/toolio/merchplan/pkg/logger"
)

func newTestServer(t *testing.T) (http.Handler, *prometheus.Registry, *bytes.Buffer) {
	t.Helper()
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	s, err := NewServer(dataset.Generate(dataset.GenerateOptions{Seed: dataset.DefaultSeed}), Options{
		Defaults:   query.Defaults{Columns: []string{"Category", "Brand", "Store", "Week"}, Limit: 100},
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: &logs}),
		Registerer: reg,
		Gatherer:   reg,
	})
	require.NoError(t, err)
	return s.Handler(), reg, &logs
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type viewResponse struct {
	Data struct {
		Columns         []string         `json:"columns"`
		Rows            []map[string]any `json:"rows"`
		Totals          map[string]int64 `json:"totals"`
		RowCount        int              `json:"row_count"`
		TotalRows       int              `json:"total_rows"`
		FilteredRecords int              `json:"filtered_records"`
		Pivot           *struct {
			Weeks []string `json:"weeks"`
			Rows  []struct {
				Label string  `json:"label"`
				Level int     `json:"level"`
				Weeks []int64 `json:"weeks"`
			} `json:"rows"`
		} `json:"pivot"`
	} `json:"data"`
}

func TestViewAPI(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := get(t, h, "/api/view?grouped=Brand&filter:Category=Shoes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Brand", "Gross Sales Units", "Receipts Units", "BOP Units", "On Order Units"}, resp.Data.Columns)
	assert.Equal(t, 3, resp.Data.RowCount)
	assert.Equal(t, 243, resp.Data.FilteredRecords)
	assert.Nil(t, resp.Data.Pivot)

	// grouped rows add up to the headline totals
	var gross float64
	for _, row := range resp.Data.Rows {
		gross += row["Gross Sales Units"].(float64)
	}
	assert.Equal(t, float64(resp.Data.Totals["Gross Sales Units"]), gross)
}

func TestViewAPIPivot(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := get(t, h, "/api/view?mode=pivot&grouped=Store")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Pivot)
	assert.Equal(t, []string{"1", "2", "3"}, resp.Data.Pivot.Weeks)
	// one metric row plus one row per store, for each of the four metrics
	assert.Len(t, resp.Data.Pivot.Rows, 4*(1+3))
}

func TestViewAPIValidationError(t *testing.T) {
	h, _, logs := newTestServer(t)

	rec := get(t, h, "/api/view?grouped=Flavor")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "invalid grouped", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Contains(t, logs.String(), "request.rejected")
}

func TestDashboard(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := get(t, h, "/?grouped=Store")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<td>DC East</td>")
	assert.Contains(t, body, "Gross Sales Units")

	rec = get(t, h, "/?mode=chart")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid mode")
}

func TestCatalogAPI(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := get(t, h, "/api/catalog")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data CatalogPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, resp.Data.Attributes["Brand"])
	assert.Equal(t, []string{"1", "2", "3"}, resp.Data.Attributes["Week"])
	assert.Equal(t, 729, resp.Data.RecordCount)
	require.Len(t, resp.Data.Stores, 3)
	assert.Equal(t, StorePayload{
		Name:           "DC East",
		Types:          []string{"source", "inventory"},
		Channel:        "Wholesale",
		ChannelGroup:   "Distribution",
		SellingChannel: "Ecommerce",
	}, resp.Data.Stores[2])
	assert.Equal(t, []string{"Retail", "Wholesale"}, resp.Data.Attributes["Channel"])
}

func TestHealthAndNotFound(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestRequestIDHeader(t *testing.T) {
	h, _, logs := newTestServer(t)

	rec := get(t, h, "/healthz")
	generated := rec.Header().Get("X-Request-Id")
	assert.NotEmpty(t, generated)
	assert.Contains(t, logs.String(), generated)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}

func TestMetrics(t *testing.T) {
	h, reg, _ := newTestServer(t)

	get(t, h, "/api/view")
	get(t, h, "/api/view?grouped=Nope")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "merchplan_view_duration_seconds")

	count, err := testutil.GatherAndCount(reg, "merchplan_view_filtered_records")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `merchplan_http_requests_total{code="200",route="/api/view"} 1`), body)
	assert.Contains(t, body, `merchplan_http_requests_total{code="400",route="/api/view"} 1`)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	s, err := NewServer(dataset.Generate(dataset.GenerateOptions{Seed: dataset.DefaultSeed}), Options{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: &logs}),
		Registerer: reg,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(s.middlewares()...)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "panic-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "panic-id", rec.Header().Get("X-Request-Id"))

	var panicLine, completeLine string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		switch {
		case strings.Contains(line, `"message":"request.error"`):
			panicLine = line
		case strings.Contains(line, `"message":"request.complete"`):
			completeLine = line
		}
	}
	assert.Contains(t, panicLine, `"request_id":"panic-id"`)
	assert.Contains(t, completeLine, `"status":500`)

	count, err := testutil.GatherAndCount(reg, "merchplan_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	families, err := reg.Gather()
	require.NoError(t, err)
	labels := make(map[string]string)
	for _, f := range families {
		if f.GetName() != "merchplan_http_requests_total" {
			continue
		}
		for _, l := range f.GetMetric()[0].GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
	}
	assert.Equal(t, map[string]string{"code": "500", "route": "/boom"}, labels)
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	h := Recoverer(logg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Contains(t, logs.String(), "boom")
}
