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
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/safehtml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
	"github.com/toolio/merchplan/core/rendering"
	"github.com/toolio/merchplan/core/tables"
	"github.com/toolio/merchplan/core/views"
	pkgerrors "github.com/toolio/merchplan/pkg/errors"
	"github.com/toolio/merchplan/pkg/logger"
	"github.com/toolio/merchplan/pkg/metrics"
)

// Options configures the dashboard host.
type Options struct {
	Title    string
	Defaults query.Defaults
	Logger   *logger.Logger
	// Registerer and Gatherer back the view metrics and the /metrics route.
	// Nil disables both.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server represents the application server with all its dependencies.
// The dataset is shared read-only by every request.
type Server struct {
	dataset  *dataset.Dataset
	renderer *rendering.DashboardRenderer
	logger   *logger.Logger
	metrics  *metrics.ViewMetrics
	gatherer prometheus.Gatherer
	title    string
	defaults query.Defaults
}

// NewServer creates a new server over the given dataset
func NewServer(ds *dataset.Dataset, opts Options) (*Server, error) {
	renderer, err := rendering.NewDashboardRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	title := opts.Title
	if title == "" {
		title = "Merchandise plan"
	}

	return &Server{
		dataset:  ds,
		renderer: renderer,
		logger:   logg,
		metrics:  metrics.NewViewMetrics(opts.Registerer),
		gatherer: opts.Gatherer,
		title:    title,
		defaults: opts.Defaults,
	}, nil
}

// Handler returns the HTTP routes of the dashboard host.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middlewares()...)

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/catalog", s.handleCatalog)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), s.logger, w, pkgerrors.New(pkgerrors.CodeNotFound, "no route for "+r.URL.Path))
	})
	return r
}

// middlewares wraps every route. Recoverer is innermost so that a panic still
// reaches the request log and the response counter as a 500 carrying its request ID.
func (s *Server) middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RequestID(s.logger),
		Logging(s.logger),
		Metrics(s.metrics),
		Recoverer(s.logger),
	}
}

// compute runs the view pipeline for the request's session state and records its cost.
func (s *Server) compute(r *http.Request) (*query.Query, *tables.ViewResult, error) {
	q := query.NewQuery(r.URL, s.defaults)
	start := time.Now()
	result, err := tables.Compute(s.dataset, q)
	if err != nil {
		return q, nil, err
	}
	s.metrics.ObserveView(result.Mode, result.Table.Grouped, time.Since(start), result.Filtered)

	ctx := s.logger.WithFields(r.Context(), map[string]any{
		"mode":       result.Mode,
		"grouped":    len(q.GroupedColumns),
		"filters":    len(q.Filters),
		"filtered":   result.Filtered,
		"table_rows": result.TotalRows(),
	})
	s.logger.Debug(ctx, "view.computed")
	return q, result, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, result, err := s.compute(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	vm := views.BuildViewModel(s.title, s.dataset.Catalog(), result, q)

	// Render into a buffer so a template failure still yields a clean error page
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, vm); err != nil {
		s.renderError(w, r, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render dashboard"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// renderError writes the HTML error page for err.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	typed, meta, msg := publicError(err)
	logError(r.Context(), s.logger, typed, meta)

	vm := rendering.ErrorViewModel{
		Title:     http.StatusText(meta.HTTPStatus),
		Message:   msg,
		Code:      string(typed.Code()),
		RequestID: RequestIDFromContext(r.Context()),
		HomeURL:   safehtml.URLSanitized("/"),
	}
	var buf bytes.Buffer
	if rerr := s.renderer.RenderError(&buf, vm); rerr != nil {
		http.Error(w, msg, meta.HTTPStatus)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(meta.HTTPStatus)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	_, result, err := s.compute(r)
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	writeSuccess(w, result.Payload())
}

// CatalogPayload describes the attribute domains and store profiles.
type CatalogPayload struct {
	Attributes  map[string][]string `json:"attributes"`
	Metrics     []string            `json:"metrics"`
	Stores      []StorePayload      `json:"stores"`
	RecordCount int                 `json:"record_count"`
}

type StorePayload struct {
	Name           string   `json:"name"`
	Types          []string `json:"types"`
	Channel        string   `json:"channel"`
	ChannelGroup   string   `json:"channel_group"`
	SellingChannel string   `json:"selling_channel"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := s.dataset.Catalog()
	payload := CatalogPayload{
		Attributes:  make(map[string][]string, len(dataset.Attributes)),
		RecordCount: s.dataset.Len(),
	}
	for _, a := range dataset.Attributes {
		payload.Attributes[string(a)] = catalog.Domain(a)
	}
	for _, m := range dataset.Metrics {
		payload.Metrics = append(payload.Metrics, string(m))
	}
	for _, store := range catalog.Stores {
		sp := StorePayload{
			Name:           store.Name,
			Channel:        store.Attribute(dataset.Channel),
			ChannelGroup:   store.Attribute(dataset.ChannelGroup),
			SellingChannel: store.Attribute(dataset.SellingChannel),
		}
		for _, t := range store.Types {
			sp.Types = append(sp.Types, string(t))
		}
		payload.Stores = append(payload.Stores, sp)
	}
	writeSuccess(w, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"status":  "ok",
		"records": s.dataset.Len(),
	})
}
