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

package rendering

import (
	"embed"
	"io"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"

	"github.com/toolio/merchplan/core/views"
)

//go:embed templates/*
var templateFS embed.FS

// ErrorViewModel is the data of the HTML error page
type ErrorViewModel struct {
	Title     string
	Message   string
	Code      string
	RequestID string
	HomeURL   safehtml.URL
}

// DashboardRenderer handles rendering of view models to HTML
type DashboardRenderer struct {
	dashboardTemplate *template.Template
	errorTemplate     *template.Template
}

// NewDashboardRenderer creates a new dashboard renderer
func NewDashboardRenderer() (*DashboardRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	// Parse the dashboard template
	dashboardTemplate, err := template.New("dashboard.html").ParseFS(trustedFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	// Parse the error page template
	errorTemplate, err := template.New("error.html").ParseFS(trustedFS, "templates/error.html")
	if err != nil {
		return nil, err
	}

	return &DashboardRenderer{
		dashboardTemplate: dashboardTemplate,
		errorTemplate:     errorTemplate,
	}, nil
}

// Render renders a DashboardViewModel to the provided writer
func (r *DashboardRenderer) Render(w io.Writer, vm views.DashboardViewModel) error {
	return r.dashboardTemplate.Execute(w, vm)
}

// RenderError renders an ErrorViewModel to the provided writer
func (r *DashboardRenderer) RenderError(w io.Writer, vm ErrorViewModel) error {
	return r.errorTemplate.Execute(w, vm)
}
