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

package views

import (
	"github.com/google/safehtml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/toolio/merchplan/core/aggregates"
	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
	"github.com/toolio/merchplan/core/tables"
)

// DashboardViewModel contains the view result formatted for template consumption
type DashboardViewModel struct {
	Title      string
	CurrentURL safehtml.URL // Current URL, for the reload link
	APIURL     safehtml.URL // Same state as JSON

	Metrics     []MetricCard    // Headline totals over the filtered records
	Attributes  []AttributeInfo // Display and group-by pickers
	Filters     []FilterInfo    // One panel per attribute
	HasFilters  bool
	ClearAllURL safehtml.URL
	Modes       []ModeLink

	IsPivot bool
	Grouped bool
	Headers []HeaderInfo
	Rows    [][]CellView
	Footer  []CellView
	Pivot   *PivotView

	// Pagination info
	TotalRows       int          // Rows in the result table
	DisplayedRows   int          // Rows actually displayed
	HasMoreRows     bool         // True if the limit hides rows
	CurrentLimit    int          // Current row limit
	ShowMoreURL     safehtml.URL // Doubles the limit
	ShowAllURL      safehtml.URL
	FilteredRecords string
	DatasetSize     string
}

// MetricCard is one headline total
type MetricCard struct {
	Label string
	Value string
}

// AttributeInfo contains information about an attribute for the pickers
type AttributeInfo struct {
	Name            string
	IsVisible       bool         // Shown as a column of the raw table
	IsGrouped       bool         // Part of the group-by order
	GroupLevel      int          // 1-based position in the group-by order, 0 if not grouped
	ToggleColumnURL safehtml.URL // URL to toggle visibility (preserves all query params)
	ToggleGroupURL  safehtml.URL // URL to toggle grouping
}

// FilterInfo is the filter panel of one attribute
type FilterInfo struct {
	Attribute string
	Active    bool
	Values    []FilterValue
	ClearURL  safehtml.URL
}

// FilterValue is a toggle chip for one value
type FilterValue struct {
	Value     string
	Selected  bool
	ToggleURL safehtml.URL
}

// ModeLink switches between the table and the pivot
type ModeLink struct {
	Label  string
	Active bool
	URL    safehtml.URL
}

// HeaderInfo is a result table column header
type HeaderInfo struct {
	Name          string
	IsMetric      bool
	SortDirection string       // "asc", "desc" or ""
	SortURL       safehtml.URL // Cycles the sort on this column
}

// CellView is one formatted table cell
type CellView struct {
	Value    string
	IsMetric bool
}

// PivotView is the weekly pivot as a tree of collapsible nodes
type PivotView struct {
	Weeks   []string
	GroupBy []string
	Metrics []PivotNode
}

// PivotNode is one row of the pivot and its children
type PivotNode struct {
	Label    string
	Weeks    []string
	Total    string
	Children []PivotNode
}

// HasChildren reports whether the node renders as an expandable element
func (n PivotNode) HasChildren() bool {
	return len(n.Children) > 0
}

var printer = message.NewPrinter(language.English)

// FormatUnits formats a unit count with thousand separators
func FormatUnits(v int64) string {
	return printer.Sprintf("%d", v)
}

// BuildViewModel turns a computed view into the dashboard's view model
func BuildViewModel(title string, catalog dataset.Catalog, result *tables.ViewResult, q *query.Query) DashboardViewModel {
	vm := DashboardViewModel{
		Title:           title,
		CurrentURL:      q.ToSafeURL(),
		APIURL:          q.WithPath("/api/view"),
		IsPivot:         result.Mode == query.ModePivot,
		Grouped:         result.Table.Grouped,
		ClearAllURL:     q.WithoutFilters(),
		TotalRows:       result.TotalRows(),
		DisplayedRows:   len(result.Rows),
		HasMoreRows:     result.Truncated(),
		CurrentLimit:    q.Limit,
		FilteredRecords: FormatUnits(int64(result.Filtered)),
		DatasetSize:     FormatUnits(int64(result.DatasetSize)),
	}
	if vm.HasMoreRows {
		vm.ShowMoreURL = q.WithLimit(q.Limit * 2)
		vm.ShowAllURL = q.WithLimit(0)
	}

	for _, m := range dataset.Metrics {
		vm.Metrics = append(vm.Metrics, MetricCard{Label: string(m), Value: FormatUnits(result.Totals.Value(m))})
	}

	groupLevel := make(map[string]int, len(q.GroupedColumns))
	for i, name := range q.GroupedColumns {
		groupLevel[name] = i + 1
	}
	for _, a := range dataset.Attributes {
		name := string(a)
		vm.Attributes = append(vm.Attributes, AttributeInfo{
			Name:            name,
			IsVisible:       q.IsColumnVisible(name),
			IsGrouped:       q.IsColumnGrouped(name),
			GroupLevel:      groupLevel[name],
			ToggleColumnURL: q.WithColumnToggled(name),
			ToggleGroupURL:  q.WithGroupedColumnToggled(name),
		})
	}

	vm.Filters = buildFilters(catalog, q)
	for _, f := range vm.Filters {
		if f.Active {
			vm.HasFilters = true
		}
	}

	vm.Modes = []ModeLink{
		{Label: "Table", Active: !vm.IsPivot, URL: q.WithMode(query.ModeTable)},
		{Label: "Weekly pivot", Active: vm.IsPivot, URL: q.WithMode(query.ModePivot)},
	}

	if vm.IsPivot && result.Pivot != nil {
		vm.Pivot = buildPivotView(result.Pivot)
		return vm
	}

	displayed := result.Displayed()
	for _, a := range displayed.Attributes {
		vm.Headers = append(vm.Headers, header(q, string(a), false))
	}
	for _, m := range dataset.Metrics {
		vm.Headers = append(vm.Headers, header(q, string(m), true))
	}
	for _, row := range displayed.Rows {
		vm.Rows = append(vm.Rows, cells(row.Values, row.Totals))
	}
	footerValues := make([]string, len(displayed.Attributes))
	if len(footerValues) > 0 {
		footerValues[0] = "Total"
	}
	vm.Footer = cells(footerValues, result.Totals)
	return vm
}

func header(q *query.Query, name string, isMetric bool) HeaderInfo {
	return HeaderInfo{
		Name:          name,
		IsMetric:      isMetric,
		SortDirection: q.SortDirection(name),
		SortURL:       q.WithSortToggled(name),
	}
}

func cells(values []string, totals aggregates.Totals) []CellView {
	out := make([]CellView, 0, len(values)+len(dataset.Metrics))
	for _, v := range values {
		out = append(out, CellView{Value: v})
	}
	for _, v := range totals.Values() {
		out = append(out, CellView{Value: FormatUnits(v), IsMetric: true})
	}
	return out
}

// buildFilters lists every domain value of every attribute as a chip. Selected
// values outside the catalog are listed too, so they can be removed.
func buildFilters(catalog dataset.Catalog, q *query.Query) []FilterInfo {
	var out []FilterInfo
	for _, a := range dataset.Attributes {
		name := string(a)
		f := FilterInfo{
			Attribute: name,
			Active:    len(q.Filters[name]) > 0,
			ClearURL:  q.WithoutFilter(name),
		}
		known := make(map[string]bool)
		for _, v := range catalog.Domain(a) {
			known[v] = true
			f.Values = append(f.Values, FilterValue{
				Value:     v,
				Selected:  q.IsFilterValueSelected(name, v),
				ToggleURL: q.WithFilterValueToggled(name, v),
			})
		}
		for _, v := range q.Filters[name] {
			if !known[v] {
				f.Values = append(f.Values, FilterValue{
					Value:     v,
					Selected:  true,
					ToggleURL: q.WithFilterValueToggled(name, v),
				})
			}
		}
		out = append(out, f)
	}
	return out
}

func buildPivotView(p *aggregates.Pivot) *PivotView {
	pv := &PivotView{Weeks: p.Weeks}
	for _, a := range p.GroupBy {
		pv.GroupBy = append(pv.GroupBy, string(a))
	}

	var build func(row aggregates.PivotRow) PivotNode
	build = func(row aggregates.PivotRow) PivotNode {
		n := PivotNode{Label: row.Label}
		var total int64
		for _, v := range row.Weeks {
			n.Weeks = append(n.Weeks, FormatUnits(v))
			total += v
		}
		n.Total = FormatUnits(total)
		for _, child := range p.Children(row.Key) {
			n.Children = append(n.Children, build(child))
		}
		return n
	}
	for _, row := range p.Rows {
		if row.Level == -1 {
			pv.Metrics = append(pv.Metrics, build(row))
		}
	}
	return pv
}
