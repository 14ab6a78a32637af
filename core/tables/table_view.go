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

// Package tables runs the view pipeline: filter, headline totals, result table,
// optional weekly pivot, then sort and row limit on the displayed rows.
package tables

import (
	"github.com/toolio/merchplan/core/aggregates"
	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
	"github.com/toolio/merchplan/core/selection"
)

// ViewResult is everything derived from a Dataset for one session state.
// It is recomputed per request and never cached.
type ViewResult struct {
	Mode        string
	Table       aggregates.Table  // every row of the result table
	Rows        []aggregates.Row  // displayed rows, sorted and limited
	Totals      aggregates.Totals // headline totals over the full filtered set
	Filtered    int               // records left after filtering
	DatasetSize int
	Limit       int
	Pivot       *aggregates.Pivot // set in pivot mode
}

// TotalRows is the number of rows before the limit is applied.
func (r *ViewResult) TotalRows() int {
	return len(r.Table.Rows)
}

// Truncated reports whether the limit hid some rows.
func (r *ViewResult) Truncated() bool {
	return len(r.Rows) < len(r.Table.Rows)
}

// Displayed returns the table restricted to the displayed rows.
func (r *ViewResult) Displayed() aggregates.Table {
	t := r.Table
	t.Rows = r.Rows
	return t
}

// Compute validates the session state and runs the pipeline over ds.
func Compute(ds *dataset.Dataset, q *query.Query) (*ViewResult, error) {
	v, err := q.View()
	if err != nil {
		return nil, err
	}
	return ComputeView(ds, v), nil
}

// ComputeView runs the pipeline for an already validated view.
func ComputeView(ds *dataset.Dataset, v query.View) *ViewResult {
	filtered := selection.Select(ds.Records(), v.Filter)

	result := &ViewResult{
		Mode:        v.Mode,
		Table:       aggregates.Build(filtered, v.Display, v.GroupBy),
		Totals:      aggregates.Sum(filtered),
		Filtered:    len(filtered),
		DatasetSize: ds.Len(),
		Limit:       v.Limit,
	}
	result.Rows = sortedTopK(ds.Catalog(), result.Table, v.Sort, v.Limit)

	if v.Mode == query.ModePivot {
		p := aggregates.BuildPivot(filtered, ds.Catalog().Weeks, v.GroupBy)
		result.Pivot = &p
	}
	return result
}

// Payload is the JSON shape of a view result.
type Payload struct {
	Columns         []string          `json:"columns"`
	Rows            []map[string]any  `json:"rows"`
	Totals          aggregates.Totals `json:"totals"`
	RowCount        int               `json:"row_count"`
	TotalRows       int               `json:"total_rows"`
	FilteredRecords int               `json:"filtered_records"`
	Grouped         bool              `json:"grouped"`
	Pivot           *aggregates.Pivot `json:"pivot,omitempty"`
}

// Payload converts the result to its JSON shape.
func (r *ViewResult) Payload() Payload {
	displayed := r.Displayed()
	return Payload{
		Columns:         displayed.Columns(),
		Rows:            displayed.Maps(),
		Totals:          r.Totals,
		RowCount:        len(r.Rows),
		TotalRows:       r.TotalRows(),
		FilteredRecords: r.Filtered,
		Grouped:         displayed.Grouped,
		Pivot:           r.Pivot,
	}
}
