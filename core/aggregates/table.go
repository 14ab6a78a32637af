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

package aggregates

import (
	"strings"

	"github.com/toolio/merchplan/core/dataset"
)

// Row is one line of a result table. Values is aligned with Table.Attributes.
type Row struct {
	Values []string
	Totals Totals
}

// Table is either the raw filtered records or one row per group tuple.
type Table struct {
	Attributes []dataset.Attribute
	Grouped    bool
	Rows       []Row
}

// Columns returns the attribute column names followed by the metric column names.
func (t Table) Columns() []string {
	cols := make([]string, 0, len(t.Attributes)+len(dataset.Metrics))
	for _, a := range t.Attributes {
		cols = append(cols, string(a))
	}
	for _, m := range dataset.Metrics {
		cols = append(cols, string(m))
	}
	return cols
}

// Maps returns every row as a column name to value mapping. Attribute values are
// strings and metric values are int64.
func (t Table) Maps() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]any, len(t.Attributes)+len(dataset.Metrics))
		for j, a := range t.Attributes {
			m[string(a)] = row.Values[j]
		}
		for _, metric := range dataset.Metrics {
			m[string(metric)] = row.Totals.Value(metric)
		}
		out[i] = m
	}
	return out
}

// groupKeySep cannot appear in catalog values.
const groupKeySep = "\x1f"

// Group partitions records by the tuple of their groupBy values and sums each part.
// Rows are ordered by the first appearance of each tuple in records.
func Group(records []*dataset.Record, groupBy []dataset.Attribute) []Row {
	groupBy = Unique(groupBy)
	index := make(map[string]int)
	rows := make([]Row, 0)

	values := make([]string, len(groupBy))
	for _, r := range records {
		for i, a := range groupBy {
			values[i] = r.Attribute(a)
		}
		key := strings.Join(values, groupKeySep)
		idx, ok := index[key]
		if !ok {
			idx = len(rows)
			index[key] = idx
			rows = append(rows, Row{Values: append([]string(nil), values...)})
		}
		rows[idx].Totals.Add(r)
	}
	return rows
}

// Raw returns one unaggregated row per record, restricted to the display attributes.
func Raw(records []*dataset.Record, display []dataset.Attribute) []Row {
	display = Unique(display)
	rows := make([]Row, len(records))
	for i, r := range records {
		values := make([]string, len(display))
		for j, a := range display {
			values[j] = r.Attribute(a)
		}
		rows[i] = Row{Values: values}
		rows[i].Totals.Add(r)
	}
	return rows
}

// Build returns the grouped table when groupBy is non-empty, otherwise the raw
// table of the display attributes.
func Build(records []*dataset.Record, display, groupBy []dataset.Attribute) Table {
	if len(groupBy) > 0 {
		groupBy = Unique(groupBy)
		return Table{Attributes: groupBy, Grouped: true, Rows: Group(records, groupBy)}
	}
	display = Unique(display)
	return Table{Attributes: display, Rows: Raw(records, display)}
}

// Unique drops repeated attributes, keeping the first occurrence.
func Unique(attrs []dataset.Attribute) []dataset.Attribute {
	seen := make(map[dataset.Attribute]bool, len(attrs))
	out := make([]dataset.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
