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
	"github.com/toolio/merchplan/core/grouping"
)

// PivotRow is one line of the weekly pivot. Metric rows have Level -1; group rows
// start at level 0 under their metric.
type PivotRow struct {
	Metric    dataset.Metric `json:"metric"`
	Level     int            `json:"level"`
	Label     string         `json:"label"`
	Key       string         `json:"key"`
	ParentKey string         `json:"parent_key,omitempty"`
	Weeks     []int64        `json:"weeks"`
}

// Pivot lays each metric out by week, with a collapsible group tree under every metric.
type Pivot struct {
	Weeks   []string            `json:"weeks"`
	GroupBy []dataset.Attribute `json:"group_by"`
	Rows    []PivotRow          `json:"rows"`
}

// BuildPivot sums each metric per week over records. groupBy forms the tree under each
// metric row; Week is dropped from it since weeks are already the columns.
func BuildPivot(records []*dataset.Record, weeks []string, groupBy []dataset.Attribute) Pivot {
	var attrs []dataset.Attribute
	for _, a := range Unique(groupBy) {
		if a != dataset.Week {
			attrs = append(attrs, a)
		}
	}

	weekIndex := make(map[string]int, len(weeks))
	for i, w := range weeks {
		weekIndex[w] = i
	}
	sumWeeks := func(m dataset.Metric, indices []int) []int64 {
		out := make([]int64, len(weeks))
		for _, idx := range indices {
			r := records[idx]
			if w, ok := weekIndex[r.Week]; ok {
				out[w] += r.Metric(m)
			}
		}
		return out
	}

	all := make([]int, len(records))
	for i := range records {
		all[i] = i
	}
	tree := grouping.Build(records, attrs)

	p := Pivot{Weeks: weeks, GroupBy: attrs}
	for _, m := range dataset.Metrics {
		metricKey := pivotKey([]string{string(m)})
		p.Rows = append(p.Rows, PivotRow{
			Metric: m,
			Level:  -1,
			Label:  string(m),
			Key:    metricKey,
			Weeks:  sumWeeks(m, all),
		})
		tree.Walk(func(g *grouping.Group, level int) {
			path := append([]string{string(m)}, g.Path()...)
			label := g.Value
			if label == "" {
				label = "(blank)"
			}
			p.Rows = append(p.Rows, PivotRow{
				Metric:    m,
				Level:     level,
				Label:     label,
				Key:       pivotKey(path),
				ParentKey: pivotKey(path[:len(path)-1]),
				Weeks:     sumWeeks(m, g.Indices),
			})
		})
	}
	return p
}

func pivotKey(parts []string) string {
	return strings.Join(parts, "|")
}

// Children returns the rows whose parent is key, in order.
func (p Pivot) Children(key string) []PivotRow {
	var out []PivotRow
	for _, r := range p.Rows {
		if r.ParentKey == key {
			out = append(out, r)
		}
	}
	return out
}
