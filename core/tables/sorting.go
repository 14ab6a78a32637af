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

package tables

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/toolio/merchplan/core/aggregates"
	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
)

// sortKey compares rows on one table column. Attribute values compare in catalog
// order, metric values numerically.
type sortKey struct {
	attrIndex  int // index into Table.Attributes, -1 for a metric
	metric     dataset.Metric
	rank       map[string]int
	descending bool
}

// rankedRow keeps the row's position so that equal keys keep first-appearance order.
type rankedRow struct {
	pos int
	row aggregates.Row
}

// topKHeap implements a max-heap for top-K selection
// When we want the smallest K elements, we use a max-heap:
// - If new element is smaller than max, pop max and push new element
// - At the end, heap contains K smallest elements
type topKHeap struct {
	rows []rankedRow
	keys []sortKey
}

func (h *topKHeap) Len() int { return len(h.rows) }

// Less returns true if element at i should be ABOVE j in the heap.
// The top of the heap is the "worst" of the K best rows.
func (h *topKHeap) Less(i, j int) bool {
	return compareRows(h.keys, h.rows[i], h.rows[j]) > 0
}

func (h *topKHeap) Swap(i, j int) {
	h.rows[i], h.rows[j] = h.rows[j], h.rows[i]
}

func (h *topKHeap) Push(x interface{}) {
	h.rows = append(h.rows, x.(rankedRow))
}

func (h *topKHeap) Pop() interface{} {
	old := h.rows
	n := len(old)
	x := old[n-1]
	h.rows = old[0 : n-1]
	return x
}

// peek returns the top element without removing it
func (h *topKHeap) peek() rankedRow {
	return h.rows[0]
}

// compareRows compares two rows using multi-column sort order, then original position.
// Returns negative if a sorts before b.
func compareRows(keys []sortKey, a, b rankedRow) int {
	for _, k := range keys {
		var cmp int
		if k.attrIndex >= 0 {
			va, vb := a.row.Values[k.attrIndex], b.row.Values[k.attrIndex]
			ra, oka := k.rank[va]
			rb, okb := k.rank[vb]
			if oka && okb {
				cmp = ra - rb
			} else {
				cmp = strings.Compare(va, vb)
			}
		} else {
			ma, mb := a.row.Totals.Value(k.metric), b.row.Totals.Value(k.metric)
			switch {
			case ma < mb:
				cmp = -1
			case ma > mb:
				cmp = 1
			}
		}
		if cmp != 0 {
			if k.descending {
				return -cmp
			}
			return cmp
		}
	}
	return a.pos - b.pos
}

// resolveSortKeys maps sort columns onto the table. Columns that are not part of
// the table (e.g. a display attribute of a grouped table) are skipped.
func resolveSortKeys(catalog dataset.Catalog, table aggregates.Table, order []query.SortColumn) []sortKey {
	keys := make([]sortKey, 0, len(order))
	for _, sc := range order {
		if attr, err := dataset.ParseAttribute(sc.Name); err == nil {
			for i, a := range table.Attributes {
				if a != attr {
					continue
				}
				rank := make(map[string]int)
				for r, v := range catalog.Domain(attr) {
					rank[v] = r
				}
				keys = append(keys, sortKey{attrIndex: i, rank: rank, descending: sc.Descending})
				break
			}
			continue
		}
		for _, m := range dataset.Metrics {
			if string(m) == sc.Name {
				keys = append(keys, sortKey{attrIndex: -1, metric: m, descending: sc.Descending})
			}
		}
	}
	return keys
}

// sortedTopK returns the first limit rows of table in sort order; limit 0 means all rows.
// Uses heap-based selection: O(n log k) instead of O(n log n) for full sort.
//
// Algorithm:
// 1. Build a max-heap of size K (keeping the K "best" rows seen so far)
// 2. Scan all rows, replacing heap top when a better row is found
// 3. Sort the final K rows
func sortedTopK(catalog dataset.Catalog, table aggregates.Table, order []query.SortColumn, limit int) []aggregates.Row {
	rows := table.Rows
	keys := resolveSortKeys(catalog, table, order)

	// If no valid sort columns, return first K rows as-is
	if len(keys) == 0 {
		if limit <= 0 || limit >= len(rows) {
			return rows
		}
		return rows[:limit]
	}

	if limit <= 0 || limit >= len(rows) {
		ranked := make([]rankedRow, len(rows))
		for i, r := range rows {
			ranked[i] = rankedRow{pos: i, row: r}
		}
		return sortRanked(ranked, keys)
	}

	h := &topKHeap{
		rows: make([]rankedRow, 0, limit),
		keys: keys,
	}

	// Initialize heap with first K rows
	for i := 0; i < limit; i++ {
		h.rows = append(h.rows, rankedRow{pos: i, row: rows[i]})
	}
	heap.Init(h)

	// Process remaining rows
	for i := limit; i < len(rows); i++ {
		candidate := rankedRow{pos: i, row: rows[i]}
		if compareRows(keys, candidate, h.peek()) < 0 {
			heap.Pop(h)
			heap.Push(h, candidate)
		}
	}

	return sortRanked(h.rows, keys)
}

// sortRanked sorts rows according to keys and strips the positions
func sortRanked(ranked []rankedRow, keys []sortKey) []aggregates.Row {
	sort.Slice(ranked, func(i, j int) bool {
		return compareRows(keys, ranked[i], ranked[j]) < 0
	})
	out := make([]aggregates.Row, len(ranked))
	for i, r := range ranked {
		out[i] = r.row
	}
	return out
}
