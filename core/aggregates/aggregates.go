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

// Package aggregates sums the merchandise metrics over filtered records.
// Totals can be combined up a grouping hierarchy, so sums computed per group
// merge into their parent's sums without revisiting records.
package aggregates

import (
	"github.com/toolio/merchplan/core/dataset"
)

// Totals holds the sum of each tracked metric and the number of records added.
type Totals struct {
	GrossSalesUnits int64 `json:"Gross Sales Units"`
	ReceiptsUnits   int64 `json:"Receipts Units"`
	BOPUnits        int64 `json:"BOP Units"`
	OnOrderUnits    int64 `json:"On Order Units"`
	Count           int   `json:"-"`
}

// Add adds a single record to the totals.
func (t *Totals) Add(r *dataset.Record) {
	t.Count++
	t.GrossSalesUnits += r.GrossSalesUnits
	t.ReceiptsUnits += r.ReceiptsUnits
	t.BOPUnits += r.BOPUnits
	t.OnOrderUnits += r.OnOrderUnits
}

// Combine merges other into t.
func (t *Totals) Combine(other Totals) {
	t.Count += other.Count
	t.GrossSalesUnits += other.GrossSalesUnits
	t.ReceiptsUnits += other.ReceiptsUnits
	t.BOPUnits += other.BOPUnits
	t.OnOrderUnits += other.OnOrderUnits
}

// Value returns the sum for a metric.
func (t Totals) Value(m dataset.Metric) int64 {
	switch m {
	case dataset.GrossSalesUnits:
		return t.GrossSalesUnits
	case dataset.ReceiptsUnits:
		return t.ReceiptsUnits
	case dataset.BOPUnits:
		return t.BOPUnits
	case dataset.OnOrderUnits:
		return t.OnOrderUnits
	}
	return 0
}

// Values returns the sums in dataset.Metrics order.
func (t Totals) Values() []int64 {
	out := make([]int64, len(dataset.Metrics))
	for i, m := range dataset.Metrics {
		out[i] = t.Value(m)
	}
	return out
}

// Sum returns the headline totals of records. An empty sequence sums to zero.
func Sum(records []*dataset.Record) Totals {
	var t Totals
	for _, r := range records {
		t.Add(r)
	}
	return t
}
