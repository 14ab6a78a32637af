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

// Package selection narrows a dataset to the records matching a filter specification.
package selection

import (
	"github.com/toolio/merchplan/core/dataset"
)

// Filter maps an attribute to the values it may take. An attribute that is absent,
// or mapped to no values, is not filtered. Several values mean "equal to any of".
type Filter map[dataset.Attribute][]string

// Set replaces the values for an attribute. Passing no values clears it.
func (f Filter) Set(a dataset.Attribute, values ...string) {
	if len(values) == 0 {
		delete(f, a)
		return
	}
	f[a] = values
}

// Selected reports whether value is one of the chosen values for the attribute.
func (f Filter) Selected(a dataset.Attribute, value string) bool {
	for _, v := range f[a] {
		if v == value {
			return true
		}
	}
	return false
}

// Matches reports whether a record satisfies every predicate of the filter.
func (f Filter) Matches(r *dataset.Record) bool {
	for a, values := range f {
		if len(values) == 0 {
			continue
		}
		if !f.Selected(a, r.Attribute(a)) {
			return false
		}
	}
	return true
}

// Select returns the records matching the filter, in their original order.
// Records are not copied; the result shares the backing records of the input.
func Select(records []dataset.Record, f Filter) []*dataset.Record {
	out := make([]*dataset.Record, 0, len(records))
	for i := range records {
		if f.Matches(&records[i]) {
			out = append(out, &records[i])
		}
	}
	return out
}
