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

package query

import (
	"net/url"
	"testing"

	"github.com/toolio/merchplan/core/dataset"
	pkgerrors "github.com/toolio/merchplan/pkg/errors"
)

func parse(t *testing.T, raw string) *Query {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return NewQuery(u, Defaults{Columns: []string{"Category", "Brand"}, Limit: 100})
}

func follow(t *testing.T, link interface{ String() string }) *Query {
	t.Helper()
	return parse(t, link.String())
}

// TestColumnReorderingOnGrouping tests that columns are reordered when grouping is toggled
func TestColumnReorderingOnGrouping(t *testing.T) {
	t.Run("Group middle column", func(t *testing.T) {
		q := parse(t, "/?columns=Store,Brand,Category,Week")

		newState := follow(t, q.WithGroupedColumnToggled("Brand"))

		if !equalStringSlices(newState.GroupedColumns, []string{"Brand"}) {
			t.Errorf("Expected grouped columns [Brand], got %v", newState.GroupedColumns)
		}
		expected := []string{"Brand", "Store", "Category", "Week"}
		if !equalStringSlices(newState.Columns, expected) {
			t.Errorf("Expected columns %v, got %v", expected, newState.Columns)
		}
	})

	t.Run("Group multiple columns", func(t *testing.T) {
		q := parse(t, "/?columns=Store,Brand,Category,Week")
		q1 := follow(t, q.WithGroupedColumnToggled("Store"))
		q2 := follow(t, q1.WithGroupedColumnToggled("Category"))

		expectedGrouped := []string{"Store", "Category"}
		if !equalStringSlices(q2.GroupedColumns, expectedGrouped) {
			t.Errorf("Expected grouped columns %v, got %v", expectedGrouped, q2.GroupedColumns)
		}
		expectedColumns := []string{"Store", "Category", "Brand", "Week"}
		if !equalStringSlices(q2.Columns, expectedColumns) {
			t.Errorf("Expected columns %v, got %v", expectedColumns, q2.Columns)
		}
	})

	t.Run("Ungroup middle grouped column", func(t *testing.T) {
		q := parse(t, "/?columns=Store,Brand,Category,Week&grouped=Store,Brand,Category")
		newState := follow(t, q.WithGroupedColumnToggled("Brand"))

		expectedGrouped := []string{"Store", "Category"}
		if !equalStringSlices(newState.GroupedColumns, expectedGrouped) {
			t.Errorf("Expected grouped columns %v, got %v", expectedGrouped, newState.GroupedColumns)
		}
		expectedColumns := []string{"Store", "Category", "Brand", "Week"}
		if !equalStringSlices(newState.Columns, expectedColumns) {
			t.Errorf("Expected columns %v, got %v", expectedColumns, newState.Columns)
		}
	})

	t.Run("Filtered column moves first", func(t *testing.T) {
		q := parse(t, "/?columns=Category,Brand,Color&grouped=Brand")
		newState := follow(t, q.WithFilterValueToggled("Color", "Red"))

		expected := []string{"Color", "Brand", "Category"}
		if !equalStringSlices(newState.Columns, expected) {
			t.Errorf("Expected columns %v, got %v", expected, newState.Columns)
		}
	})
}

func TestNewQueryDefaults(t *testing.T) {
	t.Run("Absent parameters use defaults", func(t *testing.T) {
		q := parse(t, "/")
		if !equalStringSlices(q.Columns, []string{"Category", "Brand"}) {
			t.Errorf("Expected default columns, got %v", q.Columns)
		}
		if len(q.GroupedColumns) != 0 {
			t.Errorf("Expected no grouping, got %v", q.GroupedColumns)
		}
		if q.Mode != ModeTable {
			t.Errorf("Expected mode %q, got %q", ModeTable, q.Mode)
		}
		if q.Limit != 100 {
			t.Errorf("Expected limit 100, got %d", q.Limit)
		}
	})

	t.Run("Explicit empty columns", func(t *testing.T) {
		q := parse(t, "/?columns=")
		if len(q.Columns) != 0 {
			t.Errorf("Expected no columns, got %v", q.Columns)
		}
		// and it survives a round trip
		again := parse(t, q.ToURL())
		if len(again.Columns) != 0 {
			t.Errorf("Expected no columns after round trip, got %v", again.Columns)
		}
	})

	t.Run("Negative limit ignored", func(t *testing.T) {
		q := parse(t, "/?limit=-3")
		if q.Limit != 100 {
			t.Errorf("Expected default limit, got %d", q.Limit)
		}
	})
}

func TestFilters(t *testing.T) {
	t.Run("Multiple values and repeated keys merge", func(t *testing.T) {
		q := parse(t, "/?filter:Color=Red|White&filter:Color=Red&filter:Brand=Acme")
		if !equalStringSlices(q.Filters["Color"], []string{"Red", "White"}) {
			t.Errorf("Expected Color [Red White], got %v", q.Filters["Color"])
		}
		if !equalStringSlices(q.Filters["Brand"], []string{"Acme"}) {
			t.Errorf("Expected Brand [Acme], got %v", q.Filters["Brand"])
		}
	})

	t.Run("Empty filter parameter is no filter", func(t *testing.T) {
		q := parse(t, "/?filter:Color=")
		if _, ok := q.Filters["Color"]; ok {
			t.Errorf("Expected no Color filter, got %v", q.Filters["Color"])
		}
	})

	t.Run("Toggle value on and off", func(t *testing.T) {
		q := parse(t, "/?filter:Color=Red")
		on := follow(t, q.WithFilterValueToggled("Color", "White"))
		if !on.IsFilterValueSelected("Color", "White") || !on.IsFilterValueSelected("Color", "Red") {
			t.Errorf("Expected Red and White selected, got %v", on.Filters["Color"])
		}
		off := follow(t, q.WithFilterValueToggled("Color", "Red"))
		if _, ok := off.Filters["Color"]; ok {
			t.Errorf("Expected Color filter removed, got %v", off.Filters["Color"])
		}
	})

	t.Run("Clear filter", func(t *testing.T) {
		q := parse(t, "/?filter:Color=Red|White&filter:Size=S")
		cleared := follow(t, q.WithoutFilter("Color"))
		if _, ok := cleared.Filters["Color"]; ok {
			t.Errorf("Expected Color filter cleared")
		}
		if !cleared.IsFilterValueSelected("Size", "S") {
			t.Errorf("Expected Size filter kept, got %v", cleared.Filters)
		}
		all := follow(t, q.WithoutFilters())
		if len(all.Filters) != 0 {
			t.Errorf("Expected no filters, got %v", all.Filters)
		}
	})

	t.Run("Links do not mutate the receiver", func(t *testing.T) {
		q := parse(t, "/?filter:Color=Red")
		_ = q.WithFilterValueToggled("Color", "White")
		_ = q.WithoutFilters()
		if !equalStringSlices(q.Filters["Color"], []string{"Red"}) {
			t.Errorf("Expected receiver unchanged, got %v", q.Filters)
		}
	})
}

func TestModeAndLimitLinks(t *testing.T) {
	q := parse(t, "/?grouped=Brand")
	pivot := follow(t, q.WithMode(ModePivot))
	if pivot.Mode != ModePivot {
		t.Errorf("Expected pivot mode, got %q", pivot.Mode)
	}
	if !equalStringSlices(pivot.GroupedColumns, []string{"Brand"}) {
		t.Errorf("Expected grouping kept, got %v", pivot.GroupedColumns)
	}
	back := follow(t, pivot.WithMode(ModeTable))
	if back.Mode != ModeTable {
		t.Errorf("Expected table mode, got %q", back.Mode)
	}

	all := follow(t, q.WithLimit(0))
	if all.Limit != 0 {
		t.Errorf("Expected limit 0, got %d", all.Limit)
	}

	api, err := url.Parse(q.WithPath("/api/view").String())
	if err != nil {
		t.Fatal(err)
	}
	if api.Path != "/api/view" || api.Query().Get("grouped") != "Brand" {
		t.Errorf("Expected API link with same state, got %v", api)
	}
}

func TestSortToggle(t *testing.T) {
	q := parse(t, "/?grouped=Brand")
	if q.SortDirection("Brand") != "" {
		t.Fatalf("Expected unsorted, got %q", q.SortDirection("Brand"))
	}

	asc := follow(t, q.WithSortToggled("Gross Sales Units"))
	if asc.SortDirection("Gross Sales Units") != "asc" {
		t.Errorf("Expected asc, got %v", asc.SortOrder)
	}
	desc := follow(t, asc.WithSortToggled("Gross Sales Units"))
	if desc.SortDirection("Gross Sales Units") != "desc" {
		t.Errorf("Expected desc, got %v", desc.SortOrder)
	}
	off := follow(t, desc.WithSortToggled("Gross Sales Units"))
	if len(off.SortOrder) != 0 {
		t.Errorf("Expected no sort, got %v", off.SortOrder)
	}

	// sorting by another column replaces the previous key
	other := follow(t, desc.WithSortToggled("Brand"))
	if len(other.SortOrder) != 1 || other.SortOrder[0] != (SortColumn{Name: "Brand"}) {
		t.Errorf("Expected [Brand asc], got %v", other.SortOrder)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"defaults", "/", false},
		{"all attributes", "/?columns=Category,Brand,Color,Size,Store,Week&grouped=Week", false},
		{"unknown filter value is fine", "/?filter:Color=Chartreuse", false},
		{"pivot mode", "/?mode=pivot", false},
		{"unknown column", "/?columns=Category,Flavor", true},
		{"unknown grouped", "/?grouped=Region", true},
		{"unknown filter attribute", "/?filter:Region=West", true},
		{"unknown mode", "/?mode=chart", true},
		{"sort by metric", "/?sort=-BOP+Units,Brand", false},
		{"sort by unknown column", "/?sort=Margin", true},
		{"channel hierarchy", "/?grouped=Channel,Channel+Group,Selling+Channel&filter:Channel+Group=Stores", false},
		{"partial attribute name", "/?grouped=Group", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parse(t, tt.raw).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
					t.Errorf("Expected validation error, got %v", err)
				}
			}
		})
	}
}

func TestView(t *testing.T) {
	q := parse(t, "/?columns=Store&grouped=Brand,Week&filter:Color=Red|White&mode=pivot&limit=5")
	v, err := q.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(v.GroupBy) != 2 || v.GroupBy[0] != dataset.Brand || v.GroupBy[1] != dataset.Week {
		t.Errorf("Expected group by [Brand Week], got %v", v.GroupBy)
	}
	if len(v.Display) != 1 || v.Display[0] != dataset.Store {
		t.Errorf("Expected display [Store], got %v", v.Display)
	}
	if !v.Filter.Selected(dataset.Color, "White") || v.Filter.Selected(dataset.Color, "Black") {
		t.Errorf("Unexpected filter %v", v.Filter)
	}
	if v.Mode != ModePivot || v.Limit != 5 {
		t.Errorf("Expected pivot/5, got %s/%d", v.Mode, v.Limit)
	}

	if _, err := parse(t, "/?grouped=Nope").View(); err == nil {
		t.Errorf("Expected error for unknown attribute")
	}
}

// equalStringSlices compares two string slices for equality
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
