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
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/safehtml"

	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/selection"
	pkgerrors "github.com/toolio/merchplan/pkg/errors"
)

// Display modes of the results panel.
const (
	ModeTable = "table"
	ModePivot = "pivot"
)

// filterValueSep separates the selected values of one filter parameter.
const filterValueSep = "|"

// SortColumn is one key of the result table's sort order. Name is an attribute or metric name.
type SortColumn struct {
	Name       string
	Descending bool
}

// Defaults fill in parameters that are absent from the URL.
type Defaults struct {
	Columns []string
	Grouped []string
	Limit   int
}

// Query is the session state of one dashboard view, carried entirely in the URL.
type Query struct {
	// Base path (e.g., "/")
	Path string

	Columns        []string            // Ordered display attributes (filtered-only, grouped, then others)
	GroupedColumns []string            // Ordered group-by attributes
	Filters        map[string][]string // Attribute -> selected values
	Mode           string              // ModeTable or ModePivot
	Limit          int                 // Number of rows to display (0 = show all)
	SortOrder      []SortColumn        // Empty keeps first-appearance order
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL, defaults Defaults) *Query {
	state := &Query{
		Path:    u.Path,
		Filters: make(map[string][]string),
		Mode:    ModeTable,
		Limit:   defaults.Limit,
	}

	q := u.Query()

	// An explicit empty "columns" parameter means no attribute columns.
	if _, ok := q["columns"]; ok {
		state.Columns = splitList(q.Get("columns"), ",")
	} else {
		state.Columns = append([]string{}, defaults.Columns...)
	}

	if _, ok := q["grouped"]; ok {
		state.GroupedColumns = splitList(q.Get("grouped"), ",")
	} else {
		state.GroupedColumns = append([]string{}, defaults.Grouped...)
	}

	if mode := q.Get("mode"); mode != "" {
		state.Mode = mode
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 {
			state.Limit = limit
		}
	}

	// sort=-Gross Sales Units,Brand ; a leading "-" means descending
	for _, key := range splitList(q.Get("sort"), ",") {
		sc := SortColumn{Name: key}
		if strings.HasPrefix(key, "-") {
			sc = SortColumn{Name: strings.TrimPrefix(key, "-"), Descending: true}
		}
		if sc.Name != "" {
			state.SortOrder = append(state.SortOrder, sc)
		}
	}

	// Extract filter parameters (format: filter:Attribute=v1|v2), repeated keys are merged
	for key, values := range q {
		if !strings.HasPrefix(key, "filter:") {
			continue
		}
		attr := strings.TrimPrefix(key, "filter:")
		for _, v := range values {
			for _, part := range splitList(v, filterValueSep) {
				state.addFilterValue(attr, part)
			}
		}
	}

	// Reorder columns: filtered columns first, then grouped columns, then others
	state.reorderColumns()

	return state
}

func splitList(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Query) addFilterValue(attr, value string) {
	for _, v := range s.Filters[attr] {
		if v == value {
			return
		}
	}
	s.Filters[attr] = append(s.Filters[attr], value)
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := &Query{
		Path:           s.Path,
		Columns:        append([]string{}, s.Columns...),
		GroupedColumns: append([]string{}, s.GroupedColumns...),
		Filters:        make(map[string][]string, len(s.Filters)),
		Mode:           s.Mode,
		Limit:          s.Limit,
		SortOrder:      append([]SortColumn{}, s.SortOrder...),
	}
	for attr, values := range s.Filters {
		clone.Filters[attr] = append([]string{}, values...)
	}
	return clone
}

// reorderColumns reorders the Columns slice to maintain:
// 1. Filtered columns (leftmost) - only columns that are filtered but NOT grouped
// 2. Grouped columns (middle) - in GroupedColumns order (the grouping hierarchy)
// 3. Other columns (rightmost)
// A column that is both filtered and grouped stays in the grouped section.
func (s *Query) reorderColumns() {
	if len(s.Columns) == 0 {
		return
	}

	groupedCols := make(map[string]bool)
	for _, colName := range s.GroupedColumns {
		groupedCols[colName] = true
	}

	visibleCols := make(map[string]bool)
	for _, colName := range s.Columns {
		visibleCols[colName] = true
	}

	var filtered, others []string
	for _, colName := range s.Columns {
		if groupedCols[colName] {
			continue
		} else if len(s.Filters[colName]) > 0 {
			filtered = append(filtered, colName)
		} else {
			others = append(others, colName)
		}
	}

	var grouped []string
	for _, colName := range s.GroupedColumns {
		if visibleCols[colName] {
			grouped = append(grouped, colName)
		}
	}

	s.Columns = make([]string, 0, len(filtered)+len(grouped)+len(others))
	s.Columns = append(s.Columns, filtered...)
	s.Columns = append(s.Columns, grouped...)
	s.Columns = append(s.Columns, others...)
}

// WithColumnToggled returns a URL with the column toggled (added if not present, removed if present)
func (s *Query) WithColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	found := false
	newColumns := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		if col == column {
			found = true
		} else {
			newColumns = append(newColumns, col)
		}
	}

	if found {
		newState.Columns = newColumns
	} else {
		newState.Columns = append(newState.Columns, column)
	}
	newState.reorderColumns()

	return newState.ToSafeURL()
}

// WithGroupedColumnToggled returns a URL with the grouped column toggled.
// A grouped column is removed from grouping; any other column is added to the end of the grouping order.
func (s *Query) WithGroupedColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	found := false
	newGrouped := make([]string, 0, len(s.GroupedColumns))

	for _, col := range s.GroupedColumns {
		if col == column {
			found = true
		} else {
			newGrouped = append(newGrouped, col)
		}
	}

	if found {
		newState.GroupedColumns = newGrouped
	} else {
		newState.GroupedColumns = append(newState.GroupedColumns, column)
	}

	newState.reorderColumns()

	return newState.ToSafeURL()
}

// WithFilterValueToggled returns a URL with value added to or removed from the column's filter
func (s *Query) WithFilterValueToggled(column, value string) safehtml.URL {
	newState := s.Clone()
	if s.IsFilterValueSelected(column, value) {
		kept := make([]string, 0, len(s.Filters[column]))
		for _, v := range s.Filters[column] {
			if v != value {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(newState.Filters, column)
		} else {
			newState.Filters[column] = kept
		}
	} else {
		newState.addFilterValue(column, value)
	}
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithoutFilter returns a URL with every value of the column's filter cleared
func (s *Query) WithoutFilter(column string) safehtml.URL {
	newState := s.Clone()
	delete(newState.Filters, column)
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithoutFilters returns a URL with all filters cleared
func (s *Query) WithoutFilters() safehtml.URL {
	newState := s.Clone()
	newState.Filters = make(map[string][]string)
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithMode returns a URL showing the results in another mode
func (s *Query) WithMode(mode string) safehtml.URL {
	newState := s.Clone()
	newState.Mode = mode
	return newState.ToSafeURL()
}

// WithLimit returns a URL with a different row limit
func (s *Query) WithLimit(limit int) safehtml.URL {
	newState := s.Clone()
	newState.Limit = limit
	return newState.ToSafeURL()
}

// WithSortToggled returns a URL sorting by column alone, cycling ascending, descending, unsorted
func (s *Query) WithSortToggled(column string) safehtml.URL {
	newState := s.Clone()
	switch s.SortDirection(column) {
	case "asc":
		newState.SortOrder = []SortColumn{{Name: column, Descending: true}}
	case "desc":
		newState.SortOrder = nil
	default:
		newState.SortOrder = []SortColumn{{Name: column}}
	}
	return newState.ToSafeURL()
}

// SortDirection returns "asc" or "desc" when column is part of the sort order, "" otherwise
func (s *Query) SortDirection(column string) string {
	for _, sc := range s.SortOrder {
		if sc.Name == column {
			if sc.Descending {
				return "desc"
			}
			return "asc"
		}
	}
	return ""
}

// WithPath returns a URL for the same state on another path (e.g. the JSON API)
func (s *Query) WithPath(path string) safehtml.URL {
	newState := s.Clone()
	newState.Path = path
	return newState.ToSafeURL()
}

// IsColumnVisible checks if a column is in the visible columns list
func (s *Query) IsColumnVisible(column string) bool {
	return contains(s.Columns, column)
}

// IsColumnGrouped checks if a column is in the grouped columns list
func (s *Query) IsColumnGrouped(column string) bool {
	return contains(s.GroupedColumns, column)
}

// IsFilterValueSelected checks if value is selected in the column's filter
func (s *Query) IsFilterValueSelected(column, value string) bool {
	return contains(s.Filters[column], value)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{
		Path: s.Path,
	}

	q := u.Query()

	// columns is always present so that an empty display list survives the round trip
	q.Set("columns", strings.Join(s.Columns, ","))

	if len(s.GroupedColumns) > 0 {
		q.Set("grouped", strings.Join(s.GroupedColumns, ","))
	} else {
		q.Set("grouped", "")
	}

	for colName, values := range s.Filters {
		if len(values) > 0 {
			q.Set("filter:"+colName, strings.Join(values, filterValueSep))
		}
	}

	if s.Mode != "" && s.Mode != ModeTable {
		q.Set("mode", s.Mode)
	}

	q.Set("limit", strconv.Itoa(s.Limit))

	if len(s.SortOrder) > 0 {
		keys := make([]string, len(s.SortOrder))
		for i, sc := range s.SortOrder {
			keys[i] = sc.Name
			if sc.Descending {
				keys[i] = "-" + sc.Name
			}
		}
		q.Set("sort", strings.Join(keys, ","))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// View is the typed form of a validated Query.
type View struct {
	Display []dataset.Attribute
	GroupBy []dataset.Attribute
	Filter  selection.Filter
	Mode    string
	Limit   int
	Sort    []SortColumn
}

var validate = validator.New()

// attribute reports whether name is a dataset attribute.
func attribute(fl validator.FieldLevel) bool {
	_, err := dataset.ParseAttribute(fl.Field().String())
	return err == nil
}

// sortable reports whether name is a table column: an attribute or a metric.
func sortable(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if _, err := dataset.ParseAttribute(name); err == nil {
		return true
	}
	for _, m := range dataset.Metrics {
		if string(m) == name {
			return true
		}
	}
	return false
}

func init() {
	// attribute and metric names contain spaces, which oneof cannot express
	if err := validate.RegisterValidation("attribute", attribute); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("sortable", sortable); err != nil {
		panic(err)
	}
}

// Validate rejects unknown attribute names and modes. Filter values are not
// checked: a value outside the catalog just selects nothing.
func (s *Query) Validate() error {
	const attrRule = "dive,attribute"

	filtered := make([]string, 0, len(s.Filters))
	for attr := range s.Filters {
		filtered = append(filtered, attr)
	}
	sort.Strings(filtered)

	sortNames := make([]string, len(s.SortOrder))
	for i, sc := range s.SortOrder {
		sortNames[i] = sc.Name
	}

	checks := []struct {
		field string
		value any
		rule  string
	}{
		{"columns", s.Columns, attrRule},
		{"grouped", s.GroupedColumns, attrRule},
		{"filter", filtered, attrRule},
		{"mode", s.Mode, "oneof=" + ModeTable + " " + ModePivot},
		{"limit", s.Limit, "min=0"},
		{"sort", sortNames, "dive,sortable"},
	}
	for _, c := range checks {
		if err := validate.Var(c.value, c.rule); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+c.field).
				WithDetails(map[string]any{"field": c.field, "value": c.value})
		}
	}
	return nil
}

// View validates the query and returns its typed form.
func (s *Query) View() (View, error) {
	if err := s.Validate(); err != nil {
		return View{}, err
	}
	v := View{
		Display: toAttributes(s.Columns),
		GroupBy: toAttributes(s.GroupedColumns),
		Filter:  make(selection.Filter, len(s.Filters)),
		Mode:    s.Mode,
		Limit:   s.Limit,
		Sort:    append([]SortColumn{}, s.SortOrder...),
	}
	for attr, values := range s.Filters {
		v.Filter.Set(dataset.Attribute(attr), values...)
	}
	return v, nil
}

func toAttributes(names []string) []dataset.Attribute {
	out := make([]dataset.Attribute, len(names))
	for i, n := range names {
		out[i] = dataset.Attribute(n)
	}
	return out
}
