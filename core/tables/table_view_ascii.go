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
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/toolio/merchplan/core/aggregates"
	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
)

var printer = message.NewPrinter(language.English)

// ToASCII returns the headline totals followed by the result table (or the weekly
// pivot in pivot mode) with ASCII borders.
func (r *ViewResult) ToASCII() string {
	var sb strings.Builder

	for i, m := range dataset.Metrics {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(printer.Sprintf("%s: %d", m, r.Totals.Value(m)))
	}
	sb.WriteString("\n\n")

	if r.Mode == query.ModePivot && r.Pivot != nil {
		writePivot(&sb, r.Pivot)
	} else {
		writeTable(&sb, r.Displayed(), r.Totals)
		sb.WriteString(fmt.Sprintf("%d of %d rows, %d of %d records\n",
			len(r.Rows), r.TotalRows(), r.Filtered, r.DatasetSize))
	}
	return sb.String()
}

func writeTable(sb *strings.Builder, t aggregates.Table, totals aggregates.Totals) {
	header := t.Columns()
	nAttrs := len(t.Attributes)

	cells := make([][]string, 0, len(t.Rows)+1)
	var previous []string
	for _, row := range t.Rows {
		line := make([]string, 0, len(header))
		for j, v := range row.Values {
			// grouped values repeating the row above are left blank, like merged cells
			if t.Grouped && previous != nil && samePrefix(previous, row.Values, j) {
				line = append(line, "")
			} else {
				line = append(line, v)
			}
		}
		for _, v := range row.Totals.Values() {
			line = append(line, printer.Sprintf("%d", v))
		}
		cells = append(cells, line)
		previous = row.Values
	}

	footer := make([]string, len(header))
	if nAttrs > 0 {
		footer[0] = "Total"
	}
	for i, v := range totals.Values() {
		footer[nAttrs+i] = printer.Sprintf("%d", v)
	}

	widths := calculateColumnWidths(header, append(cells, footer))
	rightAligned := func(col int) bool { return col >= nAttrs }

	border := borderLine(widths)
	sb.WriteString(border)
	writeCells(sb, header, widths, func(int) bool { return false })
	sb.WriteString(border)
	for _, line := range cells {
		writeCells(sb, line, widths, rightAligned)
	}
	sb.WriteString(border)
	writeCells(sb, footer, widths, rightAligned)
	sb.WriteString(border)
}

func writePivot(sb *strings.Builder, p *aggregates.Pivot) {
	header := append([]string{"Metric"}, p.Weeks...)
	cells := make([][]string, 0, len(p.Rows))
	for _, row := range p.Rows {
		line := make([]string, 0, len(header))
		line = append(line, strings.Repeat("  ", row.Level+1)+row.Label)
		for _, v := range row.Weeks {
			line = append(line, printer.Sprintf("%d", v))
		}
		cells = append(cells, line)
	}

	widths := calculateColumnWidths(header, cells)
	rightAligned := func(col int) bool { return col > 0 }

	border := borderLine(widths)
	sb.WriteString(border)
	writeCells(sb, header, widths, func(int) bool { return false })
	sb.WriteString(border)
	for _, line := range cells {
		writeCells(sb, line, widths, rightAligned)
	}
	sb.WriteString(border)
}

// samePrefix reports whether a and b agree on every value up to and including index j.
func samePrefix(a, b []string, j int) bool {
	for i := 0; i <= j; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// calculateColumnWidths calculates the width needed for each column
func calculateColumnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, v := range row {
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func borderLine(widths []int) string {
	var sb strings.Builder
	for _, w := range widths {
		sb.WriteString("+")
		sb.WriteString(strings.Repeat("-", w+2))
	}
	sb.WriteString("+\n")
	return sb.String()
}

func writeCells(sb *strings.Builder, values []string, widths []int, rightAligned func(int) bool) {
	for i, w := range widths {
		sb.WriteString("| ")
		if rightAligned(i) {
			sb.WriteString(fmt.Sprintf("%*s", w, values[i]))
		} else {
			sb.WriteString(fmt.Sprintf("%-*s", w, values[i]))
		}
		sb.WriteString(" ")
	}
	sb.WriteString("|\n")
}
