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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolio/merchplan/core/query"
	"github.com/toolio/merchplan/core/tables"
	"github.com/toolio/merchplan/pkg/logger"
)

const (
	formatASCII = "ascii"
	formatJSON  = "json"
)

var (
	dumpColumns string
	dumpGrouped string
	dumpFilters []string
	dumpMode    string
	dumpLimit   int
	dumpSort    string
	dumpFormat  string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Compute one view and print it",
	Long: `Runs the view pipeline once over the generated dataset and prints the
table or pivot. Flags take the same values as the dashboard URL.

Example:
  merchplan dump --grouped Store,Brand --filter "Color=Red|Black" --sort="-Gross Sales Units"`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpColumns, "columns", "", "comma separated visible attributes")
	dumpCmd.Flags().StringVar(&dumpGrouped, "grouped", "", "comma separated grouping attributes, outermost first")
	dumpCmd.Flags().StringArrayVar(&dumpFilters, "filter", nil, "attribute filter as Attr=v1|v2 (repeatable)")
	dumpCmd.Flags().StringVar(&dumpMode, "mode", query.ModeTable, "view mode: table or pivot")
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, "row limit, 0 for all rows")
	dumpCmd.Flags().StringVar(&dumpSort, "sort", "", "comma separated sort columns, prefix - for descending")
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", formatASCII, "output format: ascii or json")
}

func runDump(cmd *cobra.Command, args []string) error {
	if dumpFormat != formatASCII && dumpFormat != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", dumpFormat, formatASCII, formatJSON)
	}

	cfg, err := loadConfig(cmd.Context(), logger.Nop())
	if err != nil {
		return err
	}
	ds, err := buildDataset(cfg)
	if err != nil {
		return err
	}

	u, err := dumpURL(cmd)
	if err != nil {
		return err
	}
	q := query.NewQuery(u, viewDefaults(cfg))
	result, err := tables.Compute(ds, q)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), result, dumpFormat)
}

// dumpURL encodes the flags as dashboard session state. Flags left unset fall
// back to the configured defaults.
func dumpURL(cmd *cobra.Command) (*url.URL, error) {
	values := url.Values{}
	flags := cmd.Flags()
	if flags.Changed("columns") {
		values.Set("columns", dumpColumns)
	}
	if flags.Changed("grouped") {
		values.Set("grouped", dumpGrouped)
	}
	if flags.Changed("limit") {
		values.Set("limit", strconv.Itoa(dumpLimit))
	}
	if dumpMode != "" {
		values.Set("mode", dumpMode)
	}
	if dumpSort != "" {
		values.Set("sort", dumpSort)
	}
	for _, f := range dumpFilters {
		attr, vals, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(attr) == "" {
			return nil, fmt.Errorf("invalid filter %q (want Attr=v1|v2)", f)
		}
		values.Add("filter:"+strings.TrimSpace(attr), vals)
	}
	return &url.URL{Path: "/", RawQuery: values.Encode()}, nil
}

func writeResult(w io.Writer, result *tables.ViewResult, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Payload())
	}
	_, err := io.WriteString(w, result.ToASCII())
	return err
}
