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
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/toolio/merchplan/core/dataset"
	"github.com/toolio/merchplan/core/query"
	"github.com/toolio/merchplan/pkg/config"
	"github.com/toolio/merchplan/pkg/logger"
)

const serviceName = "merchplan"

var rootCmd = &cobra.Command{
	Use:   "merchplan",
	Short: "Merchandise planning dashboard",
	Long: `merchplan generates a synthetic merchandise plan and serves an
interactive dashboard over it. Without a subcommand it runs serve.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env when present, then the environment.
func loadConfig(ctx context.Context, logg *logger.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, "no .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildDataset generates the plan records described by cfg.
func buildDataset(cfg *config.Config) (*dataset.Dataset, error) {
	opts, err := cfg.Data.GenerateOptions()
	if err != nil {
		return nil, fmt.Errorf("data options: %w", err)
	}
	return dataset.Generate(opts), nil
}

func viewDefaults(cfg *config.Config) query.Defaults {
	return query.Defaults{
		Columns: cfg.View.DefaultColumns,
		Grouped: cfg.View.DefaultGrouped,
		Limit:   cfg.View.RowLimit,
	}
}
