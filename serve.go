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
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/toolio/merchplan/core/server"
	"github.com/toolio/merchplan/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	Long: `Loads the configuration, generates the dataset and serves the dashboard
until SIGINT or SIGTERM, then drains in-flight requests.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg := logger.New(logger.Options{ServiceName: serviceName, Output: os.Stdout})

	cfg, err := loadConfig(ctx, logg)
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		return err
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.Format(),
		Output:      os.Stdout,
	})

	start := time.Now()
	ds, err := buildDataset(cfg)
	if err != nil {
		logg.Error(ctx, "failed to generate dataset", err)
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"records":     ds.Len(),
		"seed":        cfg.Data.Seed,
		"weeks":       cfg.Data.Weeks,
		"duration_ms": time.Since(start).Milliseconds(),
	}), "dataset generated")

	srv, err := server.NewServer(ds, server.Options{
		Defaults:   viewDefaults(cfg),
		Logger:     logg,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create server", err)
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", httpServer.Addr), "starting dashboard server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logg.Error(ctx, "server error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "graceful shutdown failed", err)
		return err
	}
	logg.Info(shutdownCtx, "server stopped")
	return nil
}
