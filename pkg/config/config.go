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

// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/toolio/merchplan/core/dataset"
)

const (
	EnvPrefix = "MERCHPLAN"

	AppEnvDev = "dev"
)

type Config struct {
	App  AppConfig
	Data DataConfig
	View ViewConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and parses the store list.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if _, err := c.Data.StoreProfiles(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	for _, name := range append(append([]string{}, c.View.DefaultColumns...), c.View.DefaultGrouped...) {
		if _, err := dataset.ParseAttribute(name); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}
	}
	return nil
}

type AppConfig struct {
	Env             string        `envconfig:"MERCHPLAN_APP_ENV" default:"dev"`
	Host            string        `envconfig:"MERCHPLAN_APP_HOST" default:"127.0.0.1"`
	Port            int           `envconfig:"MERCHPLAN_APP_PORT" default:"8097" validate:"min=1,max=65535"`
	LogLevel        string        `envconfig:"MERCHPLAN_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"MERCHPLAN_LOG_FORMAT" validate:"omitempty,oneof=json console"`
	ShutdownTimeout time.Duration `envconfig:"MERCHPLAN_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// Format is the configured log format, or console in dev and json elsewhere.
func (a AppConfig) Format() string {
	if a.LogFormat != "" {
		return a.LogFormat
	}
	if a.IsDev() {
		return "console"
	}
	return "json"
}

// Addr is the listen address of the HTTP server.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

type DataConfig struct {
	Seed  uint64 `envconfig:"MERCHPLAN_DATA_SEED" default:"42"`
	Weeks int    `envconfig:"MERCHPLAN_DATA_WEEKS" default:"3" validate:"min=1,max=52"`
	// Stores is a comma separated list of "Name:type|type:channel/group/selling" entries.
	Stores []string `envconfig:"MERCHPLAN_DATA_STORES" default:"Downtown:selling:Retail/Stores/In-Store,Outlet:selling|inventory:Retail/Outlets/In-Store,DC East:source|inventory:Wholesale/Distribution/Ecommerce" validate:"min=1,max=10,dive,required"`
}

// StoreProfiles parses Stores. Store names must be unique.
func (d DataConfig) StoreProfiles() ([]dataset.StoreProfile, error) {
	seen := make(map[string]bool, len(d.Stores))
	profiles := make([]dataset.StoreProfile, 0, len(d.Stores))
	for _, s := range d.Stores {
		p, err := dataset.ParseStoreProfile(s)
		if err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate store %q", p.Name)
		}
		seen[p.Name] = true
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// GenerateOptions returns the data generator options for this config.
func (d DataConfig) GenerateOptions() (dataset.GenerateOptions, error) {
	stores, err := d.StoreProfiles()
	if err != nil {
		return dataset.GenerateOptions{}, err
	}
	return dataset.GenerateOptions{Seed: d.Seed, Weeks: d.Weeks, Stores: stores}, nil
}

type ViewConfig struct {
	DefaultColumns []string `envconfig:"MERCHPLAN_VIEW_DEFAULT_COLUMNS" default:"Category,Brand,Store,Week"`
	DefaultGrouped []string `envconfig:"MERCHPLAN_VIEW_DEFAULT_GROUPED" default:"Channel,Channel Group,Selling Channel"`
	RowLimit       int      `envconfig:"MERCHPLAN_VIEW_ROW_LIMIT" default:"100" validate:"min=0"`
}
