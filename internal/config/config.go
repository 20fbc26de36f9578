// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"POLYGLOT_DB_PATH" envDefault:"./data/polyglot.db"`
	ServerHost string `env:"POLYGLOT_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"POLYGLOT_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"POLYGLOT_ENV" envDefault:"development"`
	LogLevel   string `env:"POLYGLOT_LOG_LEVEL" envDefault:"info"`

	// AuditSchedule is a cron expression for periodic integrity scans.
	// Empty disables the schedule; scans can still be triggered over the API.
	AuditSchedule string `env:"POLYGLOT_AUDIT_SCHEDULE"`

	// RateLimitRPS bounds unauthenticated API request rate per client IP.
	RateLimitRPS   float64 `env:"POLYGLOT_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"POLYGLOT_RATE_LIMIT_BURST" envDefault:"40"`

	// Seeding configuration
	DoSeed bool `env:"POLYGLOT_DO_SEED" envDefault:"true"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
