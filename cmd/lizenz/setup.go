/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/config"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/manager"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes human-readable logs to stderr so that stdout carries
// only command output.
func newLogger(c *cli.Context, cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg != nil && cfg.Log.Level != "" {
		if l, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			level = l
		}
	}
	if c.Bool("debug") {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// openManager loads the configuration and initializes a manager. The caller
// closes it.
func openManager(c *cli.Context, opts ...manager.Option) (*manager.Manager, zerolog.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(c, cfg)

	m := manager.New(cfg, append([]manager.Option{manager.WithLogger(logger)}, opts...)...)
	if err := m.Init(c.Context); err != nil {
		return nil, logger, fmt.Errorf("failed to initialize: %w", err)
	}
	return m, logger, nil
}
