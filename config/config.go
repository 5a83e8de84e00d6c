// Package config holds the process configuration for the tiered object
// store: tier thresholds, size bounds, and transport/persistence knobs.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/samcaspus/tieredstore/log"
)

const (
	// MinSize and MaxSize are the immutable per-object size bounds
	// (spec §3, invariant 2).
	MinSize = 1 << 20            // 1 MiB
	MaxSize = 10 * (1 << 30)     // 10 GiB
	MaxSizeHuman = "10 GiB"
	MinSizeHuman = "1 MiB"
)

// Thresholds carries the tier-classification boundaries. Ages are
// measured from last_accessed to "now" at classification time.
type Thresholds struct {
	Hot  time.Duration // age <= Hot -> HOT
	Warm time.Duration // Hot < age <= Warm -> WARM; age > Warm -> COLD
}

// DefaultThresholds are the fixed defaults from spec §4.3.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Hot:  30 * 24 * time.Hour,
		Warm: 90 * 24 * time.Hour,
	}
}

// BackendKind selects the content/metadata storage implementation.
type BackendKind string

const (
	BackendMemory BackendKind = "memory"
	BackendBunt   BackendKind = "buntdb"
)

// Config is the fully-resolved, validated process configuration.
type Config struct {
	ListenAddr string
	LogLevel   log.Level
	LogJSON    bool

	Thresholds Thresholds

	Backend BackendKind
	// BuntPath is the on-disk file buntdb opens when Backend ==
	// BackendBunt. Empty means in-memory buntdb (":memory:").
	BuntPath string
}

// Validate fails fast on a config that cannot produce a correct
// engine, mirroring the teacher's Config.Validate() pattern
// (cmn/config.go): validation happens once, at construction, never on
// the request path.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("invalid listen address (must be non-empty)")
	}
	if c.Thresholds.Hot <= 0 {
		return errors.New("invalid thresholds: hot must be positive")
	}
	if c.Thresholds.Warm <= c.Thresholds.Hot {
		return errors.New("invalid thresholds: warm must exceed hot")
	}
	switch c.Backend {
	case BackendMemory, BackendBunt:
	default:
		return errors.Errorf("invalid backend %q", c.Backend)
	}
	return nil
}

// FromFlags parses process configuration from command-line flags and
// environment-variable fallbacks (TOS_* prefix), matching the
// teacher's flag-then-env resolution order in cmd/aisnodeprofile.
func FromFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("tosd", flag.ContinueOnError)
	listenAddr := fs.String("listen", envOr("TOS_LISTEN", ":8080"), "HTTP listen address")
	logLevel := fs.String("log-level", envOr("TOS_LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	logJSON := fs.Bool("log-json", envOrBool("TOS_LOG_JSON", false), "emit logs as JSON")
	backend := fs.String("backend", envOr("TOS_BACKEND", "memory"), "storage backend: memory|buntdb")
	buntPath := fs.String("buntdb-path", envOr("TOS_BUNTDB_PATH", ""), "buntdb file path (empty = in-memory)")
	hotDays := fs.Int("hot-days", envOrInt("TOS_HOT_DAYS", 30), "HOT tier age ceiling, in days")
	warmDays := fs.Int("warm-days", envOrInt("TOS_WARM_DAYS", 90), "WARM tier age ceiling, in days")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr: *listenAddr,
		LogLevel:   log.Level(*logLevel),
		LogJSON:    *logJSON,
		Backend:    BackendKind(*backend),
		BuntPath:   *buntPath,
		Thresholds: Thresholds{
			Hot:  time.Duration(*hotDays) * 24 * time.Hour,
			Warm: time.Duration(*warmDays) * 24 * time.Hour,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envOrBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envOrInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
