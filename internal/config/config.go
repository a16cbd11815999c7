// Package config loads the service's runtime configuration the way the
// teacher codebase does: a Config struct of plain fields with a
// viper-backed loader, environment variables taking precedence over an
// optional config file, all under a single prefix (spec §6).
package config

import (
	"fmt"
	"time"
)

const (
	// ConfigFileName is the base name viper searches for (without extension).
	ConfigFileName = "parsesvc"
	// EnvPrefix is the prefix every PARSER_* environment variable shares.
	EnvPrefix = "PARSER"
)

// GRPCConfig controls the service's own listen socket (server side) and
// the settings a client of this service should use (client side), both
// named by spec §6's PARSER_GRPC_* variables.
type GRPCConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	MaxWorkers  int           `mapstructure:"max_workers"`
	PreloadOCR  bool          `mapstructure:"preload_ocr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// PagePoolConfig sizes the page worker pool (spec §4.5).
type PagePoolConfig struct {
	MaxWorkers    int `mapstructure:"max_workers"`
	ReservedCores int `mapstructure:"reserved_cores"`
	MaxLimit      int `mapstructure:"max_limit"`
}

// LogConfig holds the PARSER_LOG_* settings (spec §6). Only Level is
// applied: logs always go to stdout as JSON, and Dir/File are loaded but
// no log file is opened.
type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Config is the fully resolved configuration for one process.
type Config struct {
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	PagePool PagePoolConfig `mapstructure:"page_pool"`
	Log      LogConfig      `mapstructure:"log"`
}

// DefaultConfig returns the documented defaults from spec §6.
func DefaultConfig() Config {
	return Config{
		GRPC: GRPCConfig{
			Host:       "localhost",
			Port:       50051,
			MaxWorkers: 10,
			PreloadOCR: true,
			Timeout:    300 * time.Second,
			MaxRetries: 3,
		},
		PagePool: PagePoolConfig{
			MaxWorkers:    0, // 0 = auto
			ReservedCores: 2,
			MaxLimit:      32,
		},
		Log: LogConfig{
			Dir:   "./logs",
			File:  "parser.log",
			Level: "info",
		},
	}
}

// Validate checks invariants a loaded configuration must satisfy before
// the service starts serving traffic.
func (c Config) Validate() error {
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("config: grpc port %d out of range", c.GRPC.Port)
	}
	if c.GRPC.MaxWorkers <= 0 {
		return fmt.Errorf("config: grpc max_workers must be positive")
	}
	if c.PagePool.ReservedCores < 0 {
		return fmt.Errorf("config: page_pool reserved_cores cannot be negative")
	}
	if c.PagePool.MaxLimit <= 0 {
		return fmt.Errorf("config: page_pool max_limit must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unrecognized log level %q", c.Log.Level)
	}
	return nil
}
