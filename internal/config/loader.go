package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads Config from environment variables (primary source per
// spec §6), an optional config file, and documented defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader backed by viper's global instance, so flags
// bound by cobra commands (see cmd/parsesvc) participate in resolution.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load resolves a Config and validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/parsesvc")

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := l.bindEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every field's default with viper so ReadInConfig
// and AutomaticEnv layer correctly over them.
func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("grpc_host", d.GRPC.Host)
	l.v.SetDefault("grpc_port", d.GRPC.Port)
	l.v.SetDefault("grpc_max_workers", d.GRPC.MaxWorkers)
	l.v.SetDefault("grpc_preload_ocr", d.GRPC.PreloadOCR)
	l.v.SetDefault("grpc_timeout", d.GRPC.Timeout)
	l.v.SetDefault("grpc_max_retries", d.GRPC.MaxRetries)
	l.v.SetDefault("page_pool_max_workers", d.PagePool.MaxWorkers)
	l.v.SetDefault("page_pool_reserved_cores", d.PagePool.ReservedCores)
	l.v.SetDefault("page_pool_max_limit", d.PagePool.MaxLimit)
	l.v.SetDefault("log_dir", d.Log.Dir)
	l.v.SetDefault("log_file", d.Log.File)
	l.v.SetDefault("log_level", d.Log.Level)
}

// bindEnv reads each PARSER_* key back out of viper into cfg. Spec §6
// names flat variables (PARSER_GRPC_PORT, not a nested GRPC.Port), so
// this reads flat keys rather than unmarshaling a nested struct.
func (l *Loader) bindEnv(cfg *Config) error {
	cfg.GRPC.Host = l.v.GetString("grpc_host")
	cfg.GRPC.Port = l.v.GetInt("grpc_port")
	cfg.GRPC.MaxWorkers = l.v.GetInt("grpc_max_workers")
	cfg.GRPC.PreloadOCR = l.v.GetBool("grpc_preload_ocr")
	cfg.GRPC.Timeout = l.v.GetDuration("grpc_timeout")
	cfg.GRPC.MaxRetries = l.v.GetInt("grpc_max_retries")
	cfg.PagePool.MaxWorkers = l.v.GetInt("page_pool_max_workers")
	cfg.PagePool.ReservedCores = l.v.GetInt("page_pool_reserved_cores")
	cfg.PagePool.MaxLimit = l.v.GetInt("page_pool_max_limit")
	cfg.Log.Dir = l.v.GetString("log_dir")
	cfg.Log.File = l.v.GetString("log_file")
	cfg.Log.Level = l.v.GetString("log_level")
	return nil
}

// EnsureLogDir creates the configured log directory if it does not exist.
func (c Config) EnsureLogDir() error {
	if c.Log.Dir == "" {
		return nil
	}
	return os.MkdirAll(c.Log.Dir, 0o755)
}
