// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings.

Precedence, lowest to highest: a YAML file (--config / DBAL_CONFIG) seeds
the struct first; 'caarlos0/env' then applies every DBAL_* variable, using
each field's envDefault tag as the fallback when the variable is unset;
CLI flags parsed with 'spf13/pflag' are applied last, and only when the
operator actually passed them ([pflag.FlagSet.Changed]). A value set only
in the YAML file and never mentioned by an env var or flag survives
untouched only for fields with no envDefault tag (AdminToken, DatabaseURL,
and the Blob* credentials) — every other field's env default is explicit
per SPEC_FULL.md's table and is expected to be repeated in the YAML file
when both are used together.

Usage:

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
	    log.Fatal(err)
	}

This keeps the daemon Twelve-Factor compliant (env is always a valid,
complete configuration) while still letting operators hand it a config
file or override a single flag at the command line.
*/
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// # Configuration Schema

// Config holds all runtime configuration for the DBAL daemon.
type Config struct {
	// Server settings
	BindAddress string `env:"DBAL_BIND_ADDRESS" envDefault:"0.0.0.0" yaml:"bind_address"`
	Port        string `env:"DBAL_PORT"         envDefault:"8080"    yaml:"port"`
	Mode        string `env:"DBAL_MODE"         envDefault:"production" yaml:"mode"`
	Daemon      bool   `env:"DBAL_DAEMON"       envDefault:"false"   yaml:"daemon"`
	LogLevel    string `env:"DBAL_LOG_LEVEL"    envDefault:"info"    yaml:"log_level"`

	// Active storage adapter (see internal/dbal/adapter/registry).
	Adapter     string `env:"DBAL_ADAPTER"      envDefault:"sqlite"  yaml:"adapter"`
	DatabaseURL string `env:"DBAL_DATABASE_URL" yaml:"database_url"`

	// Admin & schema-registry surface
	AdminToken          string `env:"DBAL_ADMIN_TOKEN"            yaml:"admin_token"`
	SchemaRegistryPath  string `env:"DBAL_SCHEMA_REGISTRY_PATH"    envDefault:"./data/schema_registry" yaml:"schema_registry_path"`
	PackagesPath        string `env:"DBAL_PACKAGES_PATH"           envDefault:"./data/packages"        yaml:"packages_path"`
	PrismaOutputPath    string `env:"DBAL_PRISMA_OUTPUT_PATH"      envDefault:"./data/generated"       yaml:"prisma_output_path"`
	SeedDir             string `env:"DBAL_SEED_DIR"                envDefault:"./data/seed"            yaml:"seed_dir"`

	// CORS
	CORSOriginValue string `env:"DBAL_CORS_ORIGIN" envDefault:"*" yaml:"cors_origin"`

	// Blob façade (see internal/dbal/blob)
	BlobBackend   string `env:"DBAL_BLOB_BACKEND"    envDefault:"memory" yaml:"blob_backend"`
	BlobRoot      string `env:"DBAL_BLOB_ROOT"       envDefault:"./data/blob" yaml:"blob_root"`
	BlobURL       string `env:"DBAL_BLOB_URL"        yaml:"blob_url"`
	BlobBucket    string `env:"DBAL_BLOB_BUCKET"     yaml:"blob_bucket"`
	BlobRegion    string `env:"DBAL_BLOB_REGION"     envDefault:"us-east-1" yaml:"blob_region"`
	BlobAccessKey string `env:"DBAL_BLOB_ACCESS_KEY" yaml:"blob_access_key"`
	BlobSecretKey string `env:"DBAL_BLOB_SECRET_KEY" yaml:"blob_secret_key"`
	BlobPathStyle bool   `env:"DBAL_BLOB_PATH_STYLE" envDefault:"true" yaml:"blob_path_style"`

	// configPath is consumed before Load returns; it is not itself part of
	// the persisted configuration surface.
	configPath string
}

// # Configuration Loading

// Load builds a [Config] from, in increasing precedence: built-in defaults,
// an optional YAML file, environment variables, then CLI flags in args
// (typically os.Args[1:]).
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	// 1. Discover --config/-c or DBAL_CONFIG before the real flag parse, so
	// the YAML file can seed fields that env/flags then overlay.
	configPath := firstConfigPath(args)
	if configPath != "" {
		if err := loadYAMLInto(cfg, configPath); err != nil {
			return nil, err
		}
	}

	// 2. Environment variables. env.Parse only overwrites a field when its
	// tag's variable is actually set, its envDefault filling any gap.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// 3. CLI flags, highest precedence.
	if err := applyFlags(cfg, args); err != nil {
		return nil, err
	}

	return cfg, nil
}

// firstConfigPath does a minimal pre-scan for --config/-c so the YAML layer
// can be loaded before the full flag set (which may itself reference fields
// the YAML file seeded) is parsed.
func firstConfigPath(args []string) string {
	fs := pflag.NewFlagSet("dbal-config-prescan", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.StringP("config", "c", "", "")
	_ = fs.Parse(args)
	if *path != "" {
		return *path
	}
	return os.Getenv("DBAL_CONFIG")
}

// loadYAMLInto decodes the YAML file at path into cfg.
func loadYAMLInto(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyFlags overlays --bind/--port/--mode/--daemon/-d/--config/-c onto cfg.
// --help/-h is handled by the caller (cmd/dbal) before Load is invoked, since
// printing usage and exiting is a CLI concern, not a config concern.
func applyFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("dbal", pflag.ContinueOnError)
	fs.Usage = func() {}

	configPath := fs.StringP("config", "c", cfg.configPath, "path to a YAML config file")
	bind := fs.String("bind", cfg.BindAddress, "address to bind the HTTP server to")
	port := fs.String("port", cfg.Port, "port to listen on")
	mode := fs.String("mode", cfg.Mode, "runtime mode (production|development)")
	daemon := fs.BoolP("daemon", "d", cfg.Daemon, "run as a background daemon")
	fs.BoolP("help", "h", false, "show this help message")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: failed to parse CLI flags: %w", err)
	}

	if fs.Changed("config") {
		cfg.configPath = *configPath
	}
	if fs.Changed("bind") {
		cfg.BindAddress = *bind
	}
	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("mode") {
		cfg.Mode = *mode
	}
	if fs.Changed("daemon") {
		cfg.Daemon = *daemon
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Mode == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Mode == "production"
}

// CORSOrigin implements [middleware.AppConfig].
func (c *Config) CORSOrigin() string {
	return c.CORSOriginValue
}
