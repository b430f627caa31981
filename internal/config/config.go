// Package config loads the server configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "TODO_API_"

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Log           LogConfig           `yaml:"log"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 oder postgres
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json oder logfmt
}

type ObservabilityConfig struct {
	Metrics bool `yaml:"metrics"`
	Tracing bool `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "todo_app_db.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Observability: ObservabilityConfig{
			Metrics: true,
		},
	}
}

// Load reads path over the defaults (a missing path is fine when empty) and
// applies TODO_API_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	stringVars := map[string]*string{
		"ADDR":       &cfg.Server.Addr,
		"DB_DRIVER":  &cfg.Database.Driver,
		"DB_DSN":     &cfg.Database.DSN,
		"JWT_SECRET": &cfg.Auth.JWTSecret,
		"JWT_ISSUER": &cfg.Auth.Issuer,
		"LOG_LEVEL":  &cfg.Log.Level,
		"LOG_FORMAT": &cfg.Log.Format,
	}
	for key, target := range stringVars {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*target = v
		}
	}

	boolVars := map[string]*bool{
		"METRICS": &cfg.Observability.Metrics,
		"TRACING": &cfg.Observability.Tracing,
	}
	for key, target := range boolVars {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*target = b
	}
	return nil
}

// Validate fails fast on settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite3", "sqlite", "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn must not be empty"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret must not be empty"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
