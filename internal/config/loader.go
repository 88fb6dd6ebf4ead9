package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are filled by Defaults or flags.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	DBPath       string `json:"db_path" yaml:"db_path" toml:"db_path"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	RequestLog   string `json:"request_log" yaml:"request_log" toml:"request_log"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	// Keepalive interval for watch streams, e.g. "15s".
	WatchKeepalive string     `json:"watch_keepalive" yaml:"watch_keepalive" toml:"watch_keepalive"`
	ShutdownGrace  string     `json:"shutdown_grace" yaml:"shutdown_grace" toml:"shutdown_grace"`
	CORS           CORSConfig `json:"cors" yaml:"cors" toml:"cors"`
}

// CORSConfig configures the optional CORS middleware.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:           ":8080",
		DBPath:         "~/.local/share/blogd/blog.db",
		LogLevel:       "info",
		LogFormat:      "auto",
		RequestLog:     "info",
		MaxBodyBytes:   10 << 20,
		WatchKeepalive: "15s",
		ShutdownGrace:  "5s",
		CORS: CORSConfig{
			Methods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			Headers: []string{"Accept", "Content-Type", "X-User-Login"},
		},
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. Unknown keys are rejected.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge overlays the non-zero fields of over onto base.
func Merge(base, over Config) Config {
	if over.Addr != "" {
		base.Addr = over.Addr
	}
	if over.DBPath != "" {
		base.DBPath = over.DBPath
	}
	if over.LogLevel != "" {
		base.LogLevel = over.LogLevel
	}
	if over.LogFormat != "" {
		base.LogFormat = over.LogFormat
	}
	if over.RequestLog != "" {
		base.RequestLog = over.RequestLog
	}
	if over.MaxBodyBytes > 0 {
		base.MaxBodyBytes = over.MaxBodyBytes
	}
	if over.WatchKeepalive != "" {
		base.WatchKeepalive = over.WatchKeepalive
	}
	if over.ShutdownGrace != "" {
		base.ShutdownGrace = over.ShutdownGrace
	}
	if over.CORS.Enabled {
		base.CORS.Enabled = true
	}
	if len(over.CORS.Origins) > 0 {
		base.CORS.Origins = over.CORS.Origins
	}
	if len(over.CORS.Methods) > 0 {
		base.CORS.Methods = over.CORS.Methods
	}
	if len(over.CORS.Headers) > 0 {
		base.CORS.Headers = over.CORS.Headers
	}
	return base
}

// FromEnv reads BLOGD_* variables through getenv (os.Getenv in production).
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Addr:           getenv("BLOGD_ADDR"),
		DBPath:         getenv("BLOGD_DB_PATH"),
		LogLevel:       getenv("BLOGD_LOG_LEVEL"),
		LogFormat:      getenv("BLOGD_LOG_FORMAT"),
		RequestLog:     getenv("BLOGD_REQUEST_LOG"),
		WatchKeepalive: getenv("BLOGD_WATCH_KEEPALIVE"),
		ShutdownGrace:  getenv("BLOGD_SHUTDOWN_GRACE"),
	}
	if v := getenv("BLOGD_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("BLOGD_MAX_BODY_BYTES: %w", err)
		}
		cfg.MaxBodyBytes = n
	}
	if v := getenv("BLOGD_CORS_ORIGINS"); v != "" {
		cfg.CORS.Enabled = true
		cfg.CORS.Origins = splitCSV(v)
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by the decoders.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := c.Keepalive(); err != nil {
		return err
	}
	if _, err := c.Grace(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "auto", "json", "console":
	default:
		return fmt.Errorf("log_format must be auto, json or console, got %q", c.LogFormat)
	}
	return nil
}

// Keepalive parses WatchKeepalive; empty means zero (package default).
func (c Config) Keepalive() (time.Duration, error) {
	return parseDuration("watch_keepalive", c.WatchKeepalive)
}

// Grace parses ShutdownGrace; empty means zero.
func (c Config) Grace() (time.Duration, error) {
	return parseDuration("shutdown_grace", c.ShutdownGrace)
}

func parseDuration(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
