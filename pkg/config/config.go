// Package config loads the radar configuration from YAML with RADAR_*
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/obsolescence-radar/pkg/validation"
)

// Default configuration values
const (
	DefaultPageSize        = 15000
	DefaultSnapshotDir     = "./data"
	DefaultServerAddr      = ":8080"
	DefaultDebounce        = 250 * time.Millisecond
	DefaultRequestTimeout  = 2 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
	MaxPageSize            = 15000
)

// Config is the complete radar configuration
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Publish   PublishConfig   `yaml:"publish"`
	Export    ExportConfig    `yaml:"export"`
	Log       LogConfig       `yaml:"log"`
}

// WorkspaceConfig addresses the workspace GraphQL API
type WorkspaceConfig struct {
	Host     string        `yaml:"host"`
	APIToken string        `yaml:"api_token"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SnapshotConfig locates the saved inventory
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig configures recomputation
type EngineConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// RefDate is the initial reference date (YYYY-MM-DD); empty means today
	RefDate string `yaml:"ref_date"`
}

// PublishConfig configures the NNG result publisher; an empty address
// disables it
type PublishConfig struct {
	Address string `yaml:"address"`
}

// ExportConfig configures the PostgreSQL export
type ExportConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			PageSize: DefaultPageSize,
			Timeout:  DefaultRequestTimeout,
		},
		Snapshot: SnapshotConfig{Dir: DefaultSnapshotDir},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Engine: EngineConfig{Debounce: DefaultDebounce},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyDefaults restores defaults for fields a file or the environment set
// to their zero value. Zero is a meaningful debounce, so that is kept.
func (c *Config) applyDefaults() {
	c.Workspace.PageSize = validation.DefaultOr(c.Workspace.PageSize, DefaultPageSize)
	c.Workspace.Timeout = validation.DefaultOr(c.Workspace.Timeout, DefaultRequestTimeout)
	c.Snapshot.Dir = validation.DefaultOr(c.Snapshot.Dir, DefaultSnapshotDir)
	c.Server.Addr = validation.DefaultOr(c.Server.Addr, DefaultServerAddr)
	c.Server.ShutdownTimeout = validation.DefaultOr(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
	c.Log.Level = validation.DefaultOr(c.Log.Level, "info")
}

// applyEnv overrides fields from RADAR_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("RADAR_WORKSPACE_HOST", &c.Workspace.Host)
	str("RADAR_API_TOKEN", &c.Workspace.APIToken)
	str("RADAR_SNAPSHOT_DIR", &c.Snapshot.Dir)
	str("RADAR_SERVER_ADDR", &c.Server.Addr)
	str("RADAR_REF_DATE", &c.Engine.RefDate)
	str("RADAR_PUBLISH_ADDRESS", &c.Publish.Address)
	str("RADAR_EXPORT_DSN", &c.Export.DSN)
	str("LOG_LEVEL", &c.Log.Level)
	str("RADAR_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("RADAR_PAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RADAR_PAGE_SIZE: %w", err)
		}
		c.Workspace.PageSize = n
	}
	if v, ok := lookup("RADAR_DEBOUNCE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RADAR_DEBOUNCE: %w", err)
		}
		c.Engine.Debounce = d
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		IntRange("workspace.page_size", c.Workspace.PageSize, 1, MaxPageSize).
		MinDuration("workspace.timeout", c.Workspace.Timeout, time.Second).
		Required("snapshot.dir", c.Snapshot.Dir).
		Required("server.addr", c.Server.Addr).
		MinDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, 0).
		MinDuration("engine.debounce", c.Engine.Debounce, 0).
		OneOf("log.level", strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "warning", "error"}).
		When(c.Engine.RefDate != "", func(cv *validation.ConfigValidator) {
			cv.Date("engine.ref_date", c.Engine.RefDate)
		}).
		When(c.Publish.Address != "", func(cv *validation.ConfigValidator) {
			cv.Transport("publish.address", c.Publish.Address, "tcp", "ipc", "inproc")
		}).
		Validate()
}

// RequireWorkspace reports whether retrieval settings are present.
func (c *Config) RequireWorkspace() error {
	return validation.NewConfigValidator("config").
		Required("workspace.host", c.Workspace.Host).
		Required("workspace.api_token", c.Workspace.APIToken).
		Validate()
}

// RequireExport reports whether export settings are present.
func (c *Config) RequireExport() error {
	return validation.NewConfigValidator("config").
		Required("export.dsn", c.Export.DSN).
		Validate()
}

// StartDate resolves the initial reference date as YYYYMMDD. now supplies
// today's date when none is configured.
func (c *Config) StartDate(now func() time.Time) int {
	t := now()
	if c.Engine.RefDate != "" {
		if parsed, err := time.Parse("2006-01-02", c.Engine.RefDate); err == nil {
			t = parsed
		}
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
