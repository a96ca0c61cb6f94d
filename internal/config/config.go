// Package config loads the YAML configuration that names the target
// database and the CSV files to load into it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/mem"
	"gopkg.in/yaml.v3"

	"github.com/johndauphine/csvload/internal/dataset"
	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/logging"
)

// TargetConfig is the target database section.
type TargetConfig = dbconfig.TargetConfig

// Config is the complete configuration.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Load    LoadConfig    `yaml:"load"`
	Jobs    []JobConfig   `yaml:"jobs"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoadConfig holds settings shared by every job.
type LoadConfig struct {
	BatchSize       *int     `yaml:"batch_size"`        // Rows per insert batch (default: 1000)
	CreateTables    bool     `yaml:"create_tables"`     // Create missing tables from inferred column types
	InsertMethod    string   `yaml:"insert_method"`     // "multi" (default) or "copy" (postgres, mssql)
	NullValues      []string `yaml:"null_values"`       // Cell values read as NULL (default: common CSV null markers)
	Delimiter       string   `yaml:"delimiter"`         // Single field separator character (default: ",")
	ContinueOnError bool     `yaml:"continue_on_error"` // Run remaining jobs after a failure
	Validate        bool     `yaml:"validate"`          // Compare target row count growth with rows loaded
}

// JobConfig is one file to table load.
type JobConfig struct {
	File      string `yaml:"file"`
	Table     string `yaml:"table"`
	BatchSize *int   `yaml:"batch_size"` // Overrides load.batch_size
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // text or json (default: text)
}

const (
	defaultBatchSize = 1000
	defaultMaxConns  = 4
)

// Load reads the configuration file at path. A .env file next to it, if
// present, is loaded into the environment first, and ${VAR} references in
// the file are expanded from the environment.
func Load(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands environment variables in data, decodes it, applies
// defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Target.Type == "" {
		c.Target.Type = "postgres"
	}
	c.Target.Type = driver.Canonical(c.Target.Type)
	if d, err := driver.Get(c.Target.Type); err == nil {
		defaults := d.Defaults()
		if c.Target.Port == 0 {
			c.Target.Port = defaults.Port
		}
		if c.Target.Schema == "" {
			c.Target.Schema = defaults.Schema
		}
		if c.Target.SSLMode == "" {
			c.Target.SSLMode = defaults.SSLMode
		}
	}
	if c.Target.MaxConns == 0 {
		c.Target.MaxConns = defaultMaxConns
	}

	if c.Load.BatchSize == nil {
		n := defaultBatchSize
		c.Load.BatchSize = &n
	}
	if c.Load.InsertMethod == "" {
		c.Load.InsertMethod = "multi"
	}
	c.Load.InsertMethod = strings.ToLower(c.Load.InsertMethod)
	if c.Load.Delimiter == "" {
		c.Load.Delimiter = ","
	}

	for i := range c.Jobs {
		if c.Jobs[i].BatchSize == nil {
			c.Jobs[i].BatchSize = c.Load.BatchSize
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if _, err := driver.Get(c.Target.Type); err != nil {
		return fmt.Errorf("target.type: %w", err)
	}
	if c.Target.Database == "" {
		return fmt.Errorf("target.database is required")
	}
	if c.Target.Type != "sqlite" && c.Target.Host == "" {
		return fmt.Errorf("target.host is required")
	}
	if c.Target.MaxConns < 0 {
		return fmt.Errorf("target.max_conns must be positive, got %d", c.Target.MaxConns)
	}

	if c.Load.BatchSize != nil && *c.Load.BatchSize <= 0 {
		return fmt.Errorf("load.batch_size must be positive, got %d", *c.Load.BatchSize)
	}
	switch c.Load.InsertMethod {
	case "multi":
	case "copy":
		if c.Target.Type != "postgres" && c.Target.Type != "mssql" {
			return fmt.Errorf("load.insert_method copy is not supported for %s targets", c.Target.Type)
		}
	default:
		return fmt.Errorf("load.insert_method must be multi or copy, got %q", c.Load.InsertMethod)
	}
	if utf8.RuneCountInString(c.Load.Delimiter) != 1 {
		return fmt.Errorf("load.delimiter must be a single character, got %q", c.Load.Delimiter)
	}
	if r, _ := utf8.DecodeRuneInString(c.Load.Delimiter); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("load.delimiter %q is not a valid separator", c.Load.Delimiter)
	}

	for i, job := range c.Jobs {
		if job.File == "" {
			return fmt.Errorf("jobs[%d].file is required", i)
		}
		if strings.TrimSpace(job.Table) == "" {
			return fmt.Errorf("jobs[%d].table is required", i)
		}
		if job.BatchSize != nil && *job.BatchSize <= 0 {
			return fmt.Errorf("jobs[%d].batch_size must be positive, got %d", i, *job.BatchSize)
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// ReadOptions returns the CSV parsing options.
func (c *Config) ReadOptions() dataset.ReadOptions {
	r, _ := utf8.DecodeRuneInString(c.Load.Delimiter)
	return dataset.ReadOptions{
		Delimiter:  r,
		NullValues: c.Load.NullValues,
	}
}

// WriterOptions returns the options used to open the target writer.
func (c *Config) WriterOptions() driver.WriterOptions {
	return driver.WriterOptions{
		MaxConns:     c.Target.MaxConns,
		InsertMethod: c.Load.InsertMethod,
	}
}

// ApplyLogging configures the logging package from the logging section.
func (c *Config) ApplyLogging() {
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		logging.SetLevel(level)
	}
	logging.SetFormat(c.Logging.Format)
}

// AvailableMemoryMB returns the memory available to hold a dataset,
// or 4096 when the platform cannot report it.
func AvailableMemoryMB() int64 {
	if v, err := mem.VirtualMemory(); err == nil {
		return int64(v.Available / (1024 * 1024))
	}
	return 4096
}
