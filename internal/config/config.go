//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-wastetrack.
//
// Configuration is loaded once at start-up from a YAML config file and CLI
// flags. The database connection string is resolved at the same time, in
// order of precedence: the --connection flag, the secrets file, the
// WASTE_DB_URL environment variable, and finally the config file. There is
// no built-in default connection; an unresolved connection is an error.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// EnvConnection is the environment variable consulted for the connection string.
const EnvConnection = "WASTE_DB_URL"

// Connection sources, reported by Config.ConnectionSource.
const (
	SourceFlag    = "flag"
	SourceSecrets = "secrets"
	SourceEnv     = "env"
	SourceConfig  = "config"
)

// Config holds all configuration for pgedge-wastetrack.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// ConnectionSource records where Connection was resolved from.
	ConnectionSource string `mapstructure:"-"`

	// SecretsFile is an optional TOML file holding a
	// [connections.postgresql] table with the database credentials.
	SecretsFile string `mapstructure:"secrets_file"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Data locates the source CSV files.
	Data DataConfig `mapstructure:"data"`

	// Init holds configuration for the initialize subcommand.
	Init InitConfig `mapstructure:"init"`

	// Pipeline holds configuration for the pipeline subcommand.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Serve holds configuration for the dashboard API.
	Serve ServeConfig `mapstructure:"serve"`

	// Generate holds configuration for sample data generation.
	Generate GenerateConfig `mapstructure:"generate"`
}

// DataConfig locates the source files.
type DataConfig struct {
	// Dir is the directory holding the source files.
	Dir string `mapstructure:"dir"`

	// WasteFile is the daily waste collection file name or path.
	WasteFile string `mapstructure:"waste_file"`

	// FleetFile is the fleet/demographic survey file name or path.
	FleetFile string `mapstructure:"fleet_file"`
}

// InitConfig holds configuration for schema initialization.
type InitConfig struct {
	// PreserveWarehouse keeps existing warehouse tables instead of
	// dropping and recreating them.
	PreserveWarehouse bool `mapstructure:"preserve_warehouse"`
}

// PipelineConfig holds the orchestration policy for the pipeline command.
type PipelineConfig struct {
	// Retries is how many times a failed operation is re-run.
	Retries int `mapstructure:"retries"`

	// RetryDelay is the fixed delay between attempts, in seconds.
	RetryDelay int `mapstructure:"retry_delay"`

	// SkipInitialize runs the pipeline without re-initializing the schema.
	SkipInitialize bool `mapstructure:"skip_initialize"`
}

// ServeConfig holds configuration for the dashboard API server.
type ServeConfig struct {
	// Listen is the address the HTTP server binds to.
	Listen string `mapstructure:"listen"`
}

// GenerateConfig holds configuration for sample data generation.
type GenerateConfig struct {
	// OutputDir is where the generated files are written.
	OutputDir string `mapstructure:"output_dir"`

	// StartDate is the first collection date (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`

	// Days is the number of consecutive collection days.
	Days int `mapstructure:"days"`

	// Districts is the number of districts to include.
	Districts int `mapstructure:"districts"`

	// DirtyRate is the fraction of rows that get malformed values.
	DirtyRate float64 `mapstructure:"dirty_rate"`

	// Seed makes generation reproducible (0 = random).
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			Dir:       "./data",
			WasteFile: "waste.csv",
			FleetFile: "sipsn.csv",
		},
		Init: InitConfig{
			PreserveWarehouse: false,
		},
		Pipeline: PipelineConfig{
			Retries:    1,
			RetryDelay: 300, // 5 minutes
		},
		Serve: ServeConfig{
			Listen: ":8080",
		},
		Generate: GenerateConfig{
			OutputDir: "./data",
			StartDate: "2024-01-01",
			Days:      30,
			Districts: 10,
			DirtyRate: 0.02,
		},
	}
}

// Load reads configuration from config files and resolves the connection.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-wastetrack.yaml
// 3. ~/.config/pgedge-wastetrack/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-wastetrack")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-wastetrack"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.resolveConnection(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConnection applies the secrets file and environment precedence.
func (c *Config) resolveConnection() error {
	if c.SecretsFile != "" {
		conn, err := ReadSecrets(c.SecretsFile)
		if err != nil {
			return err
		}
		c.Connection = conn
		c.ConnectionSource = SourceSecrets
		return nil
	}

	env := viper.New()
	if err := env.BindEnv("url", EnvConnection); err != nil {
		return fmt.Errorf("failed to bind %s: %w", EnvConnection, err)
	}
	if conn := env.GetString("url"); conn != "" {
		c.Connection = conn
		c.ConnectionSource = SourceEnv
		return nil
	}

	if c.Connection != "" {
		c.ConnectionSource = SourceConfig
	}
	return nil
}

// SetConnection overrides the resolved connection with a CLI flag value.
func (c *Config) SetConnection(conn string) {
	c.Connection = conn
	c.ConnectionSource = SourceFlag
}

// ReadSecrets builds a connection string from a TOML secrets file with a
// [connections.postgresql] table (username, password, host, port,
// database and an optional sslmode).
func ReadSecrets(path string) (string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("error reading secrets file: %w", err)
	}

	sec := v.Sub("connections.postgresql")
	if sec == nil {
		return "", fmt.Errorf("secrets file %s has no [connections.postgresql] table", path)
	}

	user := sec.GetString("username")
	host := sec.GetString("host")
	database := sec.GetString("database")
	if user == "" || host == "" || database == "" {
		return "", fmt.Errorf("secrets file %s must set username, host and database", path)
	}

	port := 5432
	if sec.IsSet("port") {
		port = sec.GetInt("port")
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + database,
	}
	if pw := sec.GetString("password"); pw != "" {
		u.User = url.UserPassword(user, pw)
	} else {
		u.User = url.User(user)
	}
	if mode := sec.GetString("sslmode"); mode != "" {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}

	return u.String(), nil
}

// WastePath returns the full path of the waste source file.
func (d DataConfig) WastePath() string {
	return d.resolve(d.WasteFile)
}

// FleetPath returns the full path of the fleet source file.
func (d DataConfig) FleetPath() string {
	return d.resolve(d.FleetFile)
}

func (d DataConfig) resolve(name string) string {
	if filepath.IsAbs(name) || d.Dir == "" {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// Validate checks that required configuration for database commands is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required (use --connection, "+
			"secrets_file, %s or the connection config key)", EnvConnection)
	}
	return nil
}

// ValidateLoad checks configuration required by the load commands.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Data.WasteFile == "" || c.Data.FleetFile == "" {
		return fmt.Errorf("data.waste_file and data.fleet_file are required")
	}
	return nil
}

// ValidatePipeline checks configuration required by the pipeline command.
func (c *Config) ValidatePipeline() error {
	if err := c.ValidateLoad(); err != nil {
		return err
	}
	if c.Pipeline.Retries < 0 {
		return fmt.Errorf("pipeline.retries must be non-negative")
	}
	if c.Pipeline.RetryDelay < 0 {
		return fmt.Errorf("pipeline.retry_delay must be non-negative")
	}
	return nil
}

// ValidateServe checks configuration required by the serve command.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Serve.Listen == "" {
		return fmt.Errorf("serve.listen is required")
	}
	return nil
}

// ValidateGenerate checks configuration required by the generate command.
// It does not need a database connection.
func (c *Config) ValidateGenerate() error {
	g := c.Generate
	var errs []error
	if g.OutputDir == "" {
		errs = append(errs, fmt.Errorf("generate.output_dir is required"))
	}
	if _, err := time.Parse(time.DateOnly, g.StartDate); err != nil {
		errs = append(errs, fmt.Errorf("generate.start_date must be YYYY-MM-DD: %w", err))
	}
	if g.Days < 1 {
		errs = append(errs, fmt.Errorf("generate.days must be at least 1"))
	}
	if g.Districts < 1 {
		errs = append(errs, fmt.Errorf("generate.districts must be at least 1"))
	}
	if g.DirtyRate < 0 || g.DirtyRate > 1 {
		errs = append(errs, fmt.Errorf("generate.dirty_rate must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

// RetryDelayDuration returns the pipeline retry delay as a duration.
func (p PipelineConfig) RetryDelayDuration() time.Duration {
	return time.Duration(p.RetryDelay) * time.Second
}
