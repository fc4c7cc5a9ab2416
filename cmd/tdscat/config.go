package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/brokers"
	"github.com/ruslano69/tdtp-tds/pkg/processors"
	"github.com/ruslano69/tdtp-tds/pkg/resultlog"
	"github.com/ruslano69/tdtp-tds/pkg/retry"
)

// Config represents the main configuration structure
type Config struct {
	Database   DatabaseConfig      `yaml:"database"`
	Output     OutputConfig        `yaml:"output,omitempty"`
	Broker     BrokerConfig        `yaml:"broker,omitempty"`
	ResultLog  resultlog.Config    `yaml:"resultlog,omitempty"`
	Logging    LoggingConfig       `yaml:"logging,omitempty"`
	Processors []processors.Config `yaml:"processors,omitempty"`
}

// DatabaseConfig contains database connection settings.
// DSN wins over the individual connection fields.
type DatabaseConfig struct {
	Type        string        `yaml:"type"`                   // sqlite, postgres, mssql, mysql
	DSN         string        `yaml:"dsn,omitempty"`          // Full connection string
	Host        string        `yaml:"host,omitempty"`         // For network databases
	Port        int           `yaml:"port,omitempty"`         // Database port
	Database    string        `yaml:"database,omitempty"`     // Database name or file path
	User        string        `yaml:"user,omitempty"`         // Username
	Password    string        `yaml:"password,omitempty"`     // Password
	Schema      string        `yaml:"schema,omitempty"`       // Default schema for table listing
	WindowsAuth bool          `yaml:"windows_auth,omitempty"` // MS SQL Windows authentication
	SSLMode     string        `yaml:"sslmode,omitempty"`      // PostgreSQL SSL mode
	Timeout     time.Duration `yaml:"timeout,omitempty"`      // Query timeout, e.g. 30s
	MaxConns    int           `yaml:"max_conns,omitempty"`
}

// OutputConfig contains output settings; command flags override them
type OutputConfig struct {
	Format        string `yaml:"format"`                   // json, table
	Limit         int    `yaml:"limit,omitempty"`          // 0 = all rows
	XLSX          string `yaml:"xlsx,omitempty"`           // Export path
	Sheet         string `yaml:"sheet,omitempty"`          // XLSX sheet name
	Hash          bool   `yaml:"hash,omitempty"`           // Print xxh3 fingerprint per result set
	Compress      bool   `yaml:"compress"`                 // zstd capture files
	CompressLevel int    `yaml:"compress_level,omitempty"` // 1-22 (default: 3)
	Charset       string `yaml:"charset,omitempty"`        // Code page of single-byte text, e.g. windows-1251
}

// BrokerConfig wraps broker settings with an on/off switch
type BrokerConfig struct {
	Enabled        bool `yaml:"enabled"`
	brokers.Config `yaml:",inline"`
	Retry          retry.Config `yaml:"retry,omitempty"` // Retries of broker Connect/Send
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns configuration with defaults applied
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = "table"
	}
	if c.Output.CompressLevel == 0 {
		c.Output.CompressLevel = processors.DefaultCompressionLevel
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.ResultLog.Name == "" {
		c.ResultLog.Name = "tdscat"
	}
	if c.ResultLog.Address == "" {
		c.ResultLog.Address = "localhost:6379"
	}
}

// LoadConfig loads configuration from YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return &config, nil
}

// Validate rejects a database type no adapter is registered for.
// An empty type is left for the command line to fill in.
func (c *Config) Validate() error {
	if c.Database.Type != "" && !adapters.IsRegistered(c.Database.Type) {
		return fmt.Errorf("database.type: %w: %q (available types: %v)",
			adapters.ErrUnknownType, c.Database.Type, adapters.GetRegisteredTypes())
	}
	return nil
}

// SaveConfig saves configuration to YAML file
func SaveConfig(filename string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateSampleConfig creates sample configuration for different database types
func CreateSampleConfig(dbType string) (*Config, error) {
	config := DefaultConfig()
	config.Database.Type = dbType
	config.Database.Timeout = 30 * time.Second
	config.Output.Compress = true

	switch dbType {
	case "postgres":
		config.Database.Host = "localhost"
		config.Database.Port = 5432
		config.Database.Database = "mydb"
		config.Database.User = "postgres"
		config.Database.Password = "password"
		config.Database.Schema = "public"
		config.Database.SSLMode = "disable"

	case "mssql":
		config.Database.Host = "localhost"
		config.Database.Port = 1433
		config.Database.Database = "mydb"
		config.Database.User = "sa"
		config.Database.Password = "YourPassword123"
		config.Database.Schema = "dbo"

	case "sqlite":
		config.Database.Database = "database.db"

	case "mysql":
		config.Database.Host = "localhost"
		config.Database.Port = 3306
		config.Database.Database = "mydb"
		config.Database.User = "root"
		config.Database.Password = "password"

	default:
		return nil, fmt.Errorf("unknown database type: %s (supported: %v)", dbType, adapters.GetRegisteredTypes())
	}

	return config, nil
}

// AdapterConfig builds the adapter configuration
func (c *DatabaseConfig) AdapterConfig() adapters.Config {
	return adapters.Config{
		Type:     c.Type,
		DSN:      c.BuildDSN(),
		Schema:   c.Schema,
		Timeout:  c.Timeout,
		MaxConns: c.MaxConns,
	}
}

// BuildDSN builds connection string based on database type
func (c *DatabaseConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	host := c.Host
	if c.Port != 0 {
		host += ":" + strconv.Itoa(c.Port)
	}

	switch c.Type {
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     host,
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		return u.String()

	case "mssql":
		q := url.Values{"database": {c.Database}}
		u := url.URL{Scheme: "sqlserver", Host: host}
		if c.WindowsAuth {
			q.Set("integrated security", "SSPI")
		} else {
			u.User = url.UserPassword(c.User, c.Password)
		}
		u.RawQuery = q.Encode()
		return u.String()

	case "sqlite":
		return c.Database

	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s", c.User, c.Password, host, c.Database)

	default:
		return ""
	}
}
