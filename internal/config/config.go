// Package config provides configuration management for flakestry.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Database drivers
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	DefaultWebPort  = 3000
	DefaultSQLiteDB = "data/flakestry.sq3"

	// Environment overrides
	EnvWebPort  = "FLAKESTRY_WEB_PORT"
	EnvDBDriver = "FLAKESTRY_DB_DRIVER"
	EnvDBURL    = "DATABASE_URL"
)

// MainConfig holds the main configuration for flakestry
type MainConfig struct {
	// Web interface settings
	Web WebConfig `json:"web" yaml:"web"`

	// Database settings
	Database DatabaseConfig `json:"database" yaml:"database"`

	AppVersion string `json:"app_version" yaml:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort int    `json:"listen_port" yaml:"listen_port"`
	SSL        bool   `json:"ssl" yaml:"ssl"`
	CertFile   string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	RobotsTxt  string `json:"robots_txt" yaml:"robots_txt"` // optional robots.txt served as-is
	Debug      bool   `json:"debug" yaml:"debug"`           // gin debug mode
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // sqlite3 or postgres
	DSN    string `json:"dsn" yaml:"dsn"`       // file path for sqlite3, connection string for postgres
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort: DefaultWebPort,
			SSL:        false,
			RobotsTxt:  "web/robots.txt",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    DefaultSQLiteDB,
		},
	}
}

// LoadFile overrides the configuration with values from a YAML file.
// Keys missing from the file keep their current value.
func (c *MainConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	log.Printf("[CONFIG]: Loaded configuration from %s", path)
	return nil
}

// ApplyEnv overrides the configuration from environment variables.
// DATABASE_URL alone selects postgres unless FLAKESTRY_DB_DRIVER says otherwise.
func (c *MainConfig) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if portEnv := getenv(EnvWebPort); portEnv != "" {
		p, err := strconv.Atoi(portEnv)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWebPort, portEnv, err)
		}
		c.Web.ListenPort = p
		log.Printf("[CONFIG]: Port overridden by environment variable: %d", p)
	}
	if url := getenv(EnvDBURL); url != "" {
		c.Database.DSN = url
		c.Database.Driver = DriverPostgres
		log.Printf("[CONFIG]: Database DSN taken from %s", EnvDBURL)
	}
	if driver := getenv(EnvDBDriver); driver != "" {
		c.Database.Driver = driver
		log.Printf("[CONFIG]: Database driver overridden by environment variable: %s", driver)
	}
	return nil
}

// Validate checks the configuration for values the server cannot start with
func (c *MainConfig) Validate() error {
	if c.Web.ListenPort < 1024 || c.Web.ListenPort > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1024 and 65535)", c.Web.ListenPort)
	}
	if c.Web.SSL && (c.Web.CertFile == "" || c.Web.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	return nil
}
