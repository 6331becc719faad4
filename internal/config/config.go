// Package config reads and writes books.yaml, the per-repository settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/ledger"
)

// FileName is the config file at the root of a books repository.
const FileName = "books.yaml"

// Storage drivers.
const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the top-level books.yaml configuration.
type Config struct {
	Business     BusinessConfig `yaml:"business"`
	Tenant       string         `yaml:"tenant"`
	Fiscal       FiscalConfig   `yaml:"fiscal"`
	BankAccounts []BankAccount  `yaml:"bank_accounts,omitempty"`
	Storage      StorageConfig  `yaml:"storage"`
	Log          LogConfig      `yaml:"log"`
	Git          GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// BankAccount maps a bank feed to a chart-of-accounts entry.
type BankAccount struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	LastFour  string `yaml:"last_four"`
	AccountID int    `yaml:"account_id"`
	Format    string `yaml:"format,omitempty"` // importer format, detected when empty
}

// StorageConfig selects the ledger backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn,omitempty"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a books.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Tenant: "default",
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Storage: StorageConfig{
			Driver: DriverCSV,
		},
		Log: LogConfig{
			Level: "info",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Books",
			AuthorEmail: "books@cleared.dev",
		},
	}
}

// Override applies values bound in v (environment variables and flags) on
// top of the file. Only keys that were set win.
func (c *Config) Override(v *viper.Viper) {
	if v.IsSet("tenant") {
		c.Tenant = v.GetString("tenant")
	}
	if v.IsSet("storage.driver") {
		c.Storage.Driver = v.GetString("storage.driver")
	}
	if v.IsSet("storage.dsn") {
		c.Storage.DSN = v.GetString("storage.dsn")
	}
	if v.IsSet("log.level") {
		c.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.pretty") {
		c.Log.Pretty = v.GetBool("log.pretty")
	}
}

// Start parses fiscal.year_start. An empty value means January 1.
func (f FiscalConfig) Start() (time.Month, int, error) {
	if f.YearStart == "" {
		return time.January, 1, nil
	}
	// 2001 is not a leap year, so 02-29 is rejected.
	d, err := time.Parse("2006-01-02", "2001-"+f.YearStart)
	if err != nil || len(f.YearStart) != 5 {
		return 0, 0, apperrors.ConfigurationError{
			Setting:     "fiscal.year_start",
			Description: fmt.Sprintf("%q is not a MM-DD date", f.YearStart),
		}
	}
	return d.Month(), d.Day(), nil
}

// Validate checks the settings the engines depend on.
func (c *Config) Validate() error {
	if _, _, err := c.Fiscal.Start(); err != nil {
		return err
	}
	if err := ledger.ValidateTenant(c.Tenant); err != nil {
		return apperrors.ConfigurationError{Setting: "tenant", Description: err.Error()}
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "", DriverCSV, DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return apperrors.ConfigurationError{Setting: "storage.dsn", Description: "postgres storage needs a dsn"}
		}
	default:
		return apperrors.ConfigurationError{
			Setting:     "storage.driver",
			Description: fmt.Sprintf("unknown driver %q", c.Storage.Driver),
		}
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			return apperrors.ConfigurationError{Setting: "log.level", Description: err.Error()}
		}
	}
	return nil
}
