/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/typeline/pkg/row"
	"github.com/ssargent/typeline/pkg/schema"
)

// Config represents a typeline profile: how files are laid out and which
// record they hold.
type Config struct {
	Format  Format  `yaml:"format"`
	Schema  Schema  `yaml:"schema"`
	Output  Output  `yaml:"output"`
	Metrics Metrics `yaml:"metrics"`
	Logging Logging `yaml:"logging"`
}

// Format describes the delimited text layout
type Format struct {
	Dialect         string   `yaml:"dialect"`
	Quote           string   `yaml:"quote,omitempty"`
	Header          bool     `yaml:"header"`
	CommentPrefixes []string `yaml:"comment_prefixes,omitempty"`
	NonePlaceholder string   `yaml:"none_placeholder,omitempty"`
}

// Schema declares the record stored in each line. Records lists helper
// records that field types may refer to by name; they are defined in
// order, before the main record.
type Schema struct {
	Name    string      `yaml:"name"`
	Records []RecordDef `yaml:"records,omitempty"`
	Fields  []FieldDef  `yaml:"fields"`
}

// RecordDef declares a named nested record
type RecordDef struct {
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef declares one field by name and type expression, for example
// "list<int>" or "int | float | null".
type FieldDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Output contains settings for files written by typeline
type Output struct {
	Atomic bool `yaml:"atomic"`
}

// Metrics contains metrics configuration
type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Format: Format{
			Dialect:         "tsv",
			Header:          true,
			CommentPrefixes: []string{"#"},
		},
		Schema: Schema{
			Name: "record",
			Fields: []FieldDef{
				{Name: "id", Type: "int"},
				{Name: "name", Type: "string"},
				{Name: "tags", Type: "list<string>"},
				{Name: "score", Type: "float | null"},
			},
		},
		Output: Output{
			Atomic: true,
		},
		Metrics: Metrics{
			Enabled: false,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Schema = Schema{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the format is usable and the schema parses.
func (c *Config) Validate() error {
	if _, err := c.Dialect(); err != nil {
		return err
	}
	if _, err := c.BuildSchema(); err != nil {
		return err
	}
	return nil
}

// Dialect returns the row dialect described by the format section.
func (c *Config) Dialect() (row.Dialect, error) {
	d, err := row.DialectByName(c.Format.Dialect)
	if err != nil {
		return row.Dialect{}, err
	}
	if c.Format.Quote != "" {
		if utf8.RuneCountInString(c.Format.Quote) != 1 {
			return row.Dialect{}, fmt.Errorf("quote must be a single character, got %q", c.Format.Quote)
		}
		q, _ := utf8.DecodeRuneInString(c.Format.Quote)
		d = d.WithQuote(q)
	}
	if err := d.Validate(); err != nil {
		return row.Dialect{}, err
	}
	return d, nil
}

// BuildSchema defines the helper records and then the main record.
func (c *Config) BuildSchema() (*schema.Schema, error) {
	if c.Schema.Name == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	registry := schema.NewRegistry()
	for _, rec := range c.Schema.Records {
		if _, err := registry.Define(rec.Name, fieldDecls(rec.Fields)); err != nil {
			return nil, fmt.Errorf("failed to define record %q: %w", rec.Name, err)
		}
	}

	s, err := registry.Define(c.Schema.Name, fieldDecls(c.Schema.Fields))
	if err != nil {
		return nil, fmt.Errorf("failed to define schema %q: %w", c.Schema.Name, err)
	}
	return s, nil
}

func fieldDecls(defs []FieldDef) []schema.FieldDecl {
	decls := make([]schema.FieldDecl, len(defs))
	for i, d := range defs {
		decls[i] = schema.FieldDecl{Name: d.Name, Type: d.Type}
	}
	return decls
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./typeline.yaml"
	}

	// For Linux/macOS, use ~/.config/typeline/config.yaml
	configDir := filepath.Join(homeDir, ".config", "typeline")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
