// Package config provides YAML and TOML configuration loading with environment
// variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from the file extension. Anything other than
// .toml is read as YAML.
func FormatOf(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load loads configuration from a YAML or TOML file with environment variable
// expansion.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := Decode(data, FormatOf(filename), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// Decode expands environment variables in data and unmarshals it.
func Decode[T any](data []byte, format Format, target *T) error {
	expandedData := os.ExpandEnv(string(data))

	switch format {
	case FormatTOML:
		_, err := toml.Decode(expandedData, target)
		return err
	case FormatYAML, "":
		return yaml.Unmarshal([]byte(expandedData), target)
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
}

// LoadWithDefaults loads configuration with fallback to a default file.
func LoadWithDefaults[T any](filename, defaultFile string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if defaultFile != "" {
			return Load(defaultFile, target)
		}
		return fmt.Errorf("config file not found: %s", filename)
	}
	return Load(filename, target)
}

// MustLoad loads configuration and panics on failure.
func MustLoad[T any](filename string, target *T) {
	if err := Load(filename, target); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}
