// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all contacts configuration.
type Config struct {
	Book      Book      `yaml:"book"`
	Display   Display   `yaml:"display"`
	Birthdays Birthdays `yaml:"birthdays"`
}

// Book holds address book storage settings.
type Book struct {
	Path string `yaml:"path"`
}

// Display holds output settings.
type Display struct {
	BatchSize int  `yaml:"batch_size"` // Records per page in list output
	Plain     bool `yaml:"plain"`      // Never start the interactive browser
}

// Birthdays holds the upcoming-birthday report settings.
type Birthdays struct {
	WindowDays int `yaml:"window_days"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Book: Book{
			Path: ".contacts/address_book.json",
		},
		Display: Display{
			BatchSize: 1,
		},
		Birthdays: Birthdays{
			WindowDays: 7,
		},
	}
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing, empty and comment-only files are
// skipped; invalid YAML or unknown fields return an error.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Book.Path == "" {
		return errors.New("config: book.path cannot be empty")
	}
	if c.Display.BatchSize < 1 {
		return fmt.Errorf("config: display.batch_size must be at least 1, got %d", c.Display.BatchSize)
	}
	if c.Birthdays.WindowDays < 0 {
		return fmt.Errorf("config: birthdays.window_days must be non-negative, got %d", c.Birthdays.WindowDays)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: CONTACTS_BOOK, CONTACTS_BATCH_SIZE, CONTACTS_PLAIN.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CONTACTS_BOOK"); v != "" {
		c.Book.Path = v
	}
	if v := os.Getenv("CONTACTS_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTS_BATCH_SIZE %q: %w", v, err)
		}
		c.Display.BatchSize = n
	}
	if v := os.Getenv("CONTACTS_PLAIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTS_PLAIN %q: %w", v, err)
		}
		c.Display.Plain = b
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Book      *rawBook      `yaml:"book"`
	Display   *rawDisplay   `yaml:"display"`
	Birthdays *rawBirthdays `yaml:"birthdays"`
}

type rawBook struct {
	Path *string `yaml:"path"`
}

type rawDisplay struct {
	BatchSize *int  `yaml:"batch_size"`
	Plain     *bool `yaml:"plain"`
}

type rawBirthdays struct {
	WindowDays *int `yaml:"window_days"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Book != nil {
		if layer.Book.Path != nil {
			c.Book.Path = *layer.Book.Path
		}
	}
	if layer.Display != nil {
		if layer.Display.BatchSize != nil {
			c.Display.BatchSize = *layer.Display.BatchSize
		}
		if layer.Display.Plain != nil {
			c.Display.Plain = *layer.Display.Plain
		}
	}
	if layer.Birthdays != nil {
		if layer.Birthdays.WindowDays != nil {
			c.Birthdays.WindowDays = *layer.Birthdays.WindowDays
		}
	}
}
