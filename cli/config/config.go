package config

import (
	"fmt"
	"time"
)

// Config represents a zfitsrun.yaml configuration file.
// All values are optional and act as defaults for zfitsrun assemble flags.
// CLI flags always override config values.
type Config struct {
	Convention      string        `yaml:"convention"`
	AllSourceIDs    *bool         `yaml:"all_source_ids"`
	AllChunks       *bool         `yaml:"all_chunks"`
	IgnoreTimestamp *bool         `yaml:"ignore_timestamp"`
	GapTolerance    uint64        `yaml:"gap_tolerance"`
	Site            string        `yaml:"site"`
	Storage         StorageConfig `yaml:"storage"`
	Adapter         AdapterConfig `yaml:"adapter"`
}

// Validate checks the enumerated fields against their accepted values.
// Catching a misspelled convention or backend here points at the config
// file instead of failing later during discovery or export setup.
func (c *Config) Validate() error {
	switch c.Convention {
	case "", "acada_rel1", "acada_dpps_icd":
	default:
		return fmt.Errorf("invalid convention %q (must be acada_rel1 or acada_dpps_icd)", c.Convention)
	}
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("invalid storage backend %q (must be fs or s3)", c.Storage.Backend)
	}
	switch c.Adapter.Type {
	case "", "redis", "webhook":
	default:
		return fmt.Errorf("invalid adapter type %q (must be redis or webhook)", c.Adapter.Type)
	}
	return nil
}

// StorageConfig holds export defaults from the config file.
type StorageConfig struct {
	Dataset    string `yaml:"dataset"`
	Backend    string `yaml:"backend"` // fs or s3
	Path       string `yaml:"path"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	Region     string `yaml:"region"`
	FlushCount int    `yaml:"flush_count"`
	FlushBytes int64  `yaml:"flush_bytes"`
}

// AdapterConfig holds notification adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // redis or webhook
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
