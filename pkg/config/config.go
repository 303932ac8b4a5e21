package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCompressionThreshold is the payload size in bytes above which
// dataset values are zlib-compressed before storage.
const DefaultCompressionThreshold = 5000

// Config holds server configuration, loaded from a YAML file with CLI
// flags taking precedence.
type Config struct {
	DataDir              string `yaml:"data_dir"`
	ListenAddr           string `yaml:"listen_addr"`
	MetricsAddr          string `yaml:"metrics_addr"`
	LogLevel             string `yaml:"log_level"`
	LogJSON              bool   `yaml:"log_json"`
	CompressionThreshold int    `yaml:"compression_threshold"`
}

// Default returns a config populated with sensible defaults.
func Default() *Config {
	return &Config{
		DataDir:              "/var/lib/hydranet",
		ListenAddr:           ":8080",
		MetricsAddr:          ":9090",
		LogLevel:             "info",
		CompressionThreshold: DefaultCompressionThreshold,
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.CompressionThreshold <= 0 {
		cfg.CompressionThreshold = DefaultCompressionThreshold
	}

	return cfg, nil
}
