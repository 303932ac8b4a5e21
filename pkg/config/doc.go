// Package config loads server configuration from YAML.
package config
