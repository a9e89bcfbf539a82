// Package config provides the riskscope configuration: defaults, the YAML
// configuration file, environment variable overrides, validation and a
// masked view for printing.
package config
