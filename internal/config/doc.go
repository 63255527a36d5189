// Package config defines converter settings and provides helpers to load,
// validate and save them as YAML or TOML.
//
// Every field has a usable default, so a missing settings file is not an error.
// Command-line flags override loaded values.
package config
