package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag parsed by ParseEnv.
const EnvPrefix = "PARLEY_"

// ParseEnv loads configuration from PARLEY_-prefixed environment variables.
// Struct tags name the variable without the prefix.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix(target, EnvPrefix)
}

// ParseEnvWithPrefix loads configuration using an explicit prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
