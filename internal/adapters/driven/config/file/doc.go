// Package file provides file-based configuration for engineroom.
//
// Adapters:
//   - ConfigStore: TOML configuration in <config dir>/config.toml
//   - EnvOverlay: process environment (and .env files) layered over a ConfigStore
package file
