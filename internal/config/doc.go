// Package config loads, validates, and normalizes the prankweb-sync
// configuration from a TOML file, with defaults applied when no file exists.
package config
