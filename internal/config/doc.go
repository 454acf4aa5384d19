// Package config provides harvester's settings: defaults, the YAML config
// file, .env files and HARVESTER_* environment overrides.
//
// Sources are applied in this order, later ones winning:
//
//	NewConfig defaults < config file < environment < command-line flags
package config
