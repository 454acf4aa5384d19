package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HARVESTER_"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads variables from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies HARVESTER_* overrides from lookup to cfg.
//
//	HARVESTER_LISTEN                 listen address
//	HARVESTER_DB_DIR                 database directory
//	HARVESTER_PAGE_TIMEOUT           page timeout, e.g. 30s
//	HARVESTER_FETCH_TIMEOUT          script fetch timeout
//	HARVESTER_MAX_BODY_SIZE          bytes
//	HARVESTER_MAX_CONCURRENT_FETCHES 0 for unbounded
//	HARVESTER_FETCH_RATE             requests per second, 0 for no pacing
//	HARVESTER_USER_AGENT             User-Agent header
//	HARVESTER_PROXY                  SOCKS5 proxy host:port
//	HARVESTER_LOG_FILE               rotating log file
//	HARVESTER_VERBOSE                true/false
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("LISTEN"); ok {
		cfg.ListenAddress = v
	}
	if v, ok := get("DB_DIR"); ok {
		cfg.DBDir = v
	}
	if v, ok := get("PAGE_TIMEOUT"); ok {
		if err := setDuration(&cfg.PageTimeout, EnvPrefix+"PAGE_TIMEOUT", v); err != nil {
			return err
		}
	}
	if v, ok := get("FETCH_TIMEOUT"); ok {
		if err := setDuration(&cfg.FetchTimeout, EnvPrefix+"FETCH_TIMEOUT", v); err != nil {
			return err
		}
	}
	if v, ok := get("MAX_BODY_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return envError("MAX_BODY_SIZE", v, err)
		}
		cfg.MaxBodySize = n
	}
	if v, ok := get("MAX_CONCURRENT_FETCHES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("MAX_CONCURRENT_FETCHES", v, err)
		}
		cfg.MaxConcurrentFetches = n
	}
	if v, ok := get("FETCH_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError("FETCH_RATE", v, err)
		}
		cfg.FetchRate = f
	}
	if v, ok := get("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := get("PROXY"); ok {
		cfg.ProxyAddress = v
	}
	if v, ok := get("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := get("VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("VERBOSE", v, err)
		}
		cfg.Verbose = b
	}
	return nil
}

func envError(name, value string, err error) error {
	return fmt.Errorf("%w: %s%s=%q: %w", ErrInvalidValue, EnvPrefix, name, value, err)
}

// Load builds a Config from defaults, the config file at configPath (or the
// first one FindConfigFile finds) and the process environment. An explicit
// configPath that does not exist is an error.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	path := FindConfigFile(configPath)
	if configPath != "" && path == "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}
	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := f.Apply(cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = path
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}
