package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/harvester/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".harvester"

// RuleEntry is a rule as written in the config file. A missing enabled
// field means the rule is enabled.
type RuleEntry struct {
	Name    string `yaml:"name"`
	Regex   string `yaml:"regex"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// Rule converts the entry to a model.Rule.
func (e RuleEntry) Rule() model.Rule {
	enabled := true
	if e.Enabled != nil {
		enabled = *e.Enabled
	}
	return model.Rule{Name: e.Name, Pattern: e.Regex, Enabled: enabled}
}

// NewRuleEntry converts a model.Rule to its config file form.
func NewRuleEntry(r model.Rule) RuleEntry {
	enabled := r.Enabled
	return RuleEntry{Name: r.Name, Regex: r.Pattern, Enabled: &enabled}
}

// File represents the structure of the .harvester configuration file.
// Durations are Go duration strings such as "30s". Zero values leave the
// corresponding setting unchanged.
type File struct {
	Listen               string            `yaml:"listen,omitempty"`
	DBDir                string            `yaml:"dbDir,omitempty"`
	PageTimeout          string            `yaml:"pageTimeout,omitempty"`
	FetchTimeout         string            `yaml:"fetchTimeout,omitempty"`
	MaxBodySize          int64             `yaml:"maxBodySize,omitempty"`
	MaxConcurrentFetches *int              `yaml:"maxConcurrentFetches,omitempty"`
	FetchRate            float64           `yaml:"fetchRate,omitempty"`
	BatchSize            int               `yaml:"batchSize,omitempty"`
	PatternCacheSize     int               `yaml:"patternCacheSize,omitempty"`
	UserAgent            string            `yaml:"userAgent,omitempty"`
	Headers              map[string]string `yaml:"headers,omitempty"`
	Proxy                string            `yaml:"proxy,omitempty"`
	LogFile              string            `yaml:"logFile,omitempty"`
	Rules                []RuleEntry       `yaml:"rules,omitempty"`
}

// NewFile returns the config file form of cfg together with rules.
func NewFile(cfg *Config, rules []model.Rule) *File {
	concurrency := cfg.MaxConcurrentFetches
	f := &File{
		Listen:               cfg.ListenAddress,
		PageTimeout:          cfg.PageTimeout.String(),
		FetchTimeout:         cfg.FetchTimeout.String(),
		MaxBodySize:          cfg.MaxBodySize,
		MaxConcurrentFetches: &concurrency,
		FetchRate:            cfg.FetchRate,
		BatchSize:            cfg.BatchSize,
		PatternCacheSize:     cfg.PatternCacheSize,
		UserAgent:            cfg.UserAgent,
		Proxy:                cfg.ProxyAddress,
		Rules:                make([]RuleEntry, 0, len(rules)),
	}
	for _, r := range rules {
		f.Rules = append(f.Rules, NewRuleEntry(r))
	}
	return f
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// WriteConfigFile writes f to path as YAML. It refuses to overwrite an
// existing file.
func WriteConfigFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists: %w", path, err)
		}
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	return file.Close()
}

// Apply copies every set field of f into cfg.
func (f *File) Apply(cfg *Config) error {
	if f.Listen != "" {
		cfg.ListenAddress = f.Listen
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if err := setDuration(&cfg.PageTimeout, "pageTimeout", f.PageTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.FetchTimeout, "fetchTimeout", f.FetchTimeout); err != nil {
		return err
	}
	if f.MaxBodySize != 0 {
		cfg.MaxBodySize = f.MaxBodySize
	}
	if f.MaxConcurrentFetches != nil {
		cfg.MaxConcurrentFetches = *f.MaxConcurrentFetches
	}
	if f.FetchRate != 0 {
		cfg.FetchRate = f.FetchRate
	}
	if f.BatchSize != 0 {
		cfg.BatchSize = f.BatchSize
	}
	if f.PatternCacheSize != 0 {
		cfg.PatternCacheSize = f.PatternCacheSize
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if len(f.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(f.Headers))
		}
		for k, v := range f.Headers {
			cfg.Headers[k] = v
		}
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if len(f.Rules) > 0 {
		cfg.Rules = make([]model.Rule, 0, len(f.Rules))
		for _, e := range f.Rules {
			cfg.Rules = append(cfg.Rules, e.Rule())
		}
	}
	return nil
}

func setDuration(dst *time.Duration, name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, name, value, err)
	}
	*dst = d
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .harvester in the current directory
// 3. Look for .harvester in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
