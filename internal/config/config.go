package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/harvester/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "harvester"

	// DefaultListenAddress binds the API to loopback only. The API has no
	// authentication, so exposing it is an explicit choice.
	DefaultListenAddress = "127.0.0.1:8765"

	// DefaultPageTimeout bounds loading the scanned page itself.
	DefaultPageTimeout = 30 * time.Second

	// DefaultFetchTimeout bounds each external script fetch.
	DefaultFetchTimeout = 15 * time.Second

	// DefaultMaxBodySize limits how much of a page or script is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxConcurrentFetches bounds script fetches per scan.
	DefaultMaxConcurrentFetches = 16

	// DefaultBatchSize is the number of concurrent scans run by the scan command.
	DefaultBatchSize = 4

	// DefaultPatternCacheSize is the number of compiled patterns kept.
	DefaultPatternCacheSize = 128

	// DefaultUserAgent identifies harvester in HTTP requests.
	DefaultUserAgent = "harvester/1.0 (+https://github.com/nao1215/harvester)"

	// DefaultTorProxyAddress is the Tor daemon's SOCKS5 port, used by --tor.
	DefaultTorProxyAddress = "127.0.0.1:9050"
)

// Config holds all harvester settings.
// It is populated from defaults, the config file, the environment and CLI
// flags, then passed down explicitly. There is no global config.
type Config struct {
	// ListenAddress is the host:port the HTTP API listens on.
	ListenAddress string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/harvester on Linux).
	DBDir string

	// PageTimeout bounds loading the scanned page.
	PageTimeout time.Duration

	// FetchTimeout bounds each external script fetch.
	FetchTimeout time.Duration

	// MaxBodySize is the maximum body size in bytes read per response.
	// 0 means the default.
	MaxBodySize int64

	// MaxConcurrentFetches bounds script fetches per scan. 0 means unbounded.
	MaxConcurrentFetches int

	// FetchRate paces outbound requests in requests per second.
	// 0 disables pacing.
	FetchRate float64

	// BatchSize is the number of concurrent scans run by the scan command.
	BatchSize int

	// PatternCacheSize is the number of compiled patterns kept across scans.
	PatternCacheSize int

	// UserAgent is sent with every outbound request.
	UserAgent string

	// Headers are extra headers sent with every outbound request.
	Headers map[string]string

	// ProxyAddress routes outbound requests through a SOCKS5 proxy when set.
	ProxyAddress string

	// LogFile sends logs to a rotating file instead of stderr when set.
	LogFile string

	// JSONLog switches log output to JSON.
	JSONLog bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the configuration file that was loaded, if any.
	ConfigFilePath string

	// Rules are rules from the config file, used by the scan command when
	// no rules are stored yet.
	Rules []model.Rule
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddress:        DefaultListenAddress,
		DBDir:                XDGDataDir(),
		PageTimeout:          DefaultPageTimeout,
		FetchTimeout:         DefaultFetchTimeout,
		MaxBodySize:          DefaultMaxBodySize,
		MaxConcurrentFetches: DefaultMaxConcurrentFetches,
		BatchSize:            DefaultBatchSize,
		PatternCacheSize:     DefaultPatternCacheSize,
		UserAgent:            DefaultUserAgent,
		Headers:              map[string]string{},
		Rules:                []model.Rule{},
	}
}

// XDGDataDir returns the XDG data directory for harvester.
// On Linux: ~/.local/share/harvester
// On macOS: ~/Library/Application Support/harvester
// On Windows: %LOCALAPPDATA%\harvester
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGStateDir returns the XDG state directory for harvester, where log
// files given by bare name are kept.
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// LogFilePath returns where logs are written, or "" for stderr. A bare
// file name is placed in XDGStateDir; any other path is used as given.
func (c *Config) LogFilePath() string {
	if c.LogFile == "" || filepath.Base(c.LogFile) != c.LogFile {
		return c.LogFile
	}
	return filepath.Join(XDGStateDir(), c.LogFile)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return ErrInvalidListenAddress
	}
	if c.PageTimeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxConcurrentFetches < 0 {
		return ErrInvalidConcurrency
	}
	if c.FetchRate < 0 {
		return ErrInvalidFetchRate
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.PatternCacheSize <= 0 {
		return ErrInvalidCacheSize
	}
	return nil
}
