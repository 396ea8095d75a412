package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	// DefaultMinBytes is the significance threshold: entries at or below it are dropped.
	DefaultMinBytes = 5000
	// DefaultDebounce is the quiet period before a refresh runs.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultFetchTimeout bounds a single fetch attempt.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultFetchRetries is the number of retries after the first failed attempt.
	DefaultFetchRetries = 2
)

// Config is the card configuration.
// Mutable until Freeze is called.
type Config struct {
	// JSONURL locates the usage document. Absolute URLs pick a scheme handler;
	// relative ones are resolved against BaseURL, or read from disk when
	// BaseURL is empty.
	JSONURL string `json:"json_url"`
	BaseURL string `json:"base_url,omitempty"`
	// Query is an optional jq expression selecting the usage document
	// inside a larger payload, e.g. ".attributes".
	Query string `json:"query,omitempty"`

	MinBytes     float64  `json:"min_bytes,omitempty"`
	FetchTimeout Duration `json:"fetch_timeout,omitempty"`
	FetchRetries *int     `json:"fetch_retries,omitempty"`
	Debounce     Duration `json:"debounce,omitempty"`
	// CacheTTL is how long a prepared dataset is reused. Zero keeps it
	// until the next failure or an explicit invalidation.
	CacheTTL Duration `json:"cache_ttl,omitempty"`

	frozen bool
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "sunburst", "config.json")
}

// Load reads a Config from path and fills in defaults. It does not validate;
// the card does that when the config is applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset knob with its default.
func (c *Config) ApplyDefaults() {
	if c.frozen {
		panic("cannot modify frozen config")
	}
	if c.MinBytes == 0 {
		c.MinBytes = DefaultMinBytes
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = Duration(DefaultFetchTimeout)
	}
	if c.FetchRetries == nil {
		n := DefaultFetchRetries
		c.FetchRetries = &n
	}
	if c.Debounce == 0 {
		c.Debounce = Duration(DefaultDebounce)
	}
}

// Retries returns the configured retry count, or the default when unset.
func (c *Config) Retries() int {
	if c.FetchRetries == nil {
		return DefaultFetchRetries
	}
	return *c.FetchRetries
}

// Validate checks the Config for required fields.
func (c *Config) Validate() error {
	if c.JSONURL == "" {
		return &Error{Field: "json_url", Reason: "you must define 'json_url' for the sunburst chart"}
	}
	if _, err := url.Parse(c.JSONURL); err != nil {
		return &Error{Field: "json_url", Reason: err.Error()}
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return &Error{Field: "base_url", Reason: err.Error()}
		}
		if !u.IsAbs() {
			return &Error{Field: "base_url", Reason: "must be an absolute URL"}
		}
	}
	if c.MinBytes < 0 {
		return &Error{Field: "min_bytes", Reason: "must not be negative"}
	}
	if c.FetchTimeout < 0 || c.Debounce < 0 || c.CacheTTL < 0 {
		return &Error{Field: "durations", Reason: "must not be negative"}
	}
	if c.FetchRetries != nil && *c.FetchRetries < 0 {
		return &Error{Field: "fetch_retries", Reason: "must not be negative"}
	}
	return nil
}

// Freeze marks the config read-only. The card freezes the config it is given
// so the pipeline never sees it change underneath a run.
func (c *Config) Freeze() {
	c.frozen = true
}

// Clone returns an unfrozen copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.frozen = false
	if c.FetchRetries != nil {
		n := *c.FetchRetries
		cp.FetchRetries = &n
	}
	return &cp
}
