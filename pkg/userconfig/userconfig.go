// Package userconfig provides user-level configuration for power-analytics.
// This configuration is stored in ~/.config/power-analytics/config.yaml and
// tells the CLI which product to report for, where to send payloads and
// which cache to share between runs.
package userconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/wp-poweranalytics/power-analytics/pkg/analytics"
	"github.com/wp-poweranalytics/power-analytics/pkg/kvcache"
	"github.com/wp-poweranalytics/power-analytics/pkg/paths"
)

// CurrentVersion is the current version of the user config format
const CurrentVersion = "v1"

// Routing variants for the ingestion endpoint.
const (
	RoutingSplit  = "split"
	RoutingSingle = "single"
)

// Environment variables that take precedence over the file.
const (
	EnvEnabled  = analytics.EnvEnabled
	EnvEndpoint = "POWER_ANALYTICS_ENDPOINT"
)

// Product identifies what the CLI reports for.
type Product struct {
	UUID string `yaml:"uuid,omitempty"`
	// Path is the absolute path of the product's main file.
	Path string `yaml:"path,omitempty"`
	Slug string `yaml:"slug,omitempty"`
}

type Cache struct {
	// Backend is one of memory, sqlite or badger.
	Backend string `yaml:"backend,omitempty"`
	// Path is the directory for on-disk backends.
	Path string `yaml:"path,omitempty"`
}

// Config represents the user-level power-analytics configuration
type Config struct {
	mu sync.Mutex

	Version  string   `yaml:"version,omitempty"`
	Endpoint string   `yaml:"endpoint,omitempty"`
	Routing  string   `yaml:"routing,omitempty"`
	Timezone string   `yaml:"timezone,omitempty"`
	Enabled  *bool    `yaml:"enabled,omitempty"`
	Manifest string   `yaml:"manifest,omitempty"`
	Product  *Product `yaml:"product,omitempty"`
	Cache    *Cache   `yaml:"cache,omitempty"`
	// LogMaxSize is the debug log rotation threshold, e.g. "10MB".
	LogMaxSize string `yaml:"log_max_size,omitempty"`
}

// Path returns the path to the config file
func Path() string {
	return filepath.Join(paths.GetConfigDir(), "config.yaml")
}

// Load reads the config file, returning an empty config if it doesn't exist.
func Load() (*Config, error) {
	return loadFrom(Path())
}

// LoadFrom is Load for an explicit path.
func LoadFrom(path string) (*Config, error) {
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Save saves the configuration to the config file
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	c.mu.Lock()
	c.Version = CurrentVersion
	data, err := yaml.Marshal(c)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// Validate checks the enumerated and parseable fields.
func (c *Config) Validate() error {
	switch c.Routing {
	case "", RoutingSplit, RoutingSingle:
	default:
		return fmt.Errorf("routing must be %q or %q, got %q", RoutingSplit, RoutingSingle, c.Routing)
	}
	if c.Cache != nil {
		switch c.Cache.Backend {
		case "", kvcache.BackendMemory, kvcache.BackendSQLite, kvcache.BackendBadger:
		default:
			return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
		}
	}
	if c.LogMaxSize != "" {
		if size, err := units.FromHumanSize(c.LogMaxSize); err != nil || size <= 0 {
			return fmt.Errorf("invalid log_max_size %q", c.LogMaxSize)
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// IsEnabled applies POWER_ANALYTICS_ENABLED over the file setting. Analytics
// is on unless one of them explicitly turns it off.
func (c *Config) IsEnabled() bool {
	if enabled, set := analytics.ParseEnabled(os.Getenv(EnvEnabled)); set {
		return enabled
	}
	return c.Enabled == nil || *c.Enabled
}

// EndpointURL returns POWER_ANALYTICS_ENDPOINT, the configured endpoint or
// fallback, in that order.
func (c *Config) EndpointURL(fallback string) string {
	if v := strings.TrimSpace(os.Getenv(EnvEndpoint)); v != "" {
		return v
	}
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fallback
}

// CacheSettings returns the cache section with defaults filled in: the
// sqlite backend under the data directory, so separate runs share sessions.
func (c *Config) CacheSettings() Cache {
	out := Cache{Backend: kvcache.BackendSQLite, Path: paths.GetCacheDir()}
	if c.Cache != nil {
		if c.Cache.Backend != "" {
			out.Backend = c.Cache.Backend
		}
		if c.Cache.Path != "" {
			out.Path = c.Cache.Path
		}
	}
	return out
}

// LogMaxSizeBytes returns the parsed log_max_size, or 0 when unset.
func (c *Config) LogMaxSizeBytes() int64 {
	if c.LogMaxSize == "" {
		return 0
	}
	size, err := units.FromHumanSize(c.LogMaxSize)
	if err != nil {
		return 0
	}
	return size
}

// GetProduct returns the product section, or an empty Product if not set.
func (c *Config) GetProduct() Product {
	if c.Product == nil {
		return Product{}
	}
	return *c.Product
}

// Keys lists the dotted names accepted by Get and Set.
func Keys() []string {
	return []string{
		"endpoint", "routing", "timezone", "enabled", "manifest",
		"product.uuid", "product.path", "product.slug",
		"cache.backend", "cache.path", "log_max_size",
	}
}

// Get returns the raw file value of key.
func (c *Config) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	product := c.GetProduct()
	var cache Cache
	if c.Cache != nil {
		cache = *c.Cache
	}

	switch key {
	case "endpoint":
		return c.Endpoint, nil
	case "routing":
		return c.Routing, nil
	case "timezone":
		return c.Timezone, nil
	case "enabled":
		if c.Enabled == nil {
			return "", nil
		}
		return strconv.FormatBool(*c.Enabled), nil
	case "manifest":
		return c.Manifest, nil
	case "product.uuid":
		return product.UUID, nil
	case "product.path":
		return product.Path, nil
	case "product.slug":
		return product.Slug, nil
	case "cache.backend":
		return cache.Backend, nil
	case "cache.path":
		return cache.Path, nil
	case "log_max_size":
		return c.LogMaxSize, nil
	default:
		return "", unknownKey(key)
	}
}

// Set assigns value to key and validates the result. An empty value clears
// the key. On error the config is left unchanged.
func (c *Config) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := Config{
		Endpoint:   c.Endpoint,
		Routing:    c.Routing,
		Timezone:   c.Timezone,
		Enabled:    c.Enabled,
		Manifest:   c.Manifest,
		LogMaxSize: c.LogMaxSize,
	}
	product := c.GetProduct()
	var cache Cache
	if c.Cache != nil {
		cache = *c.Cache
	}

	switch key {
	case "endpoint":
		next.Endpoint = value
	case "routing":
		next.Routing = value
	case "timezone":
		next.Timezone = value
	case "enabled":
		if value == "" {
			next.Enabled = nil
			break
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("enabled must be true or false, got %q", value)
		}
		next.Enabled = &b
	case "manifest":
		next.Manifest = value
	case "product.uuid":
		product.UUID = value
	case "product.path":
		product.Path = value
	case "product.slug":
		product.Slug = value
	case "cache.backend":
		cache.Backend = value
	case "cache.path":
		cache.Path = value
	case "log_max_size":
		next.LogMaxSize = value
	default:
		return unknownKey(key)
	}

	if product != (Product{}) {
		next.Product = &product
	}
	if cache != (Cache{}) {
		next.Cache = &cache
	}
	if err := next.Validate(); err != nil {
		return err
	}

	c.Endpoint, c.Routing, c.Timezone = next.Endpoint, next.Routing, next.Timezone
	c.Enabled, c.Manifest, c.LogMaxSize = next.Enabled, next.Manifest, next.LogMaxSize
	c.Product, c.Cache = next.Product, next.Cache
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(slices.Sorted(slices.Values(Keys())), ", "))
}
