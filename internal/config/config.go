package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the georecon service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Data      DataConfig      `yaml:"data"`
	Store     StoreConfig     `yaml:"store"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Service   ServiceConfig   `yaml:"service"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DataConfig selects the gazetteer source.
type DataConfig struct {
	Kind        string `yaml:"kind"` // tsv, sqlite, parquet (default: from file extension)
	Path        string `yaml:"path"`
	Table       string `yaml:"table"` // sqlite only
	SizeHint    int    `yaml:"size_hint"`
	Watch       bool   `yaml:"watch"`
	DebounceSec int    `yaml:"debounce_sec"`
}

// StoreConfig selects where entity records live between index lookup and scoring.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	RetireTTLSec     int      `yaml:"retire_ttl_sec"` // must outlast reconcile.timeout_ms
}

// ReconcileConfig holds engine limits and scoring thresholds.
type ReconcileConfig struct {
	DefaultLimit        int `yaml:"default_limit"`
	MaxLimit            int `yaml:"max_limit"`
	MaxBatchSize        int `yaml:"max_batch_size"`
	TimeoutMs           int `yaml:"timeout_ms"`
	Workers             int `yaml:"workers"`
	MaxCandidates       int `yaml:"max_candidates"`
	MaxPrefixExpansions int `yaml:"max_prefix_expansions"`
	MaxTypoExpansions   int `yaml:"max_typo_expansions"`
	AutoMatchScore      int `yaml:"auto_match_score"`
	AutoMatchGap        int `yaml:"auto_match_gap"`
	TieMargin           int `yaml:"tie_margin"`
}

// ServiceConfig holds the manifest fields advertised to reconciliation clients.
type ServiceConfig struct {
	Name            string   `yaml:"name"`
	IdentifierSpace string   `yaml:"identifier_space"`
	SchemaSpace     string   `yaml:"schema_space"`
	BaseURL         string   `yaml:"base_url"`
	DefaultTypes    []string `yaml:"default_types"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Data.DebounceSec <= 0 {
		c.Data.DebounceSec = 2
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "georecon"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	c.Reconcile.applyDefaults()
	if c.Store.RetireTTLSec <= 0 {
		c.Store.RetireTTLSec = max(300, 2*c.Reconcile.TimeoutMs/1000)
	}
	if c.Service.Name == "" {
		c.Service.Name = "GeoNames reconciliation"
	}
	if c.Service.IdentifierSpace == "" {
		c.Service.IdentifierSpace = "http://sws.geonames.org/"
	}
	if c.Service.SchemaSpace == "" {
		c.Service.SchemaSpace = "http://www.geonames.org/ontology#"
	}
}

func (r *ReconcileConfig) applyDefaults() {
	defaults := []struct {
		field *int
		value int
	}{
		{&r.DefaultLimit, 5},
		{&r.MaxLimit, 50},
		{&r.MaxBatchSize, 1000},
		{&r.TimeoutMs, 10000},
		{&r.Workers, 8},
		{&r.MaxCandidates, 200},
		{&r.MaxPrefixExpansions, 32},
		{&r.MaxTypoExpansions, 16},
		{&r.AutoMatchScore, 95},
		{&r.AutoMatchGap, 10},
		{&r.TieMargin, 2},
	}
	for _, d := range defaults {
		if *d.field <= 0 {
			*d.field = d.value
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	switch c.Data.Kind {
	case "", "tsv", "sqlite", "parquet":
	default:
		return fmt.Errorf("data.kind must be one of tsv, sqlite, parquet, got %q", c.Data.Kind)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverMemory, DriverRedis, c.Store.Driver)
	}
	if c.Store.RetireTTLSec*1000 < c.Reconcile.TimeoutMs {
		return fmt.Errorf("store.retire_ttl_sec (%d) must cover reconcile.timeout_ms (%d)",
			c.Store.RetireTTLSec, c.Reconcile.TimeoutMs)
	}
	if c.Reconcile.DefaultLimit > c.Reconcile.MaxLimit {
		return fmt.Errorf("reconcile.default_limit (%d) exceeds reconcile.max_limit (%d)",
			c.Reconcile.DefaultLimit, c.Reconcile.MaxLimit)
	}
	if c.Reconcile.AutoMatchScore > 100 {
		return fmt.Errorf("reconcile.auto_match_score must be at most 100, got %d", c.Reconcile.AutoMatchScore)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
