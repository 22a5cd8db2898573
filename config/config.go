package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "ORIKI_CONFIG"
	EnvBaseURL    = "ORIKI_API_BASE_URL"
	EnvCachePath  = "ORIKI_CACHE_PATH"
)

const (
	EnvironmentLocal      = "local"
	EnvironmentProduction = "production"

	LocalBaseURL      = "http://localhost:8000"
	ProductionBaseURL = "https://oriki-api.onrender.com"
)

const (
	CatalogSourceBuiltin = "builtin"
	CatalogSourceFile    = "file"
	CatalogSourceRemote  = "remote"

	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

const (
	defaultSoftTimeout    = "15s"
	defaultRequestTimeout = "60s"
	defaultAudioTimeout   = "60s"
	defaultVoice          = "alloy"
	defaultLogLevel       = "info"
)

type Config struct {
	Environment    string        `yaml:"environment"`
	APIBaseURL     string        `yaml:"api_base_url,omitempty"`
	SoftTimeout    string        `yaml:"soft_timeout"`
	RequestTimeout string        `yaml:"request_timeout"`
	AudioTimeout   string        `yaml:"audio_timeout"`
	Voice          string        `yaml:"voice"`
	Catalog        CatalogConfig `yaml:"catalog"`
	Cache          CacheConfig   `yaml:"cache"`
	Log            LogConfig     `yaml:"log"`
}

type CatalogConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path,omitempty"`
}

type CacheConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path,omitempty"`
}

func Default() Config {
	return Config{
		Environment:    EnvironmentLocal,
		SoftTimeout:    defaultSoftTimeout,
		RequestTimeout: defaultRequestTimeout,
		AudioTimeout:   defaultAudioTimeout,
		Voice:          defaultVoice,
		Catalog:        CatalogConfig{Source: CatalogSourceBuiltin},
		Cache:          CacheConfig{Backend: CacheBackendFile},
		Log:            LogConfig{Level: defaultLogLevel},
	}
}

func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return ExpandPath(p)
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "oriki", "config.yaml"), nil
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "oriki", "config.yaml"), nil
}

func DefaultStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "oriki"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "oriki"), nil
}

// DefaultCachePath is the state-dir location for a file or sqlite backend.
func DefaultCachePath(backend string) (string, error) {
	stateDir, err := DefaultStateDir()
	if err != nil {
		return "", err
	}
	if backend == CacheBackendSQLite {
		return filepath.Join(stateDir, "cache.db"), nil
	}
	return filepath.Join(stateDir, "last-result.json"), nil
}

func DefaultLogPath() (string, error) {
	stateDir, err := DefaultStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "oriki.log"), nil
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			ApplyDefaults(&cfg)
			return cfg, nil
		}
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

func Save(cfg Config) error {
	ApplyDefaults(&cfg)

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o600)
}

func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentLocal
	}
	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if strings.TrimSpace(cfg.SoftTimeout) == "" {
		cfg.SoftTimeout = defaultSoftTimeout
	}
	if strings.TrimSpace(cfg.RequestTimeout) == "" {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if strings.TrimSpace(cfg.AudioTimeout) == "" {
		cfg.AudioTimeout = defaultAudioTimeout
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = defaultVoice
	}

	cfg.Catalog.Source = strings.ToLower(strings.TrimSpace(cfg.Catalog.Source))
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = CatalogSourceBuiltin
	}
	cfg.Catalog.Path = expandOrKeep(cfg.Catalog.Path)

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendFile
	}
	cfg.Cache.Path = expandOrKeep(cfg.Cache.Path)
	cfg.Cache.RedisAddr = strings.TrimSpace(cfg.Cache.RedisAddr)

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	cfg.Log.Path = expandOrKeep(cfg.Log.Path)
}

func expandOrKeep(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if p, err := ExpandPath(raw); err == nil {
		return p
	}
	return raw
}

// Timeouts holds the parsed submission timers.
type Timeouts struct {
	Soft    time.Duration
	Request time.Duration
	Audio   time.Duration
}

func EffectiveTimeouts(cfg Config) (Timeouts, error) {
	ApplyDefaults(&cfg)
	soft, err := parsePositiveDuration("soft_timeout", cfg.SoftTimeout)
	if err != nil {
		return Timeouts{}, err
	}
	req, err := parsePositiveDuration("request_timeout", cfg.RequestTimeout)
	if err != nil {
		return Timeouts{}, err
	}
	audio, err := parsePositiveDuration("audio_timeout", cfg.AudioTimeout)
	if err != nil {
		return Timeouts{}, err
	}
	if soft >= req {
		return Timeouts{}, fmt.Errorf("soft_timeout (%s) must be shorter than request_timeout (%s)", soft, req)
	}
	return Timeouts{Soft: soft, Request: req, Audio: audio}, nil
}

func parsePositiveDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return d, nil
}

// EffectiveBaseURL resolves the service address: environment variable,
// then api_base_url, then the preset for the configured environment.
func EffectiveBaseURL(cfg Config) (string, error) {
	ApplyDefaults(&cfg)
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		return NormalizeBaseURL(v)
	}
	if cfg.APIBaseURL != "" {
		return NormalizeBaseURL(cfg.APIBaseURL)
	}
	switch cfg.Environment {
	case EnvironmentLocal:
		return LocalBaseURL, nil
	case EnvironmentProduction:
		return ProductionBaseURL, nil
	default:
		return "", fmt.Errorf("unknown environment %q", cfg.Environment)
	}
}

func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func EffectiveCachePath(cfg Config) (string, error) {
	ApplyDefaults(&cfg)
	if p := strings.TrimSpace(os.Getenv(EnvCachePath)); p != "" {
		return ExpandPath(p)
	}
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path, nil
	}
	return DefaultCachePath(cfg.Cache.Backend)
}

func EffectiveLogPath(cfg Config) (string, error) {
	ApplyDefaults(&cfg)
	if cfg.Log.Path != "" {
		return cfg.Log.Path, nil
	}
	return DefaultLogPath()
}

func Set(cfg *Config, key string, value string) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	k := strings.ToLower(strings.TrimSpace(key))
	v := strings.TrimSpace(value)

	switch k {
	case "environment", "env":
		v = strings.ToLower(v)
		if v != EnvironmentLocal && v != EnvironmentProduction {
			return fmt.Errorf("environment must be local or production")
		}
		cfg.Environment = v
	case "api_base_url", "base_url":
		if v != "" {
			normalized, err := NormalizeBaseURL(v)
			if err != nil {
				return err
			}
			v = normalized
		}
		cfg.APIBaseURL = v
	case "soft_timeout", "request_timeout", "audio_timeout":
		if _, err := parsePositiveDuration(k, v); err != nil {
			return err
		}
		switch k {
		case "soft_timeout":
			cfg.SoftTimeout = v
		case "request_timeout":
			cfg.RequestTimeout = v
		default:
			cfg.AudioTimeout = v
		}
	case "voice":
		if v == "" {
			return fmt.Errorf("voice must not be empty")
		}
		cfg.Voice = v
	case "catalog.source":
		v = strings.ToLower(v)
		switch v {
		case CatalogSourceBuiltin, CatalogSourceFile, CatalogSourceRemote:
		default:
			return fmt.Errorf("catalog.source must be builtin, file, or remote")
		}
		cfg.Catalog.Source = v
	case "catalog.path":
		expanded, err := ExpandPath(v)
		if err != nil {
			return err
		}
		cfg.Catalog.Path = expanded
	case "cache.backend":
		v = strings.ToLower(v)
		switch v {
		case CacheBackendFile, CacheBackendSQLite, CacheBackendRedis, CacheBackendNone:
		default:
			return fmt.Errorf("cache.backend must be file, sqlite, redis, or none")
		}
		cfg.Cache.Backend = v
	case "cache.path":
		expanded, err := ExpandPath(v)
		if err != nil {
			return err
		}
		cfg.Cache.Path = expanded
	case "cache.redis_addr":
		cfg.Cache.RedisAddr = v
	case "cache.redis_db":
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("cache.redis_db must be a non-negative integer")
		}
		cfg.Cache.RedisDB = n
	case "log.level":
		v = strings.ToLower(v)
		switch v {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log.level must be debug, info, warn, or error")
		}
		cfg.Log.Level = v
	case "log.path":
		expanded, err := ExpandPath(v)
		if err != nil {
			return err
		}
		cfg.Log.Path = expanded
	default:
		return fmt.Errorf("unsupported key %q", key)
	}

	ApplyDefaults(cfg)
	return nil
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	return []string{
		"environment", "api_base_url", "soft_timeout", "request_timeout", "audio_timeout", "voice",
		"catalog.source", "catalog.path",
		"cache.backend", "cache.path", "cache.redis_addr", "cache.redis_db",
		"log.level", "log.path",
	}
}

func Marshal(cfg Config) ([]byte, error) {
	ApplyDefaults(&cfg)
	return yaml.Marshal(cfg)
}

func ExpandPath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if raw == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(raw, "~/")), nil
	}
	return raw, nil
}
