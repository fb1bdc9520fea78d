// Package config loads user preferences for bundles.
// Preferences live in ~/.config/bundles/config.toml and can be overridden by
// BUNDLES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	bundleerrors "github.com/nikbrunner/bundles/internal/errors"
	"github.com/nikbrunner/bundles/internal/present"
)

const (
	DefaultBackend          = BackendFile
	DefaultServerAddr       = "127.0.0.1:7878"
	DefaultCheckConcurrency = 10
	DefaultCheckTimeout     = 10 * time.Second

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	defaultDir = "~/.config/bundles"
)

// Config holds resolved application configuration.
type Config struct {
	// IgnorePinThreshold is the query length above which search results are
	// shown as one flat list instead of pinned/unpinned sections.
	IgnorePinThreshold int
	CaseSensitive      bool

	Storage Storage
	Log     Log
	Check   Check
	Server  Server
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Backend       string
	Path          string // directory for file, database file for sqlite
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Log configures the zap logger.
type Log struct {
	Level  string
	File   string
	Pretty bool
}

// Check configures the URL health checker.
type Check struct {
	ExcludeDomains []string
	Concurrency    int
	Timeout        time.Duration
}

// Server configures the local HTTP API.
type Server struct {
	Addr string
}

// fileConfig mirrors the TOML document. Values that users commonly get wrong
// are decoded loosely and validated afterwards.
type fileConfig struct {
	IgnorePinThreshold any  `toml:"ignore_pin_threshold,omitempty"`
	CaseSensitive      bool `toml:"case_sensitive"`

	Storage struct {
		Backend       string `toml:"backend,omitempty"`
		Path          string `toml:"path,omitempty"`
		RedisAddr     string `toml:"redis_addr,omitempty"`
		RedisPassword string `toml:"redis_password,omitempty"`
		RedisDB       int    `toml:"redis_db,omitempty"`
	} `toml:"storage"`

	Log struct {
		Level  string `toml:"level,omitempty"`
		File   string `toml:"file,omitempty"`
		Pretty bool   `toml:"pretty,omitempty"`
	} `toml:"log"`

	Check struct {
		ExcludeDomains []string `toml:"exclude_domains,omitempty"`
		Concurrency    int      `toml:"concurrency,omitempty"`
		Timeout        string   `toml:"timeout,omitempty"`
	} `toml:"check"`

	Server struct {
		Addr string `toml:"addr,omitempty"`
	} `toml:"server"`
}

// Default returns the default configuration with paths under dir.
func Default(dir string) *Config {
	return &Config{
		IgnorePinThreshold: present.DefaultIgnorePinThreshold,
		Storage: Storage{
			Backend:   DefaultBackend,
			Path:      dir,
			RedisAddr: "localhost:6379",
		},
		Log: Log{
			Level: "info",
			File:  filepath.Join(dir, "bundles.log"),
		},
		Check: Check{
			ExcludeDomains: []string{"github.com", "gitlab.com"},
			Concurrency:    DefaultCheckConcurrency,
			Timeout:        DefaultCheckTimeout,
		},
		Server: Server{Addr: DefaultServerAddr},
	}
}

// DefaultDir returns ~/.config/bundles, resolved.
func DefaultDir() (string, error) {
	return expandPath(defaultDir)
}

// DefaultPath returns the default config file path, honoring BUNDLES_CONFIG.
func DefaultPath() (string, error) {
	if p := os.Getenv("BUNDLES_CONFIG"); p != "" {
		return expandPath(p)
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path and applies environment overrides.
//
// Invalid preferences do not abort loading: the returned Config holds the
// default for every value that could not be used, and the error (code
// INVALID_CONFIG) describes what was ignored so the caller can tell the user.
// A nil Config is only returned when the file exists but cannot be read.
func Load(path string) (*Config, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg := Default(filepath.Dir(resolved))

	var problems []error

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Write defaults so users have something to edit. Non-fatal.
		_ = writeDefaults(resolved)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			problems = append(problems, bundleerrors.NewInvalidConfig("config file", resolved, err))
		} else {
			problems = append(problems, applyFile(cfg, &fc)...)
		}
	}

	problems = append(problems, applyEnv(cfg)...)

	return cfg, errors.Join(problems...)
}

func applyFile(cfg *Config, fc *fileConfig) []error {
	var problems []error

	if fc.IgnorePinThreshold != nil {
		n, err := parseThreshold(fc.IgnorePinThreshold)
		if err != nil {
			problems = append(problems, err)
		} else {
			cfg.IgnorePinThreshold = n
		}
	}
	cfg.CaseSensitive = fc.CaseSensitive

	if fc.Storage.Backend != "" {
		if validBackend(fc.Storage.Backend) {
			cfg.Storage.Backend = fc.Storage.Backend
		} else {
			problems = append(problems, bundleerrors.NewInvalidConfig("storage.backend", fc.Storage.Backend, nil))
		}
	}
	if fc.Storage.Path != "" {
		if p, err := expandPath(fc.Storage.Path); err == nil {
			cfg.Storage.Path = p
		} else {
			problems = append(problems, bundleerrors.NewInvalidConfig("storage.path", fc.Storage.Path, err))
		}
	}
	if fc.Storage.RedisAddr != "" {
		cfg.Storage.RedisAddr = fc.Storage.RedisAddr
	}
	cfg.Storage.RedisPassword = fc.Storage.RedisPassword
	cfg.Storage.RedisDB = fc.Storage.RedisDB

	if fc.Log.Level != "" {
		cfg.Log.Level = strings.ToLower(fc.Log.Level)
	}
	if fc.Log.File != "" {
		if p, err := expandPath(fc.Log.File); err == nil {
			cfg.Log.File = p
		}
	}
	cfg.Log.Pretty = fc.Log.Pretty

	if fc.Check.ExcludeDomains != nil {
		cfg.Check.ExcludeDomains = fc.Check.ExcludeDomains
	}
	if fc.Check.Concurrency > 0 {
		cfg.Check.Concurrency = fc.Check.Concurrency
	}
	if fc.Check.Timeout != "" {
		d, err := time.ParseDuration(fc.Check.Timeout)
		if err != nil || d <= 0 {
			problems = append(problems, bundleerrors.NewInvalidConfig("check.timeout", fc.Check.Timeout, err))
		} else {
			cfg.Check.Timeout = d
		}
	}

	if fc.Server.Addr != "" {
		cfg.Server.Addr = fc.Server.Addr
	}

	return problems
}

func applyEnv(cfg *Config) []error {
	var problems []error

	if v := os.Getenv("BUNDLES_IGNORE_PIN_THRESHOLD"); v != "" {
		n, err := parseThreshold(v)
		if err != nil {
			problems = append(problems, err)
		} else {
			cfg.IgnorePinThreshold = n
		}
	}
	if v := os.Getenv("BUNDLES_CASE_SENSITIVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			problems = append(problems, bundleerrors.NewInvalidConfig("BUNDLES_CASE_SENSITIVE", v, err))
		} else {
			cfg.CaseSensitive = b
		}
	}
	if v := os.Getenv("BUNDLES_STORAGE_BACKEND"); v != "" {
		if validBackend(v) {
			cfg.Storage.Backend = v
		} else {
			problems = append(problems, bundleerrors.NewInvalidConfig("BUNDLES_STORAGE_BACKEND", v, nil))
		}
	}
	if v := os.Getenv("BUNDLES_STORAGE_PATH"); v != "" {
		if p, err := expandPath(v); err == nil {
			cfg.Storage.Path = p
		}
	}
	cfg.Storage.RedisAddr = getenv("BUNDLES_REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getenv("BUNDLES_REDIS_PASSWORD", cfg.Storage.RedisPassword)
	if v := os.Getenv("BUNDLES_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			problems = append(problems, bundleerrors.NewInvalidConfig("BUNDLES_REDIS_DB", v, err))
		} else {
			cfg.Storage.RedisDB = n
		}
	}
	cfg.Log.Level = strings.ToLower(getenv("BUNDLES_LOG_LEVEL", cfg.Log.Level))
	cfg.Log.File = getenv("BUNDLES_LOG_FILE", cfg.Log.File)
	cfg.Server.Addr = getenv("BUNDLES_SERVER_ADDR", cfg.Server.Addr)

	return problems
}

// parseThreshold accepts an integer or a numeric string. Anything else,
// including negative numbers, is a configuration error.
func parseThreshold(v any) (int, error) {
	const key = "ignore_pin_threshold"

	switch t := v.(type) {
	case int64:
		if t < 0 {
			return 0, bundleerrors.NewInvalidConfig(key, strconv.FormatInt(t, 10), nil)
		}
		return int(t), nil
	case int:
		if t < 0 {
			return 0, bundleerrors.NewInvalidConfig(key, strconv.Itoa(t), nil)
		}
		return t, nil
	case float64:
		if t < 0 || t != float64(int(t)) {
			return 0, bundleerrors.NewInvalidConfig(key, strconv.FormatFloat(t, 'f', -1, 64), nil)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, bundleerrors.NewInvalidConfig(key, t, errors.New("not a number"))
		}
		if n < 0 {
			return 0, bundleerrors.NewInvalidConfig(key, t, nil)
		}
		return n, nil
	default:
		return 0, bundleerrors.NewInvalidConfig(key, fmt.Sprint(v), nil)
	}
}

func validBackend(name string) bool {
	switch name {
	case BackendFile, BackendSQLite, BackendRedis:
		return true
	}
	return false
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var fc fileConfig
	fc.IgnorePinThreshold = present.DefaultIgnorePinThreshold
	fc.Storage.Backend = DefaultBackend
	fc.Log.Level = "info"
	fc.Check.ExcludeDomains = []string{"github.com", "gitlab.com"}
	fc.Check.Concurrency = DefaultCheckConcurrency
	fc.Check.Timeout = DefaultCheckTimeout.String()
	fc.Server.Addr = DefaultServerAddr

	data, err := toml.Marshal(fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
