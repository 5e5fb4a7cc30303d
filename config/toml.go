package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// FILE CONFIG - Raw TOML; nil means "not set in the file"
// =============================================================================

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server   ServerFile   `toml:"server"`
	Database DatabaseFile `toml:"database"`
	Cache    CacheFile    `toml:"cache"`
	Redis    RedisFile    `toml:"redis"`
	Log      LogFile      `toml:"log"`
}

type ServerFile struct {
	Port           *int     `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseFile struct {
	Path *string `toml:"path"`
}

type CacheFile struct {
	Backend *string `toml:"backend"`
	TTL     *string `toml:"ttl"`
}

type RedisFile struct {
	Addr     *string `toml:"addr"`
	Password *string `toml:"password"`
	DB       *int    `toml:"db"`
}

type LogFile struct {
	Level       *string `toml:"level"`
	Development *bool   `toml:"development"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// RESOLVED CONFIG
// =============================================================================

const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port           int
	AllowedOrigins []string
	DBPath         string
	CacheBackend   string
	CacheTTL       time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LogLevel       string
	LogDevelopment bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		DBPath:         DefaultDBPath(),
		CacheBackend:   CacheMemory,
		CacheTTL:       5 * time.Minute,
		RedisAddr:      "localhost:6379",
		LogLevel:       "info",
	}
}

// Load overlays the file at path on Default.
func Load(path string) (Config, error) {
	file, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := cfg.apply(file); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(f FileConfig) error {
	setInt(&c.Port, f.Server.Port)
	if len(f.Server.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.Server.AllowedOrigins
	}
	setString(&c.DBPath, f.Database.Path)
	setString(&c.CacheBackend, f.Cache.Backend)
	if f.Cache.TTL != nil {
		ttl, err := time.ParseDuration(*f.Cache.TTL)
		if err != nil {
			return fmt.Errorf("invalid cache ttl %q: %w", *f.Cache.TTL, err)
		}
		c.CacheTTL = ttl
	}
	setString(&c.RedisAddr, f.Redis.Addr)
	setString(&c.RedisPassword, f.Redis.Password)
	setInt(&c.RedisDB, f.Redis.DB)
	setString(&c.LogLevel, f.Log.Level)
	if f.Log.Development != nil {
		c.LogDevelopment = *f.Log.Development
	}
	return c.Validate()
}

// Validate checks ranges and enums.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", c.Port)
	}
	switch c.CacheBackend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q (use none, memory or redis)", c.CacheBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
