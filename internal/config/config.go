package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	Addr           string
	DBDSN          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CookieSecret   string
	SessionTTL     time.Duration
	LogLevel       string
	GoogleClientID string
}

// fileConfig is the YAML shape of an optional config file. Values are
// expanded against the environment before parsing, and individual APP_*
// variables override whatever the file sets.
type fileConfig struct {
	Env    string `yaml:"env"`
	Addr   string `yaml:"addr"`
	DB     string `yaml:"db_dsn"`
	Redis  struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	CookieSecret   string `yaml:"cookie_secret"`
	SessionTTL     string `yaml:"session_ttl"`
	LogLevel       string `yaml:"log_level"`
	GoogleClientID string `yaml:"google_client_id"`
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	var cfg Config

	ttlRaw := ""
	if path := getenv("APP_CONFIG_FILE"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Env = fc.Env
		cfg.Addr = fc.Addr
		cfg.DBDSN = fc.DB
		cfg.RedisAddr = fc.Redis.Addr
		cfg.RedisPassword = fc.Redis.Password
		cfg.RedisDB = fc.Redis.DB
		cfg.CookieSecret = fc.CookieSecret
		cfg.LogLevel = fc.LogLevel
		cfg.GoogleClientID = fc.GoogleClientID
		ttlRaw = fc.SessionTTL
	}

	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Env, "APP_ENV")
	override(&cfg.Addr, "APP_ADDR")
	override(&cfg.DBDSN, "APP_DB_DSN")
	override(&cfg.RedisAddr, "APP_REDIS_ADDR")
	override(&cfg.RedisPassword, "APP_REDIS_PASSWORD")
	override(&cfg.CookieSecret, "APP_COOKIE_SECRET")
	override(&cfg.LogLevel, "APP_LOG_LEVEL")
	override(&cfg.GoogleClientID, "APP_GOOGLE_CLIENT_ID")
	override(&ttlRaw, "APP_SESSION_TTL")

	if raw := getenv("APP_REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	if ttlRaw == "" {
		cfg.SessionTTL = 30 * 24 * time.Hour
	} else {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_SESSION_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, errors.New("APP_SESSION_TTL: must be > 0")
		}
		cfg.SessionTTL = ttl
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool { return c.IsProd() }

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file: %w", err)
	}

	fc.Env = strings.TrimSpace(fc.Env)
	fc.Addr = strings.TrimSpace(fc.Addr)
	return fc, nil
}
