// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Port      string
	LogLevel  logrus.Level
	LogFormat string // "text" or "json"

	StoreDriver string
	SQLitePath  string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
	DatabaseURL string

	TokenTTL          time.Duration
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	RequireBindToken  bool

	MaxPlayers int
	Rules      models.HouseRules

	RoomTTL         time.Duration
	CleanupInterval time.Duration
}

// Load builds a Config from the environment, applying defaults for unset keys.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:        getEnv("SQLITE_PATH", "uno.db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:       getEnv("REDIS_PREFIX", "uno:"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTPrivateKeyPath: os.Getenv("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:  os.Getenv("JWT_PUBLIC_KEY_PATH"),
		Rules:             models.DefaultHouseRules(),
	}

	var err error
	if cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite, DriverRedis, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
	}
	if (cfg.JWTPrivateKeyPath == "") != (cfg.JWTPublicKeyPath == "") {
		return nil, fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}

	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_EXPIRE_TIME", 0); err != nil {
		return nil, err
	}
	if cfg.RequireBindToken, err = getEnvBool("REQUIRE_BIND_TOKEN", true); err != nil {
		return nil, err
	}
	if cfg.MaxPlayers, err = getEnvInt("MAX_PLAYERS", models.MaxPlayersCap); err != nil {
		return nil, err
	}
	if cfg.MaxPlayers < 2 || cfg.MaxPlayers > models.MaxPlayersCap {
		return nil, fmt.Errorf("MAX_PLAYERS must be between 2 and %d", models.MaxPlayersCap)
	}
	if cfg.RoomTTL, err = getEnvDuration("ROOM_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval, err = getEnvDuration("CLEANUP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval <= 0 {
		return nil, fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}

	if err := loadRules(&cfg.Rules); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadRules overlays the rule defaults from the environment, reusing the
// room-level validation.
func loadRules(rules *models.HouseRules) error {
	changes := map[string]interface{}{}
	durations := []struct{ env, key string }{
		{"TURN_TIMEOUT", "turnTimeoutSec"},
		{"COLOR_TIMEOUT", "colorChoiceTimeoutSec"},
		{"DISCONNECT_GRACE", "disconnectGraceSec"},
	}
	for _, d := range durations {
		if os.Getenv(d.env) == "" {
			continue
		}
		v, err := getEnvDuration(d.env, 0)
		if err != nil {
			return err
		}
		changes[d.key] = v.Seconds()
	}
	flags := []struct{ env, key string }{
		{"DRAW_STACKING", "drawStacking"},
		{"RESTRICT_WILD4", "restrictWildDrawFour"},
	}
	for _, f := range flags {
		if os.Getenv(f.env) == "" {
			continue
		}
		v, err := getEnvBool(f.env, false)
		if err != nil {
			return err
		}
		changes[f.key] = v
	}
	if err := rules.Update(changes); err != nil {
		return fmt.Errorf("house rule defaults: %w", err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
