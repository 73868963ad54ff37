package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds the application configuration.
type Config struct {
	Port               string
	StorageDriver      string
	MongoURI           string
	DBName             string
	SQLitePath         string
	RedisURL           string
	CacheTTL           time.Duration
	JWTSecret          string
	TokenExpiry        time.Duration
	LogLevel           string
	LogFile            string
	HealthScanSchedule string
	Timezone           string
	CORSOrigins        []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("DB_NAME", "employee_manager")
	v.SetDefault("SQLITE_PATH", "employee_manager.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_EXPIRY", "72h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("HEALTH_SCAN_SCHEDULE", "@hourly")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
}

// LoadConfig reads .env files when present and then the environment.
// Real environment variables win over .env values.
func LoadConfig(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		StorageDriver:      strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		MongoURI:           v.GetString("MONGO_URI"),
		DBName:             v.GetString("DB_NAME"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		RedisURL:           v.GetString("REDIS_URL"),
		CacheTTL:           v.GetDuration("CACHE_TTL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenExpiry:        v.GetDuration("TOKEN_EXPIRY"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFile:            v.GetString("LOG_FILE"),
		HealthScanSchedule: v.GetString("HEALTH_SCAN_SCHEDULE"),
		Timezone:           v.GetString("TIMEZONE"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q: use %s or %s", c.StorageDriver, DriverSQLite, DriverMongo)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
