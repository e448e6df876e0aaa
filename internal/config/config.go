// Package config provides application configuration loaded from environment
// variables and an optional config.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Log      LogConfig
	Settings SettingsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	Seed       bool
	Currency   string
}

// LogConfig is handed to logger.New.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// SettingsConfig selects where the business profile is kept.
type SettingsConfig struct {
	Store         string // file or redis
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Timeouts converts the second based settings for http.Server.
func (s ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return time.Duration(s.ReadTimeout) * time.Second,
		time.Duration(s.WriteTimeout) * time.Second,
		time.Duration(s.IdleTimeout) * time.Second
}

var defaults = map[string]any{
	"port":                 "8080",
	"server_read_timeout":  15,
	"server_write_timeout": 15,
	"server_idle_timeout":  60,
	"db_driver":            "postgres",
	"db_host":              "localhost",
	"db_port":              5432,
	"db_user":              "ecotrim",
	"db_password":          "ecotrim",
	"db_name":              "ecotrim",
	"db_sslmode":           "disable",
	"db_path":              "ecotrim.db",
	"db_debug":             "false",
	"dev":                  "true",
	"migrations":           "false",
	"db_seed":              "false",
	"currency":             "RM",
	"log_level":            "info",
	"log_format":           "console",
	"log_output":           "stdout",
	"settings_store":       "file",
	"settings_path":        "data/settings.yaml",
	"redis_addr":           "localhost:6379",
	"redis_password":       "",
	"redis_db":             0,
}

// Load reads configuration. Environment variables win over the file, which
// wins over the built-in defaults. An empty file path means ./config.yaml if
// it exists.
func Load(file string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("port"),
			ReadTimeout:  v.GetInt("server_read_timeout"),
			WriteTimeout: v.GetInt("server_write_timeout"),
			IdleTimeout:  v.GetInt("server_idle_timeout"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("db_driver")),
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
			Path:     v.GetString("db_path"),
			Debug:    getBool(v, "db_debug"),
		},
		App: AppConfig{
			Dev:        getBool(v, "dev"),
			Migrations: getBool(v, "migrations"),
			Seed:       getBool(v, "db_seed"),
			Currency:   v.GetString("currency"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
			Output: v.GetString("log_output"),
		},
		Settings: SettingsConfig{
			Store:         strings.ToLower(v.GetString("settings_store")),
			Path:          v.GetString("settings_path"),
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	switch c.Settings.Store {
	case "file", "redis":
	default:
		return fmt.Errorf("unsupported SETTINGS_STORE %q (want file or redis)", c.Settings.Store)
	}
	if c.Server.Port == "" {
		return errors.New("PORT must not be empty")
	}
	return nil
}

// getBool accepts "1", "true", "yes" as true; everything else is false.
func getBool(v *viper.Viper, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
