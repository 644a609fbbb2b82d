package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	School SchoolConfig
	Log    LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string
}

// RedisConfig holds persistence settings. With Enabled false the school lives in memory only.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// SchoolConfig identifies the school this process hosts.
type SchoolConfig struct {
	ID   int32
	Name string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from file and env. Env var overrides use prefix SCHOOL_,
// e.g. SCHOOL_REDIS_ADDR. The file path can be forced with SCHOOL_CONFIG.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 8)
	v.SetDefault("school.id", 1)
	v.SetDefault("school.name", "School")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigType("yaml")

	cfgPath := os.Getenv("SCHOOL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "school-registry"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SCHOOL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// an explicit path that cannot be read is an error; a missing default file is not
		if _, ok := err.(viper.ConfigFileNotFoundError); cfgPath != "" || !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values viper cannot check by type alone.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty when redis is enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
