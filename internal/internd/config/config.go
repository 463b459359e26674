package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the internd configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Events    EventsConfig    `mapstructure:"events"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	OpsPort string `mapstructure:"ops_port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	// Driver is sqlite or postgres.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig is optional; an empty Addr selects in-process fallbacks.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	// AdminEmail and AdminPassword seed an admin account at startup when
	// both are set. Admins cannot register through the API.
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type EventsConfig struct {
	// Driver is log or sns.
	Driver          string `mapstructure:"driver"`
	TopicARN        string `mapstructure:"topic_arn"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional .env file, an optional YAML file
// and INTERND_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INTERND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.ops_port", "9090")
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/internd.db")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("events.driver", "log")
	v.SetDefault("events.topic_arn", "")
	v.SetDefault("events.region", "us-east-1")
	v.SetDefault("events.endpoint", "")
	v.SetDefault("events.access_key_id", "")
	v.SetDefault("events.secret_access_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("auth token TTLs must be positive")
	}

	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("auth.admin_email and auth.admin_password must be set together")
	}
	if c.Auth.AdminPassword != "" && len(c.Auth.AdminPassword) < 8 {
		return fmt.Errorf("auth.admin_password must be at least 8 characters")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("ratelimit.requests and ratelimit.window must be positive")
	}

	switch c.Events.Driver {
	case "log":
	case "sns":
		if c.Events.TopicARN == "" {
			return fmt.Errorf("events.topic_arn is required for the sns driver")
		}
	default:
		return fmt.Errorf("unsupported events driver: %s", c.Events.Driver)
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode: %s", c.Server.Mode)
	}
	return nil
}
