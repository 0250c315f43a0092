package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full server configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Log       LogConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Tracing   TracingConfig
	Feed      FeedConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port        int
	Environment string
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LogConfig struct {
	Level string
	File  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
}

// Addr is host:port for go-redis
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string
}

type TracingConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64 `mapstructure:"sampling_rate"`
	ServiceName  string  `mapstructure:"service_name"`
}

// FeedConfig bounds paging and the fresh-content sampler
type FeedConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
	RecentWindow int `mapstructure:"recent_window"`
	SampleSize   int `mapstructure:"sample_size"`
}

// RateLimitConfig is requests per Window per viewer
type RateLimitConfig struct {
	FollowRequests int `mapstructure:"follow_requests"`
	Likes          int
	Window         time.Duration
}

// Load reads .env (if any), then reelgraph.yaml (if any), then the
// environment. DATABASE_URL, REDIS_HOST, LOG_LEVEL and friends map onto
// the dotted keys directly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("reelgraph")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Short names used by the deployment scripts
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "reelgraph")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "server.log")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "reelgraph")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.sampling_rate", 0.1)
	v.SetDefault("tracing.service_name", "reelgraph-backend")

	v.SetDefault("feed.default_limit", 20)
	v.SetDefault("feed.max_limit", 100)
	v.SetDefault("feed.recent_window", 200)
	v.SetDefault("feed.sample_size", 20)

	v.SetDefault("rate_limit.follow_requests", 30)
	v.SetDefault("rate_limit.likes", 120)
	v.SetDefault("rate_limit.window", time.Minute)
}

// IsDevelopment is true for local and test environments
func (c *Config) IsDevelopment() bool {
	switch c.Server.Environment {
	case "development", "test":
		return true
	}
	return false
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("auth.jwt_secret must be set in %s", c.Server.Environment)
	}
	if c.Feed.MaxLimit <= 0 || c.Feed.DefaultLimit <= 0 {
		return fmt.Errorf("feed limits must be positive")
	}
	if c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return fmt.Errorf("feed.default_limit (%d) exceeds feed.max_limit (%d)", c.Feed.DefaultLimit, c.Feed.MaxLimit)
	}
	return nil
}

// DatabaseDSN returns URL when set, otherwise a DSN built from the parts.
// For sqlite the name is the file path.
func (c *Config) DatabaseDSN() string {
	d := c.Database
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite" {
		return d.Name
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
