package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// History backends
const (
	HistoryMemory   = "memory"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	History   HistoryConfig   `mapstructure:"history"`
	Remote    RemoteConfig    `mapstructure:"remote"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"` // forced on by the redis history backend
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool               `mapstructure:"enabled"`
	URL        string             `mapstructure:"url"`
	StreamName string             `mapstructure:"stream_name"`
	Subjects   NATSSubjectsConfig `mapstructure:"subjects"`
}

type NATSSubjectsConfig struct {
	ScanCompleted  string `mapstructure:"scan_completed"`
	HighRisk       string `mapstructure:"high_risk"`
	HistoryCleared string `mapstructure:"history_cleared"`
}

type AuthConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	APIKeys    []string `mapstructure:"api_keys"`
	AdminToken string   `mapstructure:"admin_token"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type AnalyzerConfig struct {
	LibraryPath      string `mapstructure:"library_path"` // empty uses the built-in library
	MaxBatchSize     int    `mapstructure:"max_batch_size"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	MaxContentLength int    `mapstructure:"max_content_length"` // bytes, 0 = unlimited
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // memory, redis, postgres
}

type RemoteConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"` // gemini, claude, openai
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// setDefaults lets the service start without any config file
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "safesphere")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8090)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 75*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "safesphere")
	v.SetDefault("database.dbname", "safesphere")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.schema", "public")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "safesphere:")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "SAFESPHERE")
	v.SetDefault("nats.subjects.scan_completed", "safesphere.scan.completed")
	v.SetDefault("nats.subjects.high_risk", "safesphere.scan.high_risk")
	v.SetDefault("nats.subjects.history_cleared", "safesphere.history.cleared")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Admin-Token", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("analyzer.max_batch_size", 100)
	v.SetDefault("analyzer.batch_concurrency", 5)
	v.SetDefault("analyzer.max_content_length", 64*1024)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.backend", HistoryMemory)

	v.SetDefault("remote.provider", "gemini")
	v.SetDefault("remote.timeout", 60*time.Second)
}

// Load reads configuration from file and environment variables.
// With an empty path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/safesphere")
	}

	// Environment variables
	v.SetEnvPrefix("SAFESPHERE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	for _, key := range []string{
		"app.environment",
		"server.http_port",
		"redis.enabled", "redis.host", "redis.port", "redis.password", "redis.tls",
		"database.host", "database.port", "database.user", "database.password", "database.dbname", "database.sslmode",
		"nats.enabled", "nats.url",
		"auth.enabled", "auth.admin_token",
		"logger.level", "logger.format",
		"analyzer.library_path",
		"history.enabled", "history.backend",
		"remote.enabled", "remote.provider", "remote.api_key", "remote.model", "remote.base_url",
	} {
		_ = v.BindEnv(key, "SAFESPHERE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.History.Backend {
	case HistoryMemory, HistoryRedis, HistoryPostgres:
	default:
		return fmt.Errorf("invalid history backend %q", c.History.Backend)
	}
	if c.Analyzer.MaxBatchSize <= 0 {
		return fmt.Errorf("analyzer.max_batch_size must be positive")
	}
	if c.Analyzer.BatchConcurrency <= 0 {
		return fmt.Errorf("analyzer.batch_concurrency must be positive")
	}
	if c.Remote.Enabled && c.Remote.APIKey == "" {
		return fmt.Errorf("remote.api_key is required when remote classification is enabled")
	}
	return nil
}

// RedisRequired reports whether the service needs a Redis connection
func (c *Config) RedisRequired() bool {
	return c.Redis.Enabled || (c.History.Enabled && c.History.Backend == HistoryRedis)
}

// PostgresRequired reports whether the service needs a PostgreSQL pool
func (c *Config) PostgresRequired() bool {
	return c.History.Enabled && c.History.Backend == HistoryPostgres
}
