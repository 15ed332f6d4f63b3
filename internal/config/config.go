package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yourusername/satprep-api/internal/service"
	"github.com/yourusername/satprep-api/internal/service/duel"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Game      GameConfig      `mapstructure:"game"`
	Questions QuestionsConfig `mapstructure:"questions"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port string `mapstructure:"port"`
	// Timeouts in seconds
	ReadTimeout     int `mapstructure:"read_timeout"`
	WriteTimeout    int `mapstructure:"write_timeout"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// MigrationsPath is a golang-migrate source URL
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis.
// Mode is one of single, sentinel, cluster. Redis is optional: with no
// address configured the service runs without cache, rate limiting and push fan-out.
type RedisConfig struct {
	Mode string `mapstructure:"mode"`
	// Addrs takes precedence over Addr
	Addrs      []string `mapstructure:"addrs"`
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`

	// -1 disables retries
	MaxRetries int `mapstructure:"max_retries"`
	// Backoffs in milliseconds
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// Enabled reports whether any Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expiration_hrs"`
}

// StorageConfig selects the game store implementation.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// GameConfig holds the game rules tunables.
type GameConfig struct {
	MinTimeLimitSec     int           `mapstructure:"min_time_limit"`
	MaxTimeLimitSec     int           `mapstructure:"max_time_limit"`
	DefaultTimeLimitSec int           `mapstructure:"default_time_limit"`
	CodeAttempts        int           `mapstructure:"code_attempts"`
	AnswerGrace         time.Duration `mapstructure:"answer_grace"`
	PoolCacheTTL        time.Duration `mapstructure:"pool_cache_ttl"`
	SnapshotCacheTTL    time.Duration `mapstructure:"snapshot_cache_ttl"`
	HistoryLimit        int           `mapstructure:"history_limit"`
}

// QuestionsConfig содержит настройки банка вопросов
type QuestionsConfig struct {
	// SeedFile replaces the embedded bank for the memory driver
	SeedFile string `mapstructure:"seed_file"`
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	PollPerMinute   int  `mapstructure:"poll_per_minute"`
	ActionPerMinute int  `mapstructure:"action_per_minute"`
}

// WebSocketConfig содержит настройки канала уведомлений
type WebSocketConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Channel is the redis pub/sub channel shared by all instances
	Channel string `mapstructure:"channel"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Limits converts the game section into the rules limits.
func (g GameConfig) Limits() duel.Limits {
	return duel.Limits{
		MinTimeLimitSec:     g.MinTimeLimitSec,
		MaxTimeLimitSec:     g.MaxTimeLimitSec,
		DefaultTimeLimitSec: g.DefaultTimeLimitSec,
	}
}

// DuelConfig converts the game section into the state machine config.
func (g GameConfig) DuelConfig() service.DuelConfig {
	return service.DuelConfig{
		Limits:           g.Limits(),
		CodeAttempts:     g.CodeAttempts,
		AnswerGrace:      g.AnswerGrace,
		SnapshotCacheTTL: g.SnapshotCacheTTL,
		HistoryLimit:     g.HistoryLimit,
	}
}

func setDefaults(vip *viper.Viper) {
	defaults := service.DefaultDuelConfig()

	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)
	vip.SetDefault("server.shutdown_timeout", 10)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("jwt.expiration_hrs", 24)

	vip.SetDefault("storage.driver", StorageDriverPostgres)

	vip.SetDefault("game.min_time_limit", defaults.Limits.MinTimeLimitSec)
	vip.SetDefault("game.max_time_limit", defaults.Limits.MaxTimeLimitSec)
	vip.SetDefault("game.default_time_limit", defaults.Limits.DefaultTimeLimitSec)
	vip.SetDefault("game.code_attempts", defaults.CodeAttempts)
	vip.SetDefault("game.answer_grace", defaults.AnswerGrace)
	vip.SetDefault("game.pool_cache_ttl", 10*time.Minute)
	vip.SetDefault("game.snapshot_cache_ttl", defaults.SnapshotCacheTTL)
	vip.SetDefault("game.history_limit", defaults.HistoryLimit)

	vip.SetDefault("rate_limit.enabled", true)
	vip.SetDefault("rate_limit.poll_per_minute", 180)
	vip.SetDefault("rate_limit.action_per_minute", 60)

	vip.SetDefault("websocket.enabled", true)
	vip.SetDefault("websocket.channel", "satprep:games")
}

func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"server.port": "SERVER_PORT",

		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.user":            "DATABASE_USER",
		"database.password":        "DATABASE_PASSWORD",
		"database.dbname":          "DATABASE_DBNAME",
		"database.sslmode":         "DATABASE_SSLMODE",
		"database.migrations_path": "DATABASE_MIGRATIONS_PATH",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"jwt.secret":         "JWT_SECRET",
		"jwt.expiration_hrs": "JWT_EXPIRATION_HRS",

		"storage.driver":       "STORAGE_DRIVER",
		"questions.seed_file":  "QUESTIONS_SEED_FILE",
		"cors.allowed_origins": "CORS_ALLOWED_ORIGINS",
		"rate_limit.enabled":   "RATE_LIMIT_ENABLED",
		"websocket.enabled":    "WEBSOCKET_ENABLED",
	}
	for key, env := range bindings {
		// BindEnv only fails without a key
		_ = vip.BindEnv(key, env)
	}
}

// Load загружает конфигурацию из файла и переменных окружения.
// A missing file is not an error; env vars and defaults still apply.
func Load(configPath string) (*Config, error) {
	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			switch {
			case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
				log.Printf("[Config] File '%s' not found, using environment and defaults", configPath)
			default:
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Storage Driver: %s", cfg.Storage.Driver)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Enabled: %t (mode: %s)", cfg.Redis.Enabled(), cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Rate Limit Enabled: %t", cfg.RateLimit.Enabled)
		log.Printf("WebSocket Enabled: %t", cfg.WebSocket.Enabled)
		log.Printf("----------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// comma separated env values arrive as a single element
func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Redis.Addrs = splitList(c.Redis.Addrs)
	c.CORS.AllowedOrigins = splitList(c.CORS.AllowedOrigins)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (check JWT_SECRET env var)")
	}
	if c.JWT.ExpirationHrs <= 0 {
		return fmt.Errorf("jwt expiration_hrs must be positive")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
		if os.Getenv("GIN_MODE") == "release" && c.Database.Password == "" {
			return fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q, expected %s or %s", c.Storage.Driver, StorageDriverPostgres, StorageDriverMemory)
	}

	g := c.Game
	if g.MinTimeLimitSec <= 0 || g.MinTimeLimitSec > g.MaxTimeLimitSec {
		return fmt.Errorf("game time limits are inconsistent: min=%d max=%d", g.MinTimeLimitSec, g.MaxTimeLimitSec)
	}
	if g.DefaultTimeLimitSec < g.MinTimeLimitSec || g.DefaultTimeLimitSec > g.MaxTimeLimitSec {
		return fmt.Errorf("game default_time_limit %d is outside [%d, %d]", g.DefaultTimeLimitSec, g.MinTimeLimitSec, g.MaxTimeLimitSec)
	}
	if g.CodeAttempts <= 0 {
		return fmt.Errorf("game code_attempts must be positive")
	}

	if c.Redis.Enabled() && c.Redis.Password == "" && os.Getenv("GIN_MODE") == "release" {
		log.Println("[Config] Warning: Redis is configured but REDIS_PASSWORD is not set in release mode")
	}
	return nil
}
