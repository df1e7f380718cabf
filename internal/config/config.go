package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	Scan        ScanConfig
	Replication ReplicationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// ScanConfig tunes the scan dispatcher timing windows.
type ScanConfig struct {
	CooldownSeconds       int
	SuccessDisplaySeconds int
	ErrorDisplaySeconds   int
}

// ReplicationConfig controls the periodic snapshot job.
type ReplicationConfig struct {
	Enabled         bool
	TargetDir       string
	IntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "equipment-checkout-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Scan: ScanConfig{
			CooldownSeconds:       getEnvAsInt("SCAN_COOLDOWN_SECONDS", 5),
			SuccessDisplaySeconds: getEnvAsInt("SCAN_SUCCESS_DISPLAY_SECONDS", 2),
			ErrorDisplaySeconds:   getEnvAsInt("SCAN_ERROR_DISPLAY_SECONDS", 4),
		},
		Replication: ReplicationConfig{
			Enabled:         getEnvAsBool("REPLICATION_ENABLED", false),
			TargetDir:       getEnv("REPLICATION_TARGET_DIR", ""),
			IntervalMinutes: getEnvAsInt("REPLICATION_INTERVAL_MINUTES", 15),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Cooldown returns the post-checkout cooldown window.
func (s ScanConfig) Cooldown() time.Duration {
	if s.CooldownSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.CooldownSeconds) * time.Second
}

// SuccessDisplay returns the display window after a successful operation.
func (s ScanConfig) SuccessDisplay() time.Duration {
	if s.SuccessDisplaySeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.SuccessDisplaySeconds) * time.Second
}

// ErrorDisplay returns the display window after an error or informational result.
func (s ScanConfig) ErrorDisplay() time.Duration {
	if s.ErrorDisplaySeconds <= 0 {
		return 4 * time.Second
	}
	return time.Duration(s.ErrorDisplaySeconds) * time.Second
}

// Interval returns the replication cadence.
func (r ReplicationConfig) Interval() time.Duration {
	if r.IntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(r.IntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
