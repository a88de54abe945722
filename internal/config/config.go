package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Storage      StorageConfig
	SLA          SLAConfig
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
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig controls realtime fan-out of inbox entries.
type NotificationConfig struct {
	Channel string
}

// StorageConfig points at the S3-compatible attachment bucket. Storage is
// disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint          string
	AccessKey         string
	SecretKey         string
	Bucket            string
	UseSSL            bool
	PresignTTLMinutes int
}

// PresignTTL returns how long presigned URLs stay valid.
func (s StorageConfig) PresignTTL() time.Duration {
	if s.PresignTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.PresignTTLMinutes) * time.Minute
}

// SLAConfig tunes the deadline monitor and default resolution hours.
type SLAConfig struct {
	MonitorIntervalSeconds int
	MonitorBatchSize       int
	PolicyCacheTTLSeconds  int
	// DefaultHours overrides entries of the built-in table, keyed by level (P0..P3).
	DefaultHours map[string]int
}

// MonitorInterval returns the tick period of the SLA monitor.
func (s SLAConfig) MonitorInterval() time.Duration {
	if s.MonitorIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.MonitorIntervalSeconds) * time.Second
}

// PolicyCacheTTL returns how long cached sector policies live in Redis.
func (s SLAConfig) PolicyCacheTTL() time.Duration {
	if s.PolicyCacheTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.PolicyCacheTTLSeconds) * time.Second
}

// slaDefaultsFile is the on-disk shape of SLA_DEFAULTS_FILE.
type slaDefaultsFile struct {
	Hours map[string]int `yaml:"hours"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	defaults, err := LoadSLADefaults(os.Getenv("SLA_DEFAULTS_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
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
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			Channel: getEnv("NOTIFY_REDIS_CHANNEL", "helpdesk:notifications"),
		},
		Storage: StorageConfig{
			Endpoint:          os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:         os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:         os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:            getEnv("STORAGE_BUCKET", "helpdesk-attachments"),
			UseSSL:            getEnvAsBool("STORAGE_USE_SSL", false),
			PresignTTLMinutes: getEnvAsInt("STORAGE_PRESIGN_TTL_MINUTES", 15),
		},
		SLA: SLAConfig{
			MonitorIntervalSeconds: getEnvAsInt("SLA_MONITOR_INTERVAL_SECONDS", 60),
			MonitorBatchSize:       getEnvAsInt("SLA_MONITOR_BATCH_SIZE", 200),
			PolicyCacheTTLSeconds:  getEnvAsInt("SLA_POLICY_CACHE_TTL_SECONDS", 600),
			DefaultHours:           defaults,
		},
	}

	return cfg, nil
}

// LoadSLADefaults reads a YAML file of the form
//
//	hours:
//	  P0: 2
//	  P1: 12
//
// An empty path yields no overrides.
func LoadSLADefaults(path string) (map[string]int, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read SLA defaults: %w", err)
	}
	var file slaDefaultsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse SLA defaults: %w", err)
	}
	out := make(map[string]int, len(file.Hours))
	for level, hours := range file.Hours {
		if hours <= 0 {
			return nil, fmt.Errorf("SLA defaults: %s must be positive, got %d", level, hours)
		}
		out[strings.ToUpper(level)] = hours
	}
	return out, nil
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
