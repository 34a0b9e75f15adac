package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Slot policies accepted by SCHEDULER_SLOT_POLICY.
const (
	SlotPolicyGlobal = "global"
	SlotPolicyRoom   = "room"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Catalog   CatalogConfig
	Scheduler SchedulerConfig
}

// DatabaseConfig holds the Postgres pool settings. A zero StatementTimeout
// leaves the server default in place.
type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	AppName          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig controls caching of catalog read views.
type CatalogConfig struct {
	CacheTTL time.Duration
}

// SchedulerConfig tunes the automated timetable generator.
type SchedulerConfig struct {
	Enabled             bool
	SlotPolicy          string
	LectureRoomFallback bool
	DefaultAcademicYear string
	PreviewTTL          time.Duration
	RunTimeout          time.Duration
	LockTTL             time.Duration
	LockWait            time.Duration
	Workers             int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
	cfg.Database.AppName = v.GetString("DB_APP_NAME")
	cfg.Database.ConnMaxLifetime = parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour)
	cfg.Database.StatementTimeout = parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 15*time.Second)

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		CacheTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	workers := v.GetInt("SCHEDULER_WORKERS")
	if workers <= 0 {
		workers = 2
	}
	cfg.Scheduler = SchedulerConfig{
		Enabled:             v.GetBool("SCHEDULER_ENABLED"),
		SlotPolicy:          normalizeSlotPolicy(v.GetString("SCHEDULER_SLOT_POLICY")),
		LectureRoomFallback: v.GetBool("SCHEDULER_LECTURE_ROOM_FALLBACK"),
		DefaultAcademicYear: v.GetString("SCHEDULER_DEFAULT_ACADEMIC_YEAR"),
		PreviewTTL:          parseDuration(v.GetString("SCHEDULER_PREVIEW_TTL"), 30*time.Minute),
		RunTimeout:          parseDuration(v.GetString("SCHEDULER_RUN_TIMEOUT"), 30*time.Second),
		LockTTL:             parseDuration(v.GetString("SCHEDULER_LOCK_TTL"), 2*time.Minute),
		LockWait:            parseDuration(v.GetString("SCHEDULER_LOCK_WAIT"), 10*time.Second),
		Workers:             workers,
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "15s")
	v.SetDefault("DB_APP_NAME", "timetable-api")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_SLOT_POLICY", SlotPolicyGlobal)
	v.SetDefault("SCHEDULER_LECTURE_ROOM_FALLBACK", true)
	v.SetDefault("SCHEDULER_DEFAULT_ACADEMIC_YEAR", "2024-25")
	v.SetDefault("SCHEDULER_PREVIEW_TTL", "30m")
	v.SetDefault("SCHEDULER_RUN_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_LOCK_TTL", "2m")
	v.SetDefault("SCHEDULER_LOCK_WAIT", "10s")
	v.SetDefault("SCHEDULER_WORKERS", 2)
}

func normalizeSlotPolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SlotPolicyRoom:
		return SlotPolicyRoom
	default:
		return SlotPolicyGlobal
	}
}

// viper reports a missing explicit config file as a plain fs error.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
