package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Lock backends supported by the scheduling layer.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type Config struct {
	Env         string
	ServiceName string
	Port        int
	APIPrefix   string
	EnableDocs  bool

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Occupancy  OccupancyConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
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

// SchedulingConfig tunes room assignment behaviour.
type SchedulingConfig struct {
	Timezone             string
	LockBackend          string
	LockTTL              time.Duration
	LockWait             time.Duration
	CompensateChangeRoom bool
	Score                ScoreConfig
}

// ScoreConfig holds the room suggestion weights.
type ScoreConfig struct {
	Base            float64
	ConflictPenalty float64
	ExcessThreshold int
	ExcessFactor    float64
	EquipmentBonus  float64
}

// OccupancyConfig governs occupancy summary caching.
type OccupancyConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
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
	cfg.ServiceName = v.GetString("SERVICE_NAME")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.EnableDocs = v.GetBool("ENABLE_DOCS")

	cfg.Database = DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
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

	lockBackend := strings.ToLower(v.GetString("SCHEDULING_LOCK_BACKEND"))
	if lockBackend != LockBackendRedis {
		lockBackend = LockBackendLocal
	}
	cfg.Scheduling = SchedulingConfig{
		Timezone:             v.GetString("SCHEDULING_TIMEZONE"),
		LockBackend:          lockBackend,
		LockTTL:              parseDuration(v.GetString("SCHEDULING_LOCK_TTL"), 10*time.Second),
		LockWait:             parseDuration(v.GetString("SCHEDULING_LOCK_WAIT"), 3*time.Second),
		CompensateChangeRoom: v.GetBool("SCHEDULING_CHANGE_ROOM_COMPENSATE"),
		Score: ScoreConfig{
			Base:            v.GetFloat64("SCHEDULING_SCORE_BASE"),
			ConflictPenalty: v.GetFloat64("SCHEDULING_SCORE_CONFLICT_PENALTY"),
			ExcessThreshold: v.GetInt("SCHEDULING_SCORE_EXCESS_THRESHOLD"),
			ExcessFactor:    v.GetFloat64("SCHEDULING_SCORE_EXCESS_FACTOR"),
			EquipmentBonus:  v.GetFloat64("SCHEDULING_SCORE_EQUIPMENT_BONUS"),
		},
	}

	cfg.Occupancy = OccupancyConfig{
		CacheEnabled: v.GetBool("OCCUPANCY_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("OCCUPANCY_CACHE_TTL"), 2*time.Minute),
	}

	return cfg
}

// Location resolves the scheduling time zone, falling back to UTC.
func (c SchedulingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("SERVICE_NAME", "room-scheduling-api")
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("ENABLE_DOCS", true)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "room_scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULING_LOCK_BACKEND", LockBackendLocal)
	v.SetDefault("SCHEDULING_LOCK_TTL", "10s")
	v.SetDefault("SCHEDULING_LOCK_WAIT", "3s")
	v.SetDefault("SCHEDULING_CHANGE_ROOM_COMPENSATE", false)
	v.SetDefault("SCHEDULING_SCORE_BASE", 100)
	v.SetDefault("SCHEDULING_SCORE_CONFLICT_PENALTY", 50)
	v.SetDefault("SCHEDULING_SCORE_EXCESS_THRESHOLD", 20)
	v.SetDefault("SCHEDULING_SCORE_EXCESS_FACTOR", 0.5)
	v.SetDefault("SCHEDULING_SCORE_EQUIPMENT_BONUS", 20)

	v.SetDefault("OCCUPANCY_CACHE_ENABLED", false)
	v.SetDefault("OCCUPANCY_CACHE_TTL", "2m")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
