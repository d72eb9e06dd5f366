package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Notify   NotifyConfig
	Geocoder GeocoderConfig
	Schedule attendance.Schedule
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// StorageConfig selects where attendance photos are kept.
type StorageConfig struct {
	Type       string // local or s3
	LocalPath  string
	BaseURL    string
	S3Bucket   string
	S3Region   string
	S3Prefix   string
	S3Endpoint string
}

// RedisConfig is optional; an empty URL disables the status cache.
type RedisConfig struct {
	URL string
}

type NotifyConfig struct {
	SlackToken     string
	SlackChannel   string
	DiscordToken   string
	DiscordChannel string
}

type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "fragranza_ojt"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	config.Storage = StorageConfig{
		Type:       getEnv("STORAGE_TYPE", "local"),
		LocalPath:  getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		BaseURL:    getEnv("STORAGE_BASE_URL", "/uploads"),
		S3Bucket:   getEnv("S3_BUCKET", ""),
		S3Region:   getEnv("S3_REGION", "ap-southeast-1"),
		S3Prefix:   getEnv("S3_PREFIX", ""),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),
	}

	config.Redis = RedisConfig{URL: getEnv("REDIS_URL", "")}

	config.Notify = NotifyConfig{
		SlackToken:     getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannel:   getEnv("SLACK_CHANNEL_ID", ""),
		DiscordToken:   getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordChannel: getEnv("DISCORD_CHANNEL_ID", ""),
	}

	config.Geocoder = GeocoderConfig{
		BaseURL:   getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		UserAgent: getEnv("GEOCODER_USER_AGENT", "fragranza-ojt/1.0"),
	}

	config.Schedule, err = LoadSchedule(getEnv("SCHEDULE_FILE", ""))
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	if (c.Notify.SlackToken == "") != (c.Notify.SlackChannel == "") {
		return fmt.Errorf("SLACK_BOT_TOKEN and SLACK_CHANNEL_ID must be set together")
	}
	if (c.Notify.DiscordToken == "") != (c.Notify.DiscordChannel == "") {
		return fmt.Errorf("DISCORD_BOT_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return c.Schedule.Validate()
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// LogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// scheduleFile is the YAML shape of SCHEDULE_FILE. Missing keys keep the
// default schedule.
type scheduleFile struct {
	Start       string  `yaml:"start"`
	End         string  `yaml:"end"`
	LunchStart  string  `yaml:"lunch_start"`
	LunchEnd    string  `yaml:"lunch_end"`
	TargetHours float64 `yaml:"target_hours"`
	LateCutoff  string  `yaml:"late_cutoff"`
	Timezone    string  `yaml:"timezone"`
}

// LoadSchedule reads a schedule override file; an empty path returns the
// default schedule.
func LoadSchedule(path string) (attendance.Schedule, error) {
	schedule := attendance.DefaultSchedule()
	if path == "" {
		return schedule, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return attendance.Schedule{}, fmt.Errorf("failed to read schedule file: %w", err)
	}
	return ParseSchedule(raw)
}

func ParseSchedule(raw []byte) (attendance.Schedule, error) {
	schedule := attendance.DefaultSchedule()

	var file scheduleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return attendance.Schedule{}, fmt.Errorf("failed to parse schedule file: %w", err)
	}

	clocks := []struct {
		name  string
		value string
		dst   *attendance.ClockTime
	}{
		{"start", file.Start, &schedule.Start},
		{"end", file.End, &schedule.End},
		{"lunch_start", file.LunchStart, &schedule.LunchStart},
		{"lunch_end", file.LunchEnd, &schedule.LunchEnd},
		{"late_cutoff", file.LateCutoff, &schedule.LateCutoff},
	}
	for _, c := range clocks {
		if c.value == "" {
			continue
		}
		parsed, err := attendance.ParseClockTime(c.value)
		if err != nil {
			return attendance.Schedule{}, fmt.Errorf("invalid schedule %s: %w", c.name, err)
		}
		*c.dst = parsed
	}

	if file.TargetHours != 0 {
		schedule.TargetHours = file.TargetHours
	}
	if file.Timezone != "" {
		loc, err := time.LoadLocation(file.Timezone)
		if err != nil {
			return attendance.Schedule{}, fmt.Errorf("invalid schedule timezone: %w", err)
		}
		schedule.Location = loc
	}

	if err := schedule.Validate(); err != nil {
		return attendance.Schedule{}, err
	}
	return schedule, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
