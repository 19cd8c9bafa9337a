package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Backend  BackendConfig
	Panel    PanelConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Audit    AuditConfig
	Events   EventsConfig
	Taxonomy TaxonomyConfig
	Jobs     JobsConfig
	CORS     CORSConfig
	Log      LogConfig
	CLI      CLIConfig
}

// BackendConfig points the panel at the records REST backend.
type BackendConfig struct {
	BaseURL             string
	Timeout             time.Duration
	TeacherOptionsLimit int
	ChartLimit          int
}

// PanelConfig tunes the interactive panel behaviour.
type PanelConfig struct {
	SearchDebounce time.Duration
	SSEBuffer      int
}

// SessionConfig configures the login gate.
type SessionConfig struct {
	CookieName        string
	Secret            string
	TTL               time.Duration
	AdminUsername     string
	AdminPasswordHash string

	// AdminPassword is only honoured when no hash is configured.
	AdminPassword string
	SecureCookie  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// AuditConfig toggles the PostgreSQL audit trail of panel mutations.
type AuditConfig struct {
	Enabled bool
}

// EventsConfig toggles Kafka publication of panel mutations.
type EventsConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	Username string
	Password string
}

// TaxonomyConfig governs caching of the department/major mapping.
type TaxonomyConfig struct {
	CacheTTL time.Duration
}

// JobsConfig configures the mutation dispatcher worker pool.
type JobsConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// CLIConfig configures the panelctl console.
type CLIConfig struct {
	ExportDir   string
	HistoryFile string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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

	cfg.Backend = BackendConfig{
		BaseURL:             strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		Timeout:             parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
		TeacherOptionsLimit: v.GetInt("BACKEND_TEACHER_OPTIONS_LIMIT"),
		ChartLimit:          v.GetInt("BACKEND_CHART_LIMIT"),
	}

	cfg.Panel = PanelConfig{
		SearchDebounce: parseDuration(v.GetString("PANEL_SEARCH_DEBOUNCE"), 300*time.Millisecond),
		SSEBuffer:      v.GetInt("PANEL_SSE_BUFFER"),
	}

	cfg.Session = SessionConfig{
		CookieName:        v.GetString("SESSION_COOKIE_NAME"),
		Secret:            v.GetString("SESSION_SECRET"),
		TTL:               parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		AdminUsername:     v.GetString("ADMIN_USERNAME"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
		SecureCookie:      v.GetBool("SESSION_SECURE_COOKIE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

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

	cfg.Audit = AuditConfig{Enabled: v.GetBool("ENABLE_AUDIT")}

	cfg.Events = EventsConfig{
		Enabled:  v.GetBool("ENABLE_EVENTS"),
		Brokers:  splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:    v.GetString("KAFKA_TOPIC"),
		Username: v.GetString("KAFKA_USERNAME"),
		Password: v.GetString("KAFKA_PASSWORD"),
	}

	cfg.Taxonomy = TaxonomyConfig{
		CacheTTL: parseDuration(v.GetString("TAXONOMY_CACHE_TTL"), time.Hour),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CLI = CLIConfig{
		ExportDir:   v.GetString("PANELCTL_EXPORT_DIR"),
		HistoryFile: v.GetString("PANELCTL_HISTORY_FILE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)

	v.SetDefault("BACKEND_URL", "http://localhost:8080")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("BACKEND_TEACHER_OPTIONS_LIMIT", 100)
	v.SetDefault("BACKEND_CHART_LIMIT", 1000)

	v.SetDefault("PANEL_SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("PANEL_SSE_BUFFER", 32)

	v.SetDefault("SESSION_COOKIE_NAME", "panel_session")
	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SESSION_SECURE_COOKIE", false)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "records_panel")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("ENABLE_AUDIT", false)

	v.SetDefault("ENABLE_EVENTS", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "records-panel.mutations")
	v.SetDefault("KAFKA_USERNAME", "")
	v.SetDefault("KAFKA_PASSWORD", "")

	v.SetDefault("TAXONOMY_CACHE_TTL", "1h")

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_MAX_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PANELCTL_EXPORT_DIR", "exports")
	v.SetDefault("PANELCTL_HISTORY_FILE", "/tmp/panelctl.history")
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
