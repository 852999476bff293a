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
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverDuckDB   = "duckdb"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	Database      DatabaseConfig
	AI            AIConfig
	Exec          ExecConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name    string
	Verbose bool
}

type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Schema   string
	SSLMode  string
}

type AIConfig struct {
	BaseURL               string
	APIKey                string
	Model                 string
	ClassifyTemperature   float64
	SynthesizeTemperature float64
	MaxTokens             int
	Timeout               time.Duration
}

type ExecConfig struct {
	ReadOnly         bool
	StatementTimeout time.Duration
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel    slog.Level
	LogJSON     bool
	MetricsAddr string
}

// LoadFromEnv reads the optional dotenv file named by SQLASK_ENV_FILE
// (default ".env") and overlays the process environment on top of it.
func LoadFromEnv(serviceName string) (Config, error) {
	envFile := ".env"
	if raw, ok := os.LookupEnv("SQLASK_ENV_FILE"); ok && strings.TrimSpace(raw) != "" {
		envFile = strings.TrimSpace(raw)
	}
	fileValues, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}
	return Load(serviceName, OverlayLookup(os.LookupEnv, MapLookup(fileValues)))
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SQLASK_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SQLASK_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "SQLASK_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyBool(lookup, "SQLASK_VERBOSE", &cfg.Service.Verbose) },
		func() error { return applyString(lookup, "SQLASK_DB_DRIVER", &cfg.Database.Driver) },
		func() error { return applyString(lookup, "SQLASK_DB_DSN", &cfg.Database.DSN) },
		func() error { return applyString(lookup, "SQLASK_DB_HOST", &cfg.Database.Host) },
		func() error { return applyInt(lookup, "SQLASK_DB_PORT", &cfg.Database.Port) },
		func() error { return applyString(lookup, "SQLASK_DB_USER", &cfg.Database.User) },
		func() error { return applyRawString(lookup, "SQLASK_DB_PASSWORD", &cfg.Database.Password) },
		func() error { return applyString(lookup, "SQLASK_DB_NAME", &cfg.Database.Name) },
		func() error { return applyString(lookup, "SQLASK_DB_SCHEMA", &cfg.Database.Schema) },
		func() error { return applyString(lookup, "SQLASK_DB_SSLMODE", &cfg.Database.SSLMode) },
		func() error { return applyString(lookup, "SQLASK_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "OPENAI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "SQLASK_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "SQLASK_AI_MODEL", &cfg.AI.Model) },
		func() error {
			return applyFloat(lookup, "SQLASK_AI_CLASSIFY_TEMPERATURE", &cfg.AI.ClassifyTemperature)
		},
		func() error {
			return applyFloat(lookup, "SQLASK_AI_SYNTHESIZE_TEMPERATURE", &cfg.AI.SynthesizeTemperature)
		},
		func() error { return applyInt(lookup, "SQLASK_AI_MAX_TOKENS", &cfg.AI.MaxTokens) },
		func() error { return applyDuration(lookup, "SQLASK_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyBool(lookup, "SQLASK_EXEC_READ_ONLY", &cfg.Exec.ReadOnly) },
		func() error {
			return applyDuration(lookup, "SQLASK_EXEC_STATEMENT_TIMEOUT", &cfg.Exec.StatementTimeout)
		},
		func() error { return applyBool(lookup, "SQLASK_ARCHIVE_ENABLED", &cfg.Archive.Enabled) },
		func() error { return applyString(lookup, "SQLASK_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint) },
		func() error { return applyString(lookup, "SQLASK_ARCHIVE_REGION", &cfg.Archive.Region) },
		func() error { return applyString(lookup, "SQLASK_ARCHIVE_BUCKET", &cfg.Archive.Bucket) },
		func() error { return applyString(lookup, "SQLASK_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID) },
		func() error { return applyString(lookup, "SQLASK_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey) },
		func() error { return applyBool(lookup, "SQLASK_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL) },
		func() error { return applyString(lookup, "SQLASK_ARCHIVE_PREFIX", &cfg.Archive.Prefix) },
		func() error {
			return applyBool(lookup, "SQLASK_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket)
		},
		func() error { return applyString(lookup, "SQLASK_METRICS_ADDR", &cfg.Observability.MetricsAddr) },
		func() error { return applyBool(lookup, "SQLASK_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "SQLASK_LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if !isValidDriver(cfg.Database.Driver) {
		return Config{}, fmt.Errorf("invalid SQLASK_DB_DRIVER: %q", cfg.Database.Driver)
	}
	if cfg.Database.Schema == "" {
		cfg.Database.Schema = defaultSchema(cfg.Database)
	}
	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.AI.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("invalid SQLASK_AI_MAX_TOKENS: must be > 0")
	}
	if cfg.Archive.Enabled && cfg.Archive.Bucket == "" {
		return Config{}, fmt.Errorf("archive bucket is required when archiving is enabled")
	}
	return cfg, nil
}

// MapLookup adapts a map to LookupFunc.
func MapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

// OverlayLookup consults each lookup in order and returns the first hit.
func OverlayLookup(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if value, ok := lookup(key); ok {
				return value, true
			}
		}
		return "", false
	}
}

func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}
	return values, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "sqlask"},
		Database: DatabaseConfig{
			Driver:  DriverMySQL,
			Host:    "127.0.0.1",
			Port:    3306,
			User:    "root",
			Name:    "sqlask",
			SSLMode: "disable",
		},
		AI: AIConfig{
			BaseURL:               "https://api.openai.com",
			Model:                 "gpt-4o",
			ClassifyTemperature:   0,
			SynthesizeTemperature: 0.1,
			MaxTokens:             300,
			Timeout:               30 * time.Second,
		},
		Exec: ExecConfig{
			ReadOnly: false,
		},
		Archive: ArchiveConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "sqlask-reports",
			UseSSL:           false,
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.Database.Driver = DriverDuckDB
		cfg.Database.Name = ""
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Database.SSLMode = "require"
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func defaultSchema(db DatabaseConfig) string {
	switch db.Driver {
	case DriverPostgres:
		return "public"
	case DriverDuckDB:
		return "main"
	default:
		return db.Name
	}
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidDriver(driver string) bool {
	switch driver {
	case DriverPostgres, DriverMySQL, DriverDuckDB:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

// applyRawString keeps surrounding whitespace; passwords may legitimately carry it.
func applyRawString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = raw
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
