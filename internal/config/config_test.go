package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("sqlask", MapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.Port != 3306 {
		t.Fatalf("Database.Port = %d", cfg.Database.Port)
	}
	if cfg.Database.Schema != "sqlask" {
		t.Fatalf("Database.Schema = %q, want database name", cfg.Database.Schema)
	}
	if cfg.AI.MaxTokens != 300 {
		t.Fatalf("AI.MaxTokens = %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.ClassifyTemperature != 0 {
		t.Fatalf("AI.ClassifyTemperature = %f", cfg.AI.ClassifyTemperature)
	}
	if cfg.AI.APIKey != "" {
		t.Fatalf("AI.APIKey = %q, want empty", cfg.AI.APIKey)
	}
	if cfg.Exec.ReadOnly {
		t.Fatal("Exec.ReadOnly should default to false")
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadTestProfileUsesDuckDB(t *testing.T) {
	cfg, err := Load("sqlask", MapLookup(map[string]string{"SQLASK_PROFILE": "test"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.Schema != "main" {
		t.Fatalf("Database.Schema = %q", cfg.Database.Schema)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("sqlask", MapLookup(map[string]string{"SQLASK_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.SSLMode != "require" {
		t.Fatalf("Database.SSLMode = %q", cfg.Database.SSLMode)
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
	if cfg.Archive.AutoCreateBucket {
		t.Fatal("Archive.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := MapLookup(map[string]string{
		"SQLASK_DB_DRIVER":                  "postgres",
		"SQLASK_DB_HOST":                    "db.internal",
		"SQLASK_DB_PORT":                    "5433",
		"SQLASK_DB_USER":                    "analyst",
		"SQLASK_DB_PASSWORD":                " s3cret ",
		"SQLASK_DB_NAME":                    "warehouse",
		"SQLASK_AI_BASE_URL":                "https://llm.example.com",
		"SQLASK_AI_API_KEY":                 "key-1",
		"SQLASK_AI_MODEL":                   "gpt-4-0613",
		"SQLASK_AI_SYNTHESIZE_TEMPERATURE":  "0.4",
		"SQLASK_AI_MAX_TOKENS":              "512",
		"SQLASK_AI_TIMEOUT":                 "9s",
		"SQLASK_EXEC_READ_ONLY":             "true",
		"SQLASK_EXEC_STATEMENT_TIMEOUT":     "3s",
		"SQLASK_ARCHIVE_ENABLED":            "true",
		"SQLASK_ARCHIVE_BUCKET":             "reports",
		"SQLASK_ARCHIVE_AUTO_CREATE_BUCKET": "false",
		"SQLASK_METRICS_ADDR":               ":9102",
		"SQLASK_LOG_LEVEL":                  "error",
		"SQLASK_VERBOSE":                    "true",
	})
	cfg, err := Load("sqlask", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.Schema != "public" {
		t.Fatalf("Database.Schema = %q", cfg.Database.Schema)
	}
	if cfg.Database.Port != 5433 || cfg.Database.Host != "db.internal" {
		t.Fatalf("Database host/port = %s/%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Password != " s3cret " {
		t.Fatalf("Database.Password = %q", cfg.Database.Password)
	}
	if cfg.AI.APIKey != "key-1" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.SynthesizeTemperature != 0.4 {
		t.Fatalf("AI.SynthesizeTemperature = %f", cfg.AI.SynthesizeTemperature)
	}
	if cfg.AI.MaxTokens != 512 {
		t.Fatalf("AI.MaxTokens = %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.Timeout != 9*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if !cfg.Exec.ReadOnly {
		t.Fatal("Exec.ReadOnly = false, want true")
	}
	if cfg.Exec.StatementTimeout != 3*time.Second {
		t.Fatalf("Exec.StatementTimeout = %s", cfg.Exec.StatementTimeout)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Bucket != "reports" {
		t.Fatalf("Archive = %#v", cfg.Archive)
	}
	if cfg.Observability.MetricsAddr != ":9102" {
		t.Fatalf("MetricsAddr = %q", cfg.Observability.MetricsAddr)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Service.Verbose {
		t.Fatal("Service.Verbose = false, want true")
	}
}

func TestLoadFallsBackToOpenAIKey(t *testing.T) {
	cfg, err := Load("sqlask", MapLookup(map[string]string{"OPENAI_API_KEY": "legacy"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.APIKey != "legacy" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}

	cfg, err = Load("sqlask", MapLookup(map[string]string{
		"OPENAI_API_KEY":    "legacy",
		"SQLASK_AI_API_KEY": "preferred",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.APIKey != "preferred" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"SQLASK_PROFILE": "oops"},
		{"SQLASK_DB_DRIVER": "oracle"},
		{"SQLASK_DB_PORT": "oops"},
		{"SQLASK_AI_TIMEOUT": "NaN"},
		{"SQLASK_AI_MAX_TOKENS": "0"},
		{"SQLASK_AI_SYNTHESIZE_TEMPERATURE": "bad"},
		{"SQLASK_EXEC_READ_ONLY": "not-bool"},
		{"SQLASK_ARCHIVE_ENABLED": "true", "SQLASK_ARCHIVE_BUCKET": ""},
		{"SQLASK_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("sqlask", MapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestOverlayLookupPrefersEarlierSources(t *testing.T) {
	lookup := OverlayLookup(
		MapLookup(map[string]string{"A": "process"}),
		nil,
		MapLookup(map[string]string{"A": "file", "B": "file"}),
	)
	if got, _ := lookup("A"); got != "process" {
		t.Fatalf("A = %q", got)
	}
	if got, _ := lookup("B"); got != "file" {
		t.Fatalf("B = %q", got)
	}
	if _, ok := lookup("C"); ok {
		t.Fatal("C should be missing")
	}
}

func TestLoadFromEnvReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlask.env")
	if err := os.WriteFile(path, []byte("SQLASK_DB_NAME=from_file\nSQLASK_AI_MODEL=file-model\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SQLASK_ENV_FILE", path)
	t.Setenv("SQLASK_AI_MODEL", "env-model")

	cfg, err := LoadFromEnv("sqlask")
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Database.Name != "from_file" {
		t.Fatalf("Database.Name = %q", cfg.Database.Name)
	}
	if cfg.AI.Model != "env-model" {
		t.Fatalf("AI.Model = %q, want process env to win", cfg.AI.Model)
	}
}

func TestLoadFromEnvIgnoresMissingDotEnvFile(t *testing.T) {
	t.Setenv("SQLASK_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	if _, err := LoadFromEnv("sqlask"); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
}
