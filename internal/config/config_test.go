package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, expected 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.AI.TimeoutSeconds != 20 {
		t.Errorf("default AI timeout = %d, expected 20", cfg.AI.TimeoutSeconds)
	}
	if cfg.AI.SpeechModel != "whisper-1" {
		t.Errorf("default speech model = %q, expected whisper-1", cfg.AI.SpeechModel)
	}
	if cfg.Alerts.DigestCron != "0 9 * * *" {
		t.Errorf("default digest cron = %q, expected morning schedule", cfg.Alerts.DigestCron)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoad_FileValuesWithGapFill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
  mode: release
database:
  driver: postgres
  dsn: "host=localhost user=pulse dbname=pulse"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, expected 9090 from file", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("mode = %q, expected release from file", cfg.Server.Mode)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, expected postgres from file", cfg.Database.Driver)
	}
	// Unset fields are filled with defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, expected default host", cfg.Server.Host)
	}
	if cfg.AI.VisionModel != "gpt-4o-mini" {
		t.Errorf("vision model = %q, expected default", cfg.AI.VisionModel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, expected env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver = %q, expected env override mysql", cfg.Database.Driver)
	}

	var found bool
	for _, p := range cfg.AI.Providers {
		if p.Provider == "openai" && p.APIKey == "sk-test-123" {
			found = true
		}
	}
	if !found {
		t.Errorf("OPENAI_API_KEY should seed an openai provider, got %+v", cfg.AI.Providers)
	}
}

func TestParseRedisURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.parseRedisURL("redis://:secret@redis.internal:6380/2")

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Addr = %q, expected redis.internal:6380", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "secret" {
		t.Errorf("Password = %q, expected secret", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("DB = %d, expected 2", cfg.Redis.DB)
	}
}

func TestParseRedisURL_Bare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.parseRedisURL("redis://localhost:6379")

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Addr = %q, expected localhost:6379", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "" {
		t.Errorf("Password = %q, expected empty", cfg.Redis.Password)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = "8181"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != "8181" {
		t.Errorf("reloaded port = %q, expected 8181", loaded.Server.Port)
	}
}
