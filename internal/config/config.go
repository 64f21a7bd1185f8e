package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Redis    RedisConfig    `yaml:"redis"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// AIConfig holds settings for the hosted analysis providers. Providers are
// tried in order; a provider without an API key is skipped, and when none
// succeeds the deterministic fallback analyzer takes over.
type AIConfig struct {
	Providers      []ProviderConfig `yaml:"providers"`
	TimeoutSeconds int              `yaml:"timeout_seconds"`
	SpeechModel    string           `yaml:"speech_model"`
	VisionModel    string           `yaml:"vision_model"`
}

type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"` // openai, anthropic, ollama, gemini, azure
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RedisConfig for optional async alert dispatch queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AlertsConfig controls trend alerting and the daily sentiment digest.
type AlertsConfig struct {
	DigestCron    string `yaml:"digest_cron"`    // cron spec for the daily digest
	DigestEnabled bool   `yaml:"digest_enabled"` // whether the digest scheduler runs
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "8080",
			Mode:     "debug",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "pulse.db",
		},
		AI: AIConfig{
			Providers: []ProviderConfig{
				{
					Name:     "default",
					Provider: "openai",
					BaseURL:  "https://api.openai.com/v1",
					Model:    "gpt-4o-mini",
				},
			},
			TimeoutSeconds: 20,
			SpeechModel:    "whisper-1",
			VisionModel:    "gpt-4o-mini",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Alerts: AlertsConfig{
			DigestCron:    "0 9 * * *",
			DigestEnabled: true,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "pulse.db"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 20
	}
	if c.AI.SpeechModel == "" {
		c.AI.SpeechModel = "whisper-1"
	}
	if c.AI.VisionModel == "" {
		c.AI.VisionModel = "gpt-4o-mini"
	}
	if c.Alerts.DigestCron == "" {
		c.Alerts.DigestCron = "0 9 * * *"
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	// OPENAI_* env vars override the first openai-compatible provider, or add
	// one when the config file defines none.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		applied := false
		for i := range c.AI.Providers {
			if c.AI.Providers[i].Provider == "openai" || c.AI.Providers[i].Provider == "" {
				c.AI.Providers[i].APIKey = apiKey
				applied = true
				break
			}
		}
		if !applied {
			c.AI.Providers = append(c.AI.Providers, ProviderConfig{
				Name:     "env",
				Provider: "openai",
				APIKey:   apiKey,
			})
		}
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		for i := range c.AI.Providers {
			if c.AI.Providers[i].Provider == "openai" || c.AI.Providers[i].Provider == "" {
				c.AI.Providers[i].BaseURL = baseURL
				break
			}
		}
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		for i := range c.AI.Providers {
			if c.AI.Providers[i].Provider == "openai" || c.AI.Providers[i].Provider == "" {
				c.AI.Providers[i].Model = model
				break
			}
		}
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
