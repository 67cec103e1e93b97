package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" default:"0.0.0.0:8080"`

	StoreBackend string `env:"STORE_BACKEND" default:"sqlite"`
	DBPath       string `env:"DB_PATH" default:"/data/foodcoach.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	ModelBackend        string `env:"MODEL_BACKEND" default:"claude"`
	ClaudeAPIKey        string `env:"CLAUDE_API_KEY"`
	ClaudeModel         string `env:"CLAUDE_MODEL" default:"claude-sonnet-4-5"`
	ClaudeBaseURL       string `env:"CLAUDE_BASE_URL"`
	OllamaHost          string `env:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel         string `env:"OLLAMA_MODEL" default:"llava"`
	ModelTimeoutSeconds int    `env:"MODEL_TIMEOUT_SECONDS" default:"60"`
	// ModelRetries is a pointer so an explicit 0 survives defaulting.
	ModelRetries *int `env:"MODEL_RETRIES" default:"1"`

	Personas    string `env:"PERSONAS"`
	DayTimezone string `env:"DAY_TIMEZONE"`

	PhotoBackend string `env:"PHOTO_BACKEND" default:"none"`
	PhotoPath    string `env:"PHOTO_LOCAL_PATH" default:"/data/photos"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Region     string `env:"S3_REGION" default:"us-east-1"`
	S3Endpoint   string `env:"S3_ENDPOINT"`

	CacheURL        string `env:"CACHE_URL"`
	CacheTTLSeconds int    `env:"CACHE_TTL_SECONDS" default:"86400"`

	CORSOrigins string `env:"CORS_ORIGINS"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"json"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads an optional .env file from the working directory and then fills
// Config from the environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := configor.New(&configor.Config{ENVPrefix: "-"}).Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.ModelBackend {
	case "claude", "ollama":
	default:
		return fmt.Errorf("unknown MODEL_BACKEND %q", c.ModelBackend)
	}

	switch c.PhotoBackend {
	case "none", "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when PHOTO_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// PersonaList returns the configured persona names, or nil when none are set.
func (c *Config) PersonaList() []string {
	return splitList(c.Personas)
}

// CORSOriginList returns the allowed origins. Nil allows any origin.
func (c *Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

// Location resolves DAY_TIMEZONE, defaulting to the process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.DayTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DAY_TIMEZONE %q: %w", c.DayTimezone, err)
	}
	return loc, nil
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSeconds) * time.Second
}

func (c *Config) Retries() int {
	if c.ModelRetries == nil {
		return 1
	}
	return *c.ModelRetries
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
