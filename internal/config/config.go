package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name         string        `envconfig:"APP_NAME" default:"smsledger"`
		Port         int           `envconfig:"PORT" default:"8080"`
		HomeCurrency string        `envconfig:"APP_HOME_CURRENCY" default:"INR"`
		DedupWindow  time.Duration `envconfig:"APP_DEDUP_WINDOW" default:"60s"`
		Workers      int           `envconfig:"APP_WORKERS" default:"4"`
		QueueSize    int           `envconfig:"APP_QUEUE_SIZE" default:"100"`
		MaxRetries   int           `envconfig:"APP_MAX_RETRIES" default:"3"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"smsledger"`
	}

	Redis struct {
		URL           string        `envconfig:"REDIS_URL"`
		CacheTTL      time.Duration `envconfig:"REDIS_CACHE_TTL" default:"24h"`
		NoticeChannel string        `envconfig:"REDIS_NOTICE_CHANNEL" default:"notices"`
	}

	LLM struct {
		// Provider is one of gemini, ollama or none.
		Provider  string        `envconfig:"LLM_PROVIDER" default:"gemini"`
		Model     string        `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
		APIKey    string        `envconfig:"LLM_API_KEY"`
		OllamaURL string        `envconfig:"LLM_OLLAMA_URL" default:"http://localhost:11434"`
		Timeout   time.Duration `envconfig:"LLM_TIMEOUT" default:"12s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	Senders struct {
		// Extra codes merged into the built-in list at startup.
		Extra []string `envconfig:"SENDERS_EXTRA"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
	}

	TUI struct {
		UserID string `envconfig:"TUI_USER_ID"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
