package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Log     Log     `yaml:"log"`
	Server  Server  `yaml:"server"`
	LLM     LLM     `yaml:"llm"`
	News    News    `yaml:"news"`
	Session Session `yaml:"session"`
}

type Server struct {
	// Listen address of the HTTP server
	Addr string `yaml:"addr" example:":8080"`
	// Maximum duration of a single request, including LLM and news calls
	RequestTimeout time.Duration `yaml:"request_timeout" example:"90s"`
}

type LLM struct {
	// Client implementation: openai or langchain
	Backend string `yaml:"backend" example:"openai" validate:"oneof=openai langchain"`
	// Azure OpenAI endpoint
	Endpoint string `yaml:"endpoint" example:"https://ecospeaks.openai.azure.com/" validate:"required,url"`
	// Azure OpenAI key
	APIKey string `yaml:"api_key" example:"0123456789abcdef0123456789abcdef" validate:"required"`
	// Azure OpenAI API version
	APIVersion string `yaml:"api_version" example:"2024-02-01" validate:"required"`
	// Model (deployment) used for every session
	Model string `yaml:"model" example:"gpt-35-turbo" validate:"required"`
	// HTTP timeout of a single completion
	Timeout time.Duration `yaml:"timeout" example:"60s"`
}

type News struct {
	// NewsAPI key
	APIKey string `yaml:"api_key" example:"4f1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e" validate:"required"`
	// NewsAPI base url
	BaseURL string `yaml:"base_url" example:"https://newsapi.org/v2" validate:"required,url"`
	// Number of articles requested per search
	PageSize int `yaml:"page_size" example:"10" validate:"min=1,max=100"`
	// HTTP timeout of a single search
	Timeout time.Duration `yaml:"timeout" example:"15s"`
}

type Session struct {
	// Sessions untouched for longer than this are dropped
	IdleTTL time.Duration `yaml:"idle_ttl" example:"2h"`
	// How often idle sessions are collected
	CleanupInterval time.Duration `yaml:"cleanup_interval" example:"5m"`
}

type Log struct {
	// Console log level: debug, info, warn, error
	Level string `yaml:"level" example:"info" validate:"omitempty,oneof=debug info warn error"`
	// Print source file and line in console output
	Source bool `yaml:"source" example:"true"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890" validate:"required_with=Token"`
	// Minimal level forwarded to telegram; records tagged telegram=true always go
	Level string `yaml:"level" example:"error" validate:"omitempty,oneof=debug info warn error"`
}

// Load reads the YAML file at path. ${VAR} references are expanded from the
// environment before parsing, so secrets can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	result.applyDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 90 * time.Second
	}
	if c.LLM.Backend == "" {
		c.LLM.Backend = "openai"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org/v2"
	}
	if c.News.PageSize == 0 {
		c.News.PageSize = 10
	}
	if c.News.Timeout <= 0 {
		c.News.Timeout = 15 * time.Second
	}
	if c.Session.IdleTTL <= 0 {
		c.Session.IdleTTL = 2 * time.Hour
	}
	if c.Session.CleanupInterval <= 0 {
		c.Session.CleanupInterval = 5 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Telegram.Level == "" {
		c.Log.Telegram.Level = "error"
	}
}
