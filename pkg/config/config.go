package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	LLM     LLMConfig     `json:"llm"`
	Slack   SlackConfig   `json:"slack"`
	Gateway GatewayConfig `json:"gateway"`
	Logging LoggingConfig `json:"logging"`
}

type LLMConfig struct {
	Provider         string         `json:"provider" env:"LLM_PROVIDER"`
	Model            string         `json:"model" env:"OPENAI_MODEL"`
	Prompt           string         `json:"prompt" env:"OPENAI_PROMPT"`
	MaxReferMessages int            `json:"max_refer_messages" env:"OPENAI_MAX_REFER_MESSAGES"`
	MaxTokens        int            `json:"max_tokens" env:"ANTHROPIC_MAX_TOKENS"` // anthropic requires an explicit cap
	HTTPTimeout      int            `json:"http_timeout" env:"HTTP_TIMEOUT"`       // seconds, 0 = transport default
	OpenAI           ProviderConfig `json:"openai" envPrefix:"OPENAI_"`
	Anthropic        ProviderConfig `json:"anthropic" envPrefix:"ANTHROPIC_"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" env:"API_KEY"`
	APIBase string `json:"api_base" env:"API_BASE"`
}

type SlackConfig struct {
	BotToken      string `json:"bot_token" env:"SLACK_TOKEN"`
	SigningSecret string `json:"signing_secret" env:"SLACK_SIGNING_SECRET"`
	AppToken      string `json:"app_token" env:"SLACK_APP_TOKEN"`
	BotID         string `json:"bot_id" env:"SLACK_BOT_ID"`
	TempMessage   string `json:"temp_message" env:"SLACK_TEMP_MESSAGE"`
	ErrorMessage  string `json:"error_message" env:"SLACK_BOT_ERROR_MESSAGE"`
	APIBase       string `json:"api_base" env:"SLACK_API_BASE"`
}

type GatewayConfig struct {
	Host string `json:"host" env:"GATEWAY_HOST"`
	Port int    `json:"port" env:"GATEWAY_PORT"`
}

type LoggingConfig struct {
	Level           string `json:"level" env:"LOG_LEVEL"`
	FileEnabled     bool   `json:"file_enabled" env:"LOG_FILE_ENABLED"`
	FilePath        string `json:"file_path" env:"LOG_FILE_PATH"`
	RotationEnabled bool   `json:"rotation_enabled" env:"LOG_FILE_ROTATION_ENABLED"`
	MaxAgeDays      int    `json:"max_age_days" env:"LOG_FILE_MAX_AGE_DAYS"`
	MaxSizeMB       int    `json:"max_size_mb" env:"LOG_FILE_MAX_SIZE_MB"`
}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:         ProviderOpenAI,
			Model:            "gpt-4o-mini",
			Prompt:           "You are a helpful assistant in a Slack workspace. Answer concisely.",
			MaxReferMessages: 10,
			MaxTokens:        1024,
			HTTPTimeout:      0,
			OpenAI: ProviderConfig{
				APIBase: "https://api.openai.com/v1",
			},
			Anthropic: ProviderConfig{
				APIBase: "https://api.anthropic.com",
			},
		},
		Slack: SlackConfig{
			TempMessage:  "Thinking...",
			ErrorMessage: "Sorry, I could not generate a reply. Please try again later.",
			APIBase:      "https://slack.com/api/",
		},
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:           "info",
			FileEnabled:     false,
			FilePath:        "~/.slackbridge/slackbridge.log",
			RotationEnabled: true,
			MaxAgeDays:      7,
			MaxSizeMB:       50,
		},
	}
}

// LoadConfig reads the optional JSON file at path and overlays environment
// variables on top of it. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	resolveEnvRefs(cfg)

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return cfg, nil
}

func resolveEnvRefs(cfg *Config) {
	refs := []*string{
		&cfg.LLM.OpenAI.APIKey,
		&cfg.LLM.OpenAI.APIBase,
		&cfg.LLM.Anthropic.APIKey,
		&cfg.LLM.Anthropic.APIBase,
		&cfg.Slack.BotToken,
		&cfg.Slack.SigningSecret,
		&cfg.Slack.AppToken,
	}
	for _, ref := range refs {
		*ref = resolveEnvRef(*ref)
	}
}

func resolveEnvRef(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return v
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		key := strings.TrimSpace(s[2 : len(s)-1])
		if key == "" {
			return v
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return v
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		if val, ok := os.LookupEnv(strings.TrimSpace(s[1:])); ok {
			return val
		}
	}
	return v
}

// Validate reports every missing or invalid setting at once; the bridge
// refuses to start until all of them are supplied.
func (c *Config) Validate() error {
	var errs []error
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		require(c.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	case ProviderAnthropic:
		require(c.LLM.Anthropic.APIKey, "ANTHROPIC_API_KEY")
		if c.LLM.MaxTokens <= 0 {
			errs = append(errs, errors.New("ANTHROPIC_MAX_TOKENS must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider))
	}
	require(c.LLM.Model, "OPENAI_MODEL")
	require(c.LLM.Prompt, "OPENAI_PROMPT")
	if c.LLM.MaxReferMessages <= 0 {
		errs = append(errs, errors.New("OPENAI_MAX_REFER_MESSAGES must be positive"))
	}
	if c.LLM.HTTPTimeout < 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must not be negative"))
	}

	require(c.Slack.BotToken, "SLACK_TOKEN")
	require(c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	require(c.Slack.BotID, "SLACK_BOT_ID")
	require(c.Slack.TempMessage, "SLACK_TEMP_MESSAGE")
	require(c.Slack.ErrorMessage, "SLACK_BOT_ERROR_MESSAGE")

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("GATEWAY_PORT %d out of range", c.Gateway.Port))
	}

	return errors.Join(errs...)
}

// ActiveProvider returns the credentials of the configured LLM backend.
func (c *Config) ActiveProvider() ProviderConfig {
	if c.LLM.Provider == ProviderAnthropic {
		return c.LLM.Anthropic
	}
	return c.LLM.OpenAI
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.LLM.HTTPTimeout) * time.Second
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Gateway.Host, strconv.Itoa(c.Gateway.Port))
}
