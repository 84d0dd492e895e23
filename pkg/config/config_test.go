package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.LLM.OpenAI.APIKey = "sk-test"
	cfg.Slack.BotToken = "xoxb-test"
	cfg.Slack.SigningSecret = "secret"
	cfg.Slack.BotID = "UBOT"
	return cfg
}

// TestDefaultConfig_Provider verifies openai is the default backend
func TestDefaultConfig_Provider(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want %q", cfg.LLM.Provider, ProviderOpenAI)
	}
	if cfg.LLM.OpenAI.APIBase == "" {
		t.Error("OpenAI API base should have a default")
	}
}

// TestDefaultConfig_MaxReferMessages verifies the window size has a default
func TestDefaultConfig_MaxReferMessages(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.MaxReferMessages <= 0 {
		t.Error("MaxReferMessages should be positive")
	}
}

// TestDefaultConfig_Secrets verifies no credential ships with a default
func TestDefaultConfig_Secrets(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.OpenAI.APIKey != "" || cfg.LLM.Anthropic.APIKey != "" {
		t.Error("API keys should be empty by default")
	}
	if cfg.Slack.BotToken != "" || cfg.Slack.SigningSecret != "" {
		t.Error("Slack credentials should be empty by default")
	}
}

// TestDefaultConfig_Gateway verifies gateway defaults
func TestDefaultConfig_Gateway(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestValidate_DefaultsReportMissingSecrets(t *testing.T) {
	err := DefaultConfig().Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, name := range []string{"OPENAI_API_KEY", "SLACK_TOKEN", "SLACK_SIGNING_SECRET", "SLACK_BOT_ID"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestValidate_Complete(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Anthropic(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = ProviderAnthropic

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected missing anthropic key, got %v", err)
	}

	cfg.LLM.Anthropic.APIKey = "sk-ant"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ActiveProvider().APIKey != "sk-ant" {
		t.Error("ActiveProvider should return anthropic credentials")
	}
}

func TestValidate_RejectsUnknownProviderAndBadWindow(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.MaxReferMessages = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "gemini") || !strings.Contains(err.Error(), "OPENAI_MAX_REFER_MESSAGES") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_MAX_REFER_MESSAGES", "4")
	t.Setenv("SLACK_TOKEN", "xoxb-env")
	t.Setenv("SLACK_BOT_ID", "UENV")
	t.Setenv("LLM_PROVIDER", " OpenAI ")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-env" {
		t.Errorf("APIKey = %q", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.LLM.Model != "gpt-4.1" || cfg.LLM.MaxReferMessages != 4 {
		t.Errorf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Slack.BotToken != "xoxb-env" || cfg.Slack.BotID != "UENV" {
		t.Errorf("unexpected slack config: %+v", cfg.Slack)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("provider should be normalized, got %q", cfg.LLM.Provider)
	}
	if cfg.Slack.TempMessage == "" {
		t.Error("defaults should survive the env overlay")
	}
}

func TestLoadConfig_FileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"llm": {"model": "from-file", "openai": {"api_key": "${BRIDGE_TEST_KEY}"}},
		"slack": {"temp_message": "working on it", "signing_secret": "$BRIDGE_TEST_SECRET"},
		"gateway": {"port": 9000}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BRIDGE_TEST_KEY", "sk-ref")
	t.Setenv("BRIDGE_TEST_SECRET", "shh")
	t.Setenv("GATEWAY_PORT", "9100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Model != "from-file" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-ref" {
		t.Errorf("${VAR} reference not resolved: %q", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.Slack.SigningSecret != "shh" {
		t.Errorf("$VAR reference not resolved: %q", cfg.Slack.SigningSecret)
	}
	if cfg.Slack.TempMessage != "working on it" {
		t.Errorf("TempMessage = %q", cfg.Slack.TempMessage)
	}
	if cfg.Gateway.Port != 9100 {
		t.Errorf("env should override file port, got %d", cfg.Gateway.Port)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolveEnvRef_Unset(t *testing.T) {
	if got := resolveEnvRef("${BRIDGE_TEST_UNSET_VAR}"); got != "${BRIDGE_TEST_UNSET_VAR}" {
		t.Errorf("unset reference should be kept verbatim, got %q", got)
	}
	if got := resolveEnvRef("plain"); got != "plain" {
		t.Errorf("plain value changed: %q", got)
	}
}

func TestHTTPTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.HTTPTimeout = 30
	if cfg.HTTPTimeout() != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout())
	}
}
