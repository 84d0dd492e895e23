package providers

import (
	"fmt"
	"net/http"

	"github.com/sipeed/slackbridge/pkg/config"
)

// CreateProvider builds the completion backend selected by cfg.LLM.Provider.
func CreateProvider(cfg *config.Config, httpClient *http.Client) (LLMProvider, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAIProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.APIBase, httpClient), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.APIBase, cfg.LLM.MaxTokens, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}
