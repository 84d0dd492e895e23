package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider serves the same contract through the Messages API. The
// system prompt moves to the dedicated system field, and leading assistant
// turns are dropped because a conversation must open with a user turn.
type AnthropicProvider struct {
	client    anthropic.Client
	maxTokens int64
}

func NewAnthropicProvider(apiKey, apiBase string, maxTokens int, httpClient *http.Client) *AnthropicProvider {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if apiBase != "" {
		opts = append(opts, anthropicoption.WithBaseURL(withTrailingSlash(apiBase)))
	}
	if httpClient != nil {
		opts = append(opts, anthropicoption.WithHTTPClient(httpClient))
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		maxTokens: int64(maxTokens),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, model string) (*LLMResponse, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if strings.TrimSpace(m.Content) != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}
		case RoleAssistant:
			if len(turns) == 0 {
				continue
			}
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(turns) == 0 {
		return nil, &ResponseError{Provider: p.Name(), Message: "no user turn to answer"}
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  turns,
	})
	if err != nil {
		return nil, classify(p.Name(), err, anthropicStatus)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, missingResult(p.Name())
	}

	prompt := int(msg.Usage.InputTokens)
	completion := int(msg.Usage.OutputTokens)
	return &LLMResponse{
		Content: text.String(),
		Model:   string(msg.Model),
		Usage: &UsageInfo{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

func anthropicStatus(err error) (int, string) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, http.StatusText(apiErr.StatusCode)
	}
	return 0, ""
}
