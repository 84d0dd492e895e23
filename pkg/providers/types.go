package providers

import (
	"context"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type LLMResponse struct {
	Content string
	Model   string
	Usage   *UsageInfo
}

// LLMProvider sends an ordered conversation to a completion backend. No
// implementation retries; a failed call surfaces as *NetworkError or
// *ResponseError.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, model string) (*LLMResponse, error)
	Name() string
}

// Generate prepends systemPrompt to messages, runs a single completion and
// returns the reply with surrounding whitespace removed.
func Generate(ctx context.Context, p LLMProvider, systemPrompt string, messages []Message, model string) (*LLMResponse, error) {
	full := make([]Message, 0, len(messages)+1)
	full = append(full, Message{Role: RoleSystem, Content: systemPrompt})
	full = append(full, messages...)

	resp, err := p.Chat(ctx, full, model)
	if err != nil {
		return nil, err
	}
	resp.Content = strings.TrimSpace(resp.Content)
	return resp, nil
}
