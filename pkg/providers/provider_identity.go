package providers

import "strings"

// vendorPrefixes maps "vendor/model" routing prefixes (OpenRouter style) to
// the label reported in metrics.
var vendorPrefixes = map[string]string{
	"openrouter": "openrouter",
	"anthropic":  "openrouter",
	"openai":     "openrouter",
	"google":     "openrouter",
	"meta-llama": "openrouter",
	"deepseek":   "openrouter",
	"moonshot":   "moonshot",
	"groq":       "groq",
	"nvidia":     "nvidia",
	"zhipu":      "zhipu",
	"glm":        "zhipu",
	"vllm":       "vllm",
}

var modelFamilies = []struct {
	needles []string
	label   string
}{
	{[]string{"claude"}, "anthropic"},
	{[]string{"kimi", "moonshot"}, "moonshot"},
	{[]string{"gpt", "o1", "o3", "o4"}, "openai"},
	{[]string{"gemini"}, "gemini"},
	{[]string{"glm", "zhipu"}, "zhipu"},
	{[]string{"deepseek"}, "deepseek"},
	{[]string{"llama", "mixtral"}, "meta"},
}

// InferProviderFromModel infers a vendor label from a model identifier.
// It only feeds metric labels and never affects routing.
func InferProviderFromModel(model string) string {
	m := strings.TrimSpace(strings.ToLower(model))
	if m == "" {
		return "unknown"
	}

	if prefix, _, ok := strings.Cut(m, "/"); ok && prefix != "" {
		if label, known := vendorPrefixes[prefix]; known {
			return label
		}
	}

	for _, family := range modelFamilies {
		for _, needle := range family.needles {
			if strings.Contains(m, needle) {
				return family.label
			}
		}
	}
	return "unknown"
}
