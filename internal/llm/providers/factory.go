package providers

import (
	"fmt"

	"github.com/gridpilot-ai/gridpilot/internal/llm"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// NewProvider creates a new LLM provider based on the configuration.
func NewProvider(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Type {
	case llm.ProviderAnthropic:
		return NewAnthropicProvider(cfg)

	case llm.ProviderOpenAI:
		return NewOpenAIProvider(cfg)

	case llm.ProviderMock:
		return NewMockProvider("[]"), nil

	default:
		return nil, types.NewError(llm.ErrProviderNotFound,
			fmt.Sprintf("unknown provider type: %s", cfg.Type))
	}
}
