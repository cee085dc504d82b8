package llm

// ProviderType identifies a supported LLM provider implementation.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderMock      ProviderType = "mock"
)

// ProviderConfig holds the settings needed to construct a provider.
type ProviderConfig struct {
	// Type selects the provider implementation.
	Type ProviderType `mapstructure:"type" yaml:"type"`

	// APIKey authenticates with the provider. When empty the provider
	// falls back to its conventional environment variable.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// BaseURL overrides the provider endpoint (proxies, compatible APIs).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// DefaultModel is used when a request does not name a model.
	DefaultModel string `mapstructure:"model" yaml:"model"`
}
