package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gridpilot-ai/gridpilot/internal/llm"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		LLM: LLMConfig{
			Provider: llm.ProviderConfig{
				Type:         llm.ProviderOpenAI,
				DefaultModel: "gpt-4o",
			},
			Temperature: 0.2,
		},
		Engine: EngineConfig{
			AppName:         "Microsoft Excel",
			SettleDelay:     500 * time.Millisecond,
			ValidationMode:  "off",
			DependencyOrder: "list",
			MaxReplans:      3,
		},
		Debug: DebugConfig{
			Enabled: false,
			Dir:     filepath.Join(homeDir, "debug"),
		},
		History: HistoryConfig{
			Path: filepath.Join(homeDir, "gridpilot.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// getDefaultHomeDir returns the default gridpilot home directory,
// ~/.gridpilot, falling back to a temporary directory if the user home
// cannot be determined.
func getDefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".gridpilot")
	}
	return filepath.Join(userHome, ".gridpilot")
}
