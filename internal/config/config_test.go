package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/llm"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, NewValidator().Validate(DefaultConfig()))
}

func TestLoader_Load(t *testing.T) {
	path := writeConfig(t, `
llm:
  type: anthropic
  default_model: claude-sonnet-4-5
  temperature: 0.4
engine:
  app_name: Numbers
  settle_delay: 250ms
  validation_mode: llm
  dependency_order: topological
logging:
  level: debug
  format: json
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider.Type)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Provider.DefaultModel)
	assert.Equal(t, 0.4, cfg.LLM.Temperature)
	assert.Equal(t, "Numbers", cfg.Engine.AppName)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.SettleDelay)
	assert.True(t, cfg.Engine.LLMValidation())
	assert.True(t, cfg.Engine.Topological())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoader_PartialConfigInheritsDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  type: openai
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Engine.AppName, cfg.Engine.AppName)
	assert.Equal(t, def.Engine.SettleDelay, cfg.Engine.SettleDelay)
	assert.Equal(t, def.Engine.ValidationMode, cfg.Engine.ValidationMode)
	assert.Equal(t, def.Logging.Level, cfg.Logging.Level)
}

func TestLoader_EnvInterpolation(t *testing.T) {
	t.Setenv("TEST_GRIDPILOT_KEY", "sk-secret")

	path := writeConfig(t, `
llm:
  type: openai
  api_key: ${TEST_GRIDPILOT_KEY}
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.LLM.Provider.APIKey)
}

func TestLoader_PathExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := writeConfig(t, `
history:
  path: ~/.gridpilot/custom.db
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gridpilot", "custom.db"), cfg.History.Path)
}

func TestLoader_LoadWithDefaults_MissingFile(t *testing.T) {
	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Engine.AppName, cfg.Engine.AppName)
}

func TestLoader_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad validation mode",
			content: "engine:\n  validation_mode: maybe\n",
			want:    "engine.validation_mode",
		},
		{
			name:    "bad dependency order",
			content: "engine:\n  dependency_order: random\n",
			want:    "engine.dependency_order",
		},
		{
			name:    "bad log level",
			content: "logging:\n  level: shouting\n",
			want:    "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			_, err := NewLoader(NewValidator()).Load(path)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.CONFIG_VALIDATION_FAILED))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoader_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "llm: [not: a map\n")

	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_LOAD_FAILED))
}

func TestValidator_DebugDirRequiredWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug.Enabled = true
	cfg.Debug.Dir = ""

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug.dir")
}
