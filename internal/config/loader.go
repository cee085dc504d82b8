package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/gridpilot-ai/gridpilot/internal/types"
	"github.com/gridpilot-ai/gridpilot/internal/util"
)

// Loader handles loading configuration from files.
type Loader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperLoader implements Loader using Viper.
type viperLoader struct {
	validator Validator
}

// NewLoader creates a new Loader instance.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load loads configuration from the specified file path, layered over the
// defaults. ${VAR} references in string values are replaced with
// environment variable values.
func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	interpolateConfig(&cfg)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration from the specified file path, or
// returns the default configuration when the file does not exist.
func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return l.Load(path)
}

// setDefaults registers the default configuration so partial config files
// inherit the rest.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("llm.type", string(def.LLM.Provider.Type))
	v.SetDefault("llm.default_model", def.LLM.Provider.DefaultModel)
	v.SetDefault("llm.temperature", def.LLM.Temperature)
	v.SetDefault("engine.app_name", def.Engine.AppName)
	v.SetDefault("engine.settle_delay", def.Engine.SettleDelay)
	v.SetDefault("engine.validation_mode", def.Engine.ValidationMode)
	v.SetDefault("engine.dependency_order", def.Engine.DependencyOrder)
	v.SetDefault("engine.max_replans", def.Engine.MaxReplans)
	v.SetDefault("debug.enabled", def.Debug.Enabled)
	v.SetDefault("debug.dir", def.Debug.Dir)
	v.SetDefault("history.path", def.History.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
}

// interpolateConfig resolves ${VAR} references in the string fields that
// commonly carry secrets, and expands tilde and environment variables in
// path fields.
func interpolateConfig(cfg *Config) {
	cfg.LLM.Provider.APIKey = interpolateString(cfg.LLM.Provider.APIKey)
	cfg.LLM.Provider.BaseURL = interpolateString(cfg.LLM.Provider.BaseURL)
	cfg.Debug.Dir = expandPath(cfg.Debug.Dir)
	cfg.History.Path = expandPath(cfg.History.Path)
}

// expandPath normalizes a configured path, leaving it untouched when
// expansion fails so validation can report the original value.
func expandPath(path string) string {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables leave the reference untouched.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}
