// Package config defines the application configuration, its defaults, and
// the YAML loader.
package config

import (
	"time"

	"github.com/gridpilot-ai/gridpilot/internal/llm"
)

// Config is the root configuration structure.
type Config struct {
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Engine  EngineConfig  `yaml:"engine" mapstructure:"engine"`
	Debug   DebugConfig   `yaml:"debug" mapstructure:"debug"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// LLMConfig configures the plan-generation provider.
type LLMConfig struct {
	Provider llm.ProviderConfig `yaml:",inline" mapstructure:",squash"`

	// Temperature is the sampling temperature for planning calls.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// EngineConfig configures the goal execution loop and step runner.
type EngineConfig struct {
	// AppName is the application the runner foregrounds before each action.
	AppName string `yaml:"app_name" mapstructure:"app_name" validate:"required"`

	// SettleDelay is the pause after each successful action, letting the
	// UI catch up with the input.
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay" validate:"gte=0"`

	// ValidationMode selects post-step validation: "off" accepts every
	// step, "llm" runs a second model call against the declared criteria.
	ValidationMode string `yaml:"validation_mode" mapstructure:"validation_mode" validate:"oneof=off llm"`

	// DependencyOrder selects goal ordering: "list" trusts the planner's
	// sequence, "topological" picks the next dependency-ready goal.
	DependencyOrder string `yaml:"dependency_order" mapstructure:"dependency_order" validate:"oneof=list topological"`

	// MaxReplans bounds how many replans the default failure policy
	// grants per run before aborting. Ignored when a human decides.
	MaxReplans int `yaml:"max_replans" mapstructure:"max_replans" validate:"gte=0,lte=20"`
}

// DebugConfig configures the YAML audit trail.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// HistoryConfig configures run history persistence.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
}
