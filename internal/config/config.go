// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and LOCALSCAN_* env vars.
// - Errors returned by Load wrap this package's sentinel kinds.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// ESIBaseURL is the root of the game's official API.
	ESIBaseURL string `koanf:"esi_base_url"`

	// ZKillBaseURL is the root of the killboard statistics API.
	ZKillBaseURL string `koanf:"zkill_base_url"`

	// UserAgent is sent to the killboard, which asks callers to identify themselves.
	UserAgent string `koanf:"user_agent"`

	// RequestTimeoutMS bounds every upstream HTTP call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// KillboardDelayMS is the pause taken after each killboard call.
	KillboardDelayMS int `koanf:"killboard_delay_ms"`

	// RecentKillWindow caps how many recent killmails are inspected per character.
	RecentKillWindow int `koanf:"recent_kill_window"`

	// OpenAIAPIKey enables pilot profiles. Empty disables the feature.
	OpenAIAPIKey string `koanf:"openai_api_key"`

	// OpenAIBaseURL points at an OpenAI-compatible chat completion endpoint.
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// OpenAIModel names the completion model.
	OpenAIModel string `koanf:"openai_model"`

	// ProfileTemperature and ProfileMaxTokens tune profile generation.
	ProfileTemperature float64 `koanf:"profile_temperature"`
	ProfileMaxTokens   int     `koanf:"profile_max_tokens"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":3000",
		ESIBaseURL:         "https://esi.evetech.net/latest",
		ZKillBaseURL:       "https://zkillboard.com/api",
		UserAgent:          "Local Scanner - localscan",
		RequestTimeoutMS:   5000,
		KillboardDelayMS:   1100,
		RecentKillWindow:   5,
		OpenAIBaseURL:      "https://api.openai.com/v1",
		OpenAIModel:        "gpt-3.5-turbo",
		ProfileTemperature: 0.7,
		ProfileMaxTokens:   150,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// KillboardDelay returns KillboardDelayMS as a duration.
func (c *Config) KillboardDelay() time.Duration {
	return time.Duration(c.KillboardDelayMS) * time.Millisecond
}

// ProfilesEnabled reports whether a completion credential is configured.
func (c *Config) ProfilesEnabled() bool {
	return c.OpenAIAPIKey != ""
}
