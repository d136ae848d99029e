package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "LOCALSCAN_"
	envConfigPath = "LOCALSCAN_CONFIG"

	// openAIKeyEnv is honoured when LOCALSCAN_OPENAI_API_KEY is unset.
	openAIKeyEnv = "OPENAI_API_KEY"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LOCALSCAN_CONFIG is set
//  3. env (prefix LOCALSCAN_)
//  4. OPENAI_API_KEY when no key was configured above
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LOCALSCAN_REQUEST_TIMEOUT_MS -> request_timeout_ms (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv(openAIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ESIBaseURL == "":
		return fmt.Errorf("%w: esi_base_url must not be empty", ErrInvalidConfig)
	case c.ZKillBaseURL == "":
		return fmt.Errorf("%w: zkill_base_url must not be empty", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.KillboardDelayMS < 0:
		return fmt.Errorf("%w: killboard_delay_ms must not be negative", ErrInvalidConfig)
	case c.RecentKillWindow <= 0:
		return fmt.Errorf("%w: recent_kill_window must be positive", ErrInvalidConfig)
	case c.ProfileMaxTokens <= 0:
		return fmt.Errorf("%w: profile_max_tokens must be positive", ErrInvalidConfig)
	}
	return nil
}
