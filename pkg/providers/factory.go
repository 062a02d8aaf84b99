package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/sipeed/alfred/pkg/config"
	anthropicprovider "github.com/sipeed/alfred/pkg/providers/anthropic"
	"github.com/sipeed/alfred/pkg/providers/ollama"
	"github.com/sipeed/alfred/pkg/providers/openai_sdk"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// CreateGenerator builds the text generator named by cfg.Provider. An empty
// provider means ollama.
func CreateGenerator(cfg config.NLConfig) (TextGenerator, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		return ollama.NewProvider(cfg.BaseURL, cfg.Model, ollama.WithRequestTimeout(timeout)), nil
	case ProviderOpenAI, "openai-compatible", "openai_compat":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("nl provider %q needs base_url", cfg.Provider)
		}
		return openai_sdk.NewProvider(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Proxy,
			cfg.Model,
			openai_sdk.WithRequestTimeout(timeout),
		), nil
	case ProviderAnthropic, "claude":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("nl provider %q needs api_key", cfg.Provider)
		}
		return anthropicprovider.NewProvider(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Proxy,
			cfg.Model,
			anthropicprovider.WithRequestTimeout(timeout),
		), nil
	default:
		return nil, fmt.Errorf("unknown nl provider %q", cfg.Provider)
	}
}
