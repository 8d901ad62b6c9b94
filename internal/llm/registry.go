package llm

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"gitscribe/internal/config"
)

// Registry resolves model identifiers to provider clients.
type Registry struct {
	cfg    config.LLMConfig
	logger *zap.Logger
}

// NewRegistry builds a Registry from configuration.
func NewRegistry(cfg config.LLMConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{cfg: cfg, logger: logger}
}

// Resolve returns a client for the given model. An empty modelID uses
// the configured default; aliases expand before provider routing.
func (r *Registry) Resolve(modelID string) (Client, error) {
	model := modelID
	if model == "" {
		model = r.cfg.DefaultModel
	}
	if model == "" {
		return nil, fmt.Errorf("no model configured: set llm.default_model or pass --model")
	}
	if full, ok := r.cfg.Aliases[model]; ok {
		r.logger.Debug("model alias expanded", zap.String("alias", model), zap.String("model", full))
		model = full
	}

	switch {
	// "claude-cli" must be checked before the "claude-" API prefix.
	case model == "claude-cli":
		return NewClaudeCLIClient(r.cfg.ClaudeCLI, r.logger), nil

	case strings.HasPrefix(model, "claude-"):
		key, err := r.credential("anthropic", "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewAnthropicClient(key, model, r.logger), nil

	case strings.HasPrefix(model, "gpt-") || isOSeriesModel(model):
		key, err := r.credential("openai", "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAIClient(key, model, r.logger), nil

	case strings.HasPrefix(model, "gemini-"):
		key, err := r.credential("gemini", "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewGeminiClient(key, model, r.logger)

	default:
		return nil, fmt.Errorf("unknown model %q: expected claude-cli, claude-*, gpt-*, o*, or gemini-*", model)
	}
}

// credential looks up a provider API key: environment first, then the
// llm.keys config section.
func (r *Registry) credential(provider, envVar string) (string, error) {
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	if key := r.cfg.Keys[provider]; key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key for %s: set %s or llm.keys.%s", provider, envVar, provider)
}

// isOSeriesModel matches OpenAI reasoning models like o1, o3-mini,
// o4-mini.
func isOSeriesModel(model string) bool {
	return len(model) >= 2 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9'
}
