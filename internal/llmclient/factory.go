// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/config"
)

// NewClient creates an LLMClient for one model tier based on its configured
// provider.
func NewClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderGeminiSDK:
		return NewGenAIClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider %q (supported: %s, %s)",
			cfg.Provider, config.ProviderGemini, config.ProviderGeminiSDK)
	}
}

// NewRouterFromConfig builds the tiered router for the mapper: the fast model
// serves relevance analysis, the powerful model serves field mapping.
func NewRouterFromConfig(ctx context.Context, cfg config.MapperConfig, logger *zap.Logger) (*Router, error) {
	fast, err := NewClient(ctx, cfg.Fast, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast-tier client: %w", err)
	}
	powerful, err := NewClient(ctx, cfg.Powerful, logger)
	if err != nil {
		fast.Close()
		return nil, fmt.Errorf("failed to create powerful-tier client: %w", err)
	}
	return NewRouter(logger, fast, powerful)
}
