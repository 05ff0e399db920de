// internal/mapper/mapper.go
package mapper

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/config"
)

// Mapper is the client side of the external AI collaborator: stage 1 ranks
// the detected forms against user content, stage 2 maps content onto the
// chosen form's fields. The core treats both stages as opaque functions and
// degrades gracefully when the collaborator misbehaves.
type Mapper struct {
	client   schemas.LLMClient
	language string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// New creates a mapper over an LLM client.
func New(client schemas.LLMClient, cfg config.MapperConfig, logger *zap.Logger) *Mapper {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{
		client:   client,
		language: cfg.Language,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		logger:   logger.Named("mapper"),
	}
}

const relevanceSystemPrompt = `You analyze HTML form structures against user supplied content.
Rank every form by how well the content could fill it. Respond with JSON only:
{"relevantForms":[{"formId":"...","score":0.0,"reason":"..."}],"recommendedForm":"...",
"confidence":0.0,"fieldDescriptions":{"fieldId":"..."},"formDescription":"...",
"recommendedLanguage":"..."}`

const mappingSystemPrompt = `You map user supplied content onto the fields of one HTML form.
Use each field's label, category and context. Respond with JSON only:
{"fieldMappings":[{"fieldId":"...","xpath":"...","suggestedValue":"..."}],"confidence":0.0}`

// AnalyzeRelevance runs stage 1 on the fast model tier. A malformed
// collaborator response yields an empty result flagged low-confidence, never
// an abort.
func (m *Mapper) AnalyzeRelevance(ctx context.Context, req schemas.RelevanceRequest) (*schemas.RelevanceResult, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.MarshalToString(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relevance request: %w", err)
	}

	raw, err := m.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: relevanceSystemPrompt,
		UserPrompt:   m.withLanguage(payload, req.Language),
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{Temperature: 0.2, ForceJSONFormat: true},
	})
	if err != nil {
		return nil, fmt.Errorf("relevance analysis request failed: %w", err)
	}

	result, parseErr := ParseJSONResponse[schemas.RelevanceResult](raw)
	if parseErr != nil {
		m.logger.Warn("Collaborator returned malformed relevance JSON; substituting empty result",
			zap.Error(parseErr))
		return &schemas.RelevanceResult{LowConfidence: true}, nil
	}
	return result, nil
}

// MapFields runs stage 2 on the powerful model tier with the same malformed
// response policy.
func (m *Mapper) MapFields(ctx context.Context, req schemas.MappingRequest) (*schemas.MappingResult, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.MarshalToString(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping request: %w", err)
	}

	raw, err := m.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: mappingSystemPrompt,
		UserPrompt:   m.withLanguage(payload, req.Language),
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{Temperature: 0.2, ForceJSONFormat: true},
	})
	if err != nil {
		return nil, fmt.Errorf("field mapping request failed: %w", err)
	}

	result, parseErr := ParseJSONResponse[schemas.MappingResult](raw)
	if parseErr != nil {
		m.logger.Warn("Collaborator returned malformed mapping JSON; substituting empty mapping",
			zap.Error(parseErr))
		return &schemas.MappingResult{LowConfidence: true}, nil
	}
	return result, nil
}

func (m *Mapper) withLanguage(payload, language string) string {
	if language == "" {
		language = m.language
	}
	if language == "" || language == "auto" {
		return payload
	}
	return payload + "\n\nRespond in language: " + language
}
