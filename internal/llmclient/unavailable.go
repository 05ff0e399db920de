// internal/llmclient/unavailable.go
package llmclient

import (
	"context"
	"fmt"

	"github.com/hddevteam/smart-form-filler/api/schemas"
)

// Unavailable is the client used when no API key is configured. Every call
// fails with a message telling the operator what to set; detection and fill
// keep working without it.
type Unavailable struct{}

var _ schemas.LLMClient = Unavailable{}

// Generate implements schemas.LLMClient.
func (Unavailable) Generate(context.Context, schemas.GenerationRequest) (string, error) {
	return "", fmt.Errorf("no language model configured: set FORMFILLER_API_KEY or mapper.*.api_key")
}

// Close implements schemas.LLMClient.
func (Unavailable) Close() error { return nil }
