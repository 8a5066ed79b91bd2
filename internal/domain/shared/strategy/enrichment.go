package strategy

import "context"

// EnrichmentRequest is the prompt pair sent to a narrative provider
type EnrichmentRequest struct {
	SystemPrompt string
	UserPrompt   string
}

// EnrichmentStrategy is a connector to an external narrative-generation
// provider. It returns the raw text of the provider's answer.
type EnrichmentStrategy interface {
	Strategy
	Enrich(ctx context.Context, req EnrichmentRequest) (string, error)
}
