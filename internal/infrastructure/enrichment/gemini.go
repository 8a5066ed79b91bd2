package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"google.golang.org/genai"
)

// GeminiConnector sends prompts to Google Gemini
type GeminiConnector struct {
	strategy.BaseStrategy
	client *genai.Client
	opts   Options
}

// NewGeminiConnector creates the connector. Without an API key it is
// returned unavailable and Enrich fails with shared.ErrUnavailable.
func NewGeminiConnector(ctx context.Context, opts Options) (*GeminiConnector, error) {
	c := &GeminiConnector{
		BaseStrategy: strategy.NewBaseStrategy(ProviderGemini, strategy.StrategyTypeEnrichment,
			"Google Gemini narrative provider").WithAvailability(false),
		opts: opts,
	}
	if opts.APIKey == "" {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	c.client = client
	c.BaseStrategy = c.BaseStrategy.WithAvailability(true)
	return c, nil
}

// Enrich implements strategy.EnrichmentStrategy
func (c *GeminiConnector) Enrich(ctx context.Context, req strategy.EnrichmentRequest) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("%w: gemini API key not configured", shared.ErrUnavailable)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.opts.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if c.opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(c.opts.MaxTokens)
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return geminiText(resp), nil
}

// geminiText returns the text of the first candidate that has any
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}
