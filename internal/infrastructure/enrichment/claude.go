package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
)

const defaultClaudeMaxTokens = 2048

// ClaudeConnector sends prompts to Anthropic Claude
type ClaudeConnector struct {
	strategy.BaseStrategy
	client anthropic.Client
	opts   Options
}

// NewClaudeConnector creates the connector. Without an API key it is
// returned unavailable and Enrich fails with shared.ErrUnavailable.
func NewClaudeConnector(opts Options, reqOpts ...option.RequestOption) *ClaudeConnector {
	c := &ClaudeConnector{
		BaseStrategy: strategy.NewBaseStrategy(ProviderClaude, strategy.StrategyTypeEnrichment,
			"Anthropic Claude narrative provider").WithAvailability(opts.APIKey != ""),
		opts: opts,
	}
	if opts.APIKey == "" {
		return c
	}

	all := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		all = append(all, option.WithBaseURL(opts.BaseURL))
	}
	c.client = anthropic.NewClient(append(all, reqOpts...)...)
	return c
}

// Enrich implements strategy.EnrichmentStrategy
func (c *ClaudeConnector) Enrich(ctx context.Context, req strategy.EnrichmentRequest) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("%w: claude API key not configured", shared.ErrUnavailable)
	}

	maxTokens := c.opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if c.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(c.opts.Temperature)
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
