package enrichment

import (
	"encoding/json"
	"fmt"

	"github.com/erp/aftersales/internal/domain/analytics"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
)

const systemPrompt = `You are a business analyst for the after-sales department of an agricultural machinery dealer.
The department earns revenue from parts sold at the counter and from service jobs.
You receive a JSON summary of a period: totals, the top clients of every branch,
per-branch operating results, optional workshop productivity and a 30-day revenue forecast.

Answer with a single JSON object and nothing else. It must have exactly these keys,
each holding an array of short English sentences (at most %d per key):
"trends", "alerts", "recommendations", "branch_recommendations",
"mix_recommendations", "opportunities", "risks".
Use an empty array when you have nothing to say for a key. Do not add other keys.`

// BuildRequest renders the prompt pair for a summary
func BuildRequest(s analytics.Summary, limits Limits) (strategy.EnrichmentRequest, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return strategy.EnrichmentRequest{}, fmt.Errorf("failed to encode summary: %w", err)
	}
	return strategy.EnrichmentRequest{
		SystemPrompt: fmt.Sprintf(systemPrompt, limits.withDefaults().MaxItems),
		UserPrompt:   "After-sales summary:\n" + string(body),
	}, nil
}
