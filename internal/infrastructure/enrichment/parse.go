package enrichment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erp/aftersales/internal/domain/analytics"
)

var (
	// ErrEmptyResponse is returned when the provider answered with no text
	ErrEmptyResponse = errors.New("empty provider response")
	// ErrMalformedResponse is returned when the answer is not the expected JSON object
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Limits bound what is kept from a provider answer
type Limits struct {
	MaxItems      int
	MaxItemLength int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{MaxItems: 5, MaxItemLength: 400}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxItems <= 0 {
		l.MaxItems = d.MaxItems
	}
	if l.MaxItemLength <= 0 {
		l.MaxItemLength = d.MaxItemLength
	}
	return l
}

// payload is the only accepted shape of an answer
type payload struct {
	Trends                []string `json:"trends"`
	Alerts                []string `json:"alerts"`
	Recommendations       []string `json:"recommendations"`
	BranchRecommendations []string `json:"branch_recommendations"`
	MixRecommendations    []string `json:"mix_recommendations"`
	Opportunities         []string `json:"opportunities"`
	Risks                 []string `json:"risks"`
}

// ParseResponse validates a provider answer. Markdown fences and text around
// the JSON object are tolerated; unknown keys and non-string items are not.
// Every list is trimmed, deduplicated, truncated to MaxItemLength runes and
// capped at MaxItems entries.
func ParseResponse(raw string, limits Limits) (analytics.Enrichment, error) {
	limits = limits.withDefaults()

	text := strings.TrimSpace(raw)
	if text == "" {
		return analytics.Enrichment{}, ErrEmptyResponse
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return analytics.Enrichment{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	dec.DisallowUnknownFields()
	var p payload
	if err := dec.Decode(&p); err != nil {
		return analytics.Enrichment{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return analytics.Enrichment{
		Trends:                clean(p.Trends, limits),
		Alerts:                clean(p.Alerts, limits),
		Recommendations:       clean(p.Recommendations, limits),
		BranchRecommendations: clean(p.BranchRecommendations, limits),
		MixRecommendations:    clean(p.MixRecommendations, limits),
		Opportunities:         clean(p.Opportunities, limits),
		Risks:                 clean(p.Risks, limits),
	}, nil
}

func clean(items []string, limits Limits) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = truncate(strings.TrimSpace(item), limits.MaxItemLength)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == limits.MaxItems {
			break
		}
	}
	return out
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}
