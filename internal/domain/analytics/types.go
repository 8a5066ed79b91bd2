package analytics

import "time"

// Severity of a critical alert
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// AnomalyRecord is one finding of the anomaly detector
type AnomalyRecord struct {
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Period      string  `json:"period"`
	Magnitude   float64 `json:"magnitude"`
}

// CriticalAlert is a threshold rule that fired
type CriticalAlert struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Insights are the headline findings of a bundle
type Insights struct {
	Trends          []string `json:"trends"`
	Alerts          []string `json:"alerts"`
	Recommendations []string `json:"recommendations"`
}

// Enrichment is the validated answer of a narrative provider
type Enrichment struct {
	Trends                []string `json:"trends"`
	Alerts                []string `json:"alerts"`
	Recommendations       []string `json:"recommendations"`
	BranchRecommendations []string `json:"branch_recommendations"`
	MixRecommendations    []string `json:"mix_recommendations"`
	Opportunities         []string `json:"opportunities"`
	Risks                 []string `json:"risks"`
}

// Total returns the number of items across all lists
func (e Enrichment) Total() int {
	return len(e.Trends) + len(e.Alerts) + len(e.Recommendations) +
		len(e.BranchRecommendations) + len(e.MixRecommendations) +
		len(e.Opportunities) + len(e.Risks)
}

// EnrichmentCounts reports how many items the provider added to each list
type EnrichmentCounts struct {
	Trends                int `json:"trends"`
	Alerts                int `json:"alerts"`
	Recommendations       int `json:"recommendations"`
	BranchRecommendations int `json:"branch_recommendations"`
	MixRecommendations    int `json:"mix_recommendations"`
	Opportunities         int `json:"opportunities"`
	Risks                 int `json:"risks"`
	Total                 int `json:"total"`
}

// CountsOf builds the counts of an enrichment
func CountsOf(e Enrichment) EnrichmentCounts {
	return EnrichmentCounts{
		Trends:                len(e.Trends),
		Alerts:                len(e.Alerts),
		Recommendations:       len(e.Recommendations),
		BranchRecommendations: len(e.BranchRecommendations),
		MixRecommendations:    len(e.MixRecommendations),
		Opportunities:         len(e.Opportunities),
		Risks:                 len(e.Risks),
		Total:                 e.Total(),
	}
}

// EnrichmentStatus tells the consumer whether provider output is included
type EnrichmentStatus struct {
	Active   bool             `json:"active"`
	Provider string           `json:"provider,omitempty"`
	Error    string           `json:"error,omitempty"`
	Counts   EnrichmentCounts `json:"counts"`
}
