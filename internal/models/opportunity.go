package models

import (
	"time"
)

// Entity is a named entity found in an article, e.g. {"ΑΑΔΕ", "ORG"}.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Opportunity is an annotated, scored news article. ID equals URL.
type Opportunity struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Date      time.Time `json:"date"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary,omitempty"`
	Keywords  []string  `json:"keywords"`
	Entities  []Entity  `json:"entities"`
	MainTopic string    `json:"main_topic"`
	Score     float64   `json:"opportunity_score"`
	Type      string    `json:"opportunity_type"`
	AddedAt   time.Time `json:"added_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpportunity reports whether the record belongs in the opportunity view.
func (o Opportunity) IsOpportunity() bool {
	return o.Score > 0
}

// IngestRun is a bookkeeping row for one pipeline run.
type IngestRun struct {
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	ItemsFound  int        `json:"items_found"`
	ItemsSaved  int        `json:"items_saved"`
	Errors      int        `json:"errors"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SourceInfo summarizes stored articles per source.
type SourceInfo struct {
	Source        string `json:"source"`
	Articles      int    `json:"articles"`
	Opportunities int    `json:"opportunities"`
}
