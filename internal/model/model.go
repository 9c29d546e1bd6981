// Package model defines the domain types used across the application.
package model

import "time"

// Article is a search result that survived parsing during a run.
// Articles are never persisted individually.
type Article struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// LoopReport holds the counters collected for one fetched page.
type LoopReport struct {
	CallNo       int `json:"call_no"`
	Fetched      int `json:"fetched"`
	TimeFiltered int `json:"time_filtered"`
	IncludeFail  int `json:"include_fail"`
	ExcludeHit   int `json:"exclude_hit"`
	IncludePass  int `json:"include_pass"`
	Duplicates   int `json:"duplicates"`
	Undated      int `json:"undated"`
}

// Finish derives IncludePass from the other counters.
func (r *LoopReport) Finish() {
	r.IncludePass = max(0, r.TimeFiltered-r.IncludeFail)
}

// Summary aggregates the LoopReports of one run.
type Summary struct {
	Pages        int `json:"pages"`
	Fetched      int `json:"fetched"`
	TimeFiltered int `json:"time_filtered"`
	Excluded     int `json:"excluded"`
	IncludePass  int `json:"include_pass"`
	Duplicates   int `json:"duplicates"`
}

// Status describes what a run did with its candidates.
type Status string

// Run statuses.
const (
	StatusSent    Status = "sent"
	StatusHold    Status = "hold"
	StatusSkipped Status = "skipped"
	StatusPreview Status = "preview"
	StatusFailed  Status = "failed"
)

// Channel selects a notification destination.
type Channel string

// Notification channels.
const (
	ChannelPrimary Channel = "primary"
	ChannelAdmin   Channel = "admin"
)
