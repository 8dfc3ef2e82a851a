// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data and configuration types shared across
// pipeline stages.
package types

import "strings"

// Status is a queue item's stage in the optimization lifecycle. Transitions
// run forward only (Pending → DataGathering → Optimizing → Awaiting_Review)
// with an Error edge reachable from any in-progress state. Awaiting_Review
// and Error are terminal for the pipeline; a human moves items back to
// Pending.
type Status string

const (
	StatusPending        Status = "Pending"
	StatusDataGathering  Status = "DataGathering"
	StatusOptimizing     Status = "Optimizing"
	StatusAwaitingReview Status = "Awaiting_Review"
	StatusError          Status = "Error"
)

// IsPending reports whether a raw status cell value selects the item for
// processing. Matching is case-insensitive and ignores surrounding
// whitespace; a blank cell never matches.
func IsPending(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), string(StatusPending))
}

// Terminal reports whether the status ends pipeline involvement with an item.
func (s Status) Terminal() bool {
	return s == StatusAwaitingReview || s == StatusError
}

// PlatformCategory classifies which search platform dominates an item's
// traffic and therefore which optimization profile applies.
type PlatformCategory string

const (
	PlatformBingDominant   PlatformCategory = "BING_DOMINANT"
	PlatformGoogleDominant PlatformCategory = "GOOGLE_DOMINANT"
	PlatformBalanced       PlatformCategory = "BALANCED"
)

// SearchMetrics holds impressions/clicks/CTR/position for one search
// platform. Values are kept as raw cell strings: they may legitimately be
// empty and the pipeline proceeds regardless.
type SearchMetrics struct {
	Impressions string `json:"impressions" yaml:"impressions"`
	Clicks      string `json:"clicks" yaml:"clicks"`
	CTR         string `json:"ctr" yaml:"ctr"`
	Position    string `json:"position" yaml:"position"`
}

// QueueItem is one unit of work from the optimization queue. RowNumber is
// the item's immutable write address in the backing table (1-based, row 1 is
// the header) and the only key used for targeted field writes.
type QueueItem struct {
	RowNumber int `json:"row_number" yaml:"row_number"`

	// Identity.
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	PostID string `json:"post_id" yaml:"post_id"`

	// Classification.
	TargetKeyword     string           `json:"target_keyword" yaml:"target_keyword"`
	SecondaryKeywords string           `json:"secondary_keywords,omitempty" yaml:"secondary_keywords,omitempty"`
	Tier              string           `json:"tier,omitempty" yaml:"tier,omitempty"`
	Platform          PlatformCategory `json:"platform" yaml:"platform"`
	Section           string           `json:"section,omitempty" yaml:"section,omitempty"`
	PostType          string           `json:"post_type,omitempty" yaml:"post_type,omitempty"`
	Description       string           `json:"description,omitempty" yaml:"description,omitempty"`
	Notes             string           `json:"notes,omitempty" yaml:"notes,omitempty"`

	// External search metrics; absence is not an error.
	Google SearchMetrics `json:"google" yaml:"google"`
	Bing   SearchMetrics `json:"bing" yaml:"bing"`

	// Research payloads. KeywordMetrics is populated by an out-of-band
	// pre-step and only read here; the other two are written by the pipeline.
	QuestionData   string `json:"question_data,omitempty" yaml:"question_data,omitempty"`
	KeywordMetrics string `json:"keyword_metrics,omitempty" yaml:"keyword_metrics,omitempty"`
	Competitive    string `json:"competitive,omitempty" yaml:"competitive,omitempty"`

	// Output fields.
	Status           string `json:"status" yaml:"status"`
	DocRef           string `json:"doc_ref,omitempty" yaml:"doc_ref,omitempty"`
	ErrorLog         string `json:"error_log,omitempty" yaml:"error_log,omitempty"`
	OptimizationDate string `json:"optimization_date,omitempty" yaml:"optimization_date,omitempty"`
}

// ResearchBundle aggregates the research texts gathered for one item during
// one run. It is never persisted as its own entity; its pieces are copied
// onto the queue row and carried forward in memory to the generation steps.
type ResearchBundle struct {
	// Questions is the question/answer digest from SERP research.
	Questions string `json:"questions" yaml:"questions"`

	// KeywordMetrics is the pre-populated keyword intelligence, or a fixed
	// placeholder when the queue field was blank.
	KeywordMetrics string `json:"keyword_metrics" yaml:"keyword_metrics"`

	// Competitive is the combined competitive research and competitor page
	// analysis text.
	Competitive string `json:"competitive" yaml:"competitive"`
}
