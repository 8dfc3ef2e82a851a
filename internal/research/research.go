// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research gathers SEO research for a queue item: question research
// and top organic URLs from the SERP provider, competitive research from the
// answer-engine provider, and a scrape-based analysis of competitor pages.
package research

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

// keywordMetricsPlaceholder substitutes for a blank pre-populated metrics
// field. A missing metrics cell is expected, never an error.
const keywordMetricsPlaceholder = "Keyword metrics not available for this item."

// competitiveDivider separates provider research from the competitor page
// analysis inside the single persisted competitive field.
var competitiveDivider = "\n\n" + strings.Repeat("=", 60) +
	"\n### COMPETITOR PAGE ANALYSIS\n" + strings.Repeat("=", 60) + "\n"

// FetchError reports a failed fetch from an external research source. Most
// callers absorb it into placeholder text rather than failing the item.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetching from %s: %v", e.Source, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Store is the slice of the queue adapter the gatherer persists through.
// The question digest is saved as soon as it exists so partial progress
// survives a later failure within the same gather.
type Store interface {
	SaveQuestionData(ctx context.Context, item types.QueueItem, digest string) error
	SaveCompetitiveData(ctx context.Context, item types.QueueItem, text string) error
}

// QuestionSource returns the question digest and top organic URLs for a
// keyword. Provider failures are absorbed into the digest text.
type QuestionSource interface {
	Questions(ctx context.Context, keyword string) (digest string, organicURLs []string)
}

// CompetitiveSource returns long-form competitive research for a page.
// Provider failures are absorbed into the returned text.
type CompetitiveSource interface {
	Research(ctx context.Context, title, keyword string) string
}

// CompetitorAnalyzer turns a list of competitor URLs into an analysis text.
type CompetitorAnalyzer interface {
	Analyze(ctx context.Context, urls []string, keyword, title string) string
}

// Gatherer composes the three research sub-calls for one item.
type Gatherer struct {
	Questions   QuestionSource
	Competitive CompetitiveSource
	Competitors CompetitorAnalyzer
	Store       Store
	Out         io.Writer
}

// Gather runs question research, reads the pre-populated keyword metrics,
// and runs competitive research plus competitor analysis. The digest and the
// combined competitive text are persisted; the bundle is returned for
// prompting. Only store writes can fail the gather.
func (g *Gatherer) Gather(ctx context.Context, item types.QueueItem) (types.ResearchBundle, error) {
	out := g.out()
	keyword := item.TargetKeyword

	fmt.Fprintf(out, "[row %d] question research for %q\n", item.RowNumber, keyword)
	digest, organicURLs := g.Questions.Questions(ctx, keyword)
	if err := g.Store.SaveQuestionData(ctx, item, digest); err != nil {
		return types.ResearchBundle{}, err
	}

	metrics := item.KeywordMetrics
	if metrics == "" {
		fmt.Fprintf(out, "[row %d] keyword metrics missing, continuing without them\n", item.RowNumber)
		metrics = keywordMetricsPlaceholder
	}

	fmt.Fprintf(out, "[row %d] competitive research\n", item.RowNumber)
	competitive := g.Competitive.Research(ctx, item.Title, keyword)

	fmt.Fprintf(out, "[row %d] competitor analysis (%d organic URLs)\n", item.RowNumber, len(organicURLs))
	analysis := g.Competitors.Analyze(ctx, organicURLs, keyword, item.Title)

	combined := competitive + competitiveDivider + analysis
	if err := g.Store.SaveCompetitiveData(ctx, item, combined); err != nil {
		return types.ResearchBundle{}, err
	}

	return types.ResearchBundle{
		Questions:      digest,
		KeywordMetrics: metrics,
		Competitive:    combined,
	}, nil
}

func (g *Gatherer) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return io.Discard
}
