// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives each queue item through the optimization state
// machine: data gathering, brief and article generation, publishing, and the
// final queue writes. Items are processed strictly sequentially.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/content-engine/internal/publish"
	"github.com/pdiddy/content-engine/internal/queue"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Store is the queue surface the pipeline writes through.
type Store interface {
	ListItems(ctx context.Context) ([]types.QueueItem, error)
	SetStatus(ctx context.Context, item types.QueueItem, status types.Status) error
	SaveDocRef(ctx context.Context, item types.QueueItem, ref string) error
	SaveOptimizationDate(ctx context.Context, item types.QueueItem, day time.Time) error
	SaveError(ctx context.Context, item types.QueueItem, msg string) error
}

// ContentSource fetches an item's current published content. Unavailable
// content comes back as an empty string, never an error.
type ContentSource interface {
	FetchContent(ctx context.Context, postID string) string
}

// Gatherer runs the research phase for one item.
type Gatherer interface {
	Gather(ctx context.Context, item types.QueueItem) (types.ResearchBundle, error)
}

// Generator produces the brief and the article.
type Generator interface {
	GenerateBrief(ctx context.Context, item types.QueueItem, research types.ResearchBundle, currentContent string) (string, error)
	GenerateArticle(ctx context.Context, item types.QueueItem, research types.ResearchBundle, brief, currentContent string) (string, error)
}

// Recorder receives per-item outcomes for the run ledger. Recording is
// best-effort; a ledger failure never affects the batch.
type Recorder interface {
	RecordItem(ctx context.Context, item types.QueueItem, ok bool, errMsg string) error
}

// Options controls one batch run.
type Options struct {
	// Limit caps the number of items processed; 0 means all pending.
	Limit int
	// OnlyID restricts the batch to the item with this source post ID.
	OnlyID string
	// DryRun logs intent per item without any external call or store write.
	DryRun bool
}

// Summary holds counts from one batch run.
type Summary struct {
	Succeeded int
	Errored   int
}

// Total returns the number of items processed.
func (s Summary) Total() int { return s.Succeeded + s.Errored }

// HasFailures reports whether any item errored.
func (s Summary) HasFailures() bool { return s.Errored > 0 }

// Pipeline wires the collaborators for a batch run. Each collaborator owns
// its own timeouts; the pipeline adds none.
type Pipeline struct {
	Store     Store
	Source    ContentSource
	Gatherer  Gatherer
	Generator Generator
	Publisher publish.Publisher
	Recorder  Recorder
	Artifacts *ArtifactWriter
	Out       io.Writer

	now func() time.Time
}

// Run selects pending items and processes each one to completion before
// starting the next. A failed item is recorded and the batch continues.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	out := p.out()

	items, err := p.Store.ListItems(ctx)
	if err != nil {
		return Summary{}, err
	}
	pending := queue.SelectPending(items)

	if opts.OnlyID != "" {
		var matched []types.QueueItem
		for _, item := range pending {
			if item.PostID == opts.OnlyID {
				matched = append(matched, item)
			}
		}
		pending = matched
	}
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}

	if len(pending) == 0 {
		fmt.Fprintf(out, "no pending items\n")
		return Summary{}, nil
	}
	fmt.Fprintf(out, "processing %d pending item(s)\n", len(pending))

	var summary Summary
	for _, item := range pending {
		if err := p.ProcessItem(ctx, item, opts.DryRun); err != nil {
			summary.Errored++
			p.record(ctx, item, false, err.Error())
			continue
		}
		summary.Succeeded++
		p.record(ctx, item, true, "")
	}

	fmt.Fprintf(out, "done: %d succeeded, %d errored of %d\n",
		summary.Succeeded, summary.Errored, summary.Total())
	return summary, nil
}

// ProcessItem runs the full state machine for one item. Any failure after
// the dry-run check lands on the error path: the message is written to the
// item's error field and its status set to Error. The returned error is the
// item's failure; the caller continues the batch regardless.
func (p *Pipeline) ProcessItem(ctx context.Context, item types.QueueItem, dryRun bool) error {
	out := p.out()
	fmt.Fprintf(out, "[row %d] %s (keyword %q)\n", item.RowNumber, item.Title, item.TargetKeyword)

	if dryRun {
		fmt.Fprintf(out, "[row %d] dry run, skipping all calls\n", item.RowNumber)
		return nil
	}

	err := p.processItem(ctx, item)
	if err == nil {
		fmt.Fprintf(out, "[row %d] completed\n", item.RowNumber)
		return nil
	}

	fmt.Fprintf(out, "[row %d] failed: %v\n", item.RowNumber, err)
	// Best-effort error write: a second store failure here must not mask
	// the original one or stop the batch.
	if saveErr := p.Store.SaveError(ctx, item, err.Error()); saveErr != nil {
		fmt.Fprintf(out, "[row %d] could not record error in queue: %v\n", item.RowNumber, saveErr)
	}
	return err
}

func (p *Pipeline) processItem(ctx context.Context, item types.QueueItem) error {
	if err := p.Store.SetStatus(ctx, item, types.StatusDataGathering); err != nil {
		return fmt.Errorf("marking data gathering: %w", err)
	}

	currentContent := p.Source.FetchContent(ctx, item.PostID)

	research, err := p.Gatherer.Gather(ctx, item)
	if err != nil {
		return fmt.Errorf("gathering research: %w", err)
	}

	if err := p.Store.SetStatus(ctx, item, types.StatusOptimizing); err != nil {
		return fmt.Errorf("marking optimizing: %w", err)
	}

	brief, err := p.Generator.GenerateBrief(ctx, item, research, currentContent)
	if err != nil {
		return err
	}

	// The article depends on the brief; the two calls are strictly
	// sequential.
	article, err := p.Generator.GenerateArticle(ctx, item, research, brief, currentContent)
	if err != nil {
		return err
	}

	docRef, err := p.Publisher.Publish(ctx, item.Title, article)
	if err != nil {
		return err
	}

	if err := p.Store.SaveDocRef(ctx, item, docRef); err != nil {
		return fmt.Errorf("saving document reference: %w", err)
	}
	if err := p.Store.SaveOptimizationDate(ctx, item, p.timeNow()); err != nil {
		return fmt.Errorf("saving optimization date: %w", err)
	}
	if err := p.Store.SetStatus(ctx, item, types.StatusAwaitingReview); err != nil {
		return fmt.Errorf("marking awaiting review: %w", err)
	}

	if p.Artifacts != nil {
		if err := p.Artifacts.Write(item, research, brief, docRef); err != nil {
			fmt.Fprintf(p.out(), "[row %d] artifact write failed: %v\n", item.RowNumber, err)
		}
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, item types.QueueItem, ok bool, errMsg string) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.RecordItem(ctx, item, ok, errMsg); err != nil {
		fmt.Fprintf(p.out(), "[row %d] run ledger write failed: %v\n", item.RowNumber, err)
	}
}

func (p *Pipeline) timeNow() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Pipeline) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return io.Discard
}
