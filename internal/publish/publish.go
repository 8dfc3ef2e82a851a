// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish delivers a generated article to its review destination
// and returns a document reference for the queue.
package publish

import (
	"context"
	"fmt"
	"time"
)

// Publisher creates the review document for one generated article and
// returns its reference (a URL or path recorded in the queue).
type Publisher interface {
	Publish(ctx context.Context, title, content string) (string, error)
}

// PublishError reports a failed document creation.
type PublishError struct {
	Backend string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing via %s: %v", e.Backend, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// documentTitle names the review document for a page.
func documentTitle(title string, day time.Time) string {
	return fmt.Sprintf("%s — Optimized %s", title, day.Format("2006-01-02"))
}
