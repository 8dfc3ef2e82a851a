// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// DirPublisher writes each article as a Markdown file under a drafts
// directory. It backs local development and deployments without a Drive
// integration; the returned reference is the file path.
type DirPublisher struct {
	Dir string
	Out io.Writer

	now func() time.Time
}

// NewDirPublisher builds a publisher writing under dir.
func NewDirPublisher(dir string, w io.Writer) *DirPublisher {
	return &DirPublisher{Dir: dir, Out: w}
}

// Publish writes the article to a slug-named file and returns its path.
func (p *DirPublisher) Publish(_ context.Context, title, content string) (string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", &PublishError{Backend: "dir", Err: fmt.Errorf("creating drafts directory: %w", err)}
	}

	docTitle := documentTitle(title, p.timeNow())
	path := filepath.Join(p.Dir, slugify(docTitle)+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &PublishError{Backend: "dir", Err: fmt.Errorf("writing draft: %w", err)}
	}

	if p.Out != nil {
		fmt.Fprintf(p.Out, "draft written: %s\n", path)
	}
	return path, nil
}

// slugify reduces a document title to a safe file name.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func (p *DirPublisher) timeNow() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}
