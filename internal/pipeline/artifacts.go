// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// ArtifactWriter records what each completed item was generated from: the
// research bundle, the brief, and the document reference, as one YAML file
// per item under the run's directory.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates the run directory under baseDir, named by runID.
func NewArtifactWriter(baseDir, runID string) (*ArtifactWriter, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &ArtifactWriter{dir: dir}, nil
}

// Dir returns the run's artifact directory.
func (w *ArtifactWriter) Dir() string { return w.dir }

// artifact is the per-item audit record.
type artifact struct {
	RowNumber   int                  `yaml:"row_number"`
	Title       string               `yaml:"title"`
	PostID      string               `yaml:"post_id,omitempty"`
	Keyword     string               `yaml:"target_keyword"`
	CompletedAt time.Time            `yaml:"completed_at"`
	DocRef      string               `yaml:"doc_ref"`
	Research    types.ResearchBundle `yaml:"research"`
	Brief       string               `yaml:"brief"`
}

// Write persists one item's artifact.
func (w *ArtifactWriter) Write(item types.QueueItem, research types.ResearchBundle, brief, docRef string) error {
	record := artifact{
		RowNumber:   item.RowNumber,
		Title:       item.Title,
		PostID:      item.PostID,
		Keyword:     item.TargetKeyword,
		CompletedAt: time.Now().UTC(),
		DocRef:      docRef,
		Research:    research,
		Brief:       brief,
	}

	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("row-%d.yaml", item.RowNumber))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// RunID names a run directory from its start time.
func RunID(start time.Time) string {
	return start.Format("20060102-150405")
}
