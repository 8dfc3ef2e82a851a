// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

// API bases as package-level vars for test substitution. The file is created
// through the Drive API because the Docs create call cannot place a document
// in a folder; content is then inserted through the Docs API.
var (
	driveAPIURL = "https://www.googleapis.com/drive/v3/files"
	docsAPIURL  = "https://docs.googleapis.com/v1/documents"
)

const docMimeType = "application/vnd.google-apps.document"

// DocsPublisher creates a Google Doc per article, in the configured Drive
// folder when one is set.
type DocsPublisher struct {
	Token    string
	FolderID string
	Client   *http.Client
	Out      io.Writer

	now func() time.Time
}

// NewDocsPublisher builds a publisher from publish config.
func NewDocsPublisher(cfg types.PublishConfig, w io.Writer) *DocsPublisher {
	return &DocsPublisher{
		Token:    cfg.AccessToken,
		FolderID: cfg.FolderID,
		Client:   &http.Client{Timeout: cfg.Timeout},
		Out:      w,
	}
}

type driveFileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents,omitempty"`
}

type driveFile struct {
	ID string `json:"id"`
}

type docsBatchUpdate struct {
	Requests []docsRequest `json:"requests"`
}

type docsRequest struct {
	InsertText *docsInsertText `json:"insertText,omitempty"`
}

type docsInsertText struct {
	Location docsLocation `json:"location"`
	Text     string       `json:"text"`
}

type docsLocation struct {
	Index int `json:"index"`
}

// Publish creates the document and inserts the article text, returning the
// document URL.
func (p *DocsPublisher) Publish(ctx context.Context, title, content string) (string, error) {
	docTitle := documentTitle(title, p.timeNow())

	meta := driveFileMetadata{Name: docTitle, MimeType: docMimeType}
	if p.FolderID != "" {
		meta.Parents = []string{p.FolderID}
	}

	var file driveFile
	if err := p.postJSON(ctx, driveAPIURL+"?fields=id", meta, &file); err != nil {
		return "", &PublishError{Backend: "docs", Err: fmt.Errorf("creating document: %w", err)}
	}
	if file.ID == "" {
		return "", &PublishError{Backend: "docs", Err: fmt.Errorf("drive returned no file id")}
	}

	update := docsBatchUpdate{Requests: []docsRequest{{
		InsertText: &docsInsertText{Location: docsLocation{Index: 1}, Text: content},
	}}}
	endpoint := fmt.Sprintf("%s/%s:batchUpdate", docsAPIURL, file.ID)
	if err := p.postJSON(ctx, endpoint, update, nil); err != nil {
		return "", &PublishError{Backend: "docs", Err: fmt.Errorf("inserting content: %w", err)}
	}

	docURL := fmt.Sprintf("https://docs.google.com/document/d/%s/edit", file.ID)
	fmt.Fprintf(p.out(), "document created: %s\n  %s\n", docTitle, docURL)
	return docURL, nil
}

func (p *DocsPublisher) postJSON(ctx context.Context, endpoint string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, p.client(), req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, string(respBody))
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func (p *DocsPublisher) timeNow() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *DocsPublisher) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *DocsPublisher) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return io.Discard
}
