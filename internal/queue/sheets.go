// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

// sheetsAPIURL is the Sheets values API base. Package-level var for test
// substitution.
var sheetsAPIURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetsTable implements Table over the Google Sheets values API.
type SheetsTable struct {
	SpreadsheetID string
	SheetName     string
	Token         string
	Client        *http.Client
	UserAgent     string
}

// NewSheetsTable builds a table client from queue config.
func NewSheetsTable(cfg types.QueueConfig) *SheetsTable {
	return &SheetsTable{
		SpreadsheetID: cfg.SpreadsheetID,
		SheetName:     cfg.SheetName,
		Token:         cfg.AccessToken,
		Client:        &http.Client{Timeout: cfg.Timeout},
		UserAgent:     cfg.UserAgent,
	}
}

// valueRange mirrors the Sheets API values payload.
type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// ReadAll fetches the full queue grid (columns A through the schema's last
// column).
func (t *SheetsTable) ReadAll(ctx context.Context) ([][]string, error) {
	notation := fmt.Sprintf("'%s'!A:%s", t.SheetName, ColumnLetter(SchemaWidth-1))
	endpoint := fmt.Sprintf("%s/%s/values/%s", sheetsAPIURL, t.SpreadsheetID, url.PathEscape(notation))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	t.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, t.client(), req, 0)
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sheets API returned %d: %s", resp.StatusCode, string(body))
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decoding sheet values: %w", err)
	}
	return vr.Values, nil
}

// WriteCell updates exactly one cell with RAW input (no formula parsing).
func (t *SheetsTable) WriteCell(ctx context.Context, rowNumber, col int, value string) error {
	notation := fmt.Sprintf("'%s'!%s%d", t.SheetName, ColumnLetter(col), rowNumber)
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW",
		sheetsAPIURL, t.SpreadsheetID, url.PathEscape(notation))

	body, err := json.Marshal(valueRange{Values: [][]string{{value}}})
	if err != nil {
		return fmt.Errorf("marshaling cell value: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	t.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, t.client(), req, 0)
	if err != nil {
		return fmt.Errorf("writing cell %s: %w", notation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sheets API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (t *SheetsTable) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+t.Token)
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
}

func (t *SheetsTable) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}
