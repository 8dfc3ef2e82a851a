// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClaudeBackendComplete(t *testing.T) {
	var gotReq claudeRequest
	var gotKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{
			{Type: "text", Text: "first part"},
			{Type: "text", Text: " second part"},
		}})
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "key-1", Model: "claude-sonnet-4-5", Client: server.Client()}
	text, err := backend.Complete(context.Background(), "system prompt", "user message", 2000)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if text != "first part second part" {
		t.Errorf("text = %q", text)
	}
	if gotKey != "key-1" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if gotReq.Model != "claude-sonnet-4-5" || gotReq.MaxTokens != 2000 {
		t.Errorf("request model/tokens = %q/%d", gotReq.Model, gotReq.MaxTokens)
	}
	if gotReq.System != "system prompt" {
		t.Errorf("system = %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "user message" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestClaudeBackendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"type": "overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "key-1", Model: "m", Client: server.Client()}
	_, err := backend.Complete(context.Background(), "", "user", 100)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected 503 error, got %v", err)
	}
}

func TestClaudeBackendEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claudeResponse{})
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "k", Model: "m", Client: server.Client()}
	if _, err := backend.Complete(context.Background(), "", "user", 100); err == nil {
		t.Fatal("expected error for empty content")
	}
}
