// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestPerplexityClient(t *testing.T, handler http.HandlerFunc) *PerplexityClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	oldURL := perplexityAPIURL
	perplexityAPIURL = server.URL
	t.Cleanup(func() { perplexityAPIURL = oldURL })

	return &PerplexityClient{APIKey: "pk-test", Client: server.Client(), Out: io.Discard}
}

func TestPerplexityResearchAppendsCitations(t *testing.T) {
	var gotReq perplexityRequest
	var gotAuth string
	client := newTestPerplexityClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		io.WriteString(w, `{
			"choices": [{"message": {"content": "{\"topic_overview\": \"findings\"}"}}],
			"citations": ["https://source-one.example", "https://source-two.example"]
		}`)
	})

	text := client.Research(context.Background(), "Understanding Hernia Repair", "hernia repair recovery")

	if gotAuth != "Bearer pk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != perplexityModel {
		t.Errorf("model = %q, want %q", gotReq.Model, perplexityModel)
	}
	if !gotReq.ReturnCitations {
		t.Error("return_citations not set")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "hernia repair recovery") {
		t.Error("user prompt missing keyword")
	}

	if !strings.Contains(text, `"topic_overview"`) {
		t.Errorf("text missing research content: %q", text)
	}
	if !strings.Contains(text, "### CITATIONS") ||
		!strings.Contains(text, "[1] https://source-one.example") ||
		!strings.Contains(text, "[2] https://source-two.example") {
		t.Errorf("citations block malformed:\n%s", text)
	}
}

func TestPerplexityResearchNoCitations(t *testing.T) {
	client := newTestPerplexityClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": [{"message": {"content": "plain findings"}}]}`)
	})

	text := client.Research(context.Background(), "Title", "keyword")
	if text != "plain findings" {
		t.Errorf("text = %q", text)
	}
}

func TestPerplexityResearchFailureAbsorbed(t *testing.T) {
	client := newTestPerplexityClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	text := client.Research(context.Background(), "Title", "keyword")
	if !strings.Contains(text, "Competitive research unavailable") {
		t.Errorf("text = %q", text)
	}
}
