// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

// perplexityAPIURL is the answer-engine endpoint. Package-level var for test
// substitution.
var perplexityAPIURL = "https://api.perplexity.ai/chat/completions"

const perplexityModel = "sonar-pro"

// perplexitySystemRole frames the research request.
const perplexitySystemRole = `You are an SEO research assistant. Research topics thoroughly and provide structured, evidence-based findings to support accurate, authoritative content. Always respond in JSON format.`

// perplexityUserTmpl is the structured research request for one page.
var perplexityUserTmpl = template.Must(template.New("perplexity").Parse(`{
  "research_topic": "{{.Title}}",
  "primary_keyword": "{{.Keyword}}",
  "research_questions": {
    "topic_overview": "Provide a comprehensive overview of this topic. What does current authoritative evidence say? Include key statistics, timeframes, and outcomes.",
    "audience_questions": "What are the most common questions and misconceptions readers have about this topic? What do they frequently misunderstand?",
    "authoritative_sources": "List the most authoritative sources covering this topic. Include URLs where available.",
    "expert_insights": "What expert-level details are typically missing from general articles on this topic? What would a specialist emphasize that general sources overlook?",
    "citable_facts": "List 5-8 specific, verifiable facts and statistics about this topic that are well supported by evidence. For each, note the type of source that supports it."
  }
}`))

// PerplexityClient runs long-form competitive research through the
// Perplexity chat completions API.
type PerplexityClient struct {
	APIKey string
	Client *http.Client
	Out    io.Writer
}

// NewPerplexityClient builds a client from research config.
func NewPerplexityClient(cfg types.ResearchConfig, w io.Writer) *PerplexityClient {
	return &PerplexityClient{
		APIKey: cfg.PerplexityAPIKey,
		Client: &http.Client{Timeout: cfg.Timeout},
		Out:    w,
	}
}

type perplexityRequest struct {
	Model           string              `json:"model"`
	Messages        []perplexityMessage `json:"messages"`
	MaxTokens       int                 `json:"max_tokens"`
	Temperature     float64             `json:"temperature"`
	ReturnCitations bool                `json:"return_citations"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Research runs the structured research prompt for a page. Citations, when
// returned, are appended as a numbered block. Provider failures are absorbed
// into the returned text.
func (c *PerplexityClient) Research(ctx context.Context, title, keyword string) string {
	text, err := c.fetch(ctx, title, keyword)
	if err != nil {
		fmt.Fprintf(c.out(), "competitive research failed for %q: %v\n", keyword, err)
		return fmt.Sprintf("Competitive research unavailable: %v", err)
	}
	return text
}

func (c *PerplexityClient) fetch(ctx context.Context, title, keyword string) (string, error) {
	var prompt bytes.Buffer
	data := struct{ Title, Keyword string }{title, keyword}
	if err := perplexityUserTmpl.Execute(&prompt, data); err != nil {
		return "", &FetchError{Source: "perplexity", Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	reqBody := perplexityRequest{
		Model: perplexityModel,
		Messages: []perplexityMessage{
			{Role: "system", Content: perplexitySystemRole},
			{Role: "user", Content: prompt.String()},
		},
		MaxTokens:       4000,
		Temperature:     0.2,
		ReturnCitations: true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &FetchError{Source: "perplexity", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", &FetchError{Source: "perplexity", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client(), req, 0)
	if err != nil {
		return "", &FetchError{Source: "perplexity", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &FetchError{Source: "perplexity",
			Err: fmt.Errorf("API returned %d: %s", resp.StatusCode, string(respBody))}
	}

	var pr perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", &FetchError{Source: "perplexity", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(pr.Choices) == 0 {
		return "", &FetchError{Source: "perplexity", Err: fmt.Errorf("no choices in response")}
	}

	content := pr.Choices[0].Message.Content
	if len(pr.Citations) > 0 {
		var b bytes.Buffer
		b.WriteString(content)
		b.WriteString("\n\n### CITATIONS\n")
		for i, url := range pr.Citations {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, url)
		}
		content = b.String()
	}
	return content, nil
}

func (c *PerplexityClient) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *PerplexityClient) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return io.Discard
}
