// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

// serpAPIURL is the SERP provider's live organic endpoint. The full organic
// SERP includes the people-also-ask block, unlike the dedicated PAA endpoint
// which needs a higher-tier plan. Package-level var for test substitution.
var serpAPIURL = "https://api.dataforseo.com/v3/serp/google/organic/live/advanced"

// taskOKStatus is the provider's per-task success code.
const taskOKStatus = 20000

const (
	maxAnswerChars    = 300
	defaultMaxOrganic = 10
)

// SERPClient fetches people-also-ask questions and top organic URLs from the
// DataForSEO SERP API. Auth is HTTP basic with the account login/password.
type SERPClient struct {
	Login      string
	Password   string
	Location   string
	MaxOrganic int
	Client     *http.Client
	Out        io.Writer
}

// NewSERPClient builds a client from research config.
func NewSERPClient(cfg types.ResearchConfig, w io.Writer) *SERPClient {
	return &SERPClient{
		Login:      cfg.SERPLogin,
		Password:   cfg.SERPPassword,
		Location:   cfg.SERPLocation,
		MaxOrganic: cfg.MaxOrganicURLs,
		Client:     &http.Client{Timeout: cfg.Timeout},
		Out:        w,
	}
}

// serpTask is one task of the provider's request payload.
type serpTask struct {
	Keyword       string `json:"keyword"`
	LocationName  string `json:"location_name"`
	LanguageName  string `json:"language_name"`
	SEResultCount int    `json:"se_results_count"`
}

type serpResponse struct {
	Tasks []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			Items []serpItem `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// serpItem covers both the people_also_ask and organic item shapes; PAA
// blocks nest individual questions under Items.
type serpItem struct {
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	URL             string         `json:"url"`
	Items           []serpItem     `json:"items"`
	ExpandedElement []serpExpanded `json:"expanded_element"`
}

type serpExpanded struct {
	FeaturedTitle string `json:"featured_title"`
	Description   string `json:"description"`
}

type paaQuestion struct {
	question string
	answer   string
}

// Questions fetches the PAA digest and top organic URLs for a keyword.
// Provider failures are absorbed into the digest text and an empty URL list;
// the gather continues on whatever the SERP gave us.
func (c *SERPClient) Questions(ctx context.Context, keyword string) (string, []string) {
	digest, urls, err := c.fetch(ctx, keyword)
	if err != nil {
		fmt.Fprintf(c.out(), "SERP question research failed for %q: %v\n", keyword, err)
		return fmt.Sprintf("Question research unavailable: %v", err), nil
	}
	return digest, urls
}

func (c *SERPClient) fetch(ctx context.Context, keyword string) (string, []string, error) {
	payload := []serpTask{{
		Keyword:       keyword,
		LocationName:  c.location(),
		LanguageName:  "English",
		SEResultCount: 100,
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, &FetchError{Source: "serp", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serpAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", nil, &FetchError{Source: "serp", Err: err}
	}
	req.SetBasicAuth(c.Login, c.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client(), req, 0)
	if err != nil {
		return "", nil, &FetchError{Source: "serp", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", nil, &FetchError{Source: "serp",
			Err: fmt.Errorf("API returned %d: %s", resp.StatusCode, string(respBody))}
	}

	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", nil, &FetchError{Source: "serp", Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(sr.Tasks) == 0 {
		return "", nil, &FetchError{Source: "serp", Err: fmt.Errorf("no tasks returned")}
	}
	task := sr.Tasks[0]
	if task.StatusCode != taskOKStatus {
		return "", nil, &FetchError{Source: "serp",
			Err: fmt.Errorf("task status %d: %s", task.StatusCode, task.StatusMessage)}
	}

	var items []serpItem
	if len(task.Result) > 0 {
		items = task.Result[0].Items
	}
	questions, urls := collectSERP(items, c.maxOrganic())
	return formatDigest(keyword, questions), urls, nil
}

// collectSERP walks the SERP items, pulling questions out of each PAA block
// (the collapsed title plus its nested expansions) and deduplicating organic
// URLs up to the cap.
func collectSERP(items []serpItem, maxOrganic int) ([]paaQuestion, []string) {
	var questions []paaQuestion
	var urls []string
	seen := make(map[string]bool)

	for _, item := range items {
		switch item.Type {
		case "people_also_ask":
			if item.Title != "" {
				questions = append(questions, paaQuestion{question: item.Title, answer: bestAnswer(item)})
			}
			for _, sub := range item.Items {
				if sub.Title != "" {
					questions = append(questions, paaQuestion{question: sub.Title, answer: bestAnswer(sub)})
				}
			}
		case "organic":
			u := strings.TrimSpace(item.URL)
			if u != "" && !seen[u] && len(urls) < maxOrganic {
				urls = append(urls, u)
				seen[u] = true
			}
		}
	}
	return questions, urls
}

// bestAnswer pulls the richest answer text a PAA item carries.
func bestAnswer(item serpItem) string {
	if len(item.ExpandedElement) > 0 {
		exp := item.ExpandedElement[0]
		if exp.FeaturedTitle != "" {
			return strings.TrimSpace(exp.FeaturedTitle)
		}
		if exp.Description != "" {
			return strings.TrimSpace(exp.Description)
		}
	}
	return strings.TrimSpace(item.Description)
}

func formatDigest(keyword string, questions []paaQuestion) string {
	if len(questions) == 0 {
		return "No People Also Ask data found for this keyword."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "People Also Ask — %q:", keyword)
	for _, q := range questions {
		fmt.Fprintf(&b, "\n  Q: %s", q.question)
		if q.answer != "" {
			answer := q.answer
			if len(answer) > maxAnswerChars {
				answer = answer[:maxAnswerChars]
			}
			fmt.Fprintf(&b, "\n     A: %s", answer)
		}
	}
	return b.String()
}

func (c *SERPClient) location() string {
	if c.Location != "" {
		return c.Location
	}
	return "United States"
}

func (c *SERPClient) maxOrganic() int {
	if c.MaxOrganic > 0 {
		return c.MaxOrganic
	}
	return defaultMaxOrganic
}

func (c *SERPClient) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *SERPClient) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return io.Discard
}
