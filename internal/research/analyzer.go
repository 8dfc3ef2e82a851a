// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
)

const (
	defaultMaxPages    = 5
	analysisMaxTokens  = 1500
	analysisSystemRole = `You are a content strategist. You will be given scraped content from competitor web pages currently ranking for a keyword. Analyse them and identify strategic content opportunities for an authoritative article on the same topic. Always respond with valid JSON only, with no markdown and no text outside the JSON object.`
)

// analysisUserTmpl renders the competitor pages into the summarization
// request. The expected output shape is spelled out in the prompt; the
// response is still stored verbatim even when it is not valid JSON.
var analysisUserTmpl = template.Must(template.New("analysis").Parse(`Analyse these competitor pages currently ranking for the keyword: "{{.Keyword}}"

Post title we are creating: "{{.Title}}"

COMPETITOR PAGE DATA:
{{.PagesBlock}}

Return ONLY a JSON object in this exact format (no markdown fences):
{
  "competitors": [
    {
      "url": "<url>",
      "title": "<page title>",
      "estimated_word_count": <int>,
      "main_topics": ["<topic1>", "<topic2>"],
      "key_strengths": ["<strength1>", "<strength2>"],
      "content_gaps": ["<gap1>", "<gap2>"],
      "evidence_quality": "high|medium|low"
    }
  ],
  "strategic_opportunities": [
    "<opportunity1>",
    "<opportunity2>",
    "<opportunity3>"
  ]
}

Focus especially on: questions competitors leave unanswered, expert perspective absent from their coverage, weak citation quality, and content gaps versus the search intent.`))

// Summarizer is the completion call the analyzer needs. genai's Claude
// backend satisfies it.
type Summarizer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Analyzer scrapes competitor URLs and summarizes them into a structured
// analysis text.
type Analyzer struct {
	Fetcher    Fetcher
	Summarizer Summarizer
	MaxPages   int
	Out        io.Writer
}

// Analyze scrapes up to the page cap and runs one summarization call over
// the accessible pages. Each URL fetch fails independently; when every page
// is inaccessible the summarization call is skipped entirely. All failures
// are absorbed into the returned text.
func (a *Analyzer) Analyze(ctx context.Context, urls []string, keyword, title string) string {
	if len(urls) == 0 {
		return "Competitor analysis: no organic SERP URLs available for this keyword."
	}

	if max := a.maxPages(); len(urls) > max {
		urls = urls[:max]
	}

	var accessible []Page
	var inaccessible []string
	for _, u := range urls {
		page, err := a.Fetcher.FetchPage(ctx, u)
		if err != nil {
			fmt.Fprintf(a.out(), "competitor page inaccessible: %s: %v\n", u, err)
			inaccessible = append(inaccessible, u)
			continue
		}
		accessible = append(accessible, page)
	}
	fmt.Fprintf(a.out(), "competitor scraping: %d/%d URLs accessible for %q\n",
		len(accessible), len(urls), keyword)

	if len(accessible) == 0 {
		return fmt.Sprintf("Competitor analysis: all competitor pages blocked scraping. URLs attempted: %s",
			strings.Join(urls, ", "))
	}

	var prompt bytes.Buffer
	data := struct {
		Keyword    string
		Title      string
		PagesBlock string
	}{keyword, title, pagesBlock(accessible, inaccessible)}
	if err := analysisUserTmpl.Execute(&prompt, data); err != nil {
		return fmt.Sprintf("Competitor analysis unavailable: %v", err)
	}

	text, err := a.Summarizer.Complete(ctx, analysisSystemRole, prompt.String(), analysisMaxTokens)
	if err != nil {
		fmt.Fprintf(a.out(), "competitor analysis call failed for %q: %v\n", keyword, err)
		return fmt.Sprintf("Competitor analysis unavailable: %v", err)
	}

	text = stripFences(strings.TrimSpace(text))
	if !json.Valid([]byte(text)) {
		fmt.Fprintf(a.out(), "competitor analysis returned non-JSON; storing raw text\n")
	}
	return text
}

// pagesBlock renders scraped pages for the prompt; inaccessible URLs are
// listed so the model knows what was attempted.
func pagesBlock(accessible []Page, inaccessible []string) string {
	var parts []string
	for _, p := range accessible {
		headings := "none found"
		if len(p.Headings) > 0 {
			headings = strings.Join(p.Headings, " | ")
		}
		parts = append(parts, fmt.Sprintf(
			"URL: %s\nTitle: %s\nEstimated word count: %d\nH2/H3 headings: %s\nContent excerpt:\n%s",
			p.URL, p.Title, p.WordCount, headings, p.Excerpt))
	}
	for _, u := range inaccessible {
		parts = append(parts, fmt.Sprintf("URL: %s\nStatus: INACCESSIBLE, blocked scraping", u))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// stripFences removes accidental markdown code fences around a JSON reply.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func (a *Analyzer) maxPages() int {
	if a.MaxPages > 0 {
		return a.MaxPages
	}
	return defaultMaxPages
}

func (a *Analyzer) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return io.Discard
}
