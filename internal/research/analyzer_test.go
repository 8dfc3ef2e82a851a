// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeFetcher serves canned pages and fails listed URLs.
type fakeFetcher struct {
	pages map[string]Page
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) (Page, error) {
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return Page{}, &FetchError{Source: "scrape", Err: errors.New("blocked")}
	}
	return f.pages[url], nil
}

// fakeSummarizer records the last completion request.
type fakeSummarizer struct {
	lastSystem string
	lastUser   string
	response   string
	err        error
	calls      int
}

func (f *fakeSummarizer) Complete(_ context.Context, system, user string, _ int) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestAnalyzeNoURLs(t *testing.T) {
	summarizer := &fakeSummarizer{}
	a := &Analyzer{Fetcher: &fakeFetcher{}, Summarizer: summarizer}

	text := a.Analyze(context.Background(), nil, "keyword", "Title")
	if !strings.Contains(text, "no organic SERP URLs available") {
		t.Errorf("text = %q", text)
	}
	if summarizer.calls != 0 {
		t.Error("summarizer called with no URLs")
	}
}

func TestAnalyzeCapsAtFivePages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]Page{}}
	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d", i)
		fetcher.pages[urls[i]] = Page{URL: urls[i], Title: "t", Excerpt: "body"}
	}
	a := &Analyzer{Fetcher: fetcher, Summarizer: &fakeSummarizer{response: "{}"}}

	a.Analyze(context.Background(), urls, "keyword", "Title")
	if len(fetcher.calls) != 5 {
		t.Errorf("fetched %d pages, want 5", len(fetcher.calls))
	}
}

func TestAnalyzePerURLFailuresAreIndependent(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]Page{
			"https://ok.example/post": {URL: "https://ok.example/post", Title: "Good Page", WordCount: 900, Headings: []string{"Recovery", "Risks"}, Excerpt: "body text"},
		},
		fail: map[string]bool{"https://blocked.example/post": true},
	}
	summarizer := &fakeSummarizer{response: `{"competitors": []}`}
	a := &Analyzer{Fetcher: fetcher, Summarizer: summarizer, Out: io.Discard}

	text := a.Analyze(context.Background(),
		[]string{"https://blocked.example/post", "https://ok.example/post"}, "keyword", "Title")

	if summarizer.calls != 1 {
		t.Fatalf("summarizer calls = %d, want 1", summarizer.calls)
	}
	if !strings.Contains(summarizer.lastUser, "Good Page") {
		t.Error("prompt missing accessible page")
	}
	if !strings.Contains(summarizer.lastUser, "INACCESSIBLE") {
		t.Error("prompt missing inaccessible marker")
	}
	if !strings.Contains(summarizer.lastUser, "Recovery | Risks") {
		t.Error("prompt missing headings")
	}
	if text != `{"competitors": []}` {
		t.Errorf("text = %q", text)
	}
}

func TestAnalyzeAllInaccessibleSkipsSummarizer(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{
		"https://a.example": true,
		"https://b.example": true,
	}}
	summarizer := &fakeSummarizer{}
	a := &Analyzer{Fetcher: fetcher, Summarizer: summarizer, Out: io.Discard}

	text := a.Analyze(context.Background(), []string{"https://a.example", "https://b.example"}, "keyword", "Title")

	if summarizer.calls != 0 {
		t.Error("summarizer must not be called when every page is inaccessible")
	}
	if !strings.Contains(text, "all competitor pages blocked scraping") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "https://a.example") {
		t.Error("attempted URLs missing from message")
	}
}

func TestAnalyzeStripsFencesAndWarnsOnBadJSON(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]Page{
		"https://ok.example": {URL: "https://ok.example", Title: "t", Excerpt: "body"},
	}}

	t.Run("fenced JSON", func(t *testing.T) {
		summarizer := &fakeSummarizer{response: "```json\n{\"competitors\": []}\n```"}
		a := &Analyzer{Fetcher: &fakeFetcher{pages: fetcher.pages}, Summarizer: summarizer}
		text := a.Analyze(context.Background(), []string{"https://ok.example"}, "kw", "T")
		if text != `{"competitors": []}` {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("non-JSON kept verbatim", func(t *testing.T) {
		summarizer := &fakeSummarizer{response: "not json at all"}
		var log strings.Builder
		a := &Analyzer{Fetcher: &fakeFetcher{pages: fetcher.pages}, Summarizer: summarizer, Out: &log}
		text := a.Analyze(context.Background(), []string{"https://ok.example"}, "kw", "T")
		if text != "not json at all" {
			t.Errorf("text = %q", text)
		}
		if !strings.Contains(log.String(), "non-JSON") {
			t.Error("expected non-JSON warning")
		}
	})
}

func TestAnalyzeSummarizerFailureAbsorbed(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]Page{
		"https://ok.example": {URL: "https://ok.example", Title: "t", Excerpt: "body"},
	}}
	a := &Analyzer{Fetcher: fetcher, Summarizer: &fakeSummarizer{err: errors.New("overloaded")}, Out: io.Discard}

	text := a.Analyze(context.Background(), []string{"https://ok.example"}, "kw", "T")
	if !strings.Contains(text, "Competitor analysis unavailable") {
		t.Errorf("text = %q", text)
	}
}

func TestHTTPFetcherExtractsPage(t *testing.T) {
	const page = `<html><head><title>Recovery Guide</title><style>.x{}</style></head>
<body>
<nav>menu items</nav>
<h2>Timeline</h2>
<p>Most patients recover quickly.</p>
<h3>Week one</h3>
<p>Rest is important.</p>
<script>var tracked = true;</script>
<footer>copyright</footer>
</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, page)
	}))
	defer server.Close()

	f := &HTTPFetcher{Client: server.Client(), UserAgent: scrapeUserAgent}
	got, err := f.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if got.Title != "Recovery Guide" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Headings) != 2 || got.Headings[0] != "Timeline" || got.Headings[1] != "Week one" {
		t.Errorf("headings = %v", got.Headings)
	}
	for _, stripped := range []string{"menu items", "tracked", "copyright"} {
		if strings.Contains(got.Excerpt, stripped) {
			t.Errorf("boilerplate %q leaked into excerpt", stripped)
		}
	}
	if !strings.Contains(got.Excerpt, "Most patients recover quickly.") {
		t.Errorf("excerpt missing body text: %q", got.Excerpt)
	}
	if got.WordCount == 0 {
		t.Error("word count not computed")
	}
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := &HTTPFetcher{Client: server.Client()}
	_, err := f.FetchPage(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}
