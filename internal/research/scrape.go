// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	maxExcerptChars = 2000
	maxHeadings     = 15
)

// scrapeUserAgent is a browser UA; many ranking pages refuse obvious bots.
const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is the scraped content of one competitor URL.
type Page struct {
	URL       string
	Title     string
	WordCount int
	Headings  []string
	Excerpt   string
}

// Fetcher retrieves and extracts one competitor page.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (Page, error)
}

// HTTPFetcher scrapes pages with a plain HTTP GET. Pages that block
// scraping surface as FetchError; the analyzer marks them inaccessible.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher builds a fetcher from research config.
func NewHTTPFetcher(cfg types.ResearchConfig) *HTTPFetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = scrapeUserAgent
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: ua,
	}
}

// FetchPage downloads a URL and extracts title, H2/H3 headings, a body
// excerpt, and a word count. Boilerplate regions are stripped before text
// extraction.
func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, &FetchError{Source: "scrape", Err: err}
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client().Do(req)
	if err != nil {
		return Page{}, &FetchError{Source: "scrape", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, &FetchError{Source: "scrape",
			Err: fmt.Errorf("GET %s returned %d", url, resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, &FetchError{Source: "scrape", Err: fmt.Errorf("parsing %s: %w", url, err)}
	}

	doc.Find("script, style, nav, footer, header, aside, iframe").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = url
	}

	var headings []string
	doc.Find("h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			headings = append(headings, text)
		}
		return len(headings) < maxHeadings
	})

	// Collapse all whitespace runs so the excerpt and word count are stable
	// across markup differences.
	words := strings.Fields(doc.Find("body").Text())
	body := strings.Join(words, " ")

	excerpt := body
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars]
	}

	return Page{
		URL:       url,
		Title:     title,
		WordCount: len(words),
		Headings:  headings,
		Excerpt:   excerpt,
	}, nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}
