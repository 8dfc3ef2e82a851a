// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches a page's current published content from its
// WordPress site and converts it to Markdown for prompting.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Client reads posts through the WordPress REST API. Auth is an application
// password, used only when an unauthenticated read is refused.
type Client struct {
	BaseURL     string
	Username    string
	AppPassword string
	HTTPClient  *http.Client
	Out         io.Writer

	converter *md.Converter
}

// NewClient builds a client from source config.
func NewClient(cfg types.SourceConfig, w io.Writer) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(cfg.SiteURL, "/"),
		Username:    cfg.Username,
		AppPassword: cfg.AppPassword,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		Out:         w,
	}
}

// postResponse is the slice of the WordPress post payload we read.
type postResponse struct {
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

// FetchContent returns the post's current content as Markdown. An empty
// string means unavailable: no post ID, a fetch failure, or an empty post.
// Unavailable content is expected and never an error; generation proceeds
// without it.
func (c *Client) FetchContent(ctx context.Context, postID string) string {
	if postID == "" {
		fmt.Fprintf(c.out(), "no post ID, skipping source fetch\n")
		return ""
	}

	html, err := c.fetchHTML(ctx, postID)
	if err != nil {
		fmt.Fprintf(c.out(), "source fetch failed for post %s: %v\n", postID, err)
		return ""
	}
	if html == "" {
		return ""
	}

	markdown, err := c.conv().ConvertString(html)
	if err != nil {
		fmt.Fprintf(c.out(), "content conversion failed for post %s: %v\n", postID, err)
		return ""
	}
	return strings.TrimSpace(markdown)
}

// fetchHTML reads the rendered post content. Published posts are publicly
// readable, so the first attempt carries no credentials; some security
// plugins refuse anonymous REST reads, so a 403 is retried with basic auth.
func (c *Client) fetchHTML(ctx context.Context, postID string) (string, error) {
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/posts/%s", c.BaseURL, postID)

	resp, err := c.get(ctx, endpoint, false)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		fmt.Fprintf(c.out(), "anonymous fetch blocked for post %s, retrying with auth\n", postID)
		resp, err = c.get(ctx, endpoint, true)
		if err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("WordPress API returned %d: %s", resp.StatusCode, string(body))
	}

	var pr postResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("decoding post: %w", err)
	}
	return pr.Content.Rendered, nil
}

func (c *Client) get(ctx context.Context, endpoint string, authed bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if authed {
		req.SetBasicAuth(c.Username, c.AppPassword)
	}
	return c.client().Do(req)
}

func (c *Client) conv() *md.Converter {
	if c.converter == nil {
		c.converter = md.NewConverter("", true, nil)
	}
	return c.converter
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return io.Discard
}
