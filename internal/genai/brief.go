// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai produces the optimization brief and the rewritten article
// for a queue item by prompting a generative AI backend with the item's
// metadata, gathered research, and current page content.
package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/pkg/types"
)

// briefSystemPrompt is the persona for brief generation. Knowledge documents,
// when present, are appended beneath it.
const briefSystemPrompt = `You are an expert SEO content strategist. You produce concise, actionable optimization briefs for existing web pages. Ground every recommendation in the research data you are given; do not invent statistics or search metrics.`

// briefUserTmpl renders the brief request for one queue item.
var briefUserTmpl = template.Must(template.New("brief").Parse(`Create an optimization brief for the following page. The brief should cover: target keyword placement, title and meta description recommendations, heading structure, questions to answer, content gaps versus competitors, and internal linking opportunities.

Page title: {{.Item.Title}}
Page URL: {{.Item.URL}}
Target keyword: {{.Item.TargetKeyword}}
Secondary keywords: {{.Item.SecondaryKeywords}}
Section: {{.Item.Section}}
Post type: {{.Item.PostType}}
Platform category: {{.Item.Platform}}
Notes: {{.Item.Notes}}

Question research:
{{.Research.Questions}}

Keyword metrics:
{{.Research.KeywordMetrics}}

Competitive research:
{{.Research.Competitive}}

Current page content (Markdown):
{{if .CurrentContent}}{{.CurrentContent}}{{else}}(current content not available){{end}}
`))

// Generator runs brief and article generation against a backend.
type Generator struct {
	backend Backend
	cfg     types.GenerationConfig
	out     io.Writer

	knowledge     string
	knowledgeOnce bool
}

// NewGenerator wraps a backend. Progress messages go to w.
func NewGenerator(backend Backend, cfg types.GenerationConfig, w io.Writer) *Generator {
	if w == nil {
		w = io.Discard
	}
	return &Generator{backend: backend, cfg: cfg, out: w}
}

// GenerateBrief produces the optimization brief for one item. Knowledge
// documents from the configured directory are folded into the system prompt.
func (g *Generator) GenerateBrief(ctx context.Context, item types.QueueItem, research types.ResearchBundle, currentContent string) (string, error) {
	system, err := g.systemPrompt()
	if err != nil {
		return "", &GenerationError{Stage: "brief", Err: err}
	}

	var buf bytes.Buffer
	data := struct {
		Item           types.QueueItem
		Research       types.ResearchBundle
		CurrentContent string
	}{item, research, currentContent}
	if err := briefUserTmpl.Execute(&buf, data); err != nil {
		return "", &GenerationError{Stage: "brief", Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	fmt.Fprintf(g.out, "[row %d] generating brief\n", item.RowNumber)
	text, err := g.backend.Complete(ctx, system, buf.String(), g.briefMaxTokens())
	if err != nil {
		return "", &GenerationError{Stage: "brief", Err: err}
	}
	return text, nil
}

// systemPrompt returns the brief persona plus any knowledge documents,
// loading and caching them on first use.
func (g *Generator) systemPrompt() (string, error) {
	if !g.knowledgeOnce {
		docs, err := loadKnowledge(g.cfg.KnowledgeDir)
		if err != nil {
			return "", err
		}
		g.knowledge = docs
		g.knowledgeOnce = true
	}
	if g.knowledge == "" {
		return briefSystemPrompt, nil
	}
	return briefSystemPrompt + "\n\nReference documents:\n\n" + g.knowledge, nil
}

// loadKnowledge concatenates all Markdown files in dir, sorted by name. A
// missing directory is not an error; briefs work without reference documents.
func loadKnowledge(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading knowledge directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("reading knowledge file %s: %w", name, err)
		}
		fmt.Fprintf(&buf, "--- %s ---\n%s\n\n", name, strings.TrimSpace(string(data)))
	}
	return strings.TrimSpace(buf.String()), nil
}

func (g *Generator) briefMaxTokens() int {
	if g.cfg.BriefMaxTokens > 0 {
		return g.cfg.BriefMaxTokens
	}
	return 2000
}
