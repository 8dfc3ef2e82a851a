// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/pkg/types"
)

// defaultContentPrompt is the article-writing instruction set used when no
// prompt file is configured or the configured file cannot be read.
const defaultContentPrompt = `You are an expert content writer producing fully optimized articles for publication. Rewrite the page described below into a complete, publish-ready article in Markdown.

Requirements:
- Follow the optimization brief exactly.
- Use the target keyword naturally in the title, the first paragraph, and at least two headings.
- Answer the researched questions within the article body.
- Preserve factual claims from the current content; do not invent facts.
- Write for the page's section and audience; match the existing site's tone.
- Output only the article Markdown, with no commentary before or after.`

// contentUserTmpl renders the article request. Every metadata field is
// included even when blank; the model is told to proceed regardless.
var contentUserTmpl = template.Must(template.New("content").Parse(`Write the fully optimized article for this page. Some metadata fields may be empty — proceed regardless, using whatever is available.

Page title: {{.Item.Title}}
Page URL: {{.Item.URL}}
Post ID: {{.Item.PostID}}
Target keyword: {{.Item.TargetKeyword}}
Secondary keywords: {{.Item.SecondaryKeywords}}
Tier: {{.Item.Tier}}
Platform category: {{.Item.Platform}}
Section: {{.Item.Section}}
Post type: {{.Item.PostType}}
Description: {{.Item.Description}}
Notes: {{.Item.Notes}}

Google Search Console: impressions {{.Item.Google.Impressions}}, clicks {{.Item.Google.Clicks}}, CTR {{.Item.Google.CTR}}, position {{.Item.Google.Position}}
Bing Webmaster: impressions {{.Item.Bing.Impressions}}, clicks {{.Item.Bing.Clicks}}, CTR {{.Item.Bing.CTR}}, position {{.Item.Bing.Position}}

Optimization brief:
{{.Brief}}

Question research:
{{.Research.Questions}}

Keyword metrics:
{{.Research.KeywordMetrics}}

Competitive research:
{{.Research.Competitive}}

Current page content (Markdown):
{{if .CurrentContent}}{{.CurrentContent}}{{else}}(current content not available){{end}}
`))

// GenerateArticle produces the full rewritten article for one item, guided
// by the brief. This is the long call of the pipeline; the backend's HTTP
// timeout must allow several minutes.
func (g *Generator) GenerateArticle(ctx context.Context, item types.QueueItem, research types.ResearchBundle, brief, currentContent string) (string, error) {
	system := g.contentPrompt()

	var buf bytes.Buffer
	data := struct {
		Item           types.QueueItem
		Research       types.ResearchBundle
		Brief          string
		CurrentContent string
	}{item, research, brief, currentContent}
	if err := contentUserTmpl.Execute(&buf, data); err != nil {
		return "", &GenerationError{Stage: "article", Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	fmt.Fprintf(g.out, "[row %d] generating article\n", item.RowNumber)
	text, err := g.backend.Complete(ctx, system, buf.String(), g.contentMaxTokens())
	if err != nil {
		return "", &GenerationError{Stage: "article", Err: err}
	}
	return text, nil
}

// contentPrompt loads the configured prompt file, falling back to the
// built-in instructions when the file is absent or unreadable.
func (g *Generator) contentPrompt() string {
	if g.cfg.PromptFile == "" {
		return defaultContentPrompt
	}
	data, err := os.ReadFile(g.cfg.PromptFile)
	if err != nil {
		fmt.Fprintf(g.out, "prompt file %s unavailable, using built-in prompt: %v\n", g.cfg.PromptFile, err)
		return defaultContentPrompt
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return defaultContentPrompt
	}
	return text
}

func (g *Generator) contentMaxTokens() int {
	if g.cfg.ContentMaxTokens > 0 {
		return g.cfg.ContentMaxTokens
	}
	return 64000
}
