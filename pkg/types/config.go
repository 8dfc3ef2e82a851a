// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "content-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// QueueBackend identifies the backing table implementation.
type QueueBackend string

const (
	QueueSheets QueueBackend = "sheets"
	QueueLocal  QueueBackend = "local"
)

// QueueConfig holds settings for the queue store adapter.
type QueueConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the backing table: sheets or local.
	Backend QueueBackend `json:"backend" yaml:"backend"`

	// SpreadsheetID and SheetName address the Google Sheets queue tab.
	SpreadsheetID string `json:"spreadsheet_id,omitempty" yaml:"spreadsheet_id,omitempty"`
	SheetName     string `json:"sheet_name,omitempty" yaml:"sheet_name,omitempty"`

	// AccessToken authenticates Sheets API calls.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// LocalPath is the SQLite file backing the local queue table.
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`
}

// ResearchConfig holds settings for the research gathering stage.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// SERPLogin and SERPPassword authenticate the DataForSEO SERP API.
	SERPLogin    string `json:"serp_login,omitempty" yaml:"serp_login,omitempty"`
	SERPPassword string `json:"serp_password,omitempty" yaml:"serp_password,omitempty"`

	// SERPLocation localizes SERP lookups (default "United Arab Emirates").
	SERPLocation string `json:"serp_location" yaml:"serp_location"`

	// PerplexityAPIKey authenticates the competitive research API.
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty" yaml:"perplexity_api_key,omitempty"`

	// MaxOrganicURLs caps how many SERP URLs are collected for competitor
	// analysis (default 10).
	MaxOrganicURLs int `json:"max_organic_urls" yaml:"max_organic_urls"`

	// MaxCompetitorPages caps how many of those URLs are scraped (default 5).
	MaxCompetitorPages int `json:"max_competitor_pages" yaml:"max_competitor_pages"`
}

// AIConfig holds shared settings for stages that call the generative backend.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-call read timeout. Brief and analysis calls use
	// short timeouts; full content generation runs for minutes.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// GenerationConfig holds settings for the brief and content generators.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// KnowledgeDir holds Markdown knowledge files concatenated into the
	// brief generator's system prompt.
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// PromptFile is the content-generation system prompt; a built-in
	// fallback is used when the file is missing.
	PromptFile string `json:"prompt_file" yaml:"prompt_file"`

	// BriefMaxTokens and ContentMaxTokens bound the two generation calls.
	BriefMaxTokens   int `json:"brief_max_tokens" yaml:"brief_max_tokens"`
	ContentMaxTokens int `json:"content_max_tokens" yaml:"content_max_tokens"`
}

// SourceConfig holds settings for fetching current published content.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// SiteURL is the WordPress site base URL.
	SiteURL string `json:"site_url" yaml:"site_url"`

	// Username and AppPassword authenticate REST API reads when
	// unauthenticated access is blocked.
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	AppPassword string `json:"app_password,omitempty" yaml:"app_password,omitempty"`
}

// PublishBackend identifies the document publisher implementation.
type PublishBackend string

const (
	PublishDocs PublishBackend = "docs"
	PublishDir  PublishBackend = "dir"
)

// PublishConfig holds settings for the document publisher.
type PublishConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the publisher: docs (Google Docs) or dir (local files).
	Backend PublishBackend `json:"backend" yaml:"backend"`

	// AccessToken authenticates Drive/Docs API calls.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// FolderID is the Drive folder for created documents (empty = root).
	FolderID string `json:"folder_id,omitempty" yaml:"folder_id,omitempty"`

	// OutputDir is the directory for the dir backend (e.g. "output/drafts").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// RunLogConfig holds settings for the run ledger.
type RunLogConfig struct {
	// Dir contains the ledger database and per-run artifact files.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Queue      QueueConfig      `json:"queue" yaml:"queue"`
	Research   ResearchConfig   `json:"research" yaml:"research"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Source     SourceConfig     `json:"source" yaml:"source"`
	Publish    PublishConfig    `json:"publish" yaml:"publish"`
	RunLog     RunLogConfig     `json:"run_log" yaml:"run_log"`
}
