// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/queue"
	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Viper defaults. Every value can be overridden in content-engine.yaml or
// via CONTENT_ENGINE_* environment variables; API keys come from .secrets/.
func init() {
	viper.SetDefault("queue.backend", "sheets")
	viper.SetDefault("queue.sheet_name", "Content Queue")
	viper.SetDefault("queue.local_path", "queue.db")
	viper.SetDefault("queue.timeout", "60s")

	viper.SetDefault("research.serp_location", "United States")
	viper.SetDefault("research.max_organic_urls", 10)
	viper.SetDefault("research.max_competitor_pages", 5)
	viper.SetDefault("research.timeout", "120s")

	viper.SetDefault("generation.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("generation.knowledge_dir", "knowledge")
	viper.SetDefault("generation.prompt_file", "prompts/content.md")
	viper.SetDefault("generation.brief_max_tokens", 2000)
	viper.SetDefault("generation.content_max_tokens", 64000)
	viper.SetDefault("generation.timeout", "10m")

	viper.SetDefault("source.timeout", "30s")

	viper.SetDefault("publish.backend", "docs")
	viper.SetDefault("publish.output_dir", "output/drafts")
	viper.SetDefault("publish.timeout", "60s")

	viper.SetDefault("run_log.dir", "output/runs")

	viper.SetDefault("user_agent", "content-engine/"+version)
}

// pipelineConfig assembles the full stage configuration from viper and the
// loaded secrets.
func pipelineConfig() types.PipelineConfig {
	ua := viper.GetString("user_agent")

	return types.PipelineConfig{
		Queue: types.QueueConfig{
			HTTPConfig:    httpConfig("queue.timeout", ua),
			Backend:       types.QueueBackend(viper.GetString("queue.backend")),
			SpreadsheetID: viper.GetString("queue.spreadsheet_id"),
			SheetName:     viper.GetString("queue.sheet_name"),
			AccessToken:   secrets.Fallback(loadedSecrets, "sheets-token", viper.GetString("queue.access_token")),
			LocalPath:     viper.GetString("queue.local_path"),
		},
		Research: types.ResearchConfig{
			HTTPConfig:         httpConfig("research.timeout", ua),
			SERPLogin:          secrets.Fallback(loadedSecrets, "dataforseo-login", viper.GetString("research.serp_login")),
			SERPPassword:       secrets.Fallback(loadedSecrets, "dataforseo-password", viper.GetString("research.serp_password")),
			SERPLocation:       viper.GetString("research.serp_location"),
			PerplexityAPIKey:   secrets.Fallback(loadedSecrets, "perplexity-api-key", viper.GetString("research.perplexity_api_key")),
			MaxOrganicURLs:     viper.GetInt("research.max_organic_urls"),
			MaxCompetitorPages: viper.GetInt("research.max_competitor_pages"),
		},
		Generation: types.GenerationConfig{
			AIConfig: types.AIConfig{
				Model:   viper.GetString("generation.model"),
				APIKey:  secrets.Fallback(loadedSecrets, "anthropic-api-key", viper.GetString("generation.api_key")),
				Timeout: viper.GetDuration("generation.timeout"),
			},
			KnowledgeDir:     viper.GetString("generation.knowledge_dir"),
			PromptFile:       viper.GetString("generation.prompt_file"),
			BriefMaxTokens:   viper.GetInt("generation.brief_max_tokens"),
			ContentMaxTokens: viper.GetInt("generation.content_max_tokens"),
		},
		Source: types.SourceConfig{
			HTTPConfig:  httpConfig("source.timeout", ua),
			SiteURL:     viper.GetString("source.site_url"),
			Username:    viper.GetString("source.username"),
			AppPassword: secrets.Fallback(loadedSecrets, "wordpress-app-password", viper.GetString("source.app_password")),
		},
		Publish: types.PublishConfig{
			HTTPConfig:  httpConfig("publish.timeout", ua),
			Backend:     types.PublishBackend(viper.GetString("publish.backend")),
			AccessToken: secrets.Fallback(loadedSecrets, "docs-token", viper.GetString("publish.access_token")),
			FolderID:    viper.GetString("publish.folder_id"),
			OutputDir:   viper.GetString("publish.output_dir"),
		},
		RunLog: types.RunLogConfig{
			Dir: viper.GetString("run_log.dir"),
		},
	}
}

func httpConfig(timeoutKey, ua string) types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:   viper.GetDuration(timeoutKey),
		UserAgent: ua,
	}
}

// openQueue builds the queue adapter over the configured table backend.
// The returned close function is a no-op for the Sheets backend.
func openQueue(cfg types.QueueConfig, out io.Writer) (*queue.Adapter, func() error, error) {
	switch cfg.Backend {
	case types.QueueSheets:
		if cfg.SpreadsheetID == "" {
			return nil, nil, fmt.Errorf("queue.spreadsheet_id is required for the sheets backend")
		}
		return queue.NewAdapter(queue.NewSheetsTable(cfg), out), func() error { return nil }, nil
	case types.QueueLocal:
		table, err := queue.OpenLocalTable(cfg.LocalPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening local queue: %w", err)
		}
		return queue.NewAdapter(table, out), table.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}
