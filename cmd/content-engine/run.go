// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/genai"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/publish"
	"github.com/pdiddy/content-engine/internal/research"
	"github.com/pdiddy/content-engine/internal/runlog"
	"github.com/pdiddy/content-engine/internal/source"
	"github.com/pdiddy/content-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process pending queue items through the optimization pipeline",
	Long: `Run selects every Pending item from the queue and processes each one to
completion: research gathering, brief and article generation, document
publishing, and status writes back to the queue row. A failed item is
marked Error on its row and the batch continues with the next item.

The command exits non-zero when any item errored, so a wrapper can detect
partial failures even though the run itself completed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		postID, _ := cmd.Flags().GetString("post-id")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg := pipelineConfig()
		out := cmd.OutOrStdout()

		store, closeQueue, err := openQueue(cfg.Queue, out)
		if err != nil {
			return err
		}
		defer closeQueue()

		backend := genai.NewClaudeBackend(cfg.Generation.AIConfig)

		gatherer := &research.Gatherer{
			Questions:   research.NewSERPClient(cfg.Research, out),
			Competitive: research.NewPerplexityClient(cfg.Research, out),
			Competitors: &research.Analyzer{
				Fetcher:    research.NewHTTPFetcher(cfg.Research),
				Summarizer: backend,
				MaxPages:   cfg.Research.MaxCompetitorPages,
				Out:        out,
			},
			Store: store,
			Out:   out,
		}

		publisher, err := newPublisher(cfg.Publish, out)
		if err != nil {
			return err
		}

		p := &pipeline.Pipeline{
			Store:     store,
			Source:    source.NewClient(cfg.Source, out),
			Gatherer:  gatherer,
			Generator: genai.NewGenerator(backend, cfg.Generation, out),
			Publisher: publisher,
			Out:       out,
		}

		ctx := cmd.Context()
		opts := pipeline.Options{Limit: limit, OnlyID: postID, DryRun: dryRun}

		if dryRun {
			// No external calls, no store writes, nothing worth a ledger
			// entry or artifacts.
			_, err := p.Run(ctx, opts)
			return err
		}

		ledger, err := runlog.Open(filepath.Join(cfg.RunLog.Dir, "runs.db"))
		if err != nil {
			return err
		}
		defer ledger.Close()

		run, err := ledger.Begin(ctx)
		if err != nil {
			return err
		}
		p.Recorder = run

		artifacts, err := pipeline.NewArtifactWriter(cfg.RunLog.Dir, pipeline.RunID(time.Now()))
		if err != nil {
			return err
		}
		p.Artifacts = artifacts

		summary, err := p.Run(ctx, opts)
		if finishErr := run.Finish(ctx, summary.Succeeded, summary.Errored); finishErr != nil {
			fmt.Fprintf(out, "run ledger finish failed: %v\n", finishErr)
		}
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d of %d item(s) failed", summary.Errored, summary.Total())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Int("limit", 0, "maximum number of items to process (0 = all pending)")
	runCmd.Flags().String("post-id", "", "process only the item with this source post ID")
	runCmd.Flags().Bool("dry-run", false, "list the items that would be processed without calling anything")

	rootCmd.AddCommand(runCmd)
}

// newPublisher selects the document publisher from config.
func newPublisher(cfg types.PublishConfig, out io.Writer) (publish.Publisher, error) {
	switch cfg.Backend {
	case types.PublishDocs:
		if cfg.AccessToken == "" {
			return nil, fmt.Errorf("publish.access_token (or .secrets/docs-token) is required for the docs backend")
		}
		return publish.NewDocsPublisher(cfg, out), nil
	case types.PublishDir:
		return publish.NewDirPublisher(cfg.OutputDir, out), nil
	default:
		return nil, fmt.Errorf("unknown publish backend %q", cfg.Backend)
	}
}
