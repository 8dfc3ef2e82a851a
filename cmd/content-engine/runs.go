// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the run ledger",
	Long: `Runs lists past pipeline runs from the local ledger, newest first. With
--items it prints the per-item outcomes of one run; with --clear it marks a
stale active run as finished so a new run can start after a crash.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		itemsID, _ := cmd.Flags().GetInt64("items")
		clear, _ := cmd.Flags().GetBool("clear")

		cfg := pipelineConfig()
		ledger, err := runlog.Open(filepath.Join(cfg.RunLog.Dir, "runs.db"))
		if err != nil {
			return err
		}
		defer ledger.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if clear {
			n, err := ledger.ClearActive(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "cleared %d active run(s)\n", n)
			return nil
		}

		if itemsID > 0 {
			items, err := ledger.Items(ctx, itemsID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintf(out, "no items recorded for run %d\n", itemsID)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROW\tOK\tPOST\tTITLE\tERROR")
			for _, it := range items {
				fmt.Fprintf(w, "%d\t%t\t%s\t%s\t%s\n",
					it.RowNumber, it.OK, it.PostID, it.Title, it.ErrorMsg)
			}
			return w.Flush()
		}

		records, err := ledger.List(ctx, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tFINISHED\tOK\tERRORED")
		for _, rec := range records {
			finished := "running"
			if rec.FinishedAt != nil {
				finished = rec.FinishedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n",
				rec.ID, rec.StartedAt.Format("2006-01-02 15:04:05"), finished,
				rec.Succeeded, rec.Errored)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	runsCmd.Flags().Int64("items", 0, "show per-item outcomes for the given run ID")
	runsCmd.Flags().Bool("clear", false, "mark any stale active run as finished")

	rootCmd.AddCommand(runsCmd)
}
