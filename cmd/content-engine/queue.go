// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/queue"
	"github.com/pdiddy/content-engine/pkg/types"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and maintain the optimization queue",
	Long: `Queue reads the configured work queue and prints its items, or performs
row-level maintenance: resetting an errored item back to Pending, or seeding
the local SQLite queue from the remote spreadsheet for offline work.`,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every queue item with its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeQueue, err := openQueue(pipelineConfig().Queue, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeQueue()

		items, err := store.ListItems(cmd.Context())
		if err != nil {
			return err
		}
		printItems(cmd, items)
		return nil
	},
}

var queuePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the items a run would process, in run order",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeQueue, err := openQueue(pipelineConfig().Queue, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeQueue()

		items, err := store.ListItems(cmd.Context())
		if err != nil {
			return err
		}
		printItems(cmd, queue.SelectPending(items))
		return nil
	},
}

var queueResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear an item's error log and set it back to Pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		row, _ := cmd.Flags().GetInt("row")
		if row < 2 {
			return fmt.Errorf("--row must be a data row number (2 or higher)")
		}

		store, closeQueue, err := openQueue(pipelineConfig().Queue, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeQueue()

		items, err := store.ListItems(cmd.Context())
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.RowNumber == row {
				return store.ResetItem(cmd.Context(), item)
			}
		}
		return fmt.Errorf("no queue item at row %d", row)
	},
}

var queueImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the remote spreadsheet into the local SQLite queue",
	Long: `Import reads the full grid from the configured spreadsheet and replaces
the local queue's contents with it. Run it before switching queue.backend
to "local" for offline work; local edits are not written back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig().Queue
		if cfg.SpreadsheetID == "" {
			return fmt.Errorf("queue.spreadsheet_id is required to import")
		}

		grid, err := queue.NewSheetsTable(cfg).ReadAll(cmd.Context())
		if err != nil {
			return err
		}

		local, err := queue.OpenLocalTable(cfg.LocalPath)
		if err != nil {
			return err
		}
		defer local.Close()

		if err := local.ImportRows(cmd.Context(), grid); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d row(s) into %s\n", len(grid), cfg.LocalPath)
		return nil
	},
}

func printItems(cmd *cobra.Command, items []types.QueueItem) {
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no items")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tSTATUS\tPOST\tKEYWORD\tTITLE")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			item.RowNumber, item.Status, item.PostID, item.TargetKeyword, item.Title)
	}
	w.Flush()
}

func init() {
	queueResetCmd.Flags().Int("row", 0, "row number of the item to reset")

	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queuePendingCmd)
	queueCmd.AddCommand(queueResetCmd)
	queueCmd.AddCommand(queueImportCmd)
	rootCmd.AddCommand(queueCmd)
}
