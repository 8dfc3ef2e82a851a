// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/runctl"
	"github.com/pdiddy/content-engine/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline with a live terminal view",
	Long: `Watch starts a pipeline run as a child process and streams its progress
into a terminal view. Press q to stop the run and quit; the queue rows keep
whatever state the run had reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		postID, _ := cmd.Flags().GetString("post-id")

		binary, err := os.Executable()
		if err != nil {
			binary = os.Args[0]
		}

		runArgs := []string{"run"}
		if limit > 0 {
			runArgs = append(runArgs, "--limit", strconv.Itoa(limit))
		}
		if postID != "" {
			runArgs = append(runArgs, "--post-id", postID)
		}

		session, err := runctl.NewController(binary).Start(cmd.Context(), runArgs)
		if err != nil {
			return fmt.Errorf("starting run: %w", err)
		}

		if _, err := tea.NewProgram(tui.NewModel(session)).Run(); err != nil {
			session.Stop()
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().Int("limit", 0, "maximum number of items to process (0 = all pending)")
	watchCmd.Flags().String("post-id", "", "process only the item with this source post ID")

	rootCmd.AddCommand(watchCmd)
}
