// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/berkanimo/autolatex/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent compilations",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of entries to show")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}

	store, err := history.Open(workdir)
	if err != nil {
		return fmt.Errorf("opening compile history: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(limit)
	if err != nil {
		return fmt.Errorf("listing compile history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No compilations recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMODE\tSOURCE\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Mode, e.Source, result)
	}
	return tw.Flush()
}
