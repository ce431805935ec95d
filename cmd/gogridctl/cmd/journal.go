package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent lifecycle operations",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		run(func(ctx context.Context, e *env) error {
			if e.journal == nil {
				return fmt.Errorf("the operation journal is disabled (journal.enabled=false)")
			}

			entries, err := e.journal.Recent(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Printf("%-20s %-12s %-20s %-10s %-8s %s\n",
				"FINISHED", "OPERATION", "NODE", "NODE ID", "OUTCOME", "ERROR")
			for _, entry := range entries {
				fmt.Printf("%-20s %-12s %-20s %-10s %-8s %s\n",
					entry.FinishedAt.Format("2006-01-02 15:04:05"),
					entry.Operation, entry.NodeName, entry.NodeID,
					entry.Outcome, entry.Error)
			}
			return nil
		})
	},
}

func init() {
	journalCmd.Flags().Int("limit", 20, "maximum entries to show")
	rootCmd.AddCommand(journalCmd)
}
