package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jobsearch-engine/internal/ingest"
	"jobsearch-engine/internal/scheduler"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		query, _ := cmd.Flags().GetString("query")
		location, _ := cmd.Flags().GetString("location")
		ctx := ingest.WithOverride(cmd.Context(), ingest.Override{Query: query, Location: location})

		return runCycle(ctx, cmd, e.ingest, "new jobs")
	},
}

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run one maintenance cycle now (artifacts for high-priority jobs, follow-up sweep)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		return runCycle(cmd.Context(), cmd, e.maintenance, "jobs updated")
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, maintainCmd)

	ingestCmd.Flags().StringP("query", "q", "", "search term for this run (default from search.query)")
	ingestCmd.Flags().StringP("location", "l", "", "location for this run (default from search.location)")
}

// runCycle triggers c synchronously. A cycle already running in another
// process (serve) is reported as an error.
func runCycle(ctx context.Context, cmd *cobra.Command, c *scheduler.Cycle, unit string) error {
	if err := c.Trigger(ctx); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s finished: %d %s\n", c.Name, c.Status().LastAdded, unit)
	return nil
}
