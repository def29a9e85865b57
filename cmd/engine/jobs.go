package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List and update tracked jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, best match first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		f := store.QueryFilter{}
		f.MinScore, _ = cmd.Flags().GetInt("min-score")
		f.Location, _ = cmd.Flags().GetString("location")
		f.Limit, _ = cmd.Flags().GetInt("limit")
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			if f.Status, err = domain.ParseStatus(s); err != nil {
				return err
			}
		}

		jobs, err := e.db.Query(cmd.Context(), f)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("output-json"); asJSON {
			return printJSON(cmd.OutOrStdout(), jobs)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSCORE\tSTATUS\tTITLE\tCOMPANY\tLOCATION\tSOURCE")
		for _, j := range jobs {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
				j.ID, j.MatchScore, j.Status, clip(j.Title, 48), clip(j.Company, 28), clip(j.Location, 28), j.SourcePlatform)
		}
		return tw.Flush()
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one job as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		j, err := e.db.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), j)
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <id> [status]",
	Short: "Move a job to a new status; prompts for one when omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		var to domain.Status
		if len(args) == 2 {
			if to, err = domain.ParseStatus(args[1]); err != nil {
				return err
			}
		} else {
			j, err := e.db.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if to, err = pickStatus(j); err != nil {
				return err
			}
		}

		j, err := e.db.UpdateStatus(cmd.Context(), id, to, time.Now())
		if err != nil {
			return err
		}
		e.bus.Emit(cmd.Context(), "", events.TypeJobStatusChanged, map[string]any{"id": j.ID, "status": j.Status})
		fmt.Fprintf(cmd.OutOrStdout(), "job %d: %s\n", j.ID, j.Status)
		return nil
	},
}

var jobsNotesCmd = &cobra.Command{
	Use:   "notes <id> <text>",
	Short: "Replace a job's notes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		return e.db.SetNotes(cmd.Context(), id, strings.Join(args[1:], " "))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print counts by status and platform, response rate and per-source averages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		days, _ := cmd.Flags().GetInt("window-days")
		st, err := e.db.Stats(cmd.Context(), time.Now(), days)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), st)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd, statsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd, jobsStatusCmd, jobsNotesCmd)

	jobsListCmd.Flags().Int("min-score", 0, "only jobs scoring at least this much")
	jobsListCmd.Flags().String("location", "", "location substring")
	jobsListCmd.Flags().String("status", "", "only jobs in this status")
	jobsListCmd.Flags().Int("limit", store.DefaultQueryLimit, "maximum number of jobs")
	jobsListCmd.Flags().Bool("output-json", false, "print JSON instead of a table")

	statsCmd.Flags().Int("window-days", 7, "search-run window in days")
}

var errNoTransitions = errors.New("job is in a terminal status")

// pickStatus asks for one of the statuses reachable from j's current one.
func pickStatus(j domain.Job) (domain.Status, error) {
	next := domain.NextStatuses(j.Status)
	if len(next) == 0 {
		return "", fmt.Errorf("job %d (%s): %w", j.ID, j.Status, errNoTransitions)
	}

	items := make([]string, len(next))
	for i, s := range next {
		items[i] = string(s)
	}
	prompt := promptui.Select{
		Label: fmt.Sprintf("%s at %s is %s; move to", clip(j.Title, 40), clip(j.Company, 24), j.Status),
		Items: items,
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return domain.Status(choice), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
