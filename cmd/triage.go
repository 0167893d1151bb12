package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"obiwork/internal/bootstrap"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/usecase/triage"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Inspect and update the application review queue",
}

var triageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued applications, newest first",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()

		result, err := app.Triage.List(ctx)
		if err != nil {
			logging.Error(ctx, "list triage queue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list triage queue")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result.Items); err != nil {
				return errs.Wrap(err, "write triage json")
			}
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "application\treceived\tstatus\tscore\ttier\ttags\twallet"); err != nil {
			return errs.Wrap(err, "write triage header")
		}
		for _, item := range result.Items {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				item.ApplicationID,
				item.ReceivedAt,
				item.Status,
				item.Triage.Score,
				item.Triage.Tier,
				strings.Join(item.Triage.Tags, ","),
				item.WalletAddress,
			); err != nil {
				return errs.Wrap(err, "write triage row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush triage table")
		}
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "%d applications (source=%s)\n", len(result.Items), result.Source); err != nil {
			return errs.Wrap(err, "write triage summary")
		}
		return nil
	}),
}

var triageSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record a reviewer decision for one application",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()

		applicationID, _ := cmd.Flags().GetString("application")
		status, _ := cmd.Flags().GetString("status")
		reviewer, _ := cmd.Flags().GetString("reviewer")

		entry, err := app.Triage.UpdateStatus(ctx, triage.UpdateInput{
			ApplicationID: applicationID,
			Status:        status,
			Reviewer:      reviewer,
		})
		if err != nil {
			logging.Error(ctx, "update triage status failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update triage status")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "status updated: %s -> %s reviewer=%s at=%s\n",
			entry.ApplicationID, entry.Status, entry.Reviewer, entry.UpdatedAt); err != nil {
			return errs.Wrap(err, "write set output")
		}
		return nil
	}),
}

var triageReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Heal the database from the triage journal",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()

		fromStart, _ := cmd.Flags().GetBool("from-start")
		result, err := app.Triage.Replay(ctx, triage.ReplayOptions{FromStart: fromStart})
		if err != nil {
			logging.Error(ctx, "replay triage journal failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "replay triage journal")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		rows := []struct {
			name  string
			value int
		}{
			{"queue_entries_read", result.QueueEntriesRead},
			{"triage_rows_inserted", result.TriageRowsInserted},
			{"status_entries_read", result.StatusEntriesRead},
			{"status_events_written", result.StatusEventsWritten},
			{"statuses_applied", result.StatusesApplied},
		}
		if _, err := fmt.Fprintln(w, "metric\tvalue"); err != nil {
			return errs.Wrap(err, "write replay header")
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%d\n", row.name, row.value); err != nil {
				return errs.Wrap(err, "write replay row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush replay table")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(triageCmd)
	triageCmd.AddCommand(triageListCmd, triageSetCmd, triageReplayCmd)

	triageListCmd.Flags().Bool("json", false, "Print items as JSON")

	triageSetCmd.Flags().String("application", "", "Application id")
	triageSetCmd.Flags().String("status", "", "New status (pending|review|approved|rejected)")
	triageSetCmd.Flags().String("reviewer", "cli", "Reviewer recorded with the decision")
	_ = triageSetCmd.MarkFlagRequired("application")
	_ = triageSetCmd.MarkFlagRequired("status")

	triageReplayCmd.Flags().Bool("from-start", false, "Ignore stored journal offsets and replay every line")
}
