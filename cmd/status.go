package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"obiwork/internal/bootstrap"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/usecase/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the configured collaborators and stores",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()

		service, _ := cmd.Flags().GetString("service")
		services := map[string]health.Health{}
		names := app.Health.Names()
		overall := ""

		if service = strings.TrimSpace(service); service != "" {
			h, err := app.Health.Service(ctx, service)
			if err != nil {
				return errs.Wrapf(err, "check %s (known: %s)", service, strings.Join(names, ", "))
			}
			services[service] = h
			names = []string{service}
		} else {
			report, err := app.Health.Report(ctx)
			if err != nil {
				logging.Error(ctx, "status report failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "status report")
			}
			services = report.Services
			overall = report.Overall.Status
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "service\tok\tstatus\tlatency_ms"); err != nil {
			return errs.Wrap(err, "write status header")
		}
		for _, name := range names {
			h := services[name]
			if _, err := fmt.Fprintf(w, "%s\t%t\t%s\t%d\n", name, h.OK, h.Status, h.Latency); err != nil {
				return errs.Wrap(err, "write status row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush status table")
		}
		if overall != "" {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "overall: %s\n", overall); err != nil {
				return errs.Wrap(err, "write overall status")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("service", "", "Check a single service (gatekeeper|payments|database|journal)")
}
