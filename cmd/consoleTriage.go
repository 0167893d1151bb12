package cmd

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"obiwork/internal/bootstrap"
	"obiwork/internal/errs"
	"obiwork/internal/usecase/triageconsole"
)

var consoleTriageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Start the triage review console",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		reviewer, _ := cmd.Flags().GetString("reviewer")
		status, _ := cmd.Flags().GetString("status")
		tier, _ := cmd.Flags().GetString("tier")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := triageconsole.NewTriageModel(cmd.Context(), app.Triage, triageconsole.Options{
			Reviewer:        reviewer,
			StatusFilter:    status,
			TierFilter:      tier,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run triage console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleTriageCmd)
	consoleTriageCmd.Flags().String("reviewer", "console", "Reviewer recorded with decisions")
	consoleTriageCmd.Flags().String("status", "", "Optional status filter (pending|review|approved|rejected)")
	consoleTriageCmd.Flags().String("tier", "", "Optional tier filter (standard|review|priority)")
	consoleTriageCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
