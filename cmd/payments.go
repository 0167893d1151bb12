package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"obiwork/internal/bootstrap"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/usecase/billing"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Payment and license maintenance",
}

var paymentsWebhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Apply one processor status change (manual redelivery)",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()

		paymentID, _ := cmd.Flags().GetString("payment-id")
		status, _ := cmd.Flags().GetString("status")

		result, err := app.Billing.HandleStatusChange(ctx, billing.StatusChange{
			ProviderPaymentID: paymentID,
			Status:            status,
		})
		if err != nil {
			logging.Error(ctx, "apply payment status change failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "apply payment status change")
		}

		if result.Ignored {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ignored: %s\n", result.Reason)
		} else {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "payment %s -> %s outcome=%s license=%s\n",
				paymentID, result.Status.Stored(), result.Outcome, result.LicenseID)
		}
		if err != nil {
			return errs.Wrap(err, "write webhook output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsWebhookCmd)

	paymentsWebhookCmd.Flags().String("payment-id", "", "Processor payment id")
	paymentsWebhookCmd.Flags().String("status", "", "Processor status code or name")
	_ = paymentsWebhookCmd.MarkFlagRequired("payment-id")
	_ = paymentsWebhookCmd.MarkFlagRequired("status")
}
