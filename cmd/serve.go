package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"obiwork/internal/bootstrap"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		addr, _ := cmd.Flags().GetString("addr")
		if addr != "" {
			// viper reads OBI_HTTP_ADDR during config load.
			if err := os.Setenv("OBI_HTTP_ADDR", addr); err != nil {
				return errs.Wrap(err, "apply --addr")
			}
		}

		runCtx := ctx
		fxApp := newFxApp(ctx, &runCtx,
			bootstrap.ServerModule,
			fx.Invoke(func(*http.Server) {}),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, startTimeout)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "start http server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()
		logging.Info(runCtx, "shutdown signal received")

		stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
		defer cancelStop()
		if err := fxApp.Stop(stopCtx); err != nil {
			logging.Error(runCtx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "stop fx application")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
