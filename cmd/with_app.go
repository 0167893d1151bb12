package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"obiwork/internal/bootstrap"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
)

const (
	startTimeout = 10 * time.Second
	stopTimeout  = 10 * time.Second
)

// newFxApp assembles the application graph for one command. runCtx receives
// the context carrying the configured logger.
func newFxApp(ctx context.Context, runCtx *context.Context, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		bootstrap.Module,
		fx.Provide(
			fx.Annotate(
				func() context.Context { return ctx },
				fx.ResultTags(`name:"rootCtx"`),
			),
		),
		fx.Provide(
			fx.Annotate(
				func() string { return cfgFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(runCtx),
	}
	return fx.New(append(base, opts...)...)
}

func withApp(run func(cmd *cobra.Command, app *bootstrap.App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var app *bootstrap.App
		runCtx := ctx
		fxApp := newFxApp(ctx, &runCtx, fx.Populate(&app))

		startCtx, cancelStart := context.WithTimeout(ctx, startTimeout)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(runCtx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		cmd.SetContext(runCtx)
		if err := run(cmd, app); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
