package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"obiwork/internal/bootstrap/config"
	"obiwork/internal/bootstrap/database"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/usecase/access"
	"obiwork/internal/usecase/billing"
	"obiwork/internal/usecase/health"
	"obiwork/internal/usecase/intake"
	"obiwork/internal/usecase/triage"
)

// App bundles the services every command may need.
type App struct {
	Config  config.Config
	DB      *gorm.DB
	Intake  *intake.Service
	Triage  *triage.Service
	Billing *billing.Service
	Access  *access.Service
	Health  *health.Service
}

type appParams struct {
	fx.In

	Config  config.Config
	DB      *gorm.DB
	Intake  *intake.Service
	Triage  *triage.Service
	Billing *billing.Service
	Access  *access.Service
	Health  *health.Service
}

func provideApp(p appParams) *App {
	return &App{
		Config:  p.Config,
		DB:      p.DB,
		Intake:  p.Intake,
		Triage:  p.Triage,
		Billing: p.Billing,
		Access:  p.Access,
		Health:  p.Health,
	}
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if err := database.Migrate(ctx, a.DB); err != nil {
		return errs.Wrap(err, "migrate schema")
	}
	return nil
}

func (a *App) SchemaVersion(ctx context.Context) (string, error) {
	version, err := database.AppliedVersion(ctx, a.DB)
	if err != nil {
		return "", errs.Wrap(err, "read schema version")
	}
	logging.Debug(logging.WithComponent(ctx, "bootstrap.app"), "schema version read", slog.String("version", version))
	return version, nil
}
