package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"obiwork/internal/bootstrap/config"
	"obiwork/internal/bootstrap/database"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	cacheinfra "obiwork/internal/infrastructure/cache"
	"obiwork/internal/infrastructure/cielo"
	"obiwork/internal/infrastructure/gatekeeper"
	"obiwork/internal/infrastructure/journal"
	"obiwork/internal/infrastructure/metrics"
	"obiwork/internal/infrastructure/notify"
	sqliterepo "obiwork/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "obiwork/internal/infrastructure/persistence/sqlite/uow"
	"obiwork/internal/ports"
	"obiwork/internal/usecase/access"
	"obiwork/internal/usecase/billing"
	"obiwork/internal/usecase/health"
	"obiwork/internal/usecase/intake"
	"obiwork/internal/usecase/triage"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideContext),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			metrics.New,
			fx.As(fx.Self()),
			fx.As(new(journal.AuditObserver)),
			fx.As(new(ports.FailureObserver)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewApplicationRepository,
			fx.As(new(ports.ApplicationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewBillingRepository,
			fx.As(new(ports.BillingRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideJournal,
			fx.As(fx.Self()),
			fx.As(new(ports.Journal)),
		),
	),
	fx.Provide(
		fx.Annotate(
			journal.NewAuditor,
			fx.As(new(ports.AuditLog)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideGatekeeper,
			fx.As(fx.Self()),
			fx.As(new(ports.Gatekeeper)),
		),
	),
	fx.Provide(providePaymentProcessor),
	fx.Provide(
		fx.Annotate(
			provideNotifier,
			fx.As(new(ports.Notifier)),
		),
	),
	fx.Provide(intake.NewService),
	fx.Provide(triage.NewService),
	fx.Provide(billing.NewService),
	fx.Provide(provideAccessService),
	fx.Provide(provideHealthService),
)

type configParams struct {
	fx.In

	Ctx        context.Context `name:"rootCtx"`
	ConfigFile string          `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithComponent(p.Ctx, "bootstrap.fx")
	return config.Load(ctx, p.ConfigFile)
}

type contextParams struct {
	fx.In

	Ctx    context.Context `name:"rootCtx"`
	Config config.Config
}

// provideContext swaps the bootstrap logger for one built from the log
// section of the config. Everything downstream logs through it.
func provideContext(p contextParams) context.Context {
	return logging.WithLogger(p.Ctx, logging.New(os.Stderr, p.Config.Log.Format, p.Config.Log.Level))
}

// provideDatabase opens the store once per process. The schema is migrated
// on start so every command sees the current tables.
func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithComponent(ctx, "bootstrap.fx")

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			return database.Migrate(logging.WithComponent(startCtx, "bootstrap.fx"), db)
		},
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.Close(); err != nil {
				return errs.Wrap(err, "close sql db")
			}
			logging.Info(logCtx, "database connection closed")
			return nil
		},
	})

	return db, nil
}

func provideJournal(cfg config.Config) *journal.FileJournal {
	return journal.NewFileJournal(cfg.Journal.Dir)
}

func provideGatekeeper(cfg config.Config) *gatekeeper.ScriptGatekeeper {
	return gatekeeper.NewScriptGatekeeper(cfg.Gatekeeper.Program, cfg.Gatekeeper.Script, cfg.Gatekeeper.Timeout)
}

// providePaymentProcessor picks the live Cielo client when merchant
// credentials are configured and the mock processor otherwise.
func providePaymentProcessor(ctx context.Context, cfg config.Config) ports.PaymentProcessor {
	logCtx := logging.WithComponent(ctx, "bootstrap.fx")
	if cfg.Payments.Live() {
		logging.Info(logCtx, "payment processor configured", slog.String("mode", "live"), slog.String("base_url", cfg.Payments.BaseURL))
		return cielo.NewClient(cielo.Config{
			BaseURL:        cfg.Payments.BaseURL,
			MerchantID:     cfg.Payments.MerchantID,
			MerchantKey:    cfg.Payments.MerchantKey,
			SoftDescriptor: cfg.Payments.SoftDescriptor,
			Timeout:        cfg.Payments.Timeout,
		})
	}
	logging.Warn(logCtx, "payment processor credentials missing, using mock", slog.Duration("mock_delay", cfg.Payments.MockDelay))
	return cielo.NewMockProcessor(cfg.Payments.MockDelay)
}

func provideNotifier(cfg config.Config) *notify.WebhookNotifier {
	return notify.NewWebhookNotifier(map[string]string{
		ports.ChannelTriage:   cfg.Webhooks.TriageURL,
		ports.ChannelInternal: cfg.Webhooks.InternalURL,
	}, cfg.Webhooks.Timeout)
}

func provideAccessService(gk ports.Gatekeeper, repo ports.BillingRepository, audit ports.AuditLog) *access.Service {
	return access.NewService(gk, repo, audit)
}

type healthParams struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Journal    *journal.FileJournal
	Gatekeeper *gatekeeper.ScriptGatekeeper
	Audit      ports.AuditLog
}

func provideHealthService(p healthParams) (*health.Service, error) {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return nil, errs.Wrap(err, "get sql db")
	}
	return health.NewService(
		p.Audit,
		health.GatekeeperCheck(p.Gatekeeper),
		health.PaymentsCheck(p.Config.Payments.Live()),
		health.DatabaseCheck(sqlDB),
		health.JournalCheck(p.Journal),
	), nil
}
