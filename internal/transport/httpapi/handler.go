package httpapi

import (
	"context"
	"time"

	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/ports"
	"obiwork/internal/usecase/access"
	"obiwork/internal/usecase/billing"
	"obiwork/internal/usecase/health"
	"obiwork/internal/usecase/intake"
	"obiwork/internal/usecase/triage"
)

type IntakeService interface {
	Submit(ctx context.Context, req intake.Request) (intake.Result, error)
}

type TriageService interface {
	List(ctx context.Context) (triage.ListResult, error)
	UpdateStatus(ctx context.Context, input triage.UpdateInput) (domaintriage.StatusEntry, error)
}

type BillingService interface {
	CreatePayment(ctx context.Context, input billing.PaymentInput) (billing.PaymentResult, error)
	HandleStatusChange(ctx context.Context, change billing.StatusChange) (billing.WebhookResult, error)
	LicenseStatus(ctx context.Context, walletAddress string) (ports.LicenseRecord, bool, error)
}

type AccessService interface {
	Check(ctx context.Context, walletAddress string) (access.Result, error)
}

type HealthService interface {
	Report(ctx context.Context) (health.Report, error)
	Service(ctx context.Context, name string) (health.Health, error)
}

type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// Handler serves the public JSON API. Every dependency is a narrow
// interface so tests can swap in stubs.
type Handler struct {
	intake  IntakeService
	triage  TriageService
	billing BillingService
	access  AccessService
	health  HealthService
	cookies CookieOptions
}

func NewHandler(
	intakeSvc IntakeService,
	triageSvc TriageService,
	billingSvc BillingService,
	accessSvc AccessService,
	healthSvc HealthService,
	cookies CookieOptions,
) *Handler {
	if cookies.MaxAge <= 0 {
		cookies.MaxAge = 24 * time.Hour
	}
	return &Handler{
		intake:  intakeSvc,
		triage:  triageSvc,
		billing: billingSvc,
		access:  accessSvc,
		health:  healthSvc,
		cookies: cookies,
	}
}
