package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

// Audit services.
const (
	auditPayments = "payments"
	auditWebhook  = "payments_webhook"
	auditLicenses = "licenses"
)

// Service charges tiers, reconciles processor callbacks into licenses and
// answers license lookups.
type Service struct {
	repo      ports.BillingRepository
	uow       ports.UnitOfWork
	processor ports.PaymentProcessor
	audit     ports.AuditLog
	now       func() time.Time
	newID     func() string
}

func NewService(
	repo ports.BillingRepository,
	uow ports.UnitOfWork,
	processor ports.PaymentProcessor,
	audit ports.AuditLog,
) *Service {
	return &Service{
		repo:      repo,
		uow:       uow,
		processor: processor,
		audit:     audit,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *Service) record(ctx context.Context, service string, event string, status string, fields map[string]any) {
	if err := s.audit.Record(ctx, service, event, status, fields); err != nil {
		logging.Warn(ctx, "audit write failed", slog.String("event", event), slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) nowString() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
