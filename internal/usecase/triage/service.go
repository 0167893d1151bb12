package triage

import (
	"context"
	"log/slog"
	"time"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const auditService = "triage"

// Failure channels.
const (
	ChannelStatusLog = "triage_status_log"
)

// Service lists the review queue and applies reviewer decisions.
type Service struct {
	repo     ports.ApplicationRepository
	uow      ports.UnitOfWork
	journal  ports.Journal
	audit    ports.AuditLog
	cache    ports.Cache
	observer ports.FailureObserver
	now      func() time.Time
}

func NewService(
	repo ports.ApplicationRepository,
	uow ports.UnitOfWork,
	journal ports.Journal,
	audit ports.AuditLog,
	cache ports.Cache,
	observer ports.FailureObserver,
) *Service {
	return &Service{
		repo:     repo,
		uow:      uow,
		journal:  journal,
		audit:    audit,
		cache:    cache,
		observer: observer,
		now:      time.Now,
	}
}

func (s *Service) record(ctx context.Context, event string, status string, fields map[string]any) {
	if err := s.audit.Record(ctx, auditService, event, status, fields); err != nil {
		logging.Warn(ctx, "audit write failed", slog.String("event", event), slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) nowString() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
