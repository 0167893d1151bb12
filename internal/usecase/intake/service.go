package intake

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/domain/access"
	"obiwork/internal/domain/triage"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const auditService = "apply"

// Side-effect channels reported to the failure observer.
const (
	ChannelApplicationsLog = "applications_log"
	ChannelApplicationsDB  = "applications_db"
	ChannelTriageLog       = "triage_queue_log"
	ChannelTriageDB        = "triage_db"
	ChannelTriageWebhook   = "webhook_triage"
	ChannelNotificationLog = "notification_log"
	ChannelInternalWebhook = "webhook_internal"
)

type Request struct {
	WalletAddress string
	Answers       map[string]string
	UserAgent     string
	ForwardedFor  string
}

// Flags reports which side effects landed. None of them gates the result.
type Flags struct {
	Received           bool `json:"received"`
	Persisted          bool `json:"persisted"`
	PersistedDB        bool `json:"persistedDb"`
	Queued             bool `json:"queued"`
	QueuedDB           bool `json:"queuedDb"`
	WebhookSent        bool `json:"webhookSent"`
	NotificationLogged bool `json:"notificationLogged"`
	NotificationSent   bool `json:"notificationSent"`
}

type Result struct {
	ApplicationID string
	Gatekeeper    access.Decision
	Triage        triage.Result
	Application   Flags
}

type Service struct {
	repo       ports.ApplicationRepository
	uow        ports.UnitOfWork
	journal    ports.Journal
	audit      ports.AuditLog
	gatekeeper ports.Gatekeeper
	notifier   ports.Notifier
	observer   ports.FailureObserver
	now        func() time.Time
	newID      func() string
}

func NewService(
	repo ports.ApplicationRepository,
	uow ports.UnitOfWork,
	journal ports.Journal,
	audit ports.AuditLog,
	gatekeeper ports.Gatekeeper,
	notifier ports.Notifier,
	observer ports.FailureObserver,
) *Service {
	return &Service{
		repo:       repo,
		uow:        uow,
		journal:    journal,
		audit:      audit,
		gatekeeper: gatekeeper,
		notifier:   notifier,
		observer:   observer,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

type applicationEntry struct {
	ID            string                    `json:"id"`
	ReceivedAt    string                    `json:"receivedAt"`
	WalletAddress string                    `json:"walletAddress"`
	UserAgent     string                    `json:"userAgent"`
	ForwardedFor  string                    `json:"forwardedFor"`
	Answers       triage.SanitizedAnswers   `json:"answers"`
	Gatekeeper    triage.GatekeeperSnapshot `json:"gatekeeper"`
}

type notification struct {
	ApplicationID string                    `json:"applicationId"`
	ReceivedAt    string                    `json:"receivedAt,omitempty"`
	WalletAddress string                    `json:"walletAddress"`
	Triage        triage.Result             `json:"triage"`
	Gatekeeper    triage.GatekeeperSnapshot `json:"gatekeeper"`
}

// Submit runs the gatekeeper for the wallet, then records the application
// everywhere it is expected. Only a gatekeeper failure fails the call.
func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("context is required")
	}
	// The gatekeeper carries its own timeout; a dropped client must not
	// abort the check or the writes that follow it.
	ctx = context.WithoutCancel(ctx)

	wallet := strings.TrimSpace(req.WalletAddress)
	if wallet == "" {
		return Result{}, errs.WithCode("wallet_required", access.ErrWalletRequired)
	}

	logCtx := logging.WithAttrs(
		logging.WithComponent(ctx, "usecase.intake"),
		slog.String("wallet", wallet),
	)

	answers := req.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	scored := triage.Score(answers)
	sanitized := triage.Sanitize(answers)

	decision, err := s.gatekeeper.Check(ctx, wallet)
	if err != nil {
		message := errs.MessageOr(err, "gatekeeper_error")
		logging.Error(logCtx, "gatekeeper check failed", slog.Any("err", errs.Loggable(err)))
		s.record(logCtx, "apply_submit", "error", map[string]any{
			"walletAddress": wallet,
			"meta":          map[string]any{"message": message},
		})
		return Result{}, errs.WithCode("gatekeeper_error", err)
	}

	id := s.newID()
	receivedAt := s.now().UTC().Format(time.RFC3339Nano)
	snapshot := triage.GatekeeperSnapshot{Allowed: decision.Allowed, Mode: decision.ModeLabel()}
	logCtx = logging.WithAttrs(logCtx, slog.String("application_id", id))

	out := Result{
		ApplicationID: id,
		Gatekeeper:    decision,
		Triage:        scored,
		Application:   Flags{Received: true},
	}

	out.Application.Persisted = s.appendJournal(logCtx, ports.StreamApplications, ChannelApplicationsLog, applicationEntry{
		ID:            id,
		ReceivedAt:    receivedAt,
		WalletAddress: wallet,
		UserAgent:     req.UserAgent,
		ForwardedFor:  req.ForwardedFor,
		Answers:       sanitized,
		Gatekeeper:    snapshot,
	})

	out.Application.PersistedDB = s.persistApplication(logCtx, ports.ApplicationRecord{
		ID:                id,
		ReceivedAt:        receivedAt,
		WalletAddress:     wallet,
		UserAgent:         req.UserAgent,
		ForwardedFor:      req.ForwardedFor,
		GatekeeperAllowed: snapshot.Allowed,
		GatekeeperMode:    snapshot.Mode,
		Status:            string(triage.StatusPending),
	}, sanitized)

	out.Application.Queued = s.appendJournal(logCtx, ports.StreamTriageQueue, ChannelTriageLog, triage.QueueEntry{
		ApplicationID: id,
		ReceivedAt:    receivedAt,
		WalletAddress: wallet,
		Triage:        scored,
		Status:        string(triage.StatusPending),
		Gatekeeper:    snapshot,
	})

	out.Application.QueuedDB = s.persistTriage(logCtx, ports.TriageRecord{
		ApplicationID:     id,
		ReceivedAt:        receivedAt,
		WalletAddress:     wallet,
		Score:             scored.Score,
		Tier:              string(scored.Tier),
		Tags:              scored.Tags,
		Status:            string(triage.StatusPending),
		GatekeeperAllowed: snapshot.Allowed,
		GatekeeperMode:    snapshot.Mode,
	}, receivedAt)

	out.Application.WebhookSent = s.notify(logCtx, ports.ChannelTriage, ChannelTriageWebhook, notification{
		ApplicationID: id,
		WalletAddress: wallet,
		Triage:        scored,
		Gatekeeper:    snapshot,
	})

	out.Application.NotificationLogged = s.appendJournal(logCtx, ports.StreamInternalNotifications, ChannelNotificationLog, notification{
		ApplicationID: id,
		ReceivedAt:    receivedAt,
		WalletAddress: wallet,
		Triage:        scored,
		Gatekeeper:    snapshot,
	})

	out.Application.NotificationSent = s.notify(logCtx, ports.ChannelInternal, ChannelInternalWebhook, notification{
		ApplicationID: id,
		WalletAddress: wallet,
		Triage:        scored,
		Gatekeeper:    snapshot,
	})

	s.record(logCtx, "apply_submit", "ok", map[string]any{
		"walletAddress": wallet,
		"applicationId": id,
		"gatekeeper":    snapshot,
		"triage":        scored,
		"sideEffects":   out.Application,
	})
	logging.Info(logCtx, "application received",
		slog.Int("score", scored.Score),
		slog.String("tier", string(scored.Tier)),
		slog.Bool("persisted_db", out.Application.PersistedDB),
	)
	return out, nil
}

func (s *Service) persistApplication(ctx context.Context, record ports.ApplicationRecord, answers triage.SanitizedAnswers) bool {
	raw, err := json.Marshal(answers)
	if err != nil {
		s.failed(ctx, ChannelApplicationsDB, err)
		return false
	}
	record.AnswersJSON = string(raw)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpsertApplication(txCtx, record)
	}); err != nil {
		s.failed(ctx, ChannelApplicationsDB, err)
		return false
	}
	return true
}

func (s *Service) persistTriage(ctx context.Context, record ports.TriageRecord, receivedAt string) bool {
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpsertTriage(txCtx, record); err != nil {
			return err
		}
		return s.repo.AppendStatusEvent(txCtx, ports.TriageStatusEvent{
			ApplicationID: record.ApplicationID,
			Status:        record.Status,
			Reviewer:      auditService,
			UpdatedAt:     receivedAt,
		})
	}); err != nil {
		s.failed(ctx, ChannelTriageDB, err)
		return false
	}
	return true
}

func (s *Service) appendJournal(ctx context.Context, stream string, channel string, entry any) bool {
	if err := s.journal.Append(ctx, stream, entry); err != nil {
		s.failed(ctx, channel, err)
		return false
	}
	return true
}

func (s *Service) notify(ctx context.Context, notifyChannel string, channel string, payload any) bool {
	if s.notifier == nil || !s.notifier.Configured(notifyChannel) {
		return false
	}
	if s.notifier.Notify(ctx, notifyChannel, payload) {
		return true
	}
	if s.observer != nil {
		s.observer.SideEffectFailed(channel)
	}
	return false
}

func (s *Service) failed(ctx context.Context, channel string, err error) {
	logging.Warn(ctx, "side effect failed", slog.String("channel", channel), slog.Any("err", errs.Loggable(err)))
	if s.observer != nil {
		s.observer.SideEffectFailed(channel)
	}
}

func (s *Service) record(ctx context.Context, event string, status string, fields map[string]any) {
	if err := s.audit.Record(ctx, auditService, event, status, fields); err != nil {
		logging.Warn(ctx, "audit write failed", slog.String("event", event), slog.Any("err", errs.Loggable(err)))
	}
}
