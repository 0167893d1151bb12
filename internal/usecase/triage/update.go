package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"obiwork/internal/bootstrap/logging"
	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

type UpdateInput struct {
	ApplicationID string
	Status        string
	Reviewer      string
}

// UpdateStatus records a reviewer decision. The triage row, the application
// row and the status event commit together; the journal line and the audit
// record follow the commit. A failed journal append is reported as a
// status_log_error even though the rows stay committed.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateInput) (domaintriage.StatusEntry, error) {
	if ctx == nil {
		return domaintriage.StatusEntry{}, errors.New("context is required")
	}
	ctx = context.WithoutCancel(ctx)

	applicationID := strings.TrimSpace(input.ApplicationID)
	if applicationID == "" {
		return domaintriage.StatusEntry{}, errs.WithCode("invalid_payload", domaintriage.ErrApplicationIDRequired)
	}
	status, err := domaintriage.ParseStatus(input.Status)
	if err != nil {
		return domaintriage.StatusEntry{}, errs.WithCode("invalid_payload", err)
	}
	reviewer := strings.TrimSpace(input.Reviewer)

	logCtx := logging.WithAttrs(
		logging.WithComponent(ctx, "usecase.triage"),
		slog.String("application_id", applicationID),
	)

	entry := domaintriage.StatusEntry{
		ApplicationID: applicationID,
		Status:        string(status),
		Reviewer:      reviewer,
		UpdatedAt:     s.nowString(),
	}
	auditFields := map[string]any{
		"applicationId": applicationID,
		"updateStatus":  entry.Status,
		"reviewer":      reviewer,
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetStatus(txCtx, applicationID, entry.Status); err != nil {
			return err
		}
		return s.repo.AppendStatusEvent(txCtx, ports.TriageStatusEvent{
			ApplicationID: entry.ApplicationID,
			Status:        entry.Status,
			Reviewer:      entry.Reviewer,
			UpdatedAt:     entry.UpdatedAt,
		})
	}); err != nil {
		auditFields["meta"] = map[string]any{"message": errs.MessageOr(err, "triage_error")}
		s.record(logCtx, "triage_update", "error", auditFields)
		return domaintriage.StatusEntry{}, fmt.Errorf("update triage status: %w", err)
	}

	if err := s.journal.Append(ctx, ports.StreamTriageStatus, entry); err != nil {
		logging.Error(logCtx, "triage status journal append failed", slog.Any("err", errs.Loggable(err)))
		if s.observer != nil {
			s.observer.SideEffectFailed(ChannelStatusLog)
		}
		auditFields["meta"] = map[string]any{"message": errs.MessageOr(err, "status_log_error")}
		s.record(logCtx, "triage_update", "error", auditFields)
		return domaintriage.StatusEntry{}, errs.WithCode("status_log_error", errs.Wrap(err, "append triage status"))
	}

	s.record(logCtx, "triage_update", "ok", auditFields)
	logging.Info(logCtx, "triage status updated", slog.String("status", entry.Status), slog.String("reviewer", reviewer))
	return entry, nil
}
