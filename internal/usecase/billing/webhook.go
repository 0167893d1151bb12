package billing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"obiwork/internal/bootstrap/logging"
	domainbilling "obiwork/internal/domain/billing"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

// Reconciliation outcomes.
const (
	OutcomeActivated  = "activated"
	OutcomeCreated    = "created"
	OutcomeRevoked    = "revoked"
	OutcomeSuperseded = "superseded"
	OutcomeUnchanged  = "unchanged"
)

// Ignore reasons.
const (
	ReasonInvalidPayload  = "invalid_payload"
	ReasonPaymentNotFound = "payment_not_found"
)

type StatusChange struct {
	ProviderPaymentID string
	Status            string
}

type WebhookResult struct {
	Ignored   bool
	Reason    string
	Status    domainbilling.ProcessorStatus
	Outcome   string
	LicenseID string
}

// HandleStatusChange applies one processor status callback. The payment
// status is overwritten unconditionally, then the license is brought in line
// with it, all in one transaction. Unknown payments and malformed callbacks
// are acknowledged and ignored. Replaying the same callback is a no-op.
func (s *Service) HandleStatusChange(ctx context.Context, change StatusChange) (WebhookResult, error) {
	if ctx == nil {
		return WebhookResult{}, errors.New("context is required")
	}
	ctx = context.WithoutCancel(ctx)
	logCtx := logging.WithComponent(ctx, "usecase.billing.webhook")

	providerID := strings.TrimSpace(change.ProviderPaymentID)
	rawStatus := strings.TrimSpace(change.Status)
	if providerID == "" || rawStatus == "" {
		s.record(logCtx, auditWebhook, "webhook_received", "ignored", map[string]any{
			"meta": map[string]any{"reason": ReasonInvalidPayload, "PaymentId": providerID},
		})
		return WebhookResult{Ignored: true, Reason: ReasonInvalidPayload}, nil
	}
	logCtx = logging.WithAttrs(logCtx, slog.String("provider_payment_id", providerID))

	status := domainbilling.ParseProcessorStatus(rawStatus)
	if !status.Known() {
		logging.Warn(logCtx, "unknown processor status stored verbatim", slog.String("status", status.Raw))
	}

	out := WebhookResult{Status: status, Outcome: OutcomeUnchanged}
	var paymentID string
	var revoked int64

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentByProviderID(txCtx, providerID)
		if err != nil {
			return err
		}
		paymentID = payment.ID

		if err := s.repo.UpdatePaymentStatus(txCtx, payment.ID, status.Stored()); err != nil {
			return err
		}

		switch {
		case status.GrantsAccess():
			return s.activate(txCtx, payment, &out)
		case status.RevokesAccess():
			revoked, err = s.repo.RevokeLicensesByPayment(txCtx, payment.ID)
			if err != nil {
				return err
			}
			if revoked > 0 {
				out.Outcome = OutcomeRevoked
			}
		}
		return nil
	})
	if errors.Is(err, ports.ErrPaymentNotFound) {
		s.record(logCtx, auditWebhook, "webhook_received", "ignored", map[string]any{
			"meta": map[string]any{"reason": ReasonPaymentNotFound, "PaymentId": providerID},
		})
		return WebhookResult{Ignored: true, Reason: ReasonPaymentNotFound, Status: status}, nil
	}
	if err != nil {
		logging.Error(logCtx, "webhook reconciliation failed", slog.Any("err", errs.Loggable(err)))
		s.record(logCtx, auditWebhook, "webhook_error", "error", map[string]any{
			"meta": map[string]any{"message": errs.MessageOr(err, "Internal Server Error")},
		})
		return WebhookResult{}, errs.Wrap(err, "reconcile payment status")
	}

	switch {
	case status.RevokesAccess():
		// Revocations are always audited, including replays that touch no rows.
		s.record(logCtx, auditWebhook, "license_reconciled", OutcomeRevoked, map[string]any{
			"paymentId":    paymentID,
			"revokedCount": revoked,
		})
	case out.Outcome != OutcomeUnchanged:
		fields := map[string]any{"paymentId": paymentID}
		if out.LicenseID != "" {
			fields["licenseId"] = out.LicenseID
		}
		s.record(logCtx, auditWebhook, "license_reconciled", out.Outcome, fields)
	}
	s.record(logCtx, auditWebhook, "webhook_processed", "ok", map[string]any{
		"PaymentId": providerID,
		"newStatus": status.Stored(),
	})
	logging.Info(logCtx, "payment status reconciled",
		slog.String("status", status.Stored()),
		slog.String("outcome", out.Outcome),
	)
	return out, nil
}

// activate makes the payment's license active, creating it when the
// synchronous path never wrote one. Another license already active for the
// same wallet and tier wins; this payment's license is left alone.
func (s *Service) activate(ctx context.Context, payment ports.PaymentRecord, out *WebhookResult) error {
	license, found, err := s.repo.GetLicenseByPayment(ctx, payment.ID)
	if err != nil {
		return err
	}
	if found && license.Status == string(domainbilling.LicenseActive) {
		out.LicenseID = license.ID
		return nil
	}

	current, active, err := s.repo.FindActiveLicense(ctx, payment.WalletAddress, payment.TierID)
	if err != nil {
		return err
	}
	if active {
		out.Outcome = OutcomeSuperseded
		out.LicenseID = current.ID
		return nil
	}

	if found {
		if err := s.repo.SetLicenseStatus(ctx, license.ID, string(domainbilling.LicenseActive)); err != nil {
			return err
		}
		out.Outcome = OutcomeActivated
		out.LicenseID = license.ID
		return nil
	}

	created := ports.LicenseRecord{
		ID:            s.newID(),
		WalletAddress: payment.WalletAddress,
		TierID:        payment.TierID,
		Status:        string(domainbilling.LicenseActive),
		IssuedAt:      s.nowString(),
		PaymentID:     payment.ID,
	}
	inserted, err := s.repo.CreateLicense(ctx, created)
	if err != nil {
		return err
	}
	if !inserted {
		out.Outcome = OutcomeSuperseded
		return nil
	}
	out.Outcome = OutcomeCreated
	out.LicenseID = created.ID
	return nil
}
