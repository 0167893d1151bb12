package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"obiwork/internal/bootstrap/logging"
	domainaccess "obiwork/internal/domain/access"
	domainbilling "obiwork/internal/domain/billing"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const auditService = "access"

// LicenseLookup is the slice of the billing store the access check reads.
type LicenseLookup interface {
	LatestLicense(ctx context.Context, walletAddress string) (ports.LicenseRecord, bool, error)
}

type Result struct {
	// Gatekeeper is the collaborator's decision with Allowed widened by an
	// active license.
	Gatekeeper        domainaccess.Decision
	GatekeeperAllowed bool
	Licensed          bool
}

type Service struct {
	gatekeeper ports.Gatekeeper
	licenses   LicenseLookup
	audit      ports.AuditLog
}

func NewService(gatekeeper ports.Gatekeeper, licenses LicenseLookup, audit ports.AuditLog) *Service {
	return &Service{gatekeeper: gatekeeper, licenses: licenses, audit: audit}
}

// Check grants access when the gatekeeper allows the wallet or its most
// recent license is active. A failed license lookup counts as no license.
func (s *Service) Check(ctx context.Context, walletAddress string) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("context is required")
	}
	ctx = context.WithoutCancel(ctx)
	logCtx := logging.WithComponent(ctx, "usecase.access")

	wallet := strings.TrimSpace(walletAddress)
	if wallet == "" {
		s.record(logCtx, "error", map[string]any{"error": "wallet_required"})
		return Result{}, errs.WithCode("wallet_required", domainaccess.ErrWalletRequired)
	}
	logCtx = logging.WithAttrs(logCtx, slog.String("wallet", wallet))

	decision, err := s.gatekeeper.Check(ctx, wallet)
	if err != nil {
		logging.Error(logCtx, "gatekeeper check failed", slog.Any("err", errs.Loggable(err)))
		s.record(logCtx, "error", map[string]any{
			"walletAddress": wallet,
			"meta":          map[string]any{"message": errs.MessageOr(err, "gatekeeper_error")},
		})
		return Result{}, errs.WithCode("gatekeeper_error", err)
	}

	licensed := s.hasActiveLicense(logCtx, wallet)
	out := Result{
		Gatekeeper:        decision,
		GatekeeperAllowed: decision.Allowed,
		Licensed:          licensed,
	}
	out.Gatekeeper.Allowed = decision.Allowed || licensed

	s.record(logCtx, "ok", map[string]any{
		"walletAddress": wallet,
		"gatekeeper": map[string]any{
			"allowed": decision.Allowed,
			"mode":    decision.ModeLabel(),
		},
		"license": licensed,
	})
	return out, nil
}

func (s *Service) hasActiveLicense(ctx context.Context, wallet string) bool {
	if s.licenses == nil {
		return false
	}
	license, found, err := s.licenses.LatestLicense(ctx, wallet)
	if err != nil {
		logging.Warn(ctx, "license lookup failed", slog.Any("err", errs.Loggable(err)))
		return false
	}
	return found && license.Status == string(domainbilling.LicenseActive)
}

func (s *Service) record(ctx context.Context, status string, fields map[string]any) {
	if err := s.audit.Record(ctx, auditService, "access_check", status, fields); err != nil {
		logging.Warn(ctx, "audit write failed", slog.Any("err", errs.Loggable(err)))
	}
}
