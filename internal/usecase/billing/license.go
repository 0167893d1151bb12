package billing

import (
	"context"
	"errors"
	"strings"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/domain/access"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

// LicenseStatus returns the most recently issued license for the wallet,
// whatever its status. found is false when the wallet never bought one.
func (s *Service) LicenseStatus(ctx context.Context, walletAddress string) (ports.LicenseRecord, bool, error) {
	if ctx == nil {
		return ports.LicenseRecord{}, false, errors.New("context is required")
	}
	wallet := strings.TrimSpace(walletAddress)
	if wallet == "" {
		return ports.LicenseRecord{}, false, errs.WithCode("wallet_required", access.ErrWalletRequired)
	}
	logCtx := logging.WithComponent(ctx, "usecase.billing")

	license, found, err := s.repo.LatestLicense(ctx, wallet)
	if err != nil {
		s.record(logCtx, auditLicenses, "license_status", "error", map[string]any{
			"walletAddress": wallet,
			"meta":          map[string]any{"message": errs.MessageOr(err, "license_status_error")},
		})
		return ports.LicenseRecord{}, false, errs.Wrap(err, "lookup latest license")
	}
	s.record(logCtx, auditLicenses, "license_status", "ok", map[string]any{"walletAddress": wallet})
	return license, found, nil
}
