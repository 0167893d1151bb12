package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"obiwork/internal/bootstrap/logging"
	domainbilling "obiwork/internal/domain/billing"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

type PaymentInput struct {
	WalletAddress string
	TierID        string
	Amount        string
	Card          ports.CardData
	CustomerName  string
	OrderID       string
	Email         string
}

// ProcessorPayment mirrors the processor's Payment object closely enough
// for clients that read Payment.Status and Payment.PaymentId.
type ProcessorPayment struct {
	PaymentID     string `json:"PaymentId"`
	Status        int    `json:"Status"`
	ReturnCode    string `json:"ReturnCode,omitempty"`
	ReturnMessage string `json:"ReturnMessage,omitempty"`
	Provider      string `json:"Provider"`
}

type PaymentResult struct {
	Payment         ProcessorPayment
	License         *ports.LicenseRecord
	Granted         bool
	AlreadyLicensed bool
	WalletAddress   string
}

// CreatePayment validates the purchase against the tier table, returns the
// existing license when the wallet already holds one for the tier, and
// otherwise charges the card. An authorized charge writes the payment and
// its active license in one transaction.
//
// A declined charge is not an error: the payment row is kept so a later
// processor callback can still reconcile it, and Granted is false.
//
// Caller cancellation is dropped once the request is accepted; a charge the
// processor has taken must always reach the database and the audit log.
func (s *Service) CreatePayment(ctx context.Context, input PaymentInput) (PaymentResult, error) {
	if ctx == nil {
		return PaymentResult{}, errors.New("context is required")
	}
	ctx = context.WithoutCancel(ctx)
	logCtx := logging.WithComponent(ctx, "usecase.billing")

	wallet := strings.TrimSpace(input.WalletAddress)
	rawTier := strings.TrimSpace(input.TierID)
	rawAmount := strings.TrimSpace(input.Amount)
	if wallet == "" || rawTier == "" || rawAmount == "" || strings.TrimSpace(input.Card.Number) == "" {
		s.record(logCtx, auditPayments, "payment_rejected", "error", map[string]any{
			"walletAddress": wallet,
			"tierId":        rawTier,
			"meta":          map[string]any{"reason": "missing_payment_data"},
		})
		return PaymentResult{}, errs.WithCode("missing_payment_data", domainbilling.ErrMissingPaymentData)
	}
	logCtx = logging.WithAttrs(logCtx, slog.String("wallet", wallet), slog.String("tier", rawTier))

	tier, err := domainbilling.LookupTier(rawTier)
	if err != nil {
		s.record(logCtx, auditPayments, "payment_rejected", "error", map[string]any{
			"walletAddress": wallet,
			"tierId":        rawTier,
			"meta":          map[string]any{"reason": "invalid_tier"},
		})
		return PaymentResult{}, errs.WithCode("invalid_tier", err)
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err == nil {
		err = tier.CheckAmount(amount)
	} else {
		err = fmt.Errorf("%w: %q is not a number", domainbilling.ErrAmountMismatch, rawAmount)
	}
	if err != nil {
		s.record(logCtx, auditPayments, "payment_rejected", "error", map[string]any{
			"walletAddress": wallet,
			"tierId":        string(tier.ID),
			"amount":        rawAmount,
			"meta":          map[string]any{"reason": "amount_mismatch"},
		})
		return PaymentResult{}, errs.WithCode("amount_mismatch", err)
	}

	existing, found, err := s.repo.FindActiveLicense(ctx, wallet, string(tier.ID))
	if err != nil {
		s.failPayment(logCtx, wallet, tier, err)
		return PaymentResult{}, errs.WithCode("payment_error", errs.Wrap(err, "lookup active license"))
	}
	if found {
		s.record(logCtx, auditPayments, "payment_already_licensed", "ok", map[string]any{
			"walletAddress": wallet,
			"tierId":        string(tier.ID),
			"licenseId":     existing.ID,
		})
		logging.Info(logCtx, "active license reused", slog.String("license_id", existing.ID))
		return s.alreadyLicensed(logCtx, wallet, existing), nil
	}

	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		orderID = "OBI-" + s.newID()
	}

	charge, err := s.processor.Charge(ctx, ports.ChargeRequest{
		OrderID:      orderID,
		AmountCents:  tier.MinorUnits(),
		Card:         input.Card,
		Email:        strings.TrimSpace(input.Email),
		CustomerName: strings.TrimSpace(input.CustomerName),
	})
	if err != nil {
		s.failPayment(logCtx, wallet, tier, err)
		return PaymentResult{}, errs.WithCode("processor_error", err)
	}
	if !charge.Status.Known() {
		logging.Warn(logCtx, "processor returned unknown payment status", slog.String("status", charge.Status.Raw))
	}

	payment := ports.PaymentRecord{
		ID:                s.newID(),
		CreatedAt:         s.nowString(),
		WalletAddress:     wallet,
		TierID:            string(tier.ID),
		Amount:            tier.Price,
		Status:            charge.Status.Stored(),
		Provider:          charge.Provider,
		ProviderPaymentID: charge.ProviderPaymentID,
		OrderID:           orderID,
		Email:             strings.TrimSpace(input.Email),
	}
	out := PaymentResult{
		Payment: ProcessorPayment{
			PaymentID:     charge.ProviderPaymentID,
			Status:        charge.Status.Code(),
			ReturnCode:    charge.ReturnCode,
			ReturnMessage: charge.ReturnMessage,
			Provider:      charge.Provider,
		},
		WalletAddress: wallet,
	}

	if !charge.Status.GrantsAccess() {
		if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
			return s.repo.CreatePayment(txCtx, payment)
		}); err != nil {
			logging.Warn(logCtx, "declined payment not recorded", slog.Any("err", errs.Loggable(err)))
		}
		s.record(logCtx, auditPayments, "payment_declined", "error", map[string]any{
			"walletAddress": wallet,
			"tierId":        string(tier.ID),
			"paymentId":     charge.ProviderPaymentID,
			"paymentStatus": payment.Status,
			"meta":          map[string]any{"returnCode": charge.ReturnCode, "message": charge.ReturnMessage},
		})
		return out, nil
	}

	license := ports.LicenseRecord{
		ID:            s.newID(),
		WalletAddress: wallet,
		TierID:        string(tier.ID),
		Status:        string(domainbilling.LicenseActive),
		IssuedAt:      payment.CreatedAt,
		PaymentID:     payment.ID,
	}
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreatePayment(txCtx, payment); err != nil {
			return err
		}
		inserted, err := s.repo.CreateLicense(txCtx, license)
		if err != nil {
			return err
		}
		if inserted {
			return nil
		}
		// A concurrent purchase activated this tier first.
		current, found, err := s.repo.FindActiveLicense(txCtx, wallet, string(tier.ID))
		if err != nil {
			return err
		}
		if !found {
			return errors.New("license insert skipped without an active license")
		}
		license = current
		out.AlreadyLicensed = true
		return nil
	}); err != nil {
		s.failPayment(logCtx, wallet, tier, err)
		return PaymentResult{}, errs.WithCode("payment_error", errs.Wrap(err, "persist payment and license"))
	}

	out.Granted = true
	out.License = &license

	event := "payment_authorized"
	if charge.Provider == domainbilling.ProviderCieloMock {
		event = "payment_mock_success"
	}
	s.record(logCtx, auditPayments, event, "ok", map[string]any{
		"walletAddress":   wallet,
		"tierId":          string(tier.ID),
		"paymentId":       charge.ProviderPaymentID,
		"paymentStatus":   payment.Status,
		"licenseId":       license.ID,
		"alreadyLicensed": out.AlreadyLicensed,
	})
	logging.Info(logCtx, "payment authorized",
		slog.String("provider", charge.Provider),
		slog.String("payment_id", charge.ProviderPaymentID),
		slog.String("license_id", license.ID),
	)
	return out, nil
}

// alreadyLicensed reports the processor id of the payment that bought the
// license, falling back to the local payment id when that row is missing.
func (s *Service) alreadyLicensed(ctx context.Context, wallet string, license ports.LicenseRecord) PaymentResult {
	payment := ProcessorPayment{
		PaymentID:     license.PaymentID,
		Status:        domainbilling.StatusFromCode(1).Code(),
		ReturnMessage: "License already active",
	}
	record, err := s.repo.GetPayment(ctx, license.PaymentID)
	if err == nil {
		payment.PaymentID = record.ProviderPaymentID
		payment.Provider = record.Provider
	} else {
		logging.Warn(ctx, "license payment not found", slog.String("payment_id", license.PaymentID), slog.Any("err", errs.Loggable(err)))
	}
	return PaymentResult{
		Payment:         payment,
		License:         &license,
		Granted:         true,
		AlreadyLicensed: true,
		WalletAddress:   wallet,
	}
}

func (s *Service) failPayment(ctx context.Context, wallet string, tier domainbilling.Tier, err error) {
	logging.Error(ctx, "payment failed", slog.Any("err", errs.Loggable(err)))
	s.record(ctx, auditPayments, "payment_error", "error", map[string]any{
		"walletAddress": wallet,
		"tierId":        string(tier.ID),
		"meta":          map[string]any{"message": errs.MessageOr(err, "payment_error")},
	})
}
