package billing

import "errors"

var (
	ErrMissingPaymentData = errors.New("missing payment data")
	ErrInvalidTier        = errors.New("invalid tier")
	ErrAmountMismatch     = errors.New("amount does not match tier price")
)
