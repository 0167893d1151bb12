package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRecord struct {
	ID                string
	CreatedAt         string
	WalletAddress     string
	TierID            string
	Amount            decimal.Decimal
	Status            string
	Provider          string
	ProviderPaymentID string
	OrderID           string
	Email             string
}

type LicenseRecord struct {
	ID            string
	WalletAddress string
	TierID        string
	Status        string
	IssuedAt      string
	PaymentID     string
}

type BillingRepository interface {
	CreatePayment(ctx context.Context, payment PaymentRecord) error
	GetPayment(ctx context.Context, paymentID string) (PaymentRecord, error)
	GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (PaymentRecord, error)
	UpdatePaymentStatus(ctx context.Context, paymentID string, status string) error

	// CreateLicense reports false when an active license for the same
	// (wallet, tier) already exists and nothing was written.
	CreateLicense(ctx context.Context, license LicenseRecord) (bool, error)
	FindActiveLicense(ctx context.Context, walletAddress string, tierID string) (LicenseRecord, bool, error)
	LatestLicense(ctx context.Context, walletAddress string) (LicenseRecord, bool, error)
	GetLicenseByPayment(ctx context.Context, paymentID string) (LicenseRecord, bool, error)
	SetLicenseStatus(ctx context.Context, licenseID string, status string) error
	RevokeLicensesByPayment(ctx context.Context, paymentID string) (int64, error)
}
