package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"obiwork/internal/domain/billing"
	"obiwork/internal/errs"
	"obiwork/internal/infrastructure/persistence/sqlite/model"
	"obiwork/internal/ports"
)

type BillingRepository struct {
	db *gorm.DB
}

var _ ports.BillingRepository = (*BillingRepository)(nil)

func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

func (r *BillingRepository) CreatePayment(ctx context.Context, payment ports.PaymentRecord) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if strings.TrimSpace(payment.ID) == "" {
		return errors.New("payment id is required")
	}

	row := model.Payment{
		ID:                payment.ID,
		CreatedAt:         payment.CreatedAt,
		WalletAddress:     payment.WalletAddress,
		TierID:            payment.TierID,
		Amount:            payment.Amount.InexactFloat64(),
		Status:            payment.Status,
		Provider:          payment.Provider,
		ProviderPaymentID: payment.ProviderPaymentID,
		OrderID:           payment.OrderID,
		Email:             payment.Email,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert payment")
	}
	return nil
}

func (r *BillingRepository) GetPayment(ctx context.Context, paymentID string) (ports.PaymentRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.PaymentRecord{}, err
	}

	var row model.Payment
	if err := db.Where("id = ?", paymentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PaymentRecord{}, ports.ErrPaymentNotFound
		}
		return ports.PaymentRecord{}, errs.Wrap(err, "query payment")
	}
	return mapPayment(row), nil
}

func (r *BillingRepository) GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (ports.PaymentRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.PaymentRecord{}, err
	}

	var row model.Payment
	if err := db.
		Where("provider_payment_id = ?", providerPaymentID).
		Order("created_at desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PaymentRecord{}, ports.ErrPaymentNotFound
		}
		return ports.PaymentRecord{}, errs.Wrap(err, "query payment by provider id")
	}
	return mapPayment(row), nil
}

func (r *BillingRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if err := db.Model(&model.Payment{}).Where("id = ?", paymentID).Update("status", status).Error; err != nil {
		return errs.Wrap(err, "update payment status")
	}
	return nil
}

func (r *BillingRepository) CreateLicense(ctx context.Context, license ports.LicenseRecord) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(license.ID) == "" {
		return false, errors.New("license id is required")
	}

	row := model.License{
		ID:            license.ID,
		WalletAddress: license.WalletAddress,
		TierID:        license.TierID,
		Status:        license.Status,
		IssuedAt:      license.IssuedAt,
		PaymentID:     license.PaymentID,
	}
	// No conflict target: the partial unique index on active licenses is
	// the constraint expected to fire.
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert license")
	}
	return result.RowsAffected > 0, nil
}

func (r *BillingRepository) FindActiveLicense(ctx context.Context, walletAddress string, tierID string) (ports.LicenseRecord, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.LicenseRecord{}, false, err
	}
	return takeLicense(db.
		Where("wallet_address = ? AND tier_id = ? AND status = ?", walletAddress, tierID, string(billing.LicenseActive)).
		Order("issued_at desc"))
}

func (r *BillingRepository) LatestLicense(ctx context.Context, walletAddress string) (ports.LicenseRecord, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.LicenseRecord{}, false, err
	}
	return takeLicense(db.Where("wallet_address = ?", walletAddress).Order("issued_at desc"))
}

func (r *BillingRepository) GetLicenseByPayment(ctx context.Context, paymentID string) (ports.LicenseRecord, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.LicenseRecord{}, false, err
	}
	return takeLicense(db.Where("payment_id = ?", paymentID).Order("issued_at desc"))
}

func (r *BillingRepository) SetLicenseStatus(ctx context.Context, licenseID string, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if err := db.Model(&model.License{}).Where("id = ?", licenseID).Update("status", status).Error; err != nil {
		return errs.Wrap(err, "update license status")
	}
	return nil
}

func (r *BillingRepository) RevokeLicensesByPayment(ctx context.Context, paymentID string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	result := db.Model(&model.License{}).
		Where("payment_id = ?", paymentID).
		Update("status", string(billing.LicenseRevoked))
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "revoke licenses by payment")
	}
	return result.RowsAffected, nil
}

func takeLicense(query *gorm.DB) (ports.LicenseRecord, bool, error) {
	var row model.License
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.LicenseRecord{}, false, nil
		}
		return ports.LicenseRecord{}, false, errs.Wrap(err, "query license")
	}
	return ports.LicenseRecord{
		ID:            row.ID,
		WalletAddress: row.WalletAddress,
		TierID:        row.TierID,
		Status:        row.Status,
		IssuedAt:      row.IssuedAt,
		PaymentID:     row.PaymentID,
	}, true, nil
}

func mapPayment(row model.Payment) ports.PaymentRecord {
	return ports.PaymentRecord{
		ID:                row.ID,
		CreatedAt:         row.CreatedAt,
		WalletAddress:     row.WalletAddress,
		TierID:            row.TierID,
		Amount:            decimal.NewFromFloat(row.Amount),
		Status:            row.Status,
		Provider:          row.Provider,
		ProviderPaymentID: row.ProviderPaymentID,
		OrderID:           row.OrderID,
		Email:             row.Email,
	}
}
