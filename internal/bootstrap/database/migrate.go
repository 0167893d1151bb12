package database

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/infrastructure/persistence/schema"
	"obiwork/internal/infrastructure/persistence/sqlite/model"
)

// ActiveLicenseIndex enforces at most one active license per (wallet, tier).
const ActiveLicenseIndex = "ux_licenses_active_wallet_tier"

// Migrate creates missing tables and columns, then applies the indexes that
// AutoMigrate cannot express. It is safe to run on every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if db == nil {
		return errors.New("database is required")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.database")
	logging.Info(logCtx, "start schema migration")

	tables := append(model.All(), &schema.Meta{})
	if err := db.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	// Legacy files may already hold two active licenses for one tier; the
	// index is skipped for them and reconciliation keeps working without it.
	if err := db.WithContext(ctx).Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS " + ActiveLicenseIndex +
			" ON licenses(wallet_address, tier_id) WHERE status = 'active'",
	).Error; err != nil {
		logging.Warn(logCtx, "active license index not created", slog.Any("err", errs.Loggable(err)))
	}

	meta := schema.Meta{Key: schema.VersionKey(), Value: schema.Version}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error; err != nil {
		return errs.Wrap(err, "record schema version")
	}

	logging.Info(logCtx, "schema migration completed", slog.String("schema_version", schema.Version))
	return nil
}

// AppliedVersion returns the recorded schema version, or "" if none.
func AppliedVersion(ctx context.Context, db *gorm.DB) (string, error) {
	var meta schema.Meta
	err := db.WithContext(ctx).Where("key = ?", schema.VersionKey()).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrap(err, "query schema version")
	}
	return meta.Value, nil
}
