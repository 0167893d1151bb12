package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"obiwork/internal/errs"
	"obiwork/internal/infrastructure/persistence/sqlite/model"
	"obiwork/internal/ports"
)

type ApplicationRepository struct {
	db *gorm.DB
}

var _ ports.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) UpsertApplication(ctx context.Context, record ports.ApplicationRecord) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("application id is required")
	}

	row := model.Application{
		ID:                record.ID,
		ReceivedAt:        record.ReceivedAt,
		WalletAddress:     record.WalletAddress,
		UserAgent:         record.UserAgent,
		ForwardedFor:      record.ForwardedFor,
		AnswersJSON:       record.AnswersJSON,
		GatekeeperAllowed: record.GatekeeperAllowed,
		GatekeeperMode:    record.GatekeeperMode,
		Status:            record.Status,
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert application")
	}
	return nil
}

func (r *ApplicationRepository) UpsertTriage(ctx context.Context, record ports.TriageRecord) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row, err := toTriageRow(record)
	if err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert triage")
	}
	return nil
}

func (r *ApplicationRepository) InsertTriageIfMissing(ctx context.Context, record ports.TriageRecord) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}
	row, err := toTriageRow(record)
	if err != nil {
		return false, err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert triage")
	}
	return result.RowsAffected > 0, nil
}

func (r *ApplicationRepository) ListTriage(ctx context.Context) ([]ports.TriageRecord, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Triage
	if err := db.Order("received_at desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query triage")
	}

	items := make([]ports.TriageRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTriage(row))
	}
	return items, nil
}

func (r *ApplicationRepository) SetStatus(ctx context.Context, applicationID string, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Triage{}).
		Where("application_id = ?", applicationID).
		Update("status", status).Error; err != nil {
		return errs.Wrap(err, "update triage status")
	}
	if err := db.Model(&model.Application{}).
		Where("id = ?", applicationID).
		Update("status", status).Error; err != nil {
		return errs.Wrap(err, "update application status")
	}
	return nil
}

func (r *ApplicationRepository) AppendStatusEvent(ctx context.Context, event ports.TriageStatusEvent) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.TriageStatus{
		ApplicationID: event.ApplicationID,
		Status:        event.Status,
		Reviewer:      event.Reviewer,
		UpdatedAt:     event.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert triage status event")
	}
	return nil
}

func (r *ApplicationRepository) HasStatusEvent(ctx context.Context, event ports.TriageStatusEvent) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.TriageStatus{}).
		Where("application_id = ? AND status = ? AND updated_at = ?", event.ApplicationID, event.Status, event.UpdatedAt).
		Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count triage status events")
	}
	return count > 0, nil
}

func (r *ApplicationRepository) LatestStatusEvent(ctx context.Context, applicationID string) (ports.TriageStatusEvent, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.TriageStatusEvent{}, false, err
	}

	var row model.TriageStatus
	if err := db.
		Where("application_id = ?", applicationID).
		Order("updated_at desc").
		Order("id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.TriageStatusEvent{}, false, nil
		}
		return ports.TriageStatusEvent{}, false, errs.Wrap(err, "query latest triage status")
	}
	return ports.TriageStatusEvent{
		ApplicationID: row.ApplicationID,
		Status:        row.Status,
		Reviewer:      row.Reviewer,
		UpdatedAt:     row.UpdatedAt,
	}, true, nil
}

func toTriageRow(record ports.TriageRecord) (model.Triage, error) {
	if strings.TrimSpace(record.ApplicationID) == "" {
		return model.Triage{}, errors.New("application id is required")
	}
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return model.Triage{}, errs.Wrap(err, "encode triage tags")
	}
	return model.Triage{
		ApplicationID:     record.ApplicationID,
		ReceivedAt:        record.ReceivedAt,
		WalletAddress:     record.WalletAddress,
		Score:             record.Score,
		Tier:              record.Tier,
		TagsJSON:          string(tagsJSON),
		Status:            record.Status,
		GatekeeperAllowed: record.GatekeeperAllowed,
		GatekeeperMode:    record.GatekeeperMode,
	}, nil
}

func mapTriage(row model.Triage) ports.TriageRecord {
	var tags []string
	if row.TagsJSON != "" {
		// Rows from older writers may carry malformed tags; keep the rest.
		_ = json.Unmarshal([]byte(row.TagsJSON), &tags)
	}
	if tags == nil {
		tags = []string{}
	}
	return ports.TriageRecord{
		ApplicationID:     row.ApplicationID,
		ReceivedAt:        row.ReceivedAt,
		WalletAddress:     row.WalletAddress,
		Score:             row.Score,
		Tier:              row.Tier,
		Tags:              tags,
		Status:            row.Status,
		GatekeeperAllowed: row.GatekeeperAllowed,
		GatekeeperMode:    row.GatekeeperMode,
	}
}
