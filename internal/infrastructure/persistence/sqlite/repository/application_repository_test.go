package repository

import (
	"context"
	"reflect"
	"testing"

	"obiwork/internal/ports"
)

func TestUpsertApplicationReplacesByID(t *testing.T) {
	repo := NewApplicationRepository(setupDB(t))
	ctx := context.Background()

	record := ports.ApplicationRecord{
		ID:            "app-1",
		ReceivedAt:    "2026-03-01T10:00:00Z",
		WalletAddress: "wallet-1",
		AnswersJSON:   `{"name":"Al***ce"}`,
		Status:        "pending",
	}
	if err := repo.UpsertApplication(ctx, record); err != nil {
		t.Fatalf("UpsertApplication() error = %v", err)
	}
	record.Status = "review"
	if err := repo.UpsertApplication(ctx, record); err != nil {
		t.Fatalf("UpsertApplication(second) error = %v", err)
	}

	var count int64
	repo.db.Table("applications").Count(&count)
	if count != 1 {
		t.Fatalf("applications rows = %d, want 1", count)
	}
}

func TestTriageListOrderAndTags(t *testing.T) {
	repo := NewApplicationRepository(setupDB(t))
	ctx := context.Background()

	older := ports.TriageRecord{ApplicationID: "a", ReceivedAt: "2026-03-01T10:00:00Z", Score: 10, Tier: "standard", Tags: []string{"junior", "referral"}, Status: "pending"}
	newer := ports.TriageRecord{ApplicationID: "b", ReceivedAt: "2026-03-02T10:00:00Z", Score: 56, Tier: "priority", Status: "pending"}
	for _, rec := range []ports.TriageRecord{older, newer} {
		if err := repo.UpsertTriage(ctx, rec); err != nil {
			t.Fatalf("UpsertTriage(%s) error = %v", rec.ApplicationID, err)
		}
	}

	items, err := repo.ListTriage(ctx)
	if err != nil {
		t.Fatalf("ListTriage() error = %v", err)
	}
	if len(items) != 2 || items[0].ApplicationID != "b" || items[1].ApplicationID != "a" {
		t.Fatalf("ListTriage() order = %+v", items)
	}
	if !reflect.DeepEqual(items[1].Tags, []string{"junior", "referral"}) {
		t.Fatalf("tags = %v", items[1].Tags)
	}
	if items[0].Tags == nil || len(items[0].Tags) != 0 {
		t.Fatalf("nil tags should come back empty, got %v", items[0].Tags)
	}
}

func TestInsertTriageIfMissingKeepsExisting(t *testing.T) {
	repo := NewApplicationRepository(setupDB(t))
	ctx := context.Background()

	original := ports.TriageRecord{ApplicationID: "a", Score: 40, Tier: "priority", Status: "approved"}
	if err := repo.UpsertTriage(ctx, original); err != nil {
		t.Fatalf("UpsertTriage() error = %v", err)
	}

	inserted, err := repo.InsertTriageIfMissing(ctx, ports.TriageRecord{ApplicationID: "a", Score: 1, Tier: "standard", Status: "pending"})
	if err != nil {
		t.Fatalf("InsertTriageIfMissing() error = %v", err)
	}
	if inserted {
		t.Fatal("InsertTriageIfMissing() inserted over an existing row")
	}

	items, _ := repo.ListTriage(ctx)
	if items[0].Score != 40 || items[0].Status != "approved" {
		t.Fatalf("existing row changed: %+v", items[0])
	}
}

func TestStatusEventsAndSetStatus(t *testing.T) {
	repo := NewApplicationRepository(setupDB(t))
	ctx := context.Background()

	if err := repo.UpsertApplication(ctx, ports.ApplicationRecord{ID: "a", Status: "pending"}); err != nil {
		t.Fatalf("UpsertApplication() error = %v", err)
	}
	if err := repo.UpsertTriage(ctx, ports.TriageRecord{ApplicationID: "a", Status: "pending"}); err != nil {
		t.Fatalf("UpsertTriage() error = %v", err)
	}

	events := []ports.TriageStatusEvent{
		{ApplicationID: "a", Status: "review", Reviewer: "ops", UpdatedAt: "2026-03-01T10:00:00Z"},
		{ApplicationID: "a", Status: "approved", Reviewer: "ops", UpdatedAt: "2026-03-01T11:00:00Z"},
		{ApplicationID: "a", Status: "rejected", Reviewer: "ops", UpdatedAt: "2026-03-01T11:00:00Z"},
	}
	for _, ev := range events {
		if err := repo.AppendStatusEvent(ctx, ev); err != nil {
			t.Fatalf("AppendStatusEvent() error = %v", err)
		}
	}

	latest, found, err := repo.LatestStatusEvent(ctx, "a")
	if err != nil || !found {
		t.Fatalf("LatestStatusEvent() = %+v, %v, %v", latest, found, err)
	}
	// Equal timestamps fall back to insertion order.
	if latest.Status != "rejected" {
		t.Fatalf("latest status = %q, want rejected", latest.Status)
	}

	has, err := repo.HasStatusEvent(ctx, events[0])
	if err != nil || !has {
		t.Fatalf("HasStatusEvent() = %v, %v", has, err)
	}

	if err := repo.SetStatus(ctx, "a", "rejected"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	var appStatus, triageStatus string
	repo.db.Table("applications").Select("status").Where("id = ?", "a").Scan(&appStatus)
	repo.db.Table("triage").Select("status").Where("application_id = ?", "a").Scan(&triageStatus)
	if appStatus != "rejected" || triageStatus != "rejected" {
		t.Fatalf("statuses = %q/%q, want rejected", appStatus, triageStatus)
	}

	if _, found, _ := repo.LatestStatusEvent(ctx, "missing"); found {
		t.Fatal("LatestStatusEvent(missing) found=true")
	}
}
