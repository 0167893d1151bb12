package triage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"obiwork/internal/bootstrap/config"
	"obiwork/internal/bootstrap/database"
	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/errs"
	"obiwork/internal/infrastructure/cache"
	"obiwork/internal/infrastructure/journal"
	sqliterepo "obiwork/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "obiwork/internal/infrastructure/persistence/sqlite/uow"
	"obiwork/internal/ports"
)

type fixture struct {
	svc     *Service
	db      *gorm.DB
	repo    *sqliterepo.ApplicationRepository
	journal *journal.FileJournal
}

func setup(t *testing.T) fixture {
	t.Helper()

	ctx := context.Background()
	root := t.TempDir()
	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(root, "obi.sqlite")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	j := journal.NewFileJournal(filepath.Join(root, "logs"))
	repo := sqliterepo.NewApplicationRepository(db)
	svc := NewService(repo, sqliteuow.NewUnitOfWork(db), j, journal.NewAuditor(j, nil), cache.NewSQLiteCache(db), nil)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return fixture{svc: svc, db: db, repo: repo, journal: j}
}

// seed writes an application the way intake does: database and journal.
func (f fixture) seed(t *testing.T, id string, receivedAt string, score int) {
	t.Helper()
	ctx := context.Background()
	result := domaintriage.Result{Score: score, Tier: domaintriage.TierForScore(score), Tags: []string{"senior"}}

	if err := f.repo.UpsertApplication(ctx, ports.ApplicationRecord{ID: id, ReceivedAt: receivedAt, WalletAddress: "w-" + id, Status: "pending"}); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	if err := f.repo.UpsertTriage(ctx, ports.TriageRecord{
		ApplicationID: id, ReceivedAt: receivedAt, WalletAddress: "w-" + id,
		Score: score, Tier: string(result.Tier), Tags: result.Tags, Status: "pending",
	}); err != nil {
		t.Fatalf("seed triage: %v", err)
	}
	if err := f.journal.Append(ctx, ports.StreamTriageQueue, domaintriage.QueueEntry{
		ApplicationID: id, ReceivedAt: receivedAt, WalletAddress: "w-" + id, Triage: result, Status: "pending",
	}); err != nil {
		t.Fatalf("seed journal: %v", err)
	}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ApplicationID)
	}
	return out
}

func TestListFromDatabase(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", "2026-03-01T10:00:00Z", 10)
	f.seed(t, "b", "2026-03-02T10:00:00Z", 40)

	result, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Source != SourceDatabase {
		t.Fatalf("source = %q", result.Source)
	}
	if got := strings.Join(ids(result.Items), ","); got != "b,a" {
		t.Fatalf("order = %s, want b,a", got)
	}
	if result.Items[0].Triage.Tier != domaintriage.TierPriority {
		t.Fatalf("tier = %q", result.Items[0].Triage.Tier)
	}
}

func TestListFallbackMatchesDatabase(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed(t, "a", "2026-03-01T10:00:00Z", 10)
	f.seed(t, "b", "2026-03-02T10:00:00Z", 40)
	f.seed(t, "c", "2026-03-03T10:00:00Z", 25)

	if _, err := f.svc.UpdateStatus(ctx, UpdateInput{ApplicationID: "a", Status: "approved", Reviewer: "ops"}); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	primary, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	sqlDB, _ := f.db.DB()
	_ = sqlDB.Close()

	fallback, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("List() fallback error = %v", err)
	}
	if fallback.Source != SourceJournal {
		t.Fatalf("source = %q, want fallback", fallback.Source)
	}

	want, got := ids(primary.Items), ids(fallback.Items)
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		t.Fatalf("fallback ids = %v, want %v", got, want)
	}
	for _, item := range fallback.Items {
		want := "pending"
		if item.ApplicationID == "a" {
			want = "approved"
		}
		if item.Status != want {
			t.Fatalf("fallback status for %s = %q, want %q", item.ApplicationID, item.Status, want)
		}
	}
}

func TestLatestStatusesTieGoesToLaterLine(t *testing.T) {
	lines := [][]byte{
		[]byte(`{"applicationId":"a","status":"review","updatedAt":"2026-03-01T10:00:00Z"}`),
		[]byte(`{"applicationId":"a","status":"approved","updatedAt":"2026-03-01T11:00:00Z"}`),
		[]byte(`{"applicationId":"a","status":"rejected","updatedAt":"2026-03-01T11:00:00Z"}`),
		[]byte(`{"applicationId":"a","status":"pending","updatedAt":"2026-03-01T09:00:00Z"}`),
		[]byte(`{"status":"approved"}`),
	}
	raws := make([]json.RawMessage, 0, len(lines))
	for _, l := range lines {
		raws = append(raws, l)
	}
	got := latestStatuses(raws)
	if got["a"].Status != "rejected" || len(got) != 1 {
		t.Fatalf("latestStatuses() = %+v", got)
	}
}

func TestUpdateStatusWritesEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed(t, "a", "2026-03-01T10:00:00Z", 10)

	entry, err := f.svc.UpdateStatus(ctx, UpdateInput{ApplicationID: " a ", Status: " Approved ", Reviewer: "ops"})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if entry.ApplicationID != "a" || entry.Status != "approved" || entry.Reviewer != "ops" || entry.UpdatedAt == "" {
		t.Fatalf("entry = %+v", entry)
	}

	var appStatus, triageStatus string
	f.db.Table("applications").Select("status").Where("id = ?", "a").Scan(&appStatus)
	f.db.Table("triage").Select("status").Where("application_id = ?", "a").Scan(&triageStatus)
	if appStatus != "approved" || triageStatus != "approved" {
		t.Fatalf("row statuses = %q/%q", appStatus, triageStatus)
	}

	latest, found, _ := f.repo.LatestStatusEvent(ctx, "a")
	if !found || latest.Status != "approved" {
		t.Fatalf("latest event = %+v", latest)
	}
	lines, _ := f.journal.ReadAll(ctx, ports.StreamTriageStatus)
	if len(lines) != 1 || !strings.Contains(string(lines[0]), `"updatedAt"`) {
		t.Fatalf("status journal = %s", lines)
	}
	audit, _ := f.journal.ReadAll(ctx, ports.StreamAudit)
	if !strings.Contains(string(audit[len(audit)-1]), `"event":"triage_update"`) {
		t.Fatalf("last audit = %s", audit[len(audit)-1])
	}
}

// statusLogFailure fails appends to the status stream and passes every other
// stream through.
type statusLogFailure struct {
	ports.Journal
}

func (j statusLogFailure) Append(ctx context.Context, stream string, entry any) error {
	if stream == ports.StreamTriageStatus {
		return errors.New("disk full")
	}
	return j.Journal.Append(ctx, stream, entry)
}

type channelCounter map[string]int

func (c channelCounter) SideEffectFailed(channel string) { c[channel]++ }

func TestUpdateStatusReportsJournalFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed(t, "a", "2026-03-01T10:00:00Z", 10)

	failures := channelCounter{}
	svc := NewService(f.repo, sqliteuow.NewUnitOfWork(f.db), statusLogFailure{f.journal}, journal.NewAuditor(f.journal, nil), cache.NewSQLiteCache(f.db), failures)

	_, err := svc.UpdateStatus(ctx, UpdateInput{ApplicationID: "a", Status: "rejected", Reviewer: "ops"})
	if errs.CodeOf(err, "") != "status_log_error" || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("UpdateStatus() error = %v, want status_log_error", err)
	}
	if failures[ChannelStatusLog] != 1 {
		t.Fatalf("failures = %v", failures)
	}

	// The database commit stands.
	var appStatus string
	f.db.Table("applications").Select("status").Where("id = ?", "a").Scan(&appStatus)
	if appStatus != "rejected" {
		t.Fatalf("application status = %q, want rejected", appStatus)
	}
	if latest, found, _ := f.repo.LatestStatusEvent(ctx, "a"); !found || latest.Status != "rejected" {
		t.Fatalf("latest event = %+v, %v", latest, found)
	}

	audit, _ := f.journal.ReadAll(ctx, ports.StreamAudit)
	last := string(audit[len(audit)-1])
	if !strings.Contains(last, `"event":"triage_update"`) || !strings.Contains(last, `"status":"error"`) {
		t.Fatalf("last audit = %s", last)
	}
}

func TestUpdateStatusRejectsInvalidPayload(t *testing.T) {
	f := setup(t)
	cases := []UpdateInput{
		{ApplicationID: "", Status: "approved"},
		{ApplicationID: "a", Status: "done"},
	}
	for _, in := range cases {
		_, err := f.svc.UpdateStatus(context.Background(), in)
		if errs.CodeOf(err, "") != "invalid_payload" {
			t.Fatalf("UpdateStatus(%+v) error = %v, want invalid_payload", in, err)
		}
	}
	_, err := f.svc.UpdateStatus(context.Background(), UpdateInput{ApplicationID: "a", Status: "done"})
	if !errors.Is(err, domaintriage.ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestReplayHealsDatabase(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Journal-only history: the database writes never happened.
	_ = f.journal.Append(ctx, ports.StreamTriageQueue, domaintriage.QueueEntry{
		ApplicationID: "x", ReceivedAt: "2026-03-01T10:00:00Z", WalletAddress: "wx",
		Triage: domaintriage.Result{Score: 36, Tier: domaintriage.TierPriority, Tags: []string{"senior"}}, Status: "pending",
	})
	_ = f.journal.Append(ctx, ports.StreamTriageStatus, domaintriage.StatusEntry{ApplicationID: "x", Status: "review", Reviewer: "ops", UpdatedAt: "2026-03-01T11:00:00Z"})
	_ = f.journal.Append(ctx, ports.StreamTriageStatus, domaintriage.StatusEntry{ApplicationID: "x", Status: "approved", Reviewer: "ops", UpdatedAt: "2026-03-01T12:00:00Z"})

	// An existing row must keep its score.
	f.seed(t, "y", "2026-03-02T10:00:00Z", 5)
	_ = f.journal.Append(ctx, ports.StreamTriageQueue, domaintriage.QueueEntry{
		ApplicationID: "y", ReceivedAt: "2026-03-02T10:00:00Z", Triage: domaintriage.Result{Score: 99, Tier: domaintriage.TierPriority},
	})

	result, err := f.svc.Replay(ctx, ReplayOptions{})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if result.TriageRowsInserted != 1 || result.StatusEventsWritten != 2 {
		t.Fatalf("Replay() = %+v", result)
	}

	list, _ := f.svc.List(ctx)
	byID := map[string]Item{}
	for _, item := range list.Items {
		byID[item.ApplicationID] = item
	}
	if byID["x"].Status != "approved" || byID["x"].Triage.Score != 36 {
		t.Fatalf("replayed x = %+v", byID["x"])
	}
	if byID["y"].Triage.Score != 5 {
		t.Fatalf("existing y score overwritten: %+v", byID["y"])
	}

	again, err := f.svc.Replay(ctx, ReplayOptions{})
	if err != nil {
		t.Fatalf("Replay() second error = %v", err)
	}
	if again.QueueEntriesRead != 0 || again.StatusEntriesRead != 0 {
		t.Fatalf("second Replay() re-read entries: %+v", again)
	}

	full, err := f.svc.Replay(ctx, ReplayOptions{FromStart: true})
	if err != nil {
		t.Fatalf("Replay(from start) error = %v", err)
	}
	if full.QueueEntriesRead != 3 || full.TriageRowsInserted != 0 || full.StatusEventsWritten != 0 {
		t.Fatalf("Replay(from start) = %+v", full)
	}
}
