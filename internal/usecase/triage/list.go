package triage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"

	"github.com/tidwall/gjson"

	"obiwork/internal/bootstrap/logging"
	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

// List sources.
const (
	SourceDatabase = "db"
	SourceJournal  = "fallback"
)

type Item struct {
	ApplicationID string                          `json:"applicationId"`
	ReceivedAt    string                          `json:"receivedAt"`
	WalletAddress string                          `json:"walletAddress"`
	Status        string                          `json:"status"`
	Triage        domaintriage.Result             `json:"triage"`
	Gatekeeper    domaintriage.GatekeeperSnapshot `json:"gatekeeper"`
}

type ListResult struct {
	Items  []Item
	Source string
}

// List reads the queue from the database, newest first. When the database
// read fails it rebuilds the queue from the journal instead.
func (s *Service) List(ctx context.Context) (ListResult, error) {
	if ctx == nil {
		return ListResult{}, errors.New("context is required")
	}
	logCtx := logging.WithComponent(ctx, "usecase.triage")

	records, err := s.repo.ListTriage(ctx)
	if err == nil {
		items := make([]Item, 0, len(records))
		for _, rec := range records {
			items = append(items, itemFromRecord(rec))
		}
		s.record(logCtx, "triage_list", "ok", map[string]any{"count": len(items)})
		return ListResult{Items: items, Source: SourceDatabase}, nil
	}

	logging.Warn(logCtx, "triage list falling back to journal", slog.Any("err", errs.Loggable(err)))

	items, fallbackErr := s.listFromJournal(ctx)
	if fallbackErr != nil {
		message := errs.MessageOr(fallbackErr, "triage_error")
		s.record(logCtx, "triage_list", "error", map[string]any{"meta": map[string]any{"message": message}})
		return ListResult{}, errs.Wrap(fallbackErr, "list triage from journal")
	}
	s.record(logCtx, "triage_list", "ok", map[string]any{"count": len(items), "source": SourceJournal})
	return ListResult{Items: items, Source: SourceJournal}, nil
}

func (s *Service) listFromJournal(ctx context.Context) ([]Item, error) {
	queue, err := s.journal.ReadAll(ctx, ports.StreamTriageQueue)
	if err != nil {
		return nil, err
	}
	statuses, err := s.journal.ReadAll(ctx, ports.StreamTriageStatus)
	if err != nil {
		return nil, err
	}

	current := latestStatuses(statuses)

	byID := make(map[string]int, len(queue))
	items := make([]Item, 0, len(queue))
	for _, raw := range queue {
		entry, ok := parseQueueEntry(raw)
		if !ok {
			continue
		}
		item := Item{
			ApplicationID: entry.ApplicationID,
			ReceivedAt:    entry.ReceivedAt,
			WalletAddress: entry.WalletAddress,
			Status:        string(domaintriage.StatusPending),
			Triage:        entry.Triage,
			Gatekeeper:    entry.Gatekeeper,
		}
		if latest, ok := current[entry.ApplicationID]; ok {
			item.Status = latest.Status
		}
		// A replayed or resubmitted application keeps its last line.
		if idx, seen := byID[item.ApplicationID]; seen {
			items[idx] = item
			continue
		}
		byID[item.ApplicationID] = len(items)
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ReceivedAt > items[j].ReceivedAt
	})
	return items, nil
}

// latestStatuses keeps, per application, the entry with the greatest
// updatedAt string. Later lines win ties.
func latestStatuses(lines []json.RawMessage) map[string]domaintriage.StatusEntry {
	out := make(map[string]domaintriage.StatusEntry)
	for _, raw := range lines {
		entry, ok := parseStatusEntry(raw)
		if !ok {
			continue
		}
		prev, seen := out[entry.ApplicationID]
		if !seen || entry.UpdatedAt >= prev.UpdatedAt {
			out[entry.ApplicationID] = entry
		}
	}
	return out
}

func parseQueueEntry(raw json.RawMessage) (domaintriage.QueueEntry, bool) {
	doc := gjson.ParseBytes(raw)
	id := doc.Get("applicationId").String()
	if id == "" {
		return domaintriage.QueueEntry{}, false
	}

	tags := []string{}
	for _, tag := range doc.Get("triage.tags").Array() {
		tags = append(tags, tag.String())
	}
	tier := domaintriage.ParseTier(doc.Get("triage.tier").String())

	return domaintriage.QueueEntry{
		ApplicationID: id,
		ReceivedAt:    doc.Get("receivedAt").String(),
		WalletAddress: doc.Get("walletAddress").String(),
		Triage: domaintriage.Result{
			Score: int(doc.Get("triage.score").Int()),
			Tier:  tier,
			Tags:  tags,
		},
		Status: doc.Get("status").String(),
		Gatekeeper: domaintriage.GatekeeperSnapshot{
			Allowed: doc.Get("gatekeeper.allowed").Bool(),
			Mode:    doc.Get("gatekeeper.mode").String(),
		},
	}, true
}

func parseStatusEntry(raw json.RawMessage) (domaintriage.StatusEntry, bool) {
	doc := gjson.ParseBytes(raw)
	entry := domaintriage.StatusEntry{
		ApplicationID: doc.Get("applicationId").String(),
		Status:        doc.Get("status").String(),
		Reviewer:      doc.Get("reviewer").String(),
		UpdatedAt:     doc.Get("updatedAt").String(),
	}
	if entry.ApplicationID == "" || entry.Status == "" {
		return domaintriage.StatusEntry{}, false
	}
	return entry, true
}

func itemFromRecord(rec ports.TriageRecord) Item {
	return Item{
		ApplicationID: rec.ApplicationID,
		ReceivedAt:    rec.ReceivedAt,
		WalletAddress: rec.WalletAddress,
		Status:        rec.Status,
		Triage: domaintriage.Result{
			Score: rec.Score,
			Tier:  domaintriage.ParseTier(rec.Tier),
			Tags:  rec.Tags,
		},
		Gatekeeper: domaintriage.GatekeeperSnapshot{
			Allowed: rec.GatekeeperAllowed,
			Mode:    rec.GatekeeperMode,
		},
	}
}
