package triage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"obiwork/internal/bootstrap/logging"
	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const offsetKeyPrefix = "journal_offset:"

type ReplayOptions struct {
	FromStart bool
}

type ReplayResult struct {
	QueueEntriesRead    int `json:"queueEntriesRead"`
	TriageRowsInserted  int `json:"triageRowsInserted"`
	StatusEntriesRead   int `json:"statusEntriesRead"`
	StatusEventsWritten int `json:"statusEventsWritten"`
	StatusesApplied     int `json:"statusesApplied"`
}

// Replay heals the database from the journal. Missing triage rows are
// inserted (existing rows keep their score, tier and tags), missing status
// events are appended, and every touched application gets its latest status.
// The number of processed entries per stream is kept in the cache so the
// next run resumes where this one stopped.
func (s *Service) Replay(ctx context.Context, opts ReplayOptions) (ReplayResult, error) {
	if ctx == nil {
		return ReplayResult{}, errors.New("context is required")
	}
	if s.cache == nil {
		return ReplayResult{}, errors.New("replay cursor cache is required")
	}
	logCtx := logging.WithComponent(ctx, "usecase.triage.replay")

	var out ReplayResult
	touched := make(map[string]struct{})

	queue, queueOffset, err := s.pending(ctx, ports.StreamTriageQueue, opts.FromStart)
	if err != nil {
		return ReplayResult{}, err
	}
	out.QueueEntriesRead = len(queue)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, raw := range queue {
			entry, ok := parseQueueEntry(raw)
			if !ok {
				continue
			}
			status := string(domaintriage.StatusPending)
			if parsed, err := domaintriage.ParseStatus(entry.Status); err == nil {
				status = string(parsed)
			}
			inserted, err := s.repo.InsertTriageIfMissing(txCtx, ports.TriageRecord{
				ApplicationID:     entry.ApplicationID,
				ReceivedAt:        entry.ReceivedAt,
				WalletAddress:     entry.WalletAddress,
				Score:             entry.Triage.Score,
				Tier:              string(entry.Triage.Tier),
				Tags:              entry.Triage.Tags,
				Status:            status,
				GatekeeperAllowed: entry.Gatekeeper.Allowed,
				GatekeeperMode:    entry.Gatekeeper.Mode,
			})
			if err != nil {
				return err
			}
			if inserted {
				out.TriageRowsInserted++
				touched[entry.ApplicationID] = struct{}{}
			}
		}
		return nil
	}); err != nil {
		return out, errs.Wrap(err, "replay triage queue")
	}
	if err := s.saveOffset(ctx, ports.StreamTriageQueue, queueOffset); err != nil {
		return out, err
	}

	statuses, statusOffset, err := s.pending(ctx, ports.StreamTriageStatus, opts.FromStart)
	if err != nil {
		return out, err
	}
	out.StatusEntriesRead = len(statuses)

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, raw := range statuses {
			entry, ok := parseStatusEntry(raw)
			if !ok {
				continue
			}
			if _, err := domaintriage.ParseStatus(entry.Status); err != nil {
				logging.Warn(logCtx, "skipping journal status entry", slog.String("application_id", entry.ApplicationID), slog.String("status", entry.Status))
				continue
			}
			event := ports.TriageStatusEvent{
				ApplicationID: entry.ApplicationID,
				Status:        entry.Status,
				Reviewer:      entry.Reviewer,
				UpdatedAt:     entry.UpdatedAt,
			}
			exists, err := s.repo.HasStatusEvent(txCtx, event)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := s.repo.AppendStatusEvent(txCtx, event); err != nil {
				return err
			}
			out.StatusEventsWritten++
			touched[entry.ApplicationID] = struct{}{}
		}

		for applicationID := range touched {
			latest, found, err := s.repo.LatestStatusEvent(txCtx, applicationID)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if err := s.repo.SetStatus(txCtx, applicationID, latest.Status); err != nil {
				return err
			}
			out.StatusesApplied++
		}
		return nil
	}); err != nil {
		return out, errs.Wrap(err, "replay triage status")
	}
	if err := s.saveOffset(ctx, ports.StreamTriageStatus, statusOffset); err != nil {
		return out, err
	}

	s.record(logCtx, "triage_replay", "ok", map[string]any{
		"fromStart":           opts.FromStart,
		"triageRowsInserted":  out.TriageRowsInserted,
		"statusEventsWritten": out.StatusEventsWritten,
	})
	logging.Info(logCtx, "journal replay completed",
		slog.Int("queue_read", out.QueueEntriesRead),
		slog.Int("triage_inserted", out.TriageRowsInserted),
		slog.Int("status_read", out.StatusEntriesRead),
		slog.Int("status_written", out.StatusEventsWritten),
	)
	return out, nil
}

// pending returns the entries after the stored offset and the offset to
// store once they are applied. A journal shorter than the offset (rotated
// or truncated) is read from the start.
func (s *Service) pending(ctx context.Context, stream string, fromStart bool) ([]json.RawMessage, int, error) {
	entries, err := s.journal.ReadAll(ctx, stream)
	if err != nil {
		return nil, 0, errs.Wrapf(err, "read %s journal", stream)
	}

	offset := 0
	if !fromStart {
		raw, found, err := s.cache.Get(ctx, offsetKeyPrefix+stream)
		if err != nil {
			return nil, 0, errs.Wrapf(err, "load %s offset", stream)
		}
		if found {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n >= 0 {
				offset = n
			}
		}
	}
	if offset > len(entries) {
		offset = 0
	}
	return entries[offset:], len(entries), nil
}

func (s *Service) saveOffset(ctx context.Context, stream string, offset int) error {
	if err := s.cache.Set(ctx, offsetKeyPrefix+stream, strconv.Itoa(offset), 0); err != nil {
		return errs.Wrapf(err, "store %s offset", stream)
	}
	return nil
}
