package ports

import (
	"context"
	"encoding/json"
)

// Journal streams, one JSON-lines file each.
const (
	StreamAudit                 = "audit"
	StreamApplications          = "applications"
	StreamTriageQueue           = "triage_queue"
	StreamTriageStatus          = "triage_status"
	StreamInternalNotifications = "internal_notifications"
)

// Journal is the append-only event log. Appends are best-effort for callers;
// ReadAll skips lines that do not parse.
type Journal interface {
	Append(ctx context.Context, stream string, entry any) error
	ReadAll(ctx context.Context, stream string) ([]json.RawMessage, error)
}

// AuditLog writes one {ts, service, event, status, ...} record per branch.
type AuditLog interface {
	Record(ctx context.Context, service string, event string, status string, fields map[string]any) error
}

// FailureObserver counts best-effort side effects that did not land.
type FailureObserver interface {
	SideEffectFailed(channel string)
}
