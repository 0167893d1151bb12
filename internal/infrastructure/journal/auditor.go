package journal

import (
	"context"
	"time"

	"obiwork/internal/ports"
)

// AuditObserver is told about every audit record, written or not.
type AuditObserver interface {
	ObserveAudit(service string, event string, status string)
}

// Auditor writes audit records to the audit stream.
type Auditor struct {
	journal  ports.Journal
	observer AuditObserver
	now      func() time.Time
}

var _ ports.AuditLog = (*Auditor)(nil)

func NewAuditor(journal ports.Journal, observer AuditObserver) *Auditor {
	return &Auditor{journal: journal, observer: observer, now: time.Now}
}

// Record writes {ts, service, event, status, ...fields}. The four envelope
// keys win over fields of the same name.
func (a *Auditor) Record(ctx context.Context, service string, event string, status string, fields map[string]any) error {
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = a.now().UTC().Format(time.RFC3339Nano)
	entry["service"] = service
	entry["event"] = event
	entry["status"] = status

	if a.observer != nil {
		a.observer.ObserveAudit(service, event, status)
	}
	return a.journal.Append(ctx, ports.StreamAudit, entry)
}
