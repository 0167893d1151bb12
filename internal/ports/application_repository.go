package ports

import "context"

type ApplicationRecord struct {
	ID                string
	ReceivedAt        string
	WalletAddress     string
	UserAgent         string
	ForwardedFor      string
	AnswersJSON       string
	GatekeeperAllowed bool
	GatekeeperMode    string
	Status            string
}

type TriageRecord struct {
	ApplicationID     string
	ReceivedAt        string
	WalletAddress     string
	Score             int
	Tier              string
	Tags              []string
	Status            string
	GatekeeperAllowed bool
	GatekeeperMode    string
}

type TriageStatusEvent struct {
	ApplicationID string
	Status        string
	Reviewer      string
	UpdatedAt     string
}

type ApplicationRepository interface {
	UpsertApplication(ctx context.Context, record ApplicationRecord) error
	UpsertTriage(ctx context.Context, record TriageRecord) error
	// InsertTriageIfMissing never touches an existing row.
	InsertTriageIfMissing(ctx context.Context, record TriageRecord) (bool, error)
	ListTriage(ctx context.Context) ([]TriageRecord, error)
	// SetStatus writes status to both the triage and the application row.
	SetStatus(ctx context.Context, applicationID string, status string) error
	AppendStatusEvent(ctx context.Context, event TriageStatusEvent) error
	HasStatusEvent(ctx context.Context, event TriageStatusEvent) (bool, error)
	LatestStatusEvent(ctx context.Context, applicationID string) (TriageStatusEvent, bool, error)
}
