package triage

// GatekeeperSnapshot is the gatekeeper decision stored next to an
// application.
type GatekeeperSnapshot struct {
	Allowed bool   `json:"allowed"`
	Mode    string `json:"mode"`
}

// QueueEntry is one line of the triage queue journal.
type QueueEntry struct {
	ApplicationID string             `json:"applicationId"`
	ReceivedAt    string             `json:"receivedAt"`
	WalletAddress string             `json:"walletAddress"`
	Triage        Result             `json:"triage"`
	Status        string             `json:"status"`
	Gatekeeper    GatekeeperSnapshot `json:"gatekeeper"`
}

// StatusEntry is one line of the triage status journal.
type StatusEntry struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	Reviewer      string `json:"reviewer"`
	UpdatedAt     string `json:"updatedAt"`
}
