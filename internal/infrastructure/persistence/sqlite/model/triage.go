package model

type Triage struct {
	ApplicationID     string `gorm:"column:application_id;type:text;primaryKey"`
	ReceivedAt        string `gorm:"column:received_at;type:text;index"`
	WalletAddress     string `gorm:"column:wallet_address;type:text"`
	Score             int    `gorm:"column:score"`
	Tier              string `gorm:"column:tier;type:text"`
	TagsJSON          string `gorm:"column:tags_json;type:text"`
	Status            string `gorm:"column:status;type:text"`
	GatekeeperAllowed bool   `gorm:"column:gatekeeper_allowed"`
	GatekeeperMode    string `gorm:"column:gatekeeper_mode;type:text"`
}

func (Triage) TableName() string {
	return "triage"
}

// TriageStatus is one row of the append-only review history.
type TriageStatus struct {
	ID            uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID string `gorm:"column:application_id;type:text;index:idx_triage_status_app"`
	Status        string `gorm:"column:status;type:text"`
	Reviewer      string `gorm:"column:reviewer;type:text"`
	UpdatedAt     string `gorm:"column:updated_at;type:text"`
}

func (TriageStatus) TableName() string {
	return "triage_status"
}
