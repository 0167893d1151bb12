package model

type Application struct {
	ID                string `gorm:"column:id;type:text;primaryKey"`
	ReceivedAt        string `gorm:"column:received_at;type:text;index"`
	WalletAddress     string `gorm:"column:wallet_address;type:text;index:idx_applications_wallet"`
	UserAgent         string `gorm:"column:user_agent;type:text"`
	ForwardedFor      string `gorm:"column:forwarded_for;type:text"`
	AnswersJSON       string `gorm:"column:answers_json;type:text"`
	GatekeeperAllowed bool   `gorm:"column:gatekeeper_allowed"`
	GatekeeperMode    string `gorm:"column:gatekeeper_mode;type:text"`
	Status            string `gorm:"column:status;type:text"`
}

func (Application) TableName() string {
	return "applications"
}
