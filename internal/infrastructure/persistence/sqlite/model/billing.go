package model

type Payment struct {
	ID                string  `gorm:"column:id;type:text;primaryKey"`
	CreatedAt         string  `gorm:"column:created_at;type:text"`
	WalletAddress     string  `gorm:"column:wallet_address;type:text;index:idx_payments_wallet"`
	TierID            string  `gorm:"column:tier_id;type:text"`
	Amount            float64 `gorm:"column:amount"`
	Status            string  `gorm:"column:status;type:text"`
	Provider          string  `gorm:"column:provider;type:text"`
	ProviderPaymentID string  `gorm:"column:provider_payment_id;type:text;index:idx_payments_provider_id"`
	OrderID           string  `gorm:"column:order_id;type:text"`
	Email             string  `gorm:"column:email;type:text"`
}

func (Payment) TableName() string {
	return "payments"
}

type License struct {
	ID            string `gorm:"column:id;type:text;primaryKey"`
	WalletAddress string `gorm:"column:wallet_address;type:text;index:idx_licenses_wallet"`
	TierID        string `gorm:"column:tier_id;type:text"`
	Status        string `gorm:"column:status;type:text"`
	IssuedAt      string `gorm:"column:issued_at;type:text"`
	PaymentID     string `gorm:"column:payment_id;type:text;index:idx_licenses_payment"`
}

func (License) TableName() string {
	return "licenses"
}
