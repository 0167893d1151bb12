package ports

import (
	"context"

	"obiwork/internal/domain/access"
	"obiwork/internal/domain/billing"
)

type Gatekeeper interface {
	Check(ctx context.Context, walletAddress string) (access.Decision, error)
}

type CardData struct {
	Number         string
	Holder         string
	ExpirationDate string
	SecurityCode   string
	Brand          string
}

type ChargeRequest struct {
	OrderID      string
	AmountCents  int64
	Card         CardData
	Email        string
	CustomerName string
}

type ChargeResult struct {
	Provider          string
	ProviderPaymentID string
	Status            billing.ProcessorStatus
	ReturnCode        string
	ReturnMessage     string
}

type PaymentProcessor interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// Notification channels.
const (
	ChannelTriage   = "triage"
	ChannelInternal = "internal"
)

// Notifier posts fire-and-forget webhooks. It reports delivery and never
// returns an error; an unconfigured channel reports false.
type Notifier interface {
	Configured(channel string) bool
	Notify(ctx context.Context, channel string, payload any) bool
}
