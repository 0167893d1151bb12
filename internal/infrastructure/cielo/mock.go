package cielo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"obiwork/internal/domain/billing"
	"obiwork/internal/ports"
)

// MockProcessor authorizes every charge after a fixed delay. It stands in
// for the processor when no merchant credentials are configured. Like the
// real gateway, a started charge completes even if the caller goes away.
type MockProcessor struct {
	delay time.Duration
}

var _ ports.PaymentProcessor = (*MockProcessor)(nil)

func NewMockProcessor(delay time.Duration) *MockProcessor {
	return &MockProcessor{delay: delay}
}

func (m *MockProcessor) Charge(_ context.Context, _ ports.ChargeRequest) (ports.ChargeResult, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return ports.ChargeResult{
		Provider:          billing.ProviderCieloMock,
		ProviderPaymentID: "mock_" + uuid.NewString(),
		Status:            billing.StatusFromCode(1),
		ReturnCode:        "4",
		ReturnMessage:     "Operation Successful",
	}, nil
}
