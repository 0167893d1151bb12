package cielo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"obiwork/internal/domain/billing"
	"obiwork/internal/ports"
)

func TestChargeSendsSaleAndParsesResult(t *testing.T) {
	var got saleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/1/sales/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("MerchantId") != "mid" || r.Header.Get("MerchantKey") != "mkey" {
			t.Errorf("merchant headers = %q/%q", r.Header.Get("MerchantId"), r.Header.Get("MerchantKey"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"Payment":{"PaymentId":"pid-1","Status":2,"ReturnCode":"6","ReturnMessage":"Operation Successful"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/", MerchantID: "mid", MerchantKey: "mkey", SoftDescriptor: "OBIWORK", Timeout: time.Second})
	result, err := client.Charge(context.Background(), ports.ChargeRequest{
		OrderID:     "order-1",
		AmountCents: 4990,
		Email:       "a@b.c",
		Card:        ports.CardData{Number: "4111 1111 1111 1111", Holder: "ANA", ExpirationDate: "12/2030", SecurityCode: "123"},
	})
	if err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	if result.ProviderPaymentID != "pid-1" || result.Status.Kind != billing.PaymentPaid || result.Provider != billing.ProviderCielo {
		t.Fatalf("Charge() = %+v", result)
	}
	if got.Payment.Amount != 4990 || got.Payment.CreditCard.CardNumber != "4111111111111111" || got.Payment.CreditCard.Brand != "Visa" || got.MerchantOrderID != "order-1" {
		t.Fatalf("sale request = %+v", got)
	}
}

func TestChargeSurfacesProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"Code":126,"Message":"Credit Card Expiration Date is invalid"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, MerchantID: "mid", MerchantKey: "mkey"})
	_, err := client.Charge(context.Background(), ports.ChargeRequest{AmountCents: 100})
	if err == nil || !strings.Contains(err.Error(), "Expiration Date is invalid") {
		t.Fatalf("Charge() error = %v", err)
	}
}

func TestMockProcessorAuthorizes(t *testing.T) {
	m := NewMockProcessor(5 * time.Millisecond)
	result, err := m.Charge(context.Background(), ports.ChargeRequest{AmountCents: 2999})
	if err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	if result.Provider != billing.ProviderCieloMock || !result.Status.GrantsAccess() || !strings.HasPrefix(result.ProviderPaymentID, "mock_") {
		t.Fatalf("Charge() = %+v", result)
	}

	other, _ := m.Charge(context.Background(), ports.ChargeRequest{AmountCents: 2999})
	if other.ProviderPaymentID == result.ProviderPaymentID {
		t.Fatal("mock provider ids repeat")
	}
}

func TestMockProcessorCompletesAfterCancel(t *testing.T) {
	m := NewMockProcessor(5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := m.Charge(ctx, ports.ChargeRequest{AmountCents: 2999})
	if err != nil {
		t.Fatalf("Charge() error = %v after cancel", err)
	}
	if !result.Status.GrantsAccess() || !strings.HasPrefix(result.ProviderPaymentID, "mock_") {
		t.Fatalf("Charge() = %+v", result)
	}
}
