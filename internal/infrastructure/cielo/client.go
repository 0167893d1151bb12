package cielo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"obiwork/internal/domain/billing"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const defaultBrand = "Visa"

type Config struct {
	BaseURL        string
	MerchantID     string
	MerchantKey    string
	SoftDescriptor string
	Timeout        time.Duration
}

// Client charges credit cards through the Cielo e-commerce sales API.
type Client struct {
	http           *resty.Client
	softDescriptor string
}

var _ ports.PaymentProcessor = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("MerchantId", cfg.MerchantID).
		SetHeader("MerchantKey", cfg.MerchantKey)
	return &Client{http: httpClient, softDescriptor: cfg.SoftDescriptor}
}

type saleRequest struct {
	MerchantOrderID string       `json:"MerchantOrderId"`
	Customer        saleCustomer `json:"Customer"`
	Payment         salePayment  `json:"Payment"`
}

type saleCustomer struct {
	Name  string `json:"Name"`
	Email string `json:"Email,omitempty"`
}

type salePayment struct {
	Type           string         `json:"Type"`
	Amount         int64          `json:"Amount"`
	Installments   int            `json:"Installments"`
	SoftDescriptor string         `json:"SoftDescriptor,omitempty"`
	Capture        bool           `json:"Capture"`
	CreditCard     saleCreditCard `json:"CreditCard"`
}

type saleCreditCard struct {
	CardNumber     string `json:"CardNumber"`
	Holder         string `json:"Holder"`
	ExpirationDate string `json:"ExpirationDate"`
	SecurityCode   string `json:"SecurityCode"`
	Brand          string `json:"Brand"`
}

func (c *Client) Charge(ctx context.Context, req ports.ChargeRequest) (ports.ChargeResult, error) {
	if req.AmountCents <= 0 {
		return ports.ChargeResult{}, errors.New("charge amount must be positive")
	}

	brand := strings.TrimSpace(req.Card.Brand)
	if brand == "" {
		brand = defaultBrand
	}
	body := saleRequest{
		MerchantOrderID: req.OrderID,
		Customer:        saleCustomer{Name: customerName(req), Email: req.Email},
		Payment: salePayment{
			Type:           "CreditCard",
			Amount:         req.AmountCents,
			Installments:   1,
			SoftDescriptor: c.softDescriptor,
			Capture:        true,
			CreditCard: saleCreditCard{
				CardNumber:     digitsOnly(req.Card.Number),
				Holder:         req.Card.Holder,
				ExpirationDate: req.Card.ExpirationDate,
				SecurityCode:   req.Card.SecurityCode,
				Brand:          brand,
			},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/1/sales/")
	if err != nil {
		return ports.ChargeResult{}, errs.Wrap(err, "post cielo sale")
	}

	raw := resp.String()
	if resp.IsError() {
		msg := gjson.Get(raw, "0.Message").String()
		if msg == "" {
			msg = strings.TrimSpace(raw)
		}
		if msg == "" {
			msg = resp.Status()
		}
		return ports.ChargeResult{}, fmt.Errorf("cielo rejected sale (%d): %s", resp.StatusCode(), msg)
	}

	payment := gjson.Get(raw, "Payment")
	if !payment.Exists() {
		return ports.ChargeResult{}, errors.New("cielo response has no Payment")
	}
	return ports.ChargeResult{
		Provider:          billing.ProviderCielo,
		ProviderPaymentID: payment.Get("PaymentId").String(),
		Status:            billing.ParseProcessorStatus(payment.Get("Status").String()),
		ReturnCode:        payment.Get("ReturnCode").String(),
		ReturnMessage:     payment.Get("ReturnMessage").String(),
	}, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func customerName(req ports.ChargeRequest) string {
	if name := strings.TrimSpace(req.CustomerName); name != "" {
		return name
	}
	return req.Card.Holder
}
