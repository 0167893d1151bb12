package httpapi

import (
	"net/http"

	"github.com/tidwall/gjson"

	"obiwork/internal/errs"
	"obiwork/internal/ports"
	"obiwork/internal/usecase/billing"
)

// Messages the payment form shows next to the offending field.
var paymentInputErrors = map[string]string{
	"missing_payment_data": "Missing payment data",
	"invalid_tier":         "Invalid tier",
	"amount_mismatch":      "Invalid amount",
}

type paymentResponse struct {
	OK              bool                     `json:"ok"`
	Payment         billing.ProcessorPayment `json:"Payment"`
	License         *licenseView             `json:"license,omitempty"`
	AlreadyLicensed bool                     `json:"alreadyLicensed"`
}

type webhookResponse struct {
	OK      bool `json:"ok"`
	Ignored bool `json:"ignored,omitempty"`
}

type webhookErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	card := body.Get("cardData")

	result, err := h.billing.CreatePayment(r.Context(), billing.PaymentInput{
		WalletAddress: stringField(body, "walletAddress"),
		TierID:        stringField(body, "tierId"),
		Amount:        stringField(body, "amount"),
		CustomerName:  stringField(body, "customerName"),
		OrderID:       stringField(body, "orderId"),
		Email:         stringField(body, "email"),
		Card: ports.CardData{
			Number:         stringField(card, "number"),
			Holder:         stringField(card, "holder"),
			ExpirationDate: firstField(card, "expiry", "expirationDate"),
			SecurityCode:   firstField(card, "cvc", "securityCode"),
			Brand:          stringField(card, "brand"),
		},
	})
	if err != nil {
		if message, ok := paymentInputErrors[errs.CodeOf(err, "")]; ok {
			writeJSON(w, http.StatusBadRequest, webhookErrorResponse{Error: message})
			return
		}
		writeJSON(w, http.StatusInternalServerError, webhookErrorResponse{Error: errs.MessageOr(err, "Payment failed")})
		return
	}

	if result.Granted {
		h.setAccessCookies(w, result.WalletAddress)
	}
	out := paymentResponse{
		OK:              result.Granted,
		Payment:         result.Payment,
		AlreadyLicensed: result.AlreadyLicensed,
	}
	if result.License != nil {
		out.License = &licenseView{
			ID:            result.License.ID,
			WalletAddress: result.License.WalletAddress,
			TierID:        result.License.TierID,
			Status:        result.License.Status,
			IssuedAt:      result.License.IssuedAt,
			PaymentID:     result.License.PaymentID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePaymentWebhook accepts the processor's status-change callback. The
// new status comes from PaymentStatus, or ChangePaymentStatus (an object
// carrying Status, or the bare status itself).
func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)

	status := stringField(body, "PaymentStatus")
	if status == "" {
		change := body.Get("ChangePaymentStatus")
		if change.IsObject() {
			status = stringField(change, "Status")
		} else {
			status = stringField(body, "ChangePaymentStatus")
		}
	}

	result, err := h.billing.HandleStatusChange(r.Context(), billing.StatusChange{
		ProviderPaymentID: stringField(body, "PaymentId"),
		Status:            status,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, webhookErrorResponse{Error: errs.MessageOr(err, "Internal Server Error")})
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{OK: true, Ignored: result.Ignored})
}

func firstField(doc gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := stringField(doc, path); v != "" {
			return v
		}
	}
	return ""
}
