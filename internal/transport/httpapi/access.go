package httpapi

import (
	"net/http"
	"strings"

	"obiwork/internal/errs"
)

type accessResponse struct {
	OK         bool `json:"ok"`
	Gatekeeper any  `json:"gatekeeper"`
}

func (h *Handler) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	wallet := strings.TrimSpace(stringField(body, "walletAddress"))
	result, err := h.access.Check(r.Context(), wallet)
	if err != nil {
		h.writeServiceError(w, err, "gatekeeper_error")
		return
	}
	if result.Gatekeeper.Allowed {
		h.setAccessCookies(w, wallet)
	}
	writeJSON(w, http.StatusOK, accessResponse{OK: true, Gatekeeper: result.Gatekeeper})
}

type licenseView struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
	TierID        string `json:"tierId"`
	Status        string `json:"status"`
	IssuedAt      string `json:"issuedAt"`
	PaymentID     string `json:"paymentId"`
}

type licenseResponse struct {
	OK      bool         `json:"ok"`
	License *licenseView `json:"license"`
}

func (h *Handler) handleLicenseStatus(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	license, found, err := h.billing.LicenseStatus(r.Context(), stringField(body, "walletAddress"))
	if err != nil {
		h.writeServiceError(w, err, "license_status_error")
		return
	}
	out := licenseResponse{OK: true}
	if found {
		out.License = &licenseView{
			ID:            license.ID,
			WalletAddress: license.WalletAddress,
			TierID:        license.TierID,
			Status:        license.Status,
			IssuedAt:      license.IssuedAt,
			PaymentID:     license.PaymentID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeServiceError maps coded input errors to 400 and everything else to
// 500 with the underlying message.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch code := errs.CodeOf(err, ""); code {
	case "wallet_required", "invalid_payload":
		writeError(w, http.StatusBadRequest, code)
	case "service_not_found":
		writeError(w, http.StatusNotFound, "Service not found")
	default:
		writeError(w, http.StatusInternalServerError, errs.MessageOr(err, fallback))
	}
}
