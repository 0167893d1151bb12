package httpapi

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/usecase/intake"
)

type applyResponse struct {
	OK            bool                `json:"ok"`
	ApplicationID string              `json:"applicationId"`
	Gatekeeper    any                 `json:"gatekeeper"`
	Triage        domaintriage.Result `json:"triage"`
	Application   intake.Flags        `json:"application"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)

	answers := map[string]string{}
	if doc := body.Get("answers"); doc.IsObject() {
		doc.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.JSON {
				answers[key.String()] = value.String()
			}
			return true
		})
	}

	result, err := h.intake.Submit(r.Context(), intake.Request{
		WalletAddress: stringField(body, "walletAddress"),
		Answers:       answers,
		UserAgent:     r.UserAgent(),
		ForwardedFor:  strings.TrimSpace(r.Header.Get("X-Forwarded-For")),
	})
	if err != nil {
		h.writeServiceError(w, err, "gatekeeper_error")
		return
	}

	writeJSON(w, http.StatusOK, applyResponse{
		OK:            true,
		ApplicationID: result.ApplicationID,
		Gatekeeper:    result.Gatekeeper,
		Triage:        result.Triage,
		Application:   result.Application,
	})
}
