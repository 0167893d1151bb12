package httpapi

import (
	"net/http"

	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/usecase/triage"
)

type triageListResponse struct {
	OK     bool          `json:"ok"`
	Items  []triage.Item `json:"items"`
	Source string        `json:"source"`
}

type triageUpdateResponse struct {
	OK    bool                     `json:"ok"`
	Entry domaintriage.StatusEntry `json:"entry"`
}

func (h *Handler) handleTriageList(w http.ResponseWriter, r *http.Request) {
	result, err := h.triage.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "triage_error")
		return
	}
	items := result.Items
	if items == nil {
		items = []triage.Item{}
	}
	writeJSON(w, http.StatusOK, triageListResponse{OK: true, Items: items, Source: result.Source})
}

func (h *Handler) handleTriageUpdate(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	entry, err := h.triage.UpdateStatus(r.Context(), triage.UpdateInput{
		ApplicationID: stringField(body, "applicationId"),
		Status:        stringField(body, "status"),
		Reviewer:      stringField(body, "reviewer"),
	})
	if err != nil {
		h.writeServiceError(w, err, "triage_error")
		return
	}
	writeJSON(w, http.StatusOK, triageUpdateResponse{OK: true, Entry: entry})
}
