package httpapi

import (
	"net/http"
	"strings"

	"obiwork/internal/usecase/health"
)

type statusResponse struct {
	OK     bool          `json:"ok"`
	Status health.Report `json:"status"`
}

type serviceStatusResponse struct {
	OK      bool          `json:"ok"`
	Service string        `json:"service"`
	Health  health.Health `json:"health"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("service")); name != "" {
		result, err := h.health.Service(r.Context(), name)
		if err != nil {
			h.writeServiceError(w, err, "status_error")
			return
		}
		writeJSON(w, http.StatusOK, serviceStatusResponse{OK: true, Service: name, Health: result})
		return
	}

	report, err := h.health.Report(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "status_error")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{OK: true, Status: report})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
