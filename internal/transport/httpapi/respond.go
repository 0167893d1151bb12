package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	domainaccess "obiwork/internal/domain/access"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{OK: false, Error: message})
}

// readBody returns the parsed request body. A missing or malformed body
// parses as an empty document, so every field reads as absent.
func readBody(r *http.Request) gjson.Result {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(raw)
}

// stringField reads a string field; numbers and booleans are rendered as
// text, objects and arrays read as empty.
func stringField(doc gjson.Result, path string) string {
	v := doc.Get(path)
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return v.String()
	default:
		return ""
	}
}

func (h *Handler) setAccessCookies(w http.ResponseWriter, wallet string) {
	expires := time.Now().Add(h.cookies.MaxAge)
	for _, c := range []struct{ name, value string }{
		{domainaccess.CookieAllowed, "true"},
		{domainaccess.CookieWallet, wallet},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    c.value,
			Path:     "/",
			MaxAge:   int(h.cookies.MaxAge.Seconds()),
			Expires:  expires,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
