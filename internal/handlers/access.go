package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/josuejuca/analytics-imogo/internal/ingest"
)

type AccessHandler struct {
	Recorder *ingest.Recorder
}

type accessRequest struct {
	UserID *string `json:"user_id"`
	Page   *string `json:"page"`
}

// ServeHTTP records one page access. Only presence of user_id and page is
// required; empty strings are accepted. IP and browser come from request
// metadata, the timestamp from the server clock.
func (h *AccessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body accessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if body.UserID == nil || body.Page == nil {
		writeError(w, http.StatusBadRequest, "user_id e page são obrigatórios")
		return
	}

	_, err := h.Recorder.Record(*body.UserID, *body.Page, clientIP(r), r.Header.Get("User-Agent"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Acesso registrado!",
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
