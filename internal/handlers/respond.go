package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/josuejuca/analytics-imogo/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRepoError maps store failures: unavailable storage is 503, anything
// else a plain 500. SQL details go to the log, never to the client.
func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrStorageUnavailable) {
		log.Error().Err(err).Msg("storage unavailable")
		writeError(w, http.StatusServiceUnavailable, "erro ao acessar o banco de dados")
		return
	}
	log.Error().Err(err).Msg("query failed")
	writeError(w, http.StatusInternalServerError, "erro interno")
}
