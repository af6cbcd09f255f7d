package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/josuejuca/analytics-imogo/internal/dump"
	"github.com/josuejuca/analytics-imogo/internal/repository"
)

type BackupHandler struct {
	Repo repository.AccessLogRepository
}

// Export streams the full SQL dump as a download. Rows go straight from the
// store to the response; a failure after the first byte can only be logged.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/sql")
	w.Header().Set("Content-Disposition", `attachment; filename="backup_analytics.sql"`)

	if err := dump.Export(h.Repo, w); err != nil {
		log.Error().Err(err).Msg("backup export failed")
	}
}

// Import replays an uploaded dump. Replaying a dump twice duplicates its
// rows; that is the contract, not a bug.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	applied, err := dump.Import(h.Repo, r.Body)
	if err != nil {
		if errors.Is(err, dump.ErrImportFailure) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"statements": applied,
	})
}
