package ingest

import (
	"github.com/rs/zerolog/log"

	"github.com/josuejuca/analytics-imogo/internal/clock"
	"github.com/josuejuca/analytics-imogo/internal/models"
	"github.com/josuejuca/analytics-imogo/internal/repository"
)

// UnknownAgent is stored when the request carries no User-Agent header.
const UnknownAgent = "Desconhecido"

// Recorder turns one inbound request into exactly one stored event.
type Recorder struct {
	Repo repository.AccessLogRepository
}

func NewRecorder(repo repository.AccessLogRepository) *Recorder {
	return &Recorder{Repo: repo}
}

// Record appends one event. The timestamp is the server receive time in the
// fixed zone; no field is validated beyond presence, so empty strings pass
// through as-is.
func (r *Recorder) Record(userID, page, ip, userAgent string) (int64, error) {
	if userAgent == "" {
		userAgent = UnknownAgent
	}
	e := models.AccessEvent{
		UserID:    userID,
		Page:      page,
		IP:        ip,
		Browser:   userAgent,
		Timestamp: clock.Now().Format(repository.TimestampLayout),
	}
	id, err := r.Repo.Append(e)
	if err != nil {
		return 0, err
	}
	log.Debug().Int64("id", id).Str("user_id", userID).Str("page", page).Msg("access recorded")
	return id, nil
}
