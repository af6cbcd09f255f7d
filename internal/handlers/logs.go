package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/josuejuca/analytics-imogo/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultLimit    = 100
	maxLimit        = 1000
)

// LogsHandler serves the listing and filter endpoints. Every method parses
// and validates its parameters before touching the repository.
type LogsHandler struct {
	Repo repository.AccessLogRepository
}

// List returns one page of the full log ordered by timestamp. A page beyond
// the available rows yields an empty data array, not an error.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := intQuery(r, "page", 1)
	if !ok || page < 1 {
		writeError(w, http.StatusBadRequest, "Parâmetro page inválido")
		return
	}
	pageSize, ok := intQuery(r, "page_size", defaultPageSize)
	if !ok || pageSize < 1 || pageSize > maxPageSize {
		writeError(w, http.StatusBadRequest, "Parâmetro page_size inválido (1-100)")
		return
	}
	sort, ok := repository.ParseSort(r.URL.Query().Get("sort"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Parâmetro sort inválido (asc|desc)")
		return
	}

	events, total, err := h.Repo.List(page, pageSize, sort)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":      events,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

func (h *LogsHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	events, err := h.Repo.ByUser(chi.URLParam(r, "userID"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": events})
}

func (h *LogsHandler) ByPage(w http.ResponseWriter, r *http.Request) {
	events, err := h.Repo.ByPage(chi.URLParam(r, "page"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": events})
}

func (h *LogsHandler) ByIP(w http.ResponseWriter, r *http.Request) {
	events, err := h.Repo.ByIP(chi.URLParam(r, "ip"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": events})
}

func (h *LogsHandler) ByBrowser(w http.ResponseWriter, r *http.Request) {
	events, err := h.Repo.ByBrowserContains(chi.URLParam(r, "browser"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": events})
}

// DateRange filters on the calendar-date portion of the timestamp, both
// bounds inclusive. Malformed dates are rejected before any query runs.
func (h *LogsHandler) DateRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if !repository.ValidDate(start) || !repository.ValidDate(end) {
		writeError(w, http.StatusBadRequest, "Formato de data inválido. Use YYYY-MM-DD")
		return
	}

	events, err := h.Repo.ByDateRange(start, end)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": events})
}

func (h *LogsHandler) ByMonth(w http.ResponseWriter, r *http.Request) {
	p, msg := parsePeriod(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	limit, ok := parseLimit(r, defaultLimit, maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Parâmetro limit inválido")
		return
	}

	events, err := h.Repo.ByMonth(p, limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": events,
		"mes":  p.Month,
		"ano":  p.Year,
	})
}

func (h *LogsHandler) ByPageAndMonth(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		writeError(w, http.StatusBadRequest, "Parâmetro page é obrigatório")
		return
	}
	p, msg := parsePeriod(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	limit, ok := parseLimit(r, defaultLimit, maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Parâmetro limit inválido")
		return
	}

	events, err := h.Repo.ByPageAndMonth(page, p, limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": events,
		"page": page,
		"mes":  p.Month,
		"ano":  p.Year,
	})
}
