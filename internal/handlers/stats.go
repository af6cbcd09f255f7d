package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/josuejuca/analytics-imogo/internal/clock"
	"github.com/josuejuca/analytics-imogo/internal/repository"
)

// StatsHandler serves the aggregate endpoints. Time windows are anchored on
// the fixed zone so "today" here always matches ingestion.
type StatsHandler struct {
	Repo repository.AccessLogRepository
}

func (h *StatsHandler) Count(w http.ResponseWriter, r *http.Request) {
	total, err := h.Repo.CountAll()
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

func (h *StatsHandler) CountByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	count, err := h.Repo.CountByUser(userID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "count": count})
}

func (h *StatsHandler) CountByPage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	count, err := h.Repo.CountByPage(page)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"page": page, "count": count})
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Summary()
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *StatsHandler) SuspiciousIPs(w http.ResponseWriter, r *http.Request) {
	threshold, ok := intQuery(r, "threshold", 100)
	if !ok || threshold < 10 {
		writeError(w, http.StatusBadRequest, "Parâmetro threshold inválido (mínimo 10)")
		return
	}
	hours, ok := intQuery(r, "hours", 24)
	if !ok || hours < 1 {
		writeError(w, http.StatusBadRequest, "Parâmetro hours inválido (mínimo 1)")
		return
	}

	since := clock.Now().Add(-time.Duration(hours) * time.Hour).Format(repository.TimestampLayout)
	results, err := h.Repo.SuspiciousIPs(since, threshold)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"threshold":         threshold,
		"time_window_hours": hours,
		"suspicious_ips":    results,
	})
}

func (h *StatsHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	days, ok := intQuery(r, "days", 7)
	if !ok || days < 1 {
		writeError(w, http.StatusBadRequest, "Parâmetro days inválido (mínimo 1)")
		return
	}

	end := clock.Now()
	start := end.AddDate(0, 0, -days)
	startDate := start.Format(repository.DateLayout)
	endDate := end.Format(repository.DateLayout)

	results, err := h.Repo.DailyUniqueSummary(startDate, endDate)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days_analyzed": days,
		"start_date":    startDate,
		"end_date":      endDate,
		"daily_summary": results,
	})
}

func (h *StatsHandler) HourlyDistribution(w http.ResponseWriter, r *http.Request) {
	results, err := h.Repo.HourlyDistribution()
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hourly": results})
}

func (h *StatsHandler) LastAccess(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, 10, maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Parâmetro limit inválido")
		return
	}
	results, err := h.Repo.LastAccessPerUser(limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": results})
}

func (h *StatsHandler) PagesByMonth(w http.ResponseWriter, r *http.Request) {
	p, msg := parsePeriod(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	results, err := h.Repo.MonthlyPageRollup(p)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mes":   p.Month,
		"ano":   p.Year,
		"pages": results,
	})
}

func (h *StatsHandler) PageRecurrence(w http.ResponseWriter, r *http.Request) {
	p, msg := parsePeriod(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	results, err := h.Repo.PageRecurrence(p)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mes":   p.Month,
		"ano":   p.Year,
		"pages": results,
	})
}
