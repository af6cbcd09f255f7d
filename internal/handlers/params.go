package handlers

import (
	"net/http"
	"strconv"

	"github.com/josuejuca/analytics-imogo/internal/repository"
)

// intQuery reads an integer query parameter, falling back to def when absent.
// A non-numeric value reports ok=false; range checks are the caller's job.
func intQuery(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePeriod reads the mes/ano pair and validates it before any query runs.
func parsePeriod(r *http.Request) (repository.Period, string) {
	mes, ok := intQuery(r, "mes", 0)
	if !ok {
		return repository.Period{}, "Parâmetro mes inválido"
	}
	ano, ok := intQuery(r, "ano", 0)
	if !ok {
		return repository.Period{}, "Parâmetro ano inválido"
	}
	p, err := repository.NewPeriod(mes, ano)
	if err != nil {
		return repository.Period{}, "Parâmetros mes/ano inválidos: mes 1-12, ano 2000-2100"
	}
	return p, ""
}

// parseLimit bounds result-set size for the raw month exports.
func parseLimit(r *http.Request, def, max int) (int, bool) {
	limit, ok := intQuery(r, "limit", def)
	if !ok || limit < 1 {
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}
