package repository

import (
	"database/sql"
	"sort"

	"github.com/josuejuca/analytics-imogo/internal/models"
	_ "modernc.org/sqlite"
)

// Schema is the entire durable layout: one table plus five secondary
// indexes. Exported so dumps can embed it and replays recreate it.
const Schema = `
CREATE TABLE IF NOT EXISTS access_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT,
	page TEXT,
	ip TEXT,
	browser TEXT,
	timestamp TEXT
);

CREATE INDEX IF NOT EXISTS idx_user_id ON access_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_page ON access_logs (page);
CREATE INDEX IF NOT EXISTS idx_timestamp ON access_logs (timestamp);
CREATE INDEX IF NOT EXISTS idx_ip ON access_logs (ip);
CREATE INDEX IF NOT EXISTS idx_browser ON access_logs (browser);
`

const eventCols = "id, user_id, page, ip, browser, timestamp"

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath and ensures the schema.
// WAL keeps readers running while an append holds the write lock. Pragmas go
// through the DSN so they apply to every pooled connection, not just the one
// that happened to run an Exec; case_sensitive_like keeps browser substring
// filters case-sensitive.
func NewSQLite(dbPath string) (*SQLiteRepository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=case_sensitive_like(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr(err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, storageErr(err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Append(e models.AccessEvent) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO access_logs (user_id, page, ip, browser, timestamp) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Page, e.IP, e.Browser, e.Timestamp,
	)
	if err != nil {
		return 0, storageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

func (r *SQLiteRepository) queryEvents(query string, args ...interface{}) ([]models.AccessEvent, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	events := []models.AccessEvent{}
	for rows.Next() {
		var e models.AccessEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Page, &e.IP, &e.Browser, &e.Timestamp); err != nil {
			return nil, storageErr(err)
		}
		events = append(events, e)
	}
	return events, storageErr(rows.Err())
}

func (r *SQLiteRepository) List(page, pageSize int, sortDir Sort) ([]models.AccessEvent, int64, error) {
	dir := "DESC"
	if sortDir == SortAsc {
		dir = "ASC"
	}
	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM access_logs").Scan(&total); err != nil {
		return nil, 0, storageErr(err)
	}
	offset := (page - 1) * pageSize
	events, err := r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs ORDER BY timestamp "+dir+" LIMIT ? OFFSET ?",
		pageSize, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *SQLiteRepository) ByUser(userID string) ([]models.AccessEvent, error) {
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE user_id = ? ORDER BY timestamp DESC",
		userID,
	)
}

func (r *SQLiteRepository) ByPage(page string) ([]models.AccessEvent, error) {
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE page = ? ORDER BY timestamp DESC",
		page,
	)
}

func (r *SQLiteRepository) ByIP(ip string) ([]models.AccessEvent, error) {
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE ip = ? ORDER BY timestamp DESC",
		ip,
	)
}

func (r *SQLiteRepository) ByBrowserContains(fragment string) ([]models.AccessEvent, error) {
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE browser LIKE ? ORDER BY timestamp DESC",
		"%"+fragment+"%",
	)
}

func (r *SQLiteRepository) ByDateRange(startDate, endDate string) ([]models.AccessEvent, error) {
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE date(timestamp) BETWEEN ? AND ? ORDER BY timestamp DESC",
		startDate, endDate,
	)
}

func (r *SQLiteRepository) ByMonth(p Period, limit int) ([]models.AccessEvent, error) {
	start, end := p.Bounds()
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp DESC LIMIT ?",
		start, end, limit,
	)
}

func (r *SQLiteRepository) ByPageAndMonth(page string, p Period, limit int) ([]models.AccessEvent, error) {
	start, end := p.Bounds()
	return r.queryEvents(
		"SELECT "+eventCols+" FROM access_logs WHERE page = ? AND timestamp >= ? AND timestamp < ? ORDER BY timestamp DESC LIMIT ?",
		page, start, end, limit,
	)
}

func (r *SQLiteRepository) count(query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountAll() (int64, error) {
	return r.count("SELECT COUNT(*) FROM access_logs")
}

func (r *SQLiteRepository) CountByUser(userID string) (int64, error) {
	return r.count("SELECT COUNT(*) FROM access_logs WHERE user_id = ?", userID)
}

func (r *SQLiteRepository) CountByPage(page string) (int64, error) {
	return r.count("SELECT COUNT(*) FROM access_logs WHERE page = ?", page)
}

// Summary groups all history three ways: per calendar day, top 10 pages and
// top 5 browsers by count. Within equal counts SQLite's natural row order
// decides, which is stable for a given store file.
func (r *SQLiteRepository) Summary() (*Summary, error) {
	s := &Summary{
		DailyAccess: []DateCount{},
		TopPages:    []PageCount{},
		TopBrowsers: []BrowserCount{},
	}

	rows, err := r.db.Query(`
		SELECT date(timestamp) AS day, COUNT(*) AS cnt
		FROM access_logs GROUP BY day ORDER BY day DESC`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, storageErr(err)
		}
		s.DailyAccess = append(s.DailyAccess, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	rows2, err := r.db.Query(`
		SELECT page, COUNT(*) AS cnt
		FROM access_logs GROUP BY page ORDER BY cnt DESC LIMIT 10`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows2.Close()
	for rows2.Next() {
		var pc PageCount
		if err := rows2.Scan(&pc.Page, &pc.Count); err != nil {
			return nil, storageErr(err)
		}
		s.TopPages = append(s.TopPages, pc)
	}
	if err := rows2.Err(); err != nil {
		return nil, storageErr(err)
	}

	rows3, err := r.db.Query(`
		SELECT browser, COUNT(*) AS cnt
		FROM access_logs GROUP BY browser ORDER BY cnt DESC LIMIT 5`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows3.Close()
	for rows3.Next() {
		var bc BrowserCount
		if err := rows3.Scan(&bc.Browser, &bc.Count); err != nil {
			return nil, storageErr(err)
		}
		s.TopBrowsers = append(s.TopBrowsers, bc)
	}
	return s, storageErr(rows3.Err())
}

// SuspiciousIPs returns every ip with at least threshold events since the
// given cutoff timestamp, busiest first.
func (r *SQLiteRepository) SuspiciousIPs(since string, threshold int) ([]IPCount, error) {
	rows, err := r.db.Query(`
		SELECT ip, COUNT(*) AS cnt
		FROM access_logs
		WHERE timestamp >= ?
		GROUP BY ip
		HAVING cnt >= ?
		ORDER BY cnt DESC`, since, threshold)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	results := []IPCount{}
	for rows.Next() {
		var ic IPCount
		if err := rows.Scan(&ic.IP, &ic.Count); err != nil {
			return nil, storageErr(err)
		}
		results = append(results, ic)
	}
	return results, storageErr(rows.Err())
}

// DailyUniqueSummary counts, per day in [startDate, endDate], total events and
// distinct visitors. Anonymous rows (user_id = 'anon') are keyed by
// ip || '|' || browser so repeat anonymous visits collapse to one visitor.
func (r *SQLiteRepository) DailyUniqueSummary(startDate, endDate string) ([]DaySummary, error) {
	rows, err := r.db.Query(`
		SELECT
			date(timestamp) AS day,
			COUNT(*) AS total_accesses,
			COUNT(DISTINCT
				CASE
					WHEN user_id = 'anon' THEN ip || '|' || browser
					ELSE user_id
				END
			) AS unique_users
		FROM access_logs
		WHERE date(timestamp) BETWEEN ? AND ?
		GROUP BY date(timestamp)
		ORDER BY date(timestamp) DESC`, startDate, endDate)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	results := []DaySummary{}
	for rows.Next() {
		var ds DaySummary
		if err := rows.Scan(&ds.Date, &ds.TotalAccesses, &ds.UniqueVisitors); err != nil {
			return nil, storageErr(err)
		}
		results = append(results, ds)
	}
	return results, storageErr(rows.Err())
}

func (r *SQLiteRepository) HourlyDistribution() ([]HourCount, error) {
	rows, err := r.db.Query(`
		SELECT strftime('%H', timestamp) AS hour, COUNT(*) AS cnt
		FROM access_logs GROUP BY hour ORDER BY hour`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	results := []HourCount{}
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, storageErr(err)
		}
		results = append(results, hc)
	}
	return results, storageErr(rows.Err())
}

func (r *SQLiteRepository) LastAccessPerUser(limit int) ([]UserLastAccess, error) {
	rows, err := r.db.Query(`
		SELECT user_id, MAX(timestamp) AS last_access
		FROM access_logs
		GROUP BY user_id
		ORDER BY last_access DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	results := []UserLastAccess{}
	for rows.Next() {
		var ul UserLastAccess
		if err := rows.Scan(&ul.UserID, &ul.LastAccess); err != nil {
			return nil, storageErr(err)
		}
		results = append(results, ul)
	}
	return results, storageErr(rows.Err())
}

// pageAgg is one page's (count, distinct users) pair from a grouped query.
type pageAgg struct {
	accesses int64
	users    int64
}

func (r *SQLiteRepository) pageAggregates(where string, args ...interface{}) (map[string]pageAgg, error) {
	rows, err := r.db.Query(
		"SELECT page, COUNT(*) AS cnt, COUNT(DISTINCT user_id) AS users FROM access_logs"+
			where+" GROUP BY page", args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := map[string]pageAgg{}
	for rows.Next() {
		var page string
		var a pageAgg
		if err := rows.Scan(&page, &a.accesses, &a.users); err != nil {
			return nil, storageErr(err)
		}
		out[page] = a
	}
	return out, storageErr(rows.Err())
}

// MonthlyPageRollup computes, for every page with any activity ever, the six
// rollup numbers for the given month. The three grouped queries are merged
// into one key-to-record map so a page missing from one grouping still
// appears, with zeros for that dimension.
func (r *SQLiteRepository) MonthlyPageRollup(p Period) ([]PageMonthStats, error) {
	start, end := p.Bounds()

	month, err := r.pageAggregates(" WHERE timestamp >= ? AND timestamp < ?", start, end)
	if err != nil {
		return nil, err
	}
	cumulative, err := r.pageAggregates(" WHERE timestamp < ?", end)
	if err != nil {
		return nil, err
	}
	total, err := r.pageAggregates("")
	if err != nil {
		return nil, err
	}

	merged := map[string]*PageMonthStats{}
	record := func(page string) *PageMonthStats {
		if s, ok := merged[page]; ok {
			return s
		}
		s := &PageMonthStats{Page: page}
		merged[page] = s
		return s
	}
	for page, a := range month {
		s := record(page)
		s.MonthAccesses, s.MonthUsers = a.accesses, a.users
	}
	for page, a := range cumulative {
		s := record(page)
		s.CumulativeAccesses, s.CumulativeUsers = a.accesses, a.users
	}
	for page, a := range total {
		s := record(page)
		s.TotalAccesses, s.TotalUsers = a.accesses, a.users
	}

	results := make([]PageMonthStats, 0, len(merged))
	for _, s := range merged {
		results = append(results, *s)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].MonthAccesses != results[j].MonthAccesses {
			return results[i].MonthAccesses > results[j].MonthAccesses
		}
		return results[i].Page < results[j].Page
	})
	return results, nil
}

// PageRecurrence buckets per-user access counts within the month. The grouped
// (page, user) counts come from one query; bucketing happens here.
func (r *SQLiteRepository) PageRecurrence(p Period) ([]PageRecurrence, error) {
	start, end := p.Bounds()
	rows, err := r.db.Query(`
		SELECT page, user_id, COUNT(*) AS cnt
		FROM access_logs
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY page, user_id`, start, end)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	byPage := map[string]*PageRecurrence{}
	for rows.Next() {
		var page, userID string
		var cnt int64
		if err := rows.Scan(&page, &userID, &cnt); err != nil {
			return nil, storageErr(err)
		}
		pr, ok := byPage[page]
		if !ok {
			pr = &PageRecurrence{Page: page}
			byPage[page] = pr
		}
		switch {
		case cnt == 1:
			pr.Once++
		case cnt == 2:
			pr.Twice++
		case cnt == 3:
			pr.Thrice++
		case cnt == 4:
			pr.FourTimes++
		default:
			pr.FivePlus++
		}
		if cnt > pr.MaxBySingleUser {
			pr.MaxBySingleUser = cnt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	results := make([]PageRecurrence, 0, len(byPage))
	for _, pr := range byPage {
		results = append(results, *pr)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Page < results[j].Page })
	return results, nil
}

func (r *SQLiteRepository) ForEach(fn func(models.AccessEvent) error) error {
	rows, err := r.db.Query("SELECT " + eventCols + " FROM access_logs ORDER BY id ASC")
	if err != nil {
		return storageErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.AccessEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Page, &e.IP, &e.Browser, &e.Timestamp); err != nil {
			return storageErr(err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return storageErr(rows.Err())
}

func (r *SQLiteRepository) Exec(stmt string) error {
	if _, err := r.db.Exec(stmt); err != nil {
		return storageErr(err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
