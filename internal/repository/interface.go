package repository

import (
	"github.com/josuejuca/analytics-imogo/internal/models"
)

// Sort is the only accepted ordering for timestamp-sorted listings.
// It is switched in code, never interpolated into query text.
type Sort string

const (
	SortAsc  Sort = "asc"
	SortDesc Sort = "desc"
)

// ParseSort maps the query-string value to a Sort, defaulting to descending.
func ParseSort(s string) (Sort, bool) {
	switch s {
	case "", "desc":
		return SortDesc, true
	case "asc":
		return SortAsc, true
	}
	return SortDesc, false
}

type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PageCount struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

type BrowserCount struct {
	Browser string `json:"browser"`
	Count   int64  `json:"count"`
}

type IPCount struct {
	IP    string `json:"ip"`
	Count int64  `json:"count"`
}

type HourCount struct {
	Hour  string `json:"hour"` // "00".."23"
	Count int64  `json:"count"`
}

type Summary struct {
	DailyAccess []DateCount    `json:"daily_access"`
	TopPages    []PageCount    `json:"top_pages"`
	TopBrowsers []BrowserCount `json:"top_browsers"`
}

type DaySummary struct {
	Date           string `json:"date"`
	TotalAccesses  int64  `json:"total_accesses"`
	UniqueVisitors int64  `json:"unique_users"`
}

type UserLastAccess struct {
	UserID     string `json:"user_id"`
	LastAccess string `json:"last_access"`
}

// PageMonthStats carries the six rollup numbers for one page: activity inside
// the month, accumulated through the end of the month, and over all history.
type PageMonthStats struct {
	Page               string `json:"page"`
	MonthAccesses      int64  `json:"accesses_month"`
	MonthUsers         int64  `json:"unique_users_month"`
	CumulativeAccesses int64  `json:"accesses_until_month"`
	CumulativeUsers    int64  `json:"unique_users_until_month"`
	TotalAccesses      int64  `json:"accesses_total"`
	TotalUsers         int64  `json:"unique_users_total"`
}

// PageRecurrence buckets, per page, how many distinct users hit the page
// exactly 1..4 times within a month, with 5+ collapsed into one bucket.
type PageRecurrence struct {
	Page            string `json:"page"`
	Once            int64  `json:"1x"`
	Twice           int64  `json:"2x"`
	Thrice          int64  `json:"3x"`
	FourTimes       int64  `json:"4x"`
	FivePlus        int64  `json:"5x_or_more"`
	MaxBySingleUser int64  `json:"max_accesses_by_single_user"`
}

type AccessLogRepository interface {
	Append(e models.AccessEvent) (int64, error)

	List(page, pageSize int, sort Sort) ([]models.AccessEvent, int64, error)
	ByUser(userID string) ([]models.AccessEvent, error)
	ByPage(page string) ([]models.AccessEvent, error)
	ByIP(ip string) ([]models.AccessEvent, error)
	ByBrowserContains(fragment string) ([]models.AccessEvent, error)
	ByDateRange(startDate, endDate string) ([]models.AccessEvent, error)
	ByMonth(p Period, limit int) ([]models.AccessEvent, error)
	ByPageAndMonth(page string, p Period, limit int) ([]models.AccessEvent, error)

	CountAll() (int64, error)
	CountByUser(userID string) (int64, error)
	CountByPage(page string) (int64, error)

	Summary() (*Summary, error)
	SuspiciousIPs(since string, threshold int) ([]IPCount, error)
	DailyUniqueSummary(startDate, endDate string) ([]DaySummary, error)
	HourlyDistribution() ([]HourCount, error)
	LastAccessPerUser(limit int) ([]UserLastAccess, error)
	MonthlyPageRollup(p Period) ([]PageMonthStats, error)
	PageRecurrence(p Period) ([]PageRecurrence, error)

	// ForEach visits every stored event in insertion order (ascending id).
	ForEach(fn func(models.AccessEvent) error) error
	// Exec runs one raw statement; used by dump replay only.
	Exec(stmt string) error

	Close() error
}
