package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josuejuca/analytics-imogo/internal/models"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustAppend(t *testing.T, repo *SQLiteRepository, userID, page, ip, browser, timestamp string) int64 {
	t.Helper()
	id, err := repo.Append(models.AccessEvent{
		UserID:    userID,
		Page:      page,
		IP:        ip,
		Browser:   browser,
		Timestamp: timestamp,
	})
	require.NoError(t, err)
	return id
}

func TestNewSQLite_SchemaInitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")

	repo, err := NewSQLite(path)
	require.NoError(t, err)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")
	mustAppend(t, repo, "ana", "/blog", "1.2.3.5", "Chrome", "2025-05-01 11:00:00")
	require.NoError(t, repo.Close())

	// Reopening runs the schema script again; rows must survive.
	repo2, err := NewSQLite(path)
	require.NoError(t, err)
	defer repo2.Close()

	total, err := repo2.CountAll()
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestAppend_IDsStrictlyIncreasing(t *testing.T) {
	repo := newTestRepo(t)

	var last int64
	for i := 0; i < 5; i++ {
		id := mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox",
			fmt.Sprintf("2025-05-01 10:00:%02d", i))
		assert.Greater(t, id, last)
		last = id
	}
}

func TestAppend_DuplicatesAccepted(t *testing.T) {
	repo := newTestRepo(t)

	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")

	total, err := repo.CountAll()
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestList_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	for i := 0; i < 25; i++ {
		mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox",
			fmt.Sprintf("2025-05-01 10:00:%02d", i))
	}

	events, total, err := repo.List(2, 10, SortAsc)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, events, 10)
	// Page 2 of size 10 ascending is rows 11-20.
	assert.Equal(t, "2025-05-01 10:00:10", events[0].Timestamp)
	assert.Equal(t, "2025-05-01 10:00:19", events[9].Timestamp)
}

func TestList_PageBeyondEndIsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")

	events, total, err := repo.List(5, 10, SortDesc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, events)
}

func TestList_SortDirections(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")
	mustAppend(t, repo, "ana", "/blog", "1.2.3.5", "Chrome", "2025-05-02 10:00:00")

	asc, _, err := repo.List(1, 10, SortAsc)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "bob", asc[0].UserID)

	desc, _, err := repo.List(1, 10, SortDesc)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "ana", desc[0].UserID)
}

func TestExactFilters(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")
	mustAppend(t, repo, "ana", "/blog", "1.2.3.5", "Chrome", "2025-05-01 11:00:00")
	mustAppend(t, repo, "bob", "/blog", "1.2.3.4", "Firefox", "2025-05-01 12:00:00")

	byUser, err := repo.ByUser("bob")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	// Descending by timestamp.
	assert.Equal(t, "/blog", byUser[0].Page)

	byPage, err := repo.ByPage("/blog")
	require.NoError(t, err)
	assert.Len(t, byPage, 2)

	byIP, err := repo.ByIP("1.2.3.5")
	require.NoError(t, err)
	require.Len(t, byIP, 1)
	assert.Equal(t, "ana", byIP[0].UserID)

	none, err := repo.ByUser("nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestByBrowserContains_CaseSensitiveSubstring(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4",
		"Mozilla/5.0 (X11; Linux) Chrome/120.0", "2025-05-01 10:00:00")

	hits, err := repo.ByBrowserContains("Chrome")
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	miss, err := repo.ByBrowserContains("chrome")
	require.NoError(t, err)
	assert.Empty(t, miss)
}

func TestByDateRange_InclusiveBounds(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 23:59:59")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-02 00:00:00")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-03 00:00:00")

	events, err := repo.ByDateRange("2025-05-01", "2025-05-02")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestByMonth_HalfOpenInterval(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-12-01 00:00:00")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-12-31 23:59:59")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2026-01-01 00:00:00")

	p, err := NewPeriod(12, 2025)
	require.NoError(t, err)
	events, err := repo.ByMonth(p, 100)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestByPageAndMonth(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-10 10:00:00")
	mustAppend(t, repo, "bob", "/blog", "1.2.3.4", "Firefox", "2025-05-10 11:00:00")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-06-10 10:00:00")

	p, err := NewPeriod(5, 2025)
	require.NoError(t, err)
	events, err := repo.ByPageAndMonth("/home", p, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2025-05-10 10:00:00", events[0].Timestamp)
}

func TestCounts(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")
	mustAppend(t, repo, "bob", "/blog", "1.2.3.4", "Firefox", "2025-05-01 11:00:00")
	mustAppend(t, repo, "ana", "/home", "1.2.3.5", "Chrome", "2025-05-01 12:00:00")

	total, err := repo.CountAll()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	byUser, err := repo.CountByUser("bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byUser)

	byPage, err := repo.CountByPage("/home")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byPage)
}

func TestSummary(t *testing.T) {
	repo := newTestRepo(t)
	for i := 0; i < 3; i++ {
		mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox",
			fmt.Sprintf("2025-05-01 10:00:%02d", i))
	}
	mustAppend(t, repo, "ana", "/blog", "1.2.3.5", "Chrome", "2025-05-02 10:00:00")

	s, err := repo.Summary()
	require.NoError(t, err)

	require.Len(t, s.DailyAccess, 2)
	// Most recent day first.
	assert.Equal(t, "2025-05-02", s.DailyAccess[0].Date)
	assert.Equal(t, int64(1), s.DailyAccess[0].Count)
	assert.Equal(t, int64(3), s.DailyAccess[1].Count)

	require.Len(t, s.TopPages, 2)
	assert.Equal(t, "/home", s.TopPages[0].Page)
	assert.Equal(t, int64(3), s.TopPages[0].Count)

	require.Len(t, s.TopBrowsers, 2)
	assert.Equal(t, "Firefox", s.TopBrowsers[0].Browser)
}

func TestSuspiciousIPs_ThresholdBoundary(t *testing.T) {
	repo := newTestRepo(t)
	since := "2025-05-01 00:00:00"

	// Before the window: never counted.
	mustAppend(t, repo, "anon", "/home", "9.9.9.9", "bot", "2025-04-30 23:59:59")
	for i := 0; i < 3; i++ {
		mustAppend(t, repo, "anon", "/home", "9.9.9.9", "bot",
			fmt.Sprintf("2025-05-01 10:00:%02d", i))
	}
	for i := 0; i < 2; i++ {
		mustAppend(t, repo, "anon", "/home", "8.8.8.8", "bot",
			fmt.Sprintf("2025-05-01 10:00:%02d", i))
	}

	results, err := repo.SuspiciousIPs(since, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "9.9.9.9", results[0].IP)
	assert.Equal(t, int64(3), results[0].Count)
}

func TestDailyUniqueSummary_AnonVisitorsMergeByIPAndBrowser(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "anon", "/home", "1.1.1.1", "X", "2025-05-01 10:00:00")
	mustAppend(t, repo, "anon", "/blog", "1.1.1.1", "X", "2025-05-01 11:00:00")
	mustAppend(t, repo, "bob", "/home", "2.2.2.2", "Firefox", "2025-05-01 12:00:00")

	results, err := repo.DailyUniqueSummary("2025-05-01", "2025-05-01")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].TotalAccesses)
	// Two anon rows share one (ip, browser) key; bob is the second visitor.
	assert.Equal(t, int64(2), results[0].UniqueVisitors)
}

func TestDailyUniqueSummary_AnonKeysDifferByBrowser(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "anon", "/home", "1.1.1.1", "X", "2025-05-01 10:00:00")
	mustAppend(t, repo, "anon", "/home", "1.1.1.1", "Y", "2025-05-01 11:00:00")

	results, err := repo.DailyUniqueSummary("2025-05-01", "2025-05-01")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].UniqueVisitors)
}

func TestHourlyDistribution(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 09:15:00")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-02 09:45:00")
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 23:00:00")

	results, err := repo.HourlyDistribution()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "09", results[0].Hour)
	assert.Equal(t, int64(2), results[0].Count)
	assert.Equal(t, "23", results[1].Hour)
	assert.Equal(t, int64(1), results[1].Count)
}

func TestLastAccessPerUser(t *testing.T) {
	repo := newTestRepo(t)
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-01 10:00:00")
	mustAppend(t, repo, "bob", "/blog", "1.2.3.4", "Firefox", "2025-05-03 10:00:00")
	mustAppend(t, repo, "ana", "/home", "1.2.3.5", "Chrome", "2025-05-02 10:00:00")

	results, err := repo.LastAccessPerUser(10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "bob", results[0].UserID)
	assert.Equal(t, "2025-05-03 10:00:00", results[0].LastAccess)
	assert.Equal(t, "ana", results[1].UserID)

	limited, err := repo.LastAccessPerUser(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMonthlyPageRollup_UnionWithZeroFill(t *testing.T) {
	repo := newTestRepo(t)
	// /blog: April only, one user twice.
	mustAppend(t, repo, "u1", "/blog", "1.1.1.1", "Firefox", "2025-04-10 10:00:00")
	mustAppend(t, repo, "u1", "/blog", "1.1.1.1", "Firefox", "2025-04-11 10:00:00")
	// /home: two users in May, a third in June.
	mustAppend(t, repo, "u1", "/home", "1.1.1.1", "Firefox", "2025-05-10 10:00:00")
	mustAppend(t, repo, "u2", "/home", "2.2.2.2", "Chrome", "2025-05-11 10:00:00")
	mustAppend(t, repo, "u3", "/home", "3.3.3.3", "Safari", "2025-06-01 10:00:00")

	p, err := NewPeriod(5, 2025)
	require.NoError(t, err)
	results, err := repo.MonthlyPageRollup(p)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byPage := map[string]PageMonthStats{}
	for _, s := range results {
		byPage[s.Page] = s
	}

	home := byPage["/home"]
	assert.Equal(t, int64(2), home.MonthAccesses)
	assert.Equal(t, int64(2), home.MonthUsers)
	assert.Equal(t, int64(2), home.CumulativeAccesses)
	assert.Equal(t, int64(2), home.CumulativeUsers)
	assert.Equal(t, int64(3), home.TotalAccesses)
	assert.Equal(t, int64(3), home.TotalUsers)

	// No May activity, but the page still appears with zeros for the month.
	blog := byPage["/blog"]
	assert.Equal(t, int64(0), blog.MonthAccesses)
	assert.Equal(t, int64(0), blog.MonthUsers)
	assert.Equal(t, int64(2), blog.CumulativeAccesses)
	assert.Equal(t, int64(1), blog.CumulativeUsers)
	assert.Equal(t, int64(2), blog.TotalAccesses)
	assert.Equal(t, int64(1), blog.TotalUsers)

	// Ordered by current-month activity.
	assert.Equal(t, "/home", results[0].Page)
}

func TestPageRecurrence_Buckets(t *testing.T) {
	repo := newTestRepo(t)
	for i := 0; i < 5; i++ {
		mustAppend(t, repo, "u1", "/promo", "1.1.1.1", "Firefox",
			fmt.Sprintf("2025-05-%02d 10:00:00", i+1))
	}
	mustAppend(t, repo, "u2", "/promo", "2.2.2.2", "Chrome", "2025-05-01 10:00:00")
	mustAppend(t, repo, "u2", "/promo", "2.2.2.2", "Chrome", "2025-05-02 10:00:00")
	mustAppend(t, repo, "u3", "/promo", "3.3.3.3", "Safari", "2025-05-01 10:00:00")
	// Outside the month: ignored.
	mustAppend(t, repo, "u1", "/promo", "1.1.1.1", "Firefox", "2025-06-01 10:00:00")

	p, err := NewPeriod(5, 2025)
	require.NoError(t, err)
	results, err := repo.PageRecurrence(p)
	require.NoError(t, err)
	require.Len(t, results, 1)

	promo := results[0]
	assert.Equal(t, "/promo", promo.Page)
	assert.Equal(t, int64(1), promo.Once)
	assert.Equal(t, int64(1), promo.Twice)
	assert.Equal(t, int64(0), promo.Thrice)
	assert.Equal(t, int64(0), promo.FourTimes)
	assert.Equal(t, int64(1), promo.FivePlus)
	assert.GreaterOrEqual(t, promo.MaxBySingleUser, int64(5))
}

func TestForEach_VisitsInInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	// Timestamps deliberately out of order; ForEach follows ids, not time.
	mustAppend(t, repo, "bob", "/home", "1.2.3.4", "Firefox", "2025-05-02 10:00:00")
	mustAppend(t, repo, "ana", "/blog", "1.2.3.5", "Chrome", "2025-05-01 10:00:00")

	var users []string
	err := repo.ForEach(func(e models.AccessEvent) error {
		users = append(users, e.UserID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "ana"}, users)
}
