package analytics_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideabank/internal/analytics"
	"ideabank/internal/testsupport"
)

func TestVisitWindowCounts(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.0.1", Path: "/", CreatedAt: now.Add(-time.Hour)})
	testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.0.2", Path: "/", CreatedAt: now.AddDate(0, 0, -3)})
	testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.0.3", Path: "/", CreatedAt: now.AddDate(0, 0, -20)})
	testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.0.4", Path: "/", CreatedAt: now.AddDate(0, 0, -40)})

	counts, err := analytics.VisitWindowCounts(db, now)
	require.NoError(t, err)

	// A visit one hour ago may fall on yesterday right after midnight, so
	// only the week and month figures are exact.
	assert.LessOrEqual(t, counts.Today, counts.Week)
	assert.LessOrEqual(t, counts.Week, counts.Month)
	assert.EqualValues(t, 2, counts.Week)
	assert.EqualValues(t, 3, counts.Month)
}

func TestUniqueVisitors(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	for i := 0; i < 3; i++ {
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.1.1", Path: fmt.Sprintf("/p%d", i)})
	}
	testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.1.2", Path: "/"})

	count, err := analytics.UniqueVisitors(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGetTopBrowsersAndDevices(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	rows := []struct {
		browser string
		device  string
	}{
		{"Chrome", "Desktop"},
		{"Chrome", "Mobile"},
		{"Firefox", "Desktop"},
	}
	for i, r := range rows {
		visit := testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: fmt.Sprintf("10.0.2.%d", i), Path: "/"})
		require.NoError(t, db.Model(visit).Updates(map[string]interface{}{
			"browser":     r.browser,
			"device_type": r.device,
		}).Error)
	}

	browsers, err := analytics.GetTopBrowsers(db)
	require.NoError(t, err)
	require.Len(t, browsers, 2)
	assert.Equal(t, "Chrome", browsers[0].Name)
	assert.EqualValues(t, 2, browsers[0].Count)

	devices, err := analytics.GetTopDevices(db)
	require.NoError(t, err)
	assert.Equal(t, "Desktop", devices[0].Name)
}

func TestGetTopPagesRespectsLimit(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	// 12 distinct paths, "/hot" visited the most.
	for i := 0; i < 12; i++ {
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: fmt.Sprintf("10.0.3.%d", i), Path: fmt.Sprintf("/cold-%d", i)})
	}
	for i := 0; i < 3; i++ {
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: fmt.Sprintf("10.0.4.%d", i), Path: "/hot"})
	}

	pages, err := analytics.GetTopPages(db, analytics.TopPagesLimit)
	require.NoError(t, err)
	assert.Len(t, pages, analytics.TopPagesLimit)
	assert.Equal(t, "/hot", pages[0].Name)
	assert.EqualValues(t, 3, pages[0].Count)
}

func TestGetTrafficSources(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("all zero with no visits", func(t *testing.T) {
		sources, err := analytics.GetTrafficSources(db)
		require.NoError(t, err)
		assert.Zero(t, sources.Total)
		assert.Zero(t, sources.OrganicPercent)
		assert.Zero(t, sources.DirectPercent)
		assert.Zero(t, sources.ReferralPercent)
	})

	t.Run("buckets referrers and sums to 100", func(t *testing.T) {
		fixtures := []struct {
			ip       string
			referrer string
		}{
			{"10.0.5.1", "https://www.google.com/search?q=x"},
			{"10.0.5.2", "https://duckduckgo.com/?q=y"},
			{"10.0.5.3", ""},
			{"10.0.5.4", "https://news.ycombinator.com/item?id=1"},
		}
		for _, f := range fixtures {
			testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: f.ip, Path: "/", Referrer: f.referrer})
		}

		sources, err := analytics.GetTrafficSources(db)
		require.NoError(t, err)
		assert.EqualValues(t, 2, sources.Organic)
		assert.EqualValues(t, 1, sources.Direct)
		assert.EqualValues(t, 1, sources.Referral)
		assert.InDelta(t, 100.0, sources.OrganicPercent+sources.DirectPercent+sources.ReferralPercent, 0.001)
	})
}

func TestGetBounceRate(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("zero and excellent with no visits", func(t *testing.T) {
		stats, err := analytics.GetBounceRate(db)
		require.NoError(t, err)
		assert.Zero(t, stats.Rate)
		assert.Equal(t, "excellent", stats.Rating)
	})

	t.Run("counts single-visit IPs", func(t *testing.T) {
		// Two bouncing IPs, two returning ones: 50%, "good".
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.6.1", Path: "/"})
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.6.2", Path: "/"})
		for i := 0; i < 2; i++ {
			testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.6.3", Path: fmt.Sprintf("/p%d", i)})
			testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.6.4", Path: fmt.Sprintf("/q%d", i)})
		}

		stats, err := analytics.GetBounceRate(db)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, stats.Rate, 0.001)
		assert.Equal(t, "good", stats.Rating)
	})
}

func TestGetConversionRate(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("zero with no visits", func(t *testing.T) {
		rate, err := analytics.GetConversionRate(db)
		require.NoError(t, err)
		assert.Zero(t, rate)
	})

	t.Run("percentage of signed-in visits", func(t *testing.T) {
		user := testsupport.CreateTestUser(t, db, "converter", "converter@example.com", "password123")
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.7.1", Path: "/", UserID: &user.ID})
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.7.2", Path: "/"})
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.7.3", Path: "/"})
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.7.4", Path: "/"})

		rate, err := analytics.GetConversionRate(db)
		require.NoError(t, err)
		assert.InDelta(t, 25.0, rate, 0.001)
	})
}

func TestGetSessionEstimates(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("zero with no visits", func(t *testing.T) {
		estimates, err := analytics.GetSessionEstimates(db)
		require.NoError(t, err)
		assert.Zero(t, estimates.PagesPerSession)
		assert.Zero(t, estimates.AvgSessionDuration)
	})

	t.Run("visits over unique IPs, duration doubled", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.8.1", Path: fmt.Sprintf("/p%d", i)})
		}
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.8.2", Path: "/"})

		estimates, err := analytics.GetSessionEstimates(db)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, estimates.PagesPerSession, 0.001)
		assert.InDelta(t, 4.0, estimates.AvgSessionDuration, 0.001)
	})
}

func TestGetContentTotals(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	user := testsupport.CreateTestUser(t, db, "total", "total@example.com", "password123")
	idea := testsupport.CreateTestIdea(t, db, user.ID, "counted")
	testsupport.CreateTestComment(t, db, idea.ID, user.ID, "counted", true)
	testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{IP: "10.0.9.1", Path: "/"})

	totals, err := analytics.GetContentTotals(db, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, totals.Users)
	assert.EqualValues(t, 1, totals.Ideas)
	assert.EqualValues(t, 1, totals.Comments)
	assert.EqualValues(t, 1, totals.Visits)
	assert.EqualValues(t, 1, totals.NewUsersMonth)
	assert.EqualValues(t, 1, totals.NewIdeasMonth)
}

func TestBuildDashboard(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	user := testsupport.CreateTestUser(t, db, "dash", "dash@example.com", "password123")
	idea := testsupport.CreateTestIdea(t, db, user.ID, "dashboard idea")
	testsupport.CreateTestComment(t, db, idea.ID, user.ID, "dashboard comment", true)
	for i := 0; i < 25; i++ {
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{
			IP:       fmt.Sprintf("10.0.10.%d", i),
			Path:     "/",
			Referrer: "https://bing.com/search",
		})
	}

	dashboard, err := analytics.BuildDashboard(db, time.Now(), 2)
	require.NoError(t, err)

	assert.EqualValues(t, 25, dashboard.Totals.Visits)
	assert.EqualValues(t, 25, dashboard.UniqueIPs)
	assert.EqualValues(t, 25, dashboard.Traffic.Organic)
	assert.InDelta(t, 100.0, dashboard.Bounce.Rate, 0.001)
	assert.Equal(t, "needs improvement", dashboard.Bounce.Rating)
	assert.Equal(t, 2, dashboard.VisitPage.CurrentPage)
	assert.Len(t, dashboard.VisitPage.Visits, 5)
	require.NotEmpty(t, dashboard.TopPages)
	assert.Equal(t, "/", dashboard.TopPages[0].Name)
}
