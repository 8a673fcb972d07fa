package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ideabank/internal/http/middleware"
	"ideabank/internal/testsupport"
	"ideabank/internal/visits"
)

// stubSessions resolves every request to a fixed user.
type stubSessions struct {
	id uint
	ok bool
}

func (s stubSessions) GetUserID(_ *fiber.Ctx) (uint, bool) {
	return s.id, s.ok
}

func newTrackedApp(t *testing.T, db *gorm.DB, sessions middleware.SessionReader) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(middleware.VisitTracker(db, sessions, testsupport.GetLogger()))
	app.All("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func countVisits(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&visits.Visit{}).Count(&count).Error)
	return count
}

func TestVisitTracker(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("records one row per public request", func(t *testing.T) {
		app := newTrackedApp(t, db, stubSessions{})
		before := countVisits(t, db)

		req := httptest.NewRequest("GET", "/idea/1", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux) Firefox/121.0")
		req.Header.Set("Referer", "https://duckduckgo.com/")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		assert.Equal(t, before+1, countVisits(t, db))

		var visit visits.Visit
		require.NoError(t, db.Order("id DESC").First(&visit).Error)
		assert.Equal(t, "/idea/1", visit.PagePath)
		assert.Equal(t, "Firefox", visit.Browser)
		assert.Equal(t, "https://duckduckgo.com/", visit.Referrer)
	})

	t.Run("skips untracked prefixes", func(t *testing.T) {
		app := newTrackedApp(t, db, stubSessions{})
		before := countVisits(t, db)

		for _, path := range []string{"/static/app.css", "/uploads/pic.png", "/dashboard", "/admin/users", "/_health"} {
			req := httptest.NewRequest("GET", path, nil)
			req.Header.Set("User-Agent", "Mozilla/5.0")
			_, err := app.Test(req)
			require.NoError(t, err)
		}

		assert.Equal(t, before, countVisits(t, db))
	})

	t.Run("prefers the first X-Forwarded-For entry", func(t *testing.T) {
		app := newTrackedApp(t, db, stubSessions{})

		req := httptest.NewRequest("GET", "/forwarded", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
		_, err := app.Test(req)
		require.NoError(t, err)

		var visit visits.Visit
		require.NoError(t, db.Where("page_path = ?", "/forwarded").First(&visit).Error)
		assert.Equal(t, "198.51.100.7", visit.IPAddress)
	})

	t.Run("attaches the session user", func(t *testing.T) {
		user := testsupport.CreateTestUser(t, db, "tracked", "tracked@example.com", "password123")
		app := newTrackedApp(t, db, stubSessions{id: user.ID, ok: true})

		req := httptest.NewRequest("GET", "/signed-in", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		_, err := app.Test(req)
		require.NoError(t, err)

		var visit visits.Visit
		require.NoError(t, db.Where("page_path = ?", "/signed-in").First(&visit).Error)
		require.NotNil(t, visit.UserID)
		assert.Equal(t, user.ID, *visit.UserID)
	})

	t.Run("never records admin browsing", func(t *testing.T) {
		admin := testsupport.CreateTestAdmin(t, db, "trackedadmin", "trackedadmin@example.com", "password123")
		app := newTrackedApp(t, db, stubSessions{id: admin.ID, ok: true})
		before := countVisits(t, db)

		req := httptest.NewRequest("GET", "/some-public-page", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		_, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, before, countVisits(t, db))
	})
}

func TestClientIP(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = middleware.ClientIP(c)
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("falls back to the peer address", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})

	t.Run("trims the forwarded entry", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "  203.0.113.77 , 172.16.0.1")
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.77", got)
	})
}
