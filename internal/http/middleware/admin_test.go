package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ideabank/internal/authz"
	"ideabank/internal/http/middleware"
	"ideabank/internal/testsupport"
)

func newGuardedApp(t *testing.T, db *gorm.DB, sessions middleware.SessionReader) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(middleware.ResolveActor(db, sessions, testsupport.GetLogger()))
	app.Get("/dashboard", middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		return c.JSON(fiber.Map{"id": actor.ID, "authenticated": actor.Authenticated})
	})
	return app
}

func TestResolveActor(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("anonymous requests get the zero actor", func(t *testing.T) {
		app := newGuardedApp(t, db, stubSessions{})
		resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("a stale session resolves to anonymous", func(t *testing.T) {
		app := newGuardedApp(t, db, stubSessions{id: 424242, ok: true})
		resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	})
}

func TestRequireAdmin(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	admin := testsupport.CreateTestAdmin(t, db, "gateadmin", "gateadmin@example.com", "password123")
	regular := testsupport.CreateTestUser(t, db, "gateuser", "gateuser@example.com", "password123")

	t.Run("admins pass", func(t *testing.T) {
		app := newGuardedApp(t, db, stubSessions{id: admin.ID, ok: true})
		resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("regular users are redirected to login", func(t *testing.T) {
		app := newGuardedApp(t, db, stubSessions{id: regular.ID, ok: true})
		resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("missing resolver means anonymous, not a panic", func(t *testing.T) {
		app := fiber.New()
		app.Get("/locked", middleware.RequireAdmin(), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		resp, err := app.Test(httptest.NewRequest("GET", "/locked", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	})
}

func TestActorFromCtxDefault(t *testing.T) {
	app := fiber.New()
	var actor authz.Actor
	app.Get("/", func(c *fiber.Ctx) error {
		actor = middleware.ActorFromCtx(c)
		return c.SendStatus(fiber.StatusOK)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, authz.Anonymous, actor)
}
