package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"ideabank/internal/config"
	"ideabank/internal/http"
	"ideabank/internal/http/middleware"
)

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes using cartridge's route API.
func MountAppRoutes(srv *cartridge.Server) {
	SetupSession(srv)

	cfg := config.GetConfig()
	sessionMgr := srv.Session()
	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	// Every request passes through these two: the tracker records public
	// page visits, the resolver turns the session into an authz.Actor.
	srv.App().Use(middleware.VisitTracker(db, sessionMgr, logger))
	srv.App().Use(middleware.ResolveActor(db, sessionMgr, logger))

	// Rate limiting only bites in production; in development and tests it
	// would get in the way.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 10 attempts per minute against login and registration keeps brute
	// force out without hurting real users.
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	authFormConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{authRateLimiter},
	}

	// Routes that require a signed-in user.
	userConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{sessionMgr.Middleware()},
	}

	// Routes that additionally require the admin flag.
	adminConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
			middleware.RequireAdmin(),
		},
	}

	// === PUBLIC PAGES ===
	srv.Get("/", http.HomeIndexAction)
	srv.Get("/latest", http.LatestIdeasAction)
	srv.Get("/most-viewed", http.MostViewedIdeasAction)
	srv.Get("/most-commented", http.MostCommentedIdeasAction)
	srv.Get("/idea/:id", http.IdeaShowAction)

	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	srv.Get("/uploads/:filename", http.UploadsShowAction)

	// === AUTHENTICATION ===
	srv.Get("/login", http.RenderLoginAction)
	srv.Post("/login", http.ProcessLoginAction, authFormConfig)
	srv.Get("/register", http.RenderRegisterAction)
	srv.Post("/register", http.ProcessRegisterAction, authFormConfig)
	srv.Post("/logout", http.LogoutAction, userConfig)

	srv.Get("/auth/google", http.GoogleLoginAction, authFormConfig)
	srv.Get("/auth/google/callback", http.GoogleCallbackAction, authFormConfig)

	// === IDEAS & COMMENTS (signed-in) ===
	srv.Get("/submit_idea", http.IdeaSubmitPageAction, userConfig)
	srv.Post("/submit_idea", http.IdeaSubmitFormAction, userConfig)
	srv.Get("/idea/:id/edit", http.IdeaEditPageAction, userConfig)
	srv.Post("/idea/:id/edit", http.IdeaUpdateFormAction, userConfig)

	srv.Post("/idea/:id/comment", http.CommentCreateAction, userConfig)
	srv.Get("/comment/:id/edit", http.CommentEditPageAction, userConfig)
	srv.Post("/comment/:id/edit", http.CommentUpdateFormAction, userConfig)
	srv.Post("/comment/:id/delete", http.CommentDeleteAction, userConfig)
	srv.Post("/comment/:id/toggle-publish", http.CommentTogglePublishAction, userConfig)

	// === PROFILE ===
	srv.Get("/profile", http.ProfileShowAction, userConfig)
	srv.Get("/profile/edit", http.ProfileEditPageAction, userConfig)
	srv.Post("/profile/edit", http.ProfileUpdateFormAction, userConfig)

	// === ADMIN ===
	srv.Get("/dashboard", http.DashboardIndexAction, adminConfig)

	srv.Get("/admin/users", http.AdminUsersIndexAction, adminConfig)
	srv.Get("/admin/users/add", http.AdminUserAddPageAction, adminConfig)
	srv.Post("/admin/users/add", http.AdminUserCreateFormAction, adminConfig)
	srv.Get("/admin/users/:id/edit", http.AdminUserEditPageAction, adminConfig)
	srv.Post("/admin/users/:id/edit", http.AdminUserUpdateFormAction, adminConfig)
	srv.Post("/admin/users/:id/toggle-admin", http.AdminUserToggleAdminAction, adminConfig)
	srv.Post("/admin/users/:id/delete", http.AdminUserDeleteAction, adminConfig)
}
