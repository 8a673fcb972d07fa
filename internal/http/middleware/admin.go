package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ideabank/internal/authz"
	"ideabank/internal/users"
)

// ActorKey is the fiber.Ctx local under which the resolved actor is stored.
const ActorKey = "actor"

// ResolveActor loads the session user once per request and stores an
// authz.Actor in the request locals. Anonymous requests get the zero actor.
func ResolveActor(db *gorm.DB, sessions SessionReader, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := authz.Anonymous
		if sessions != nil {
			if id, ok := sessions.GetUserID(c); ok {
				user, err := users.FindByID(db, id)
				if err != nil {
					logger.Warn("Session references missing user", slog.Any("user_id", id))
				} else {
					actor = authz.Actor{ID: user.ID, IsAdmin: user.IsAdmin, Authenticated: true}
				}
			}
		}
		c.Locals(ActorKey, actor)
		return c.Next()
	}
}

// ActorFromCtx returns the actor resolved by ResolveActor, or the zero
// actor when the middleware did not run.
func ActorFromCtx(c *fiber.Ctx) authz.Actor {
	if actor, ok := c.Locals(ActorKey).(authz.Actor); ok {
		return actor
	}
	return authz.Anonymous
}

// RequireAdmin rejects requests whose actor is not an administrator.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ActorFromCtx(c).CanAccessAdmin() {
			return c.Redirect("/login", fiber.StatusFound)
		}
		return c.Next()
	}
}
