package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ideabank/internal/users"
	"ideabank/internal/visits"
)

// Prefixes never recorded as visits: assets, stored uploads, the analytics
// pages themselves and the health endpoint.
var untrackedPrefixes = []string{
	"/static",
	"/uploads",
	"/dashboard",
	"/admin",
	"/_health",
}

// SessionReader resolves the authenticated user of a request, if any.
// Satisfied by cartridge.SessionManager.
type SessionReader interface {
	GetUserID(c *fiber.Ctx) (uint, bool)
}

// VisitTracker records one visit row per tracked inbound request before the
// handler runs. Requests by admin accounts and requests to untracked
// prefixes are skipped. Recording failures are logged, never surfaced.
func VisitTracker(db *gorm.DB, sessions SessionReader, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		var userID *uint
		if sessions != nil {
			if id, ok := sessions.GetUserID(c); ok {
				user, err := users.FindByID(db, id)
				if err == nil && user.IsAdmin {
					return c.Next()
				}
				if err == nil {
					userID = &user.ID
				}
			}
		}

		input := visits.RecordInput{
			IPAddress: ClientIP(c),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			PagePath:  path,
			Referrer:  c.Get(fiber.HeaderReferer),
			UserID:    userID,
		}
		if err := visits.Record(db, logger, input); err != nil {
			logger.Warn("Visit not recorded", slog.String("path", path), slog.Any("error", err))
		}

		return c.Next()
	}
}

// ClientIP returns the first X-Forwarded-For entry when present, otherwise
// the peer address.
func ClientIP(c *fiber.Ctx) string {
	forwarded := c.Get(fiber.HeaderXForwardedFor)
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.IP()
}
