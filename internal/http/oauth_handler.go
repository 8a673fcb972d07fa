package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/rs/xid"

	"ideabank/internal/config"
	"ideabank/internal/identity"
)

const oauthStateCookie = "oauth_state"

func googleProvider() *identity.GoogleProvider {
	cfg := config.GetConfig()
	return identity.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL())
}

// GoogleLoginAction starts the Google authorization code flow. The random
// state lands in a short-lived cookie and must round-trip through Google.
func GoogleLoginAction(ctx *cartridge.Context) error {
	provider := googleProvider()
	if !provider.Enabled() {
		flash.SetFlash(ctx.Ctx, "error", "Google login is not available")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	state := xid.New().String()
	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   config.GetConfig().IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.Redirect(provider.AuthURL(state), fiber.StatusFound)
}

// GoogleCallbackAction completes the flow: verifies state, exchanges the
// code and signs the resolved user in.
func GoogleCallbackAction(ctx *cartridge.Context) error {
	state := ctx.Query("state")
	if state == "" || state != ctx.Cookies(oauthStateCookie) {
		ctx.Logger.Warn("OAuth state mismatch")
		flash.SetFlash(ctx.Ctx, "error", "Login could not be verified, please try again")
		return ctx.Redirect("/login", fiber.StatusFound)
	}
	ctx.ClearCookie(oauthStateCookie)

	code := ctx.Query("code")
	if code == "" {
		flash.SetFlash(ctx.Ctx, "error", "Google login was cancelled")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	profile, token, err := googleProvider().Exchange(ctx.Ctx.Context(), code)
	if err != nil {
		ctx.Logger.Error("Google OAuth exchange failed", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Google login failed, please try again")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	user, err := identity.FindOrCreateUser(ctx.DB(), ctx.Logger, identity.ProviderGoogle, profile, token)
	if err != nil {
		ctx.Logger.Error("Failed to resolve Google account", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Google login failed, please try again")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Login failed")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Welcome!")
	return ctx.Redirect("/", fiber.StatusFound)
}
