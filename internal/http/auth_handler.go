package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"

	"ideabank/internal/users"
)

// bcrypt hash of "dummy", verified when the email is unknown so login
// takes the same time whether or not the account exists.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RenderLoginAction renders the login page.
func RenderLoginAction(ctx *cartridge.Context) error {
	if ctx.Session.IsAuthenticated(ctx.Ctx) {
		return ctx.Redirect("/", fiber.StatusFound)
	}
	return inertia.RenderPage(ctx.Ctx, "Login", inertia.Props{})
}

// ProcessLoginAction handles the login form submission.
func ProcessLoginAction(ctx *cartridge.Context) error {
	email := ctx.FormValue("email")
	password := ctx.FormValue("password")

	if email == "" || password == "" {
		flash.SetFlash(ctx.Ctx, "error", "Email and password are required")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	user, err := users.FindByEmail(ctx.DB(), email)

	var passwordValid bool
	if err != nil {
		ctx.Logger.Debug("User not found during login", slog.String("email", email))
		crypto.VerifyPassword(dummyPasswordHash, password)
	} else {
		passwordValid = user.VerifyPassword(password)
		if !passwordValid {
			ctx.Logger.Debug("Invalid password attempt", slog.String("email", email))
		}
	}

	if !passwordValid {
		flash.SetFlash(ctx.Ctx, "error", "Invalid email or password")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Login failed")
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Welcome back!")
	return ctx.Redirect("/", fiber.StatusFound)
}

// RenderRegisterAction renders the registration page.
func RenderRegisterAction(ctx *cartridge.Context) error {
	if ctx.Session.IsAuthenticated(ctx.Ctx) {
		return ctx.Redirect("/", fiber.StatusFound)
	}
	return inertia.RenderPage(ctx.Ctx, "Register", inertia.Props{})
}

// ProcessRegisterAction creates a local account from the registration form.
func ProcessRegisterAction(ctx *cartridge.Context) error {
	password := ctx.FormValue("password")
	if password != ctx.FormValue("confirm_password") {
		flash.SetFlash(ctx.Ctx, "error", "Passwords do not match")
		return ctx.Redirect("/register", fiber.StatusFound)
	}

	_, err := users.Create(ctx.DB(), users.NewUserInput{
		Username: ctx.FormValue("username"),
		Email:    ctx.FormValue("email"),
		Password: password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken),
			errors.Is(err, users.ErrEmailTaken),
			errors.Is(err, users.ErrMissingFields):
			flash.SetFlash(ctx.Ctx, "error", err.Error())
		default:
			ctx.Logger.Error("Failed to register user", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Registration failed")
		}
		return ctx.Redirect("/register", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Account created! You can log in now")
	return ctx.Redirect("/login", fiber.StatusFound)
}

// LogoutAction clears the session.
func LogoutAction(ctx *cartridge.Context) error {
	ctx.Session.ClearSession(ctx.Ctx)
	flash.SetFlash(ctx.Ctx, "success", "You have been logged out")
	return ctx.Redirect("/", fiber.StatusFound)
}
