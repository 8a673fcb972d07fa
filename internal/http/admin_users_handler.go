package http

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"gorm.io/gorm"

	"ideabank/internal/http/middleware"
	"ideabank/internal/uploads"
	"ideabank/internal/users"
)

// AdminUsersIndexAction lists every account with per-user content counts.
func AdminUsersIndexAction(ctx *cartridge.Context) error {
	listing, err := users.ListWithStats(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to load user listing", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not load the user listing")
		return ctx.Redirect("/", fiber.StatusFound)
	}

	rows := make([]fiber.Map, len(listing))
	for n, entry := range listing {
		rows[n] = fiber.Map{
			"id":              entry.ID,
			"username":        entry.Username,
			"email":           entry.Email,
			"full_name":       entry.FullName,
			"is_admin":        entry.IsAdmin,
			"profile_picture": entry.ProfilePicture,
			"created_at":      entry.CreatedAt.UTC().Format(timestampLayout),
			"ideas_count":     entry.IdeasCount,
			"comments_count":  entry.CommentsCount,
			"visits_count":    entry.VisitsCount,
		}
	}

	return inertia.RenderPage(ctx.Ctx, "AdminUsers", inertia.Props{
		"users": rows,
	})
}

// AdminUserAddPageAction renders the add-user form.
func AdminUserAddPageAction(ctx *cartridge.Context) error {
	return inertia.RenderPage(ctx.Ctx, "AdminAddUser", inertia.Props{})
}

// AdminUserCreateFormAction creates an account from the admin add-user form.
func AdminUserCreateFormAction(ctx *cartridge.Context) error {
	input := users.NewUserInput{
		Username: ctx.FormValue("username"),
		Email:    ctx.FormValue("email"),
		Password: ctx.FormValue("password"),
		FullName: ctx.FormValue("full_name"),
		Bio:      ctx.FormValue("bio"),
		Location: ctx.FormValue("location"),
		Website:  ctx.FormValue("website"),
		IsAdmin:  ctx.FormValue("is_admin") == "on",
	}

	db := ctx.DB()
	user, err := users.Create(db, input)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken),
			errors.Is(err, users.ErrEmailTaken),
			errors.Is(err, users.ErrMissingFields):
			flash.SetFlash(ctx.Ctx, "error", err.Error())
		default:
			ctx.Logger.Error("Failed to create user", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Could not create the user")
		}
		return ctx.Redirect("/admin/users/add", fiber.StatusFound)
	}

	if name, ok := savedProfilePicture(ctx); ok {
		if _, err := users.UpdateProfile(db, user, users.ProfileInput{
			FullName:       user.FullName,
			Bio:            user.Bio,
			Location:       user.Location,
			Website:        user.Website,
			ProfilePicture: name,
		}); err != nil {
			ctx.Logger.Warn("Failed to attach profile picture", slog.Any("error", err))
		}
	}

	flash.SetFlash(ctx.Ctx, "success", fmt.Sprintf("User %s added!", user.Username))
	return ctx.Redirect("/admin/users", fiber.StatusFound)
}

// AdminUserEditPageAction renders the admin edit form for any account.
func AdminUserEditPageAction(ctx *cartridge.Context) error {
	user, err := adminTargetUser(ctx)
	if user == nil {
		return err
	}
	actor := middleware.ActorFromCtx(ctx.Ctx)
	return inertia.RenderPage(ctx.Ctx, "AdminEditUser", inertia.Props{
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"email":           user.Email,
			"full_name":       user.FullName,
			"bio":             user.Bio,
			"location":        user.Location,
			"website":         user.Website,
			"is_admin":        user.IsAdmin,
			"profile_picture": user.ProfilePicture,
		},
		"can_toggle_admin": actor.CanToggleAdmin(user.ID),
	})
}

// AdminUserUpdateFormAction applies an admin edit, including an optional
// password reset, picture replacement and admin flag change (never self).
func AdminUserUpdateFormAction(ctx *cartridge.Context) error {
	user, err := adminTargetUser(ctx)
	if user == nil {
		return err
	}
	db := ctx.DB()

	input := users.AdminUpdateInput{
		Username: ctx.FormValue("username"),
		Email:    ctx.FormValue("email"),
		FullName: ctx.FormValue("full_name"),
		Bio:      ctx.FormValue("bio"),
		Location: ctx.FormValue("location"),
		Website:  ctx.FormValue("website"),
		Password: ctx.FormValue("password"),
	}
	if name, ok := savedProfilePicture(ctx); ok {
		input.ProfilePicture = name
	}

	replaced, err := users.AdminUpdate(db, user, input)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrEmailTaken):
			flash.SetFlash(ctx.Ctx, "error", err.Error())
		default:
			ctx.Logger.Error("Failed to update user", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Could not update the user")
		}
		return ctx.Redirect(fmt.Sprintf("/admin/users/%d/edit", user.ID), fiber.StatusFound)
	}
	removeStoredPicture(ctx, replaced)

	actor := middleware.ActorFromCtx(ctx.Ctx)
	if actor.CanToggleAdmin(user.ID) {
		isAdmin := ctx.FormValue("is_admin") == "on"
		if isAdmin != user.IsAdmin {
			if err := users.SetAdmin(db, user.ID, isAdmin); err != nil {
				ctx.Logger.Error("Failed to change admin flag", slog.Any("error", err))
			}
		}
	}

	flash.SetFlash(ctx.Ctx, "success", "User updated!")
	return ctx.Redirect("/admin/users", fiber.StatusFound)
}

// AdminUserToggleAdminAction flips the admin flag of another account.
func AdminUserToggleAdminAction(ctx *cartridge.Context) error {
	user, err := adminTargetUser(ctx)
	if user == nil {
		return err
	}

	actor := middleware.ActorFromCtx(ctx.Ctx)
	if !actor.CanToggleAdmin(user.ID) {
		flash.SetFlash(ctx.Ctx, "error", "You cannot change your own permissions")
		return ctx.Redirect("/admin/users", fiber.StatusFound)
	}

	if err := users.SetAdmin(ctx.DB(), user.ID, !user.IsAdmin); err != nil {
		ctx.Logger.Error("Failed to toggle admin flag", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not update the user")
		return ctx.Redirect("/admin/users", fiber.StatusFound)
	}

	role := "admin"
	if user.IsAdmin {
		role = "regular user"
	}
	flash.SetFlash(ctx.Ctx, "success", fmt.Sprintf("%s is now a %s", user.Username, role))
	return ctx.Redirect("/admin/users", fiber.StatusFound)
}

// AdminUserDeleteAction removes another account with all its content.
func AdminUserDeleteAction(ctx *cartridge.Context) error {
	user, err := adminTargetUser(ctx)
	if user == nil {
		return err
	}

	actor := middleware.ActorFromCtx(ctx.Ctx)
	if !actor.CanDeleteUser(user.ID) {
		flash.SetFlash(ctx.Ctx, "error", "You cannot delete your own account")
		return ctx.Redirect("/admin/users", fiber.StatusFound)
	}

	picture, err := users.Delete(ctx.DB(), user.ID)
	if err != nil {
		ctx.Logger.Error("Failed to delete user", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not delete the user")
		return ctx.Redirect("/admin/users", fiber.StatusFound)
	}
	removeStoredPicture(ctx, picture)

	flash.SetFlash(ctx.Ctx, "success", fmt.Sprintf("User %s deleted", user.Username))
	return ctx.Redirect("/admin/users", fiber.StatusFound)
}

// adminTargetUser loads the user addressed by the :id param. When it
// returns nil the response has already been written.
func adminTargetUser(ctx *cartridge.Context) (*users.User, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return nil, ctx.SendStatus(fiber.StatusNotFound)
	}
	user, err := users.FindByID(ctx.DB(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ctx.SendStatus(fiber.StatusNotFound)
		}
		return nil, err
	}
	return user, nil
}

// savedProfilePicture stores an uploaded picture when the form carries one.
func savedProfilePicture(ctx *cartridge.Context) (string, bool) {
	file, err := ctx.Ctx.FormFile("profile_picture")
	if err != nil || file == nil {
		return "", false
	}
	store, err := uploadStore()
	if err != nil {
		ctx.Logger.Error("Uploads directory unavailable", slog.Any("error", err))
		return "", false
	}
	name, err := store.Save(file)
	if err != nil {
		if errors.Is(err, uploads.ErrUnsupportedType) {
			flash.SetFlash(ctx.Ctx, "error", "Only png, jpg, jpeg, gif and webp images are allowed")
		} else {
			ctx.Logger.Error("Failed to store picture", slog.Any("error", err))
		}
		return "", false
	}
	return name, true
}

func removeStoredPicture(ctx *cartridge.Context, name string) {
	if name == "" {
		return
	}
	store, err := uploadStore()
	if err != nil {
		return
	}
	if err := store.Delete(name); err != nil {
		ctx.Logger.Warn("Failed to remove stored picture",
			slog.String("file", name),
			slog.Any("error", err))
	}
}
