package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"

	"ideabank/internal/config"
	"ideabank/internal/http/middleware"
	"ideabank/internal/ideas"
	"ideabank/internal/uploads"
	"ideabank/internal/users"
)

func uploadStore() (*uploads.Store, error) {
	return uploads.NewStore(config.GetConfig().UploadsDirectory)
}

// ProfileShowAction renders the session user's profile with their ideas.
func ProfileShowAction(ctx *cartridge.Context) error {
	actor := middleware.ActorFromCtx(ctx.Ctx)
	db := ctx.DB()

	user, err := users.FindByID(db, actor.ID)
	if err != nil {
		return ctx.Redirect("/login", fiber.StatusFound)
	}
	own, err := ideas.ByUser(db, user.ID)
	if err != nil {
		ctx.Logger.Error("Failed to load profile ideas", slog.Any("error", err))
		own = []ideas.Idea{}
	}

	return inertia.RenderPage(ctx.Ctx, "Profile", inertia.Props{
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"email":           user.Email,
			"full_name":       user.FullName,
			"bio":             user.Bio,
			"location":        user.Location,
			"website":         user.Website,
			"profile_picture": user.ProfilePicture,
		},
		"ideas": serializeIdeas(own),
	})
}

// ProfileEditPageAction renders the profile edit form.
func ProfileEditPageAction(ctx *cartridge.Context) error {
	actor := middleware.ActorFromCtx(ctx.Ctx)
	user, err := users.FindByID(ctx.DB(), actor.ID)
	if err != nil {
		return ctx.Redirect("/login", fiber.StatusFound)
	}
	return inertia.RenderPage(ctx.Ctx, "EditProfile", inertia.Props{
		"user": fiber.Map{
			"full_name":       user.FullName,
			"bio":             user.Bio,
			"location":        user.Location,
			"website":         user.Website,
			"profile_picture": user.ProfilePicture,
		},
	})
}

// ProfileUpdateFormAction applies the multipart profile edit form. A new
// picture replaces the stored one; the old file is removed afterwards.
func ProfileUpdateFormAction(ctx *cartridge.Context) error {
	actor := middleware.ActorFromCtx(ctx.Ctx)
	db := ctx.DB()

	user, err := users.FindByID(db, actor.ID)
	if err != nil {
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	input := users.ProfileInput{
		FullName: ctx.FormValue("full_name"),
		Bio:      ctx.FormValue("bio"),
		Location: ctx.FormValue("location"),
		Website:  ctx.FormValue("website"),
	}

	store, err := uploadStore()
	if err != nil {
		ctx.Logger.Error("Uploads directory unavailable", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not update your profile")
		return ctx.Redirect("/profile/edit", fiber.StatusFound)
	}

	if file, err := ctx.Ctx.FormFile("profile_picture"); err == nil && file != nil {
		name, err := store.Save(file)
		if err != nil {
			if errors.Is(err, uploads.ErrUnsupportedType) {
				flash.SetFlash(ctx.Ctx, "error", "Only png, jpg, jpeg, gif and webp images are allowed")
			} else {
				ctx.Logger.Error("Failed to store profile picture", slog.Any("error", err))
				flash.SetFlash(ctx.Ctx, "error", "Could not store the picture")
			}
			return ctx.Redirect("/profile/edit", fiber.StatusFound)
		}
		input.ProfilePicture = name
	}

	replaced, err := users.UpdateProfile(db, user, input)
	if err != nil {
		ctx.Logger.Error("Failed to update profile", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not update your profile")
		return ctx.Redirect("/profile/edit", fiber.StatusFound)
	}
	if replaced != "" {
		if err := store.Delete(replaced); err != nil {
			ctx.Logger.Warn("Failed to remove replaced profile picture",
				slog.String("file", replaced),
				slog.Any("error", err))
		}
	}

	flash.SetFlash(ctx.Ctx, "success", "Profile updated!")
	return ctx.Redirect("/profile", fiber.StatusFound)
}

// UploadsShowAction serves a stored upload by filename.
func UploadsShowAction(ctx *cartridge.Context) error {
	store, err := uploadStore()
	if err != nil {
		return ctx.SendStatus(fiber.StatusNotFound)
	}
	name := ctx.Ctx.Params("filename")
	if name == "" {
		return ctx.SendStatus(fiber.StatusNotFound)
	}
	return ctx.Ctx.SendFile(store.Path(name))
}
