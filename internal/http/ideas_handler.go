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

	"ideabank/internal/comments"
	"ideabank/internal/http/middleware"
	"ideabank/internal/ideas"
)

// LatestIdeasAction lists every idea, newest first.
func LatestIdeasAction(ctx *cartridge.Context) error {
	return renderIdeaListing(ctx, "LatestIdeas", ideas.Latest)
}

// MostViewedIdeasAction lists every idea ordered by view count.
func MostViewedIdeasAction(ctx *cartridge.Context) error {
	return renderIdeaListing(ctx, "MostViewedIdeas", ideas.MostViewed)
}

// MostCommentedIdeasAction lists commented ideas ordered by comment count.
func MostCommentedIdeasAction(ctx *cartridge.Context) error {
	return renderIdeaListing(ctx, "MostCommentedIdeas", ideas.MostCommented)
}

// renderIdeaListing renders a listing page; on query failure it logs and
// renders the page empty rather than failing the request.
func renderIdeaListing(ctx *cartridge.Context, page string, list func(*gorm.DB) ([]ideas.Idea, error)) error {
	items, err := list(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to load idea listing",
			slog.String("page", page),
			slog.Any("error", err))
		items = []ideas.Idea{}
	}
	return inertia.RenderPage(ctx.Ctx, page, inertia.Props{
		"ideas": serializeIdeas(items),
	})
}

// IdeaShowAction renders one idea, bumps its view counter and lists the
// comments the viewer is allowed to see.
func IdeaShowAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.SendStatus(fiber.StatusNotFound)
	}

	db := ctx.DB()
	idea, err := ideas.FindByID(db, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}
		return err
	}

	if err := ideas.IncrementViews(db, idea.ID); err != nil {
		ctx.Logger.Warn("Failed to bump idea views",
			slog.Int("idea_id", id),
			slog.Any("error", err))
	} else {
		idea.Views++
	}

	actor := middleware.ActorFromCtx(ctx.Ctx)
	visible, err := comments.VisibleTo(db, idea.ID, idea.UserID, actor.ID)
	if err != nil {
		ctx.Logger.Error("Failed to load comments", slog.Any("error", err))
		visible = []comments.Comment{}
	}

	return inertia.RenderPage(ctx.Ctx, "IdeaShow", inertia.Props{
		"idea":         serializeIdea(*idea),
		"comments":     serializeComments(visible),
		"can_edit":     actor.CanEditIdea(idea.UserID),
		"can_moderate": actor.CanModerateComment(idea.UserID),
	})
}

// IdeaSubmitPageAction renders the submission form.
func IdeaSubmitPageAction(ctx *cartridge.Context) error {
	return inertia.RenderPage(ctx.Ctx, "SubmitIdea", inertia.Props{})
}

// IdeaSubmitFormAction creates an idea owned by the session user.
func IdeaSubmitFormAction(ctx *cartridge.Context) error {
	actor := middleware.ActorFromCtx(ctx.Ctx)

	idea, err := ideas.Create(ctx.DB(), actor.ID,
		ctx.FormValue("title"),
		ctx.FormValue("description"),
		ctx.FormValue("category"))
	if err != nil {
		if errors.Is(err, ideas.ErrMissingFields) {
			flash.SetFlash(ctx.Ctx, "error", err.Error())
			return ctx.Redirect("/submit_idea", fiber.StatusFound)
		}
		ctx.Logger.Error("Failed to create idea", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not save your idea")
		return ctx.Redirect("/submit_idea", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Your idea has been shared!")
	return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
}

// IdeaEditPageAction renders the edit form for the idea's owner or an admin.
func IdeaEditPageAction(ctx *cartridge.Context) error {
	idea, err := ideaForEdit(ctx)
	if idea == nil {
		return err
	}
	return inertia.RenderPage(ctx.Ctx, "EditIdea", inertia.Props{
		"idea": serializeIdea(*idea),
	})
}

// IdeaUpdateFormAction applies an edit to an idea.
func IdeaUpdateFormAction(ctx *cartridge.Context) error {
	idea, err := ideaForEdit(ctx)
	if idea == nil {
		return err
	}

	err = ideas.Update(ctx.DB(), idea,
		ctx.FormValue("title"),
		ctx.FormValue("description"),
		ctx.FormValue("category"))
	if err != nil {
		flash.SetFlash(ctx.Ctx, "error", "Could not update the idea")
		return ctx.Redirect(ideaPath(idea.ID)+"/edit", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Idea updated")
	return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
}

// ideaForEdit loads the idea and checks edit permission. When it returns a
// nil idea the response has already been written; the error is the one to
// return from the handler.
func ideaForEdit(ctx *cartridge.Context) (*ideas.Idea, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return nil, ctx.SendStatus(fiber.StatusNotFound)
	}

	idea, err := ideas.FindByID(ctx.DB(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ctx.SendStatus(fiber.StatusNotFound)
		}
		return nil, err
	}

	actor := middleware.ActorFromCtx(ctx.Ctx)
	if !actor.CanEditIdea(idea.UserID) {
		flash.SetFlash(ctx.Ctx, "error", "You cannot edit this idea")
		return nil, ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
	}
	return idea, nil
}

func ideaPath(id uint) string {
	return fmt.Sprintf("/idea/%d", id)
}
