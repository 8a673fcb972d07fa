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

// CommentCreateAction attaches a comment to an idea.
func CommentCreateAction(ctx *cartridge.Context) error {
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

	actor := middleware.ActorFromCtx(ctx.Ctx)
	_, err = comments.Create(db, idea.ID, actor.ID, ctx.FormValue("content"))
	if err != nil {
		if errors.Is(err, comments.ErrEmptyContent) {
			flash.SetFlash(ctx.Ctx, "error", "Please write a comment")
		} else {
			ctx.Logger.Error("Failed to create comment", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Could not save your comment")
		}
		return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Comment added!")
	return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
}

// CommentEditPageAction renders the edit form for the comment's author.
func CommentEditPageAction(ctx *cartridge.Context) error {
	comment, err := commentForEdit(ctx)
	if comment == nil {
		return err
	}
	return inertia.RenderPage(ctx.Ctx, "EditComment", inertia.Props{
		"comment": serializeComment(*comment),
		"idea_id": comment.IdeaID,
	})
}

// CommentUpdateFormAction applies an edit by the comment's author.
func CommentUpdateFormAction(ctx *cartridge.Context) error {
	comment, err := commentForEdit(ctx)
	if comment == nil {
		return err
	}

	if err := comments.Update(ctx.DB(), comment, ctx.FormValue("content")); err != nil {
		if errors.Is(err, comments.ErrEmptyContent) {
			flash.SetFlash(ctx.Ctx, "error", "Please write a comment")
			return ctx.Redirect(commentEditPath(comment.ID), fiber.StatusFound)
		}
		ctx.Logger.Error("Failed to update comment", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not update your comment")
		return ctx.Redirect(ideaPath(comment.IdeaID), fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Comment updated!")
	return ctx.Redirect(ideaPath(comment.IdeaID), fiber.StatusFound)
}

// CommentDeleteAction removes a comment; only its author may.
func CommentDeleteAction(ctx *cartridge.Context) error {
	comment, err := commentForEdit(ctx)
	if comment == nil {
		return err
	}

	if err := comments.Delete(ctx.DB(), comment.ID); err != nil {
		ctx.Logger.Error("Failed to delete comment", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not delete the comment")
		return ctx.Redirect(ideaPath(comment.IdeaID), fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Comment deleted")
	return ctx.Redirect(ideaPath(comment.IdeaID), fiber.StatusFound)
}

// CommentTogglePublishAction flips a comment's publish flag. Only the owner
// of the idea the comment sits on may moderate it.
func CommentTogglePublishAction(ctx *cartridge.Context) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.SendStatus(fiber.StatusNotFound)
	}

	db := ctx.DB()
	comment, err := comments.FindByID(db, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}
		return err
	}
	idea, err := ideas.FindByID(db, comment.IdeaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}
		return err
	}

	actor := middleware.ActorFromCtx(ctx.Ctx)
	if !actor.CanModerateComment(idea.UserID) {
		flash.SetFlash(ctx.Ctx, "error", "You cannot moderate comments on this idea")
		return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
	}

	published, err := comments.TogglePublished(db, comment)
	if err != nil {
		ctx.Logger.Error("Failed to toggle comment publish flag", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not update the comment")
		return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
	}

	if published {
		flash.SetFlash(ctx.Ctx, "success", "Comment published")
	} else {
		flash.SetFlash(ctx.Ctx, "success", "Comment hidden")
	}
	return ctx.Redirect(ideaPath(idea.ID), fiber.StatusFound)
}

// commentForEdit loads the comment and checks that the actor wrote it. When
// it returns a nil comment the response has already been written.
func commentForEdit(ctx *cartridge.Context) (*comments.Comment, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return nil, ctx.SendStatus(fiber.StatusNotFound)
	}

	comment, err := comments.FindByID(ctx.DB(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ctx.SendStatus(fiber.StatusNotFound)
		}
		return nil, err
	}

	actor := middleware.ActorFromCtx(ctx.Ctx)
	if !actor.CanEditComment(comment.UserID) {
		flash.SetFlash(ctx.Ctx, "error", "You cannot modify this comment")
		return nil, ctx.Redirect(ideaPath(comment.IdeaID), fiber.StatusFound)
	}
	return comment, nil
}

func commentEditPath(id uint) string {
	return fmt.Sprintf("/comment/%d/edit", id)
}
