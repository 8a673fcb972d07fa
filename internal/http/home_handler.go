package http

import (
	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/inertia"

	"ideabank/internal/ideas"
)

// HomeIndexAction renders the landing page with the newest ideas.
func HomeIndexAction(ctx *cartridge.Context) error {
	items, err := ideas.Latest(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to load ideas for home page", slog.Any("error", err))
		items = []ideas.Idea{}
	}
	return inertia.RenderPage(ctx.Ctx, "Home", inertia.Props{
		"ideas": serializeIdeas(items),
	})
}
