package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
)

// HealthIndexAction answers liveness probes.
func HealthIndexAction(ctx *cartridge.Context) error {
	return ctx.Ctx.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
