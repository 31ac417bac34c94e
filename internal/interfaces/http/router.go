package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nominamx/timbrado-api/internal/application/stamping"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orchestrator *stamping.Orchestrator
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	handler := NewStampingHandler(deps.Orchestrator)

	// Registros de timbrado
	records := api.Group("/records")
	records.Post("/", handler.CreateRecord)
	records.Get("/:id", handler.GetRecord)

	// Timbrado
	api.Post("/stamping", handler.Stamp)
}
