package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ecoquest/backend/internal/observability"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, metrics *observability.Metrics) {
	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Stateless tools
		api.Post("/classify", handler.Classify)
		api.Get("/facilities", handler.Facilities)

		// Session missions
		sessions := api.Group("/sessions")
		sessions.Post("/", handler.StartSession)
		sessions.Get("/:id", handler.GetProfile)
		sessions.Post("/:id/login", handler.DailyLogin)
		sessions.Post("/:id/analysis", handler.AnalyzeWaste)
		sessions.Post("/:id/vision", handler.AnalyzeImage)
		sessions.Get("/:id/facilities", handler.FindFacilities)
		sessions.Post("/:id/footprint", handler.CalculateFootprint)
		sessions.Get("/:id/footprint/history", handler.GetFootprintHistory)
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
