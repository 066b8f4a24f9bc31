package handlers

import (
	"study-discipline-system/middleware"
	"study-discipline-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRestrictionRoutes(app *fiber.App, restrictionService *services.RestrictionService) {
	secured := app.Group("/api/restrictions", middleware.UserContextMiddleware())

	secured.Get("/active", restrictionService.GetActiveRestrictions)
	secured.Get("/check", restrictionService.GetFeatureCheck)

	// Self-imposed restrictions are user-facing; the handler itself checks the
	// admin role when the target is another user.
	secured.Post("/apply", restrictionService.PostApplyRestriction)
}
