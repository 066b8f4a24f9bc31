package handlers

import (
	"study-discipline-system/middleware"
	"study-discipline-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupFocusRoutes(app *fiber.App, focusService *services.FocusService) {
	secured := app.Group("/api/focus-sessions", middleware.UserContextMiddleware())

	secured.Post("/", focusService.PostFocusSession)
	secured.Get("/recent", focusService.GetRecentSessions)
}
