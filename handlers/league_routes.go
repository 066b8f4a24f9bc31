package handlers

import (
	"study-discipline-system/middleware"
	"study-discipline-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeagueRoutes(app *fiber.App, leagueService *services.LeagueService) {
	// 🔓 Public: the leaderboard page renders without a session
	app.Get("/api/leaderboard", leagueService.GetLeaderboard)

	// 🔐 Authenticated
	secured := app.Group("/api", middleware.UserContextMiddleware())
	secured.Get("/leaderboard/me", leagueService.GetMyStanding)

	// 🔒 Admin-only season lifecycle
	admin := secured.Group("/league", middleware.AdminOnly())
	admin.Post("/compute-snapshot", leagueService.PostComputeSnapshot)
	admin.Post("/settle-season", leagueService.PostSettleSeason)
	admin.Post("/start-next-season", leagueService.PostStartNextSeason)

	adminStats := secured.Group("/admin", middleware.AdminOnly())
	adminStats.Get("/stats", leagueService.GetAdminStats)
}
