package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors the handlers map onto HTTP statuses. Persistence and RPC
// failures are wrapped with %w and surface as 500s; none of them are retried
// by this service.
var (
	ErrNoActiveSeason     = errors.New("no active season")
	ErrActiveSeasonExists = errors.New("an active season already exists")
	ErrSeasonNotFound     = errors.New("season not found")
	ErrProfileNotFound    = errors.New("profile not found")
)

var notFoundErrors = []error{ErrNoActiveSeason, ErrSeasonNotFound, ErrProfileNotFound}

// respondError writes the HTTP response for a service-layer error, however
// deeply wrapped. Not-found sentinels become 404s, the active-season conflict
// a 409; anything else is a 500 carrying the fallback message and the cause.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": sentinel.Error(),
			})
		}
	}
	if errors.Is(err, ErrActiveSeasonExists) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": ErrActiveSeasonExists.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
		"cause": err.Error(),
	})
}
