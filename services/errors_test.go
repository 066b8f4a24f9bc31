package services

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Wrapped the same way RecordSession wraps awardXP failures.
		{"wrapped profile not found", fmt.Errorf("failed to record session for u1: %w", ErrProfileNotFound), fiber.StatusNotFound},
		{"season not found", ErrSeasonNotFound, fiber.StatusNotFound},
		{"no active season", ErrNoActiveSeason, fiber.StatusNotFound},
		{"active season conflict", ErrActiveSeasonExists, fiber.StatusConflict},
		{"unclassified failure", errors.New("connection refused"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/fail", func(c *fiber.Ctx) error {
				return respondError(c, tt.err, "request failed")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
