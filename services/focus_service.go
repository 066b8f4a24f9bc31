package services

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"study-discipline-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XP weights for focus sessions
const (
	XPPerFocusMinute   = 2
	PlanCompletedBonus = 0.25 // extra when the full planned block was studied
	BaseXPPerLevel     = 100
)

// Failed-session streaks at or above this length trigger a restriction.
const failureStreakThreshold = 3

// xpForNextLevel returns XP required to go from currentLevel to the next one.
// L_n → L_n+1 costs floor(BaseXPPerLevel * n^1.2).
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// SessionXP computes the XP earned by a completed session before penalties.
func SessionXP(plannedMinutes, actualMinutes int) int64 {
	if actualMinutes <= 0 {
		return 0
	}
	xp := int64(actualMinutes) * XPPerFocusMinute
	if plannedMinutes > 0 && actualMinutes >= plannedMinutes {
		xp += int64(float64(xp) * PlanCompletedBonus)
	}
	return xp
}

type FocusService struct {
	DB           *gorm.DB
	Restrictions *RestrictionService
	Events       *EventService
}

func NewFocusService(db *gorm.DB, restrictions *RestrictionService, events *EventService) *FocusService {
	return &FocusService{DB: db, Restrictions: restrictions, Events: events}
}

// RecordSession persists a finished focus session. Completions award XP to
// the profile mirror (at the penalty-adjusted rate) and update the level.
// A failed session extends the consecutive-failure streak; once the streak
// reaches the threshold a restriction is applied; a failed restriction
// write fails the whole action.
func (s *FocusService) RecordSession(userID string, planned, actual int, status models.FocusSessionStatus, subject string, startedAt time.Time) (*models.FocusSession, error) {
	session := models.FocusSession{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		PlannedMinutes: planned,
		ActualMinutes:  actual,
		Status:         status,
		Subject:        subject,
		StartedAt:      startedAt,
		EndedAt:        time.Now(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if status == models.FocusSessionCompleted {
			active, err := s.Restrictions.ActiveRestrictions(userID)
			if err != nil {
				return err
			}
			xp := int64(float64(SessionXP(planned, actual)) * XPMultiplier(active))
			session.XPAwarded = xp
			if err := s.awardXP(tx, userID, xp); err != nil {
				return err
			}
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record session for %s: %w", userID, err)
	}

	s.Events.Record(userID, "focus_session_"+string(status), map[string]interface{}{
		"session_id":      session.ID,
		"planned_minutes": planned,
		"actual_minutes":  actual,
		"xp_awarded":      session.XPAwarded,
	})

	if status == models.FocusSessionFailed {
		if err := s.enforceFailureStreak(userID); err != nil {
			return nil, err
		}
	}

	return &session, nil
}

// awardXP adds XP to the profile mirror and walks the level curve.
func (s *FocusService) awardXP(tx *gorm.DB, userID string, xp int64) error {
	if xp <= 0 {
		return nil
	}
	var profile models.Profile
	if err := tx.Where("external_user_id = ?", userID).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrProfileNotFound
		}
		return err
	}

	profile.TotalXP += xp

	// Level-up: spend accumulated XP against the curve
	remaining := profile.TotalXP
	level := 1
	for remaining >= xpForNextLevel(level) {
		remaining -= xpForNextLevel(level)
		level++
	}
	profile.CurrentLevel = level

	if err := tx.Save(&profile).Error; err != nil {
		return err
	}
	log.Printf("🎓 XP awarded: %s +%d → XP=%d, Lvl=%d", userID, xp, profile.TotalXP, profile.CurrentLevel)
	return nil
}

// enforceFailureStreak applies an escalating restriction once the user's
// consecutive-failure streak crosses the threshold.
func (s *FocusService) enforceFailureStreak(userID string) error {
	failures, err := s.Restrictions.ConsecutiveFailures(userID)
	if err != nil {
		return err
	}
	if failures < failureStreakThreshold {
		return nil
	}

	severity := CalculateSeverity(failures)

	// The streak keeps growing while a lock is already in force; re-applying
	// at the same level would stack overlapping rows. Insert only when the
	// new severity actually escalates past every active lock.
	active, err := s.Restrictions.ActiveRestrictions(userID)
	if err != nil {
		return err
	}
	if HasCoveringRestriction(active, models.RestrictionTypeFeatureLock, severity) {
		return nil
	}

	reason := fmt.Sprintf("%d consecutive failed focus sessions", failures)
	if _, err := s.Restrictions.ApplyRestriction(userID, models.RestrictionTypeFeatureLock, severity, reason); err != nil {
		return err
	}
	return nil
}

// --- Fiber handlers ---

// PostFocusSession → POST /api/focus-sessions
func (s *FocusService) PostFocusSession(c *fiber.Ctx) error {
	type Req struct {
		PlannedMinutes int    `json:"planned_minutes"`
		ActualMinutes  int    `json:"actual_minutes"`
		Status         string `json:"status"`
		Subject        string `json:"subject"`
		StartedAt      string `json:"started_at"` // RFC3339
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}

	status := models.FocusSessionStatus(req.Status)
	switch status {
	case models.FocusSessionCompleted, models.FocusSessionFailed, models.FocusSessionAbandoned:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status must be completed, failed or abandoned",
		})
	}
	if req.PlannedMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "planned_minutes must be positive",
		})
	}

	startedAt := time.Now()
	if req.StartedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartedAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid started_at (use RFC3339)",
			})
		}
		startedAt = parsed
	}

	userID := c.Locals("user_id").(string)
	session, err := s.RecordSession(userID, req.PlannedMinutes, req.ActualMinutes, status, req.Subject, startedAt)
	if err != nil {
		// A user the profile sync hasn't mirrored yet has no XP row to
		// award into; that surfaces as 404, not a server fault.
		return respondError(c, err, "failed to record session")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": session})
}

// GetRecentSessions → GET /api/focus-sessions/recent?days=7
func (s *FocusService) GetRecentSessions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	days, _ := strconv.Atoi(c.Query("days", "7"))
	if days < 1 || days > 90 {
		days = 7
	}

	var sessions []models.FocusSession
	since := time.Now().AddDate(0, 0, -days)
	err := s.DB.Where("external_user_id = ? AND ended_at >= ?", userID, since).
		Order("ended_at DESC").
		Find(&sessions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load sessions",
			"cause": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": sessions})
}
