package services

import (
	"fmt"
	"log"
	"time"

	"study-discipline-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RestrictionService struct {
	DB     *gorm.DB
	Events *EventService
}

func NewRestrictionService(db *gorm.DB, events *EventService) *RestrictionService {
	return &RestrictionService{DB: db, Events: events}
}

// ApplyRestriction persists a new restriction for the user. End date is
// now + duration(severity), the feature gate comes from the policy tables.
// A failed write is fatal to the triggering action, no retry here.
func (s *RestrictionService) ApplyRestriction(userID string, rtype models.RestrictionType, severity int, reason string) (*models.Restriction, error) {
	now := time.Now()
	restriction := models.Restriction{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Type:           rtype,
		Level:          severity,
		Features:       RestrictedFeatures(rtype, severity),
		Reason:         reason,
		StartDate:      now,
		EndDate:        now.Add(RestrictionDuration(severity)),
		IsActive:       true,
	}

	if err := s.DB.Create(&restriction).Error; err != nil {
		return nil, fmt.Errorf("failed to persist restriction for %s: %w", userID, err)
	}

	log.Printf("🔒 Restriction applied: user=%s type=%s level=%d until=%s (reason: %s)",
		userID, rtype, severity, restriction.EndDate.Format(time.RFC3339), reason)

	s.Events.Record(userID, "restriction_applied", map[string]interface{}{
		"restriction_id": restriction.ID,
		"type":           string(rtype),
		"level":          severity,
	})

	return &restriction, nil
}

// ActiveRestrictions returns the user's currently effective restrictions.
// The end-date filter is authoritative: rows the sweep hasn't flipped yet
// are excluded here regardless. No pagination; cardinality is a handful
// per user at most.
func (s *RestrictionService) ActiveRestrictions(userID string) ([]models.Restriction, error) {
	var restrictions []models.Restriction
	err := s.DB.
		Where("external_user_id = ? AND is_active = ? AND end_date > ?", userID, true, time.Now()).
		Order("end_date DESC").
		Find(&restrictions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active restrictions for %s: %w", userID, err)
	}
	return restrictions, nil
}

// ConsecutiveFailures counts the user's failed focus sessions since the
// last completed one.
func (s *RestrictionService) ConsecutiveFailures(userID string) (int, error) {
	var lastCompleted models.FocusSession
	query := s.DB.Model(&models.FocusSession{}).
		Where("external_user_id = ? AND status = ?", userID, models.FocusSessionFailed)

	err := s.DB.
		Where("external_user_id = ? AND status = ?", userID, models.FocusSessionCompleted).
		Order("ended_at DESC").
		First(&lastCompleted).Error
	if err == nil {
		query = query.Where("ended_at > ?", lastCompleted.EndedAt)
	} else if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("failed to find last completed session for %s: %w", userID, err)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count consecutive failures for %s: %w", userID, err)
	}
	return int(count), nil
}

// --- Fiber handlers ---

func hasAdminRole(c *fiber.Ctx) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, role := range roles {
		if role == "admin" {
			return true
		}
	}
	return false
}

// GetActiveRestrictions → GET /api/restrictions/active
func (s *RestrictionService) GetActiveRestrictions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	restrictions, err := s.ActiveRestrictions(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load restrictions",
			"cause": err.Error(),
		})
	}
	if restrictions == nil {
		restrictions = []models.Restriction{}
	}
	return c.JSON(fiber.Map{"data": restrictions})
}

// PostApplyRestriction → POST /api/restrictions/apply
// Users may apply a restriction to themselves (self-imposed lockouts are a
// feature); targeting another user requires the admin role.
func (s *RestrictionService) PostApplyRestriction(c *fiber.Ctx) error {
	type Req struct {
		UserID   string `json:"user_id"`
		Type     string `json:"type"`
		Severity int    `json:"severity"`
		Reason   string `json:"reason"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type is required",
		})
	}

	sessionUserID := c.Locals("user_id").(string)
	if req.UserID == "" {
		req.UserID = sessionUserID
	}
	if req.UserID != sessionUserID && !hasAdminRole(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required to restrict another user",
		})
	}
	if req.Severity < 1 || req.Severity > 3 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "severity must be between 1 and 3",
		})
	}

	restriction, err := s.ApplyRestriction(req.UserID, models.RestrictionType(req.Type), req.Severity, req.Reason)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to apply restriction",
			"cause": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": restriction})
}

// GetFeatureCheck → GET /api/restrictions/check?feature=ai_planner
func (s *RestrictionService) GetFeatureCheck(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	feature := c.Query("feature")
	if feature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "feature query parameter is required",
		})
	}

	restrictions, err := s.ActiveRestrictions(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load restrictions",
			"cause": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"feature":    feature,
		"restricted": IsFeatureRestricted(restrictions, feature),
	})
}
