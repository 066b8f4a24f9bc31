package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RestrictionType classifies the penalty applied to a user
type RestrictionType string

const (
	RestrictionTypeFeatureLock     RestrictionType = "feature_lock"
	RestrictionTypeSocialReduction RestrictionType = "social_reduction"
	RestrictionTypeXPPenalty       RestrictionType = "xp_penalty"
	RestrictionTypeChallengeLock   RestrictionType = "challenge_lock"
)

// FeatureClass groups features for blanket (all-locked) gates
type FeatureClass string

const (
	FeatureClassPremium FeatureClass = "premium"
	FeatureClassSocial  FeatureClass = "social"
)

// FeatureGate is the set of features a restriction disables. It is either
// an enumerated list of feature keys, or a blanket lock over a whole feature
// class (AllLocked + Class) so level-3 lockouts don't have to enumerate
// every feature. Checks branch on AllLocked instead of comparing magic
// sentinel strings.
type FeatureGate struct {
	AllLocked bool         `json:"all_locked,omitempty"`
	Class     FeatureClass `json:"class,omitempty"` // set iff AllLocked
	Features  []string     `json:"features,omitempty"`
}

// Empty reports whether the gate disables nothing.
func (g FeatureGate) Empty() bool {
	return !g.AllLocked && len(g.Features) == 0
}

// Value implements driver.Valuer so the gate is stored as jsonb.
func (g FeatureGate) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner.
func (g *FeatureGate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*g = FeatureGate{}
		return nil
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return fmt.Errorf("cannot scan %T into FeatureGate", src)
	}
}

// Restriction represents an active or historical penalty applied to a user.
// Rows are append-only: the expiry sweep flips IsActive, nothing is ever
// hard-deleted (kept for audit).
type Restriction struct {
	ID             string          `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string          `gorm:"index;not null" json:"external_user_id"`
	Type           RestrictionType `gorm:"type:varchar(32);not null" json:"type"`
	Level          int             `gorm:"not null" json:"level"` // severity tier 1–3
	Features       FeatureGate     `gorm:"type:jsonb" json:"features"`
	Reason         string          `gorm:"type:text" json:"reason"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"not null;index" json:"end_date"` // invariant: EndDate > StartDate
	IsActive       bool            `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// InEffect reports whether the restriction currently applies. A row whose
// EndDate has passed counts as inactive even if the sweep hasn't flipped
// IsActive yet.
func (r Restriction) InEffect(now time.Time) bool {
	return r.IsActive && now.Before(r.EndDate)
}
