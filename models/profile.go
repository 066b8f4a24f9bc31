package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfileTier indicates the user's subscription tier
type ProfileTier string

const (
	ProfileTierFree    ProfileTier = "free"
	ProfileTierPremium ProfileTier = "premium"
)

// Profile is a local mirror of the identity service's user record.
// Owned by the Identity/Profile service; populated here via sync worker.
// This service only reads it (leaderboard fallback, admin flag, tier).
type Profile struct {
	ID             string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string      `gorm:"uniqueIndex;not null" json:"external_user_id"` // identity service UUID
	Username       string      `gorm:"index;not null" json:"username"`
	FullName       string      `json:"full_name"`
	Country        string      `gorm:"size:2" json:"country"` // ISO 3166-1 alpha-2
	Tier           ProfileTier `gorm:"type:varchar(16);default:'free'" json:"tier"`
	IsAdmin        bool        `gorm:"default:false" json:"is_admin"`

	// Denormalized progression (source of truth for the fallback leaderboard)
	TotalXP      int64 `json:"total_xp" gorm:"default:0"`
	CurrentLevel int   `json:"current_level" gorm:"default:1"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
