package models

import "time"

// FocusSessionStatus is the terminal state of a logged focus session
type FocusSessionStatus string

const (
	FocusSessionCompleted FocusSessionStatus = "completed"
	FocusSessionFailed    FocusSessionStatus = "failed"
	FocusSessionAbandoned FocusSessionStatus = "abandoned"
)

// FocusSession is one logged study block. Completions award XP; failed
// sessions feed the consecutive-failure streak that drives restrictions.
type FocusSession struct {
	ID             string             `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string             `gorm:"index;not null" json:"external_user_id"`
	PlannedMinutes int                `gorm:"not null" json:"planned_minutes"`
	ActualMinutes  int                `json:"actual_minutes"`
	Status         FocusSessionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Subject        string             `json:"subject,omitempty"`
	XPAwarded      int64              `json:"xp_awarded" gorm:"default:0"`
	StartedAt      time.Time          `gorm:"not null" json:"started_at"`
	EndedAt        time.Time          `json:"ended_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
