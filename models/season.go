package models

import "time"

// SeasonStatus is the lifecycle state of a competitive season
type SeasonStatus string

const (
	SeasonStatusActive  SeasonStatus = "active"
	SeasonStatusSettled SeasonStatus = "settled"
	SeasonStatusPending SeasonStatus = "pending"
)

// Season is a bounded competitive period. At most one season is active at a
// time; the invariant is enforced by the ranking engine's start_next_season
// procedure, not by this service.
type Season struct {
	ID        string       `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string       `json:"name"`
	Status    SeasonStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime"`
	SettledAt *time.Time   `json:"settled_at,omitempty"`
}

// TableName keeps the ranking engine's table naming.
func (Season) TableName() string {
	return "league_seasons"
}
