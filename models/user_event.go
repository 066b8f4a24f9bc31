package models

import "time"

// UserEvent is an append-only audit row written fire-and-forget by the
// event service. Write failures are logged and never surfaced.
type UserEvent struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	EventType      string    `gorm:"type:varchar(64);not null;index" json:"event_type"` // e.g., "focus_session_completed"
	Payload        string    `gorm:"type:jsonb" json:"payload"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
