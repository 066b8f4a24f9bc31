package services

import (
	"encoding/json"
	"log"

	"study-discipline-system/models"

	"gorm.io/gorm"
)

type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// Record writes a user event asynchronously. Fire-and-forget contract:
// errors are logged, never surfaced to the caller, never retried.
func (s *EventService) Record(userID, eventType string, payload map[string]interface{}) {
	go func() {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("⚠️ [EVENTS] Failed to marshal payload for %s/%s: %v", userID, eventType, err)
			return
		}
		event := models.UserEvent{
			ExternalUserID: userID,
			EventType:      eventType,
			Payload:        string(data),
		}
		if err := s.DB.Create(&event).Error; err != nil {
			log.Printf("⚠️ [EVENTS] Failed to record %s for %s: %v", eventType, userID, err)
		}
	}()
}
