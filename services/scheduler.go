// services/scheduler.go
package services

import (
	"log"
	"time"

	"study-discipline-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartExpirySweep periodically flips is_active on restrictions whose end
// date has passed. The read-time filter in ActiveRestrictions stays
// authoritative: correctness never depends on this job, it only keeps the
// audit table tidy.
func (s *RestrictionService) StartExpirySweep() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			result := s.DB.Model(&models.Restriction{}).
				Where("is_active = ? AND end_date <= ?", true, time.Now()).
				Update("is_active", false)
			if result.Error != nil {
				log.Printf("[Sweep] DB error: %v", result.Error)
				return
			}
			if result.RowsAffected > 0 {
				log.Printf("✅ Expired %d restriction(s)", result.RowsAffected)
			}
		}),
	)
}
