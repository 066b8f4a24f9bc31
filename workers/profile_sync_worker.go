// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"study-discipline-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile matches the JSON shape of the identity service's public
// profile feed.
type RemoteProfile struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Country      string    `json:"country"`
	Tier         string    `json:"tier"`
	IsAdmin      bool      `json:"is_admin"`
	TotalXP      int64     `json:"total_xp"`
	CurrentLevel int       `json:"current_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the feed response.
type GetProfileChangesResponse struct {
	Profiles []RemoteProfile `json:"profiles"`
}

// ProfileSyncWorker keeps the local profiles mirror in step with the
// identity service. The identity service owns the records; this service
// only reads them (leaderboard fallback, admin flag, tier).
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, identityServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      identityServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Profile Sync Worker (identity service → profiles)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Profile Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror.
func (w *ProfileSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM profiles WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches profile changes since the given time and upserts them.
func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid identity service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to identity service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[SYNC] ❌ Identity service returned %d for %s: %s", resp.StatusCode, finalURL, string(body))
		return fmt.Errorf("identity service non-200 response: %d", resp.StatusCode)
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode identity service response: %w", err)
	}

	if len(response.Profiles) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d profile(s) from identity service…", len(response.Profiles))

	var upsertCount, errorCount int
	for _, remote := range response.Profiles {
		local := models.Profile{
			ExternalUserID: remote.ExternalID,
			Username:       remote.Username,
			FullName:       remote.FullName,
			Country:        remote.Country,
			Tier:           models.ProfileTier(remote.Tier),
			IsAdmin:        remote.IsAdmin,
			TotalXP:        remote.TotalXP,
			CurrentLevel:   remote.CurrentLevel,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "full_name", "country", "tier", "is_admin", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert profile (external_id=%q): %v", remote.ExternalID, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d errors) since %s",
		len(response.Profiles), upsertCount, errorCount, sinceStr)
	return nil
}
