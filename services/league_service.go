package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"study-discipline-system/models"
	"study-discipline-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	leaderboardCacheTTL       = 60 * time.Second
	leaderboardCacheKeyPrefix = "leaderboard:top:"
	defaultLeaderboardLimit   = 50
	maxLeaderboardLimit       = 100
)

// LeagueService orchestrates the season lifecycle against the ranking
// engine's procedural layer. The ranking math itself (snapshot computation,
// promotion/relegation movements) lives in the database's stored procedures;
// this service only invokes them and reads the resulting tables.
type LeagueService struct {
	DB    *gorm.DB
	Cache *redis.Client // optional; nil disables leaderboard caching
}

func NewLeagueService(db *gorm.DB, cache *redis.Client) *LeagueService {
	return &LeagueService{DB: db, Cache: cache}
}

// LeaderboardRow is one ranked entry. Rows from the fallback profile scan
// carry no league/season fields, so callers must treat the two paths as
// returning different shapes if they depend on them.
type LeaderboardRow struct {
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username"`
	Country        string `json:"country,omitempty"`
	TotalXP        int64  `json:"total_xp"`
	Rank           int    `json:"rank"`
	LeagueName     string `json:"league_name,omitempty"`
	LeagueSlug     string `json:"league_slug,omitempty"`
	SeasonXP       int64  `json:"season_xp,omitempty"`
}

// ActiveSeason returns the single active season, or ErrNoActiveSeason.
func (s *LeagueService) ActiveSeason() (*models.Season, error) {
	var season models.Season
	err := s.DB.Where("status = ?", models.SeasonStatusActive).First(&season).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNoActiveSeason
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active season: %w", err)
	}
	return &season, nil
}

// Season loads a season by ID, ErrSeasonNotFound when no such row exists.
func (s *LeagueService) Season(seasonID string) (*models.Season, error) {
	var season models.Season
	err := s.DB.First(&season, "id = ?", seasonID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrSeasonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load season %s: %w", seasonID, err)
	}
	return &season, nil
}

// ComputeSnapshot triggers wholesale recomputation of league_snapshots for
// the season. Idempotent: the procedure replaces rows rather than
// duplicating. Authorization is the caller's responsibility.
func (s *LeagueService) ComputeSnapshot(seasonID string) error {
	if _, err := s.Season(seasonID); err != nil {
		return err
	}
	if err := s.DB.Exec("SELECT compute_leaderboard_snapshot(?)", seasonID).Error; err != nil {
		return fmt.Errorf("compute_leaderboard_snapshot failed for season %s: %w", seasonID, err)
	}
	s.invalidateLeaderboardCache()
	log.Printf("📊 Snapshot computed for season %s", seasonID)
	return nil
}

// SettleSeason applies promotion/relegation movements from the season's
// final snapshot and closes it. Settling an already-settled season is a
// non-retryable failure from the engine, propagated as-is. On success the
// final standings are archived to object storage fire-and-forget.
func (s *LeagueService) SettleSeason(seasonID string) error {
	if _, err := s.Season(seasonID); err != nil {
		return err
	}
	if err := s.DB.Exec("SELECT settle_league_movements(?)", seasonID).Error; err != nil {
		return fmt.Errorf("settle_league_movements failed for season %s: %w", seasonID, err)
	}
	s.invalidateLeaderboardCache()
	log.Printf("🏁 Season %s settled", seasonID)

	// Archive errors are logged, never surfaced, never retried.
	go s.archiveSeason(seasonID)

	return nil
}

// StartNextSeason creates the next season via the engine. The
// single-active-season invariant is enforced atomically by the procedure;
// racing calls lose there, not here.
func (s *LeagueService) StartNextSeason() (string, error) {
	var newSeasonID string
	err := s.DB.Raw("SELECT start_next_season()").Scan(&newSeasonID).Error
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "active season") {
			return "", ErrActiveSeasonExists
		}
		return "", fmt.Errorf("start_next_season failed: %w", err)
	}
	log.Printf("🚀 New season started: %s", newSeasonID)
	return newSeasonID, nil
}

// PersonalStanding returns the user's snapshot row for the active season
// plus distances to the promotion and relegation zones. A user with no
// snapshot row yet gets (nil, nil, nil), not an error: they simply haven't
// been ranked. No active season is ErrNoActiveSeason.
func (s *LeagueService) PersonalStanding(userID string) (*models.LeagueSnapshot, *models.StandingDistances, error) {
	season, err := s.ActiveSeason()
	if err != nil {
		return nil, nil, err
	}

	var snapshot models.LeagueSnapshot
	err = s.DB.Where("season_id = ? AND external_user_id = ?", season.ID, userID).First(&snapshot).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot for %s: %w", userID, err)
	}
	if snapshot.LeagueSlug == "" {
		snapshot.LeagueSlug = slug.Make(snapshot.LeagueName)
	}

	var totalInLeague int64
	err = s.DB.Model(&models.LeagueSnapshot{}).
		Where("season_id = ? AND league_name = ?", season.ID, snapshot.LeagueName).
		Count(&totalInLeague).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count league members: %w", err)
	}

	distances := ComputeStandingDistances(int64(snapshot.RankInLeague), totalInLeague)
	return &snapshot, &distances, nil
}

// ComputeStandingDistances derives promotion/relegation thresholds for a
// league of the given size. Top 10% promote, bottom 10% relegate; a zero or
// negative distance means the rank is already inside the zone.
func ComputeStandingDistances(rankInLeague, totalInLeague int64) models.StandingDistances {
	promote := totalInLeague / 10
	relegate := totalInLeague - promote
	return models.StandingDistances{
		TotalInLeague:      totalInLeague,
		PromoteThreshold:   promote,
		RelegateThreshold:  relegate,
		DistanceToPromote:  rankInLeague - promote,
		DistanceToRelegate: relegate - rankInLeague,
	}
}

// Leaderboard returns the top-N ranked users. Read path is resilient:
// cache → ranking engine RPC → raw profile scan → empty list. It never
// returns an error so the page always renders.
func (s *LeagueService) Leaderboard(limit int) []LeaderboardRow {
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}

	if rows, ok := s.cachedLeaderboard(limit); ok {
		return rows
	}

	rows := leaderboardWithFallback(limit, s.rankedLeaderboard, s.profileScanLeaderboard)
	if len(rows) > 0 {
		s.cacheLeaderboard(limit, rows)
	}
	return rows
}

// leaderboardWithFallback runs the primary query and degrades to the
// fallback on failure; when both fail it returns an empty slice, never an
// error.
func leaderboardWithFallback(limit int, primary, fallback func(int) ([]LeaderboardRow, error)) []LeaderboardRow {
	rows, err := primary(limit)
	if err == nil {
		return rows
	}
	log.Printf("⚠️ [LEADERBOARD] Primary query failed, falling back to profile scan: %v", err)

	rows, err = fallback(limit)
	if err != nil {
		log.Printf("❌ [LEADERBOARD] Fallback scan failed too, returning empty board: %v", err)
		return []LeaderboardRow{}
	}
	return rows
}

// rankedLeaderboard is the primary path: the engine's aggregate query.
func (s *LeagueService) rankedLeaderboard(limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := s.DB.Raw("SELECT * FROM get_leaderboard(?)", limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// profileScanLeaderboard is the degraded path: a direct sort-and-limit scan
// of the profile mirror. No league or season fields.
func (s *LeagueService) profileScanLeaderboard(limit int) ([]LeaderboardRow, error) {
	var profiles []models.Profile
	err := s.DB.
		Select("external_user_id", "username", "country", "total_xp").
		Order("total_xp DESC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, len(profiles))
	for i, p := range profiles {
		rows[i] = LeaderboardRow{
			ExternalUserID: p.ExternalUserID,
			Username:       p.Username,
			Country:        p.Country,
			TotalXP:        p.TotalXP,
			Rank:           i + 1,
		}
	}
	return rows, nil
}

// DashboardStats proxies the engine's aggregate metrics procedure.
func (s *LeagueService) DashboardStats() (map[string]interface{}, error) {
	var raw string
	if err := s.DB.Raw("SELECT get_admin_dashboard_stats()").Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("get_admin_dashboard_stats failed: %w", err)
	}
	stats := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard stats: %w", err)
	}
	return stats, nil
}

// --- Leaderboard cache ---

func leaderboardCacheKey(limit int) string {
	return leaderboardCacheKeyPrefix + strconv.Itoa(limit)
}

func (s *LeagueService) cachedLeaderboard(limit int) ([]LeaderboardRow, bool) {
	if s.Cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := s.Cache.Get(ctx, leaderboardCacheKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ [LEADERBOARD] Cache read failed, treating as miss: %v", err)
		}
		return nil, false
	}
	var rows []LeaderboardRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *LeagueService) cacheLeaderboard(limit int, rows []LeaderboardRow) {
	if s.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, leaderboardCacheKey(limit), data, leaderboardCacheTTL).Err(); err != nil {
		log.Printf("⚠️ [LEADERBOARD] Cache write failed: %v", err)
	}
}

func (s *LeagueService) invalidateLeaderboardCache() {
	if s.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// SCAN instead of KEYS: invalidation runs on the season lifecycle path
	// and must not block the keyspace.
	var keys []string
	iter := s.Cache.Scan(ctx, 0, leaderboardCacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ [LEADERBOARD] Cache invalidation scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.Cache.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ [LEADERBOARD] Cache invalidation failed: %v", err)
	}
}

// --- Season archive ---

// archiveSeason exports the settled season's standings as CSV to object
// storage. Runs fire-and-forget from SettleSeason.
func (s *LeagueService) archiveSeason(seasonID string) {
	season, err := s.Season(seasonID)
	if err != nil {
		log.Printf("⚠️ [ARCHIVE] Season %s lookup failed, skipping export: %v", seasonID, err)
		return
	}

	var snapshots []models.LeagueSnapshot
	err = s.DB.Where("season_id = ?", seasonID).
		Order("league_name ASC, rank_in_league ASC").
		Find(&snapshots).Error
	if err != nil {
		log.Printf("⚠️ [ARCHIVE] Failed to load snapshots for season %s: %v", seasonID, err)
		return
	}

	name := season.Name
	if name == "" {
		name = seasonID
	}
	key := fmt.Sprintf("seasons/%s/%s.csv", seasonID, slug.Make(name))

	url, err := utils.UploadSeasonArchive(key, BuildSeasonArchiveCSV(snapshots))
	if err != nil {
		log.Printf("⚠️ [ARCHIVE] Upload failed for season %s: %v", seasonID, err)
		return
	}
	log.Printf("🗄️ Season %s archived: %s", seasonID, url)
}

// BuildSeasonArchiveCSV renders snapshot rows as CSV, one row per ranked
// user, in the order given.
func BuildSeasonArchiveCSV(snapshots []models.LeagueSnapshot) string {
	var b strings.Builder
	b.WriteString("season_id,user_id,league,season_xp,rank_overall,rank_in_league\n")
	for _, snap := range snapshots {
		b.WriteString(snap.SeasonID)
		b.WriteString(",")
		b.WriteString(snap.ExternalUserID)
		b.WriteString(",")
		b.WriteString(snap.LeagueName)
		b.WriteString(",")
		b.WriteString(strconv.FormatInt(snap.SeasonXP, 10))
		b.WriteString(",")
		b.WriteString(strconv.Itoa(snap.RankOverall))
		b.WriteString(",")
		b.WriteString(strconv.Itoa(snap.RankInLeague))
		b.WriteString("\n")
	}
	return b.String()
}

// --- Fiber handlers ---

// GetLeaderboard → GET /api/leaderboard
func (s *LeagueService) GetLeaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLeaderboardLimit)))
	return c.JSON(fiber.Map{"data": s.Leaderboard(limit)})
}

// GetMyStanding → GET /api/leaderboard/me
func (s *LeagueService) GetMyStanding(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	snapshot, distances, err := s.PersonalStanding(userID)
	if err != nil {
		return respondError(c, err, "failed to load standing")
	}

	return c.JSON(fiber.Map{
		"data":      snapshot,
		"distances": distances,
	})
}

// PostComputeSnapshot → POST /api/league/compute-snapshot (admin)
func (s *LeagueService) PostComputeSnapshot(c *fiber.Ctx) error {
	seasonID, ok := parseSeasonID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "season_id is required",
		})
	}
	if err := s.ComputeSnapshot(seasonID); err != nil {
		return respondError(c, err, "snapshot computation failed")
	}
	return c.JSON(fiber.Map{"success": true})
}

// PostSettleSeason → POST /api/league/settle-season (admin)
func (s *LeagueService) PostSettleSeason(c *fiber.Ctx) error {
	seasonID, ok := parseSeasonID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "season_id is required",
		})
	}
	if err := s.SettleSeason(seasonID); err != nil {
		return respondError(c, err, "season settlement failed")
	}
	return c.JSON(fiber.Map{"success": true})
}

// PostStartNextSeason → POST /api/league/start-next-season (admin)
func (s *LeagueService) PostStartNextSeason(c *fiber.Ctx) error {
	seasonID, err := s.StartNextSeason()
	if err != nil {
		return respondError(c, err, "failed to start next season")
	}
	return c.JSON(fiber.Map{"success": true, "season_id": seasonID})
}

// GetAdminStats → GET /api/admin/stats (admin)
func (s *LeagueService) GetAdminStats(c *fiber.Ctx) error {
	stats, err := s.DashboardStats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load dashboard stats",
			"cause": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"data": stats})
}

func parseSeasonID(c *fiber.Ctx) (string, bool) {
	type Req struct {
		SeasonID string `json:"season_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.SeasonID == "" {
		return "", false
	}
	return req.SeasonID, true
}
