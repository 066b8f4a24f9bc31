package models

import "time"

// LeagueSnapshot is a per-user, per-season ranking record. Rows are
// bulk-replaced by the ranking engine's compute_leaderboard_snapshot
// procedure and read-only here until the next computation.
type LeagueSnapshot struct {
	ID                  string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SeasonID            string `gorm:"not null;uniqueIndex:idx_snapshot_season_user" json:"season_id"`
	ExternalUserID      string `gorm:"not null;uniqueIndex:idx_snapshot_season_user" json:"external_user_id"`
	LeagueName          string `gorm:"not null" json:"league_name"` // e.g., "Bronze League"
	LeagueSlug          string `gorm:"index" json:"league_slug"`    // e.g., "bronze-league"
	SeasonXP            int64  `json:"season_xp" gorm:"default:0"`
	RankOverall         int    `json:"rank_overall"`
	RankInLeague        int    `json:"rank_in_league"`
	RankInLeaguePremium int    `json:"rank_in_league_premium"` // rank among premium-tier users in the league

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StandingDistances describes how far a snapshot row sits from the
// promotion and relegation zones of its league. Zero or negative distance
// means the user is already inside the zone.
type StandingDistances struct {
	TotalInLeague      int64 `json:"total_in_league"`
	PromoteThreshold   int64 `json:"promote_threshold"`
	RelegateThreshold  int64 `json:"relegate_threshold"`
	DistanceToPromote  int64 `json:"distance_to_promote"`
	DistanceToRelegate int64 `json:"distance_to_relegate"`
}
