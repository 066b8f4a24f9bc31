package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"study-discipline-system/models"
)

func TestComputeStandingDistances(t *testing.T) {
	tests := []struct {
		name  string
		rank  int64
		total int64
		want  models.StandingDistances
	}{
		{
			name:  "rank 5 of 100 is already promotable",
			rank:  5,
			total: 100,
			want: models.StandingDistances{
				TotalInLeague:      100,
				PromoteThreshold:   10,
				RelegateThreshold:  90,
				DistanceToPromote:  -5,
				DistanceToRelegate: 85,
			},
		},
		{
			name:  "rank 95 of 100 is in the relegation zone",
			rank:  95,
			total: 100,
			want: models.StandingDistances{
				TotalInLeague:      100,
				PromoteThreshold:   10,
				RelegateThreshold:  90,
				DistanceToPromote:  85,
				DistanceToRelegate: -5,
			},
		},
		{
			name:  "small league promotes nobody",
			rank:  1,
			total: 7,
			want: models.StandingDistances{
				TotalInLeague:      7,
				PromoteThreshold:   0,
				RelegateThreshold:  7,
				DistanceToPromote:  1,
				DistanceToRelegate: 6,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStandingDistances(tt.rank, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeStandingDistances(%d, %d) = %+v, want %+v", tt.rank, tt.total, got, tt.want)
			}
		})
	}
}

func TestLeaderboardWithFallback(t *testing.T) {
	primaryRows := []LeaderboardRow{{ExternalUserID: "u1", Rank: 1, LeagueName: "Gold League"}}
	fallbackRows := []LeaderboardRow{{ExternalUserID: "u2", Rank: 1}}

	ok := func(rows []LeaderboardRow) func(int) ([]LeaderboardRow, error) {
		return func(int) ([]LeaderboardRow, error) { return rows, nil }
	}
	fail := func(int) ([]LeaderboardRow, error) { return nil, errors.New("query failed") }

	tests := []struct {
		name     string
		primary  func(int) ([]LeaderboardRow, error)
		fallback func(int) ([]LeaderboardRow, error)
		want     []LeaderboardRow
	}{
		{"primary succeeds", ok(primaryRows), ok(fallbackRows), primaryRows},
		{"primary fails, fallback serves", fail, ok(fallbackRows), fallbackRows},
		{"both fail returns empty, not error", fail, fail, []LeaderboardRow{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := leaderboardWithFallback(10, tt.primary, tt.fallback)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("leaderboardWithFallback() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLeaderboardCacheKeyIncludesLimit(t *testing.T) {
	if leaderboardCacheKey(10) == leaderboardCacheKey(50) {
		t.Errorf("cache keys for different limits must differ")
	}
}

// Invalidation scans for leaderboardCacheKeyPrefix+"*", so every key the
// writer produces must sit under that prefix or it would never be evicted.
func TestLeaderboardCacheKeyMatchesScanPrefix(t *testing.T) {
	for _, limit := range []int{1, defaultLeaderboardLimit, maxLeaderboardLimit} {
		key := leaderboardCacheKey(limit)
		if !strings.HasPrefix(key, leaderboardCacheKeyPrefix) {
			t.Errorf("key %q does not match scan prefix %q", key, leaderboardCacheKeyPrefix)
		}
	}
}

func TestBuildSeasonArchiveCSV(t *testing.T) {
	snapshots := []models.LeagueSnapshot{
		{SeasonID: "s1", ExternalUserID: "u1", LeagueName: "Bronze League", SeasonXP: 120, RankOverall: 40, RankInLeague: 1},
		{SeasonID: "s1", ExternalUserID: "u2", LeagueName: "Bronze League", SeasonXP: 90, RankOverall: 55, RankInLeague: 2},
	}

	csv := BuildSeasonArchiveCSV(snapshots)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "season_id,user_id,league,season_xp,rank_overall,rank_in_league" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "s1,u1,Bronze League,120,40,1" {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if lines[2] != "s1,u2,Bronze League,90,55,2" {
		t.Errorf("unexpected second row: %s", lines[2])
	}
}

func TestBuildSeasonArchiveCSVEmpty(t *testing.T) {
	csv := BuildSeasonArchiveCSV(nil)
	if csv != "season_id,user_id,league,season_xp,rank_overall,rank_in_league\n" {
		t.Errorf("empty archive should be header only, got %q", csv)
	}
}
