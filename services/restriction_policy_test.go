package services

import (
	"reflect"
	"testing"
	"time"

	"study-discipline-system/models"
)

func TestCalculateSeverity(t *testing.T) {
	tests := []struct {
		failures int
		want     int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{12, 3},
	}
	for _, tt := range tests {
		if got := CalculateSeverity(tt.failures); got != tt.want {
			t.Errorf("CalculateSeverity(%d) = %d, want %d", tt.failures, got, tt.want)
		}
	}
}

func TestCalculateSeverityMonotonic(t *testing.T) {
	prev := 0
	for f := 0; f <= 20; f++ {
		got := CalculateSeverity(f)
		if got < prev {
			t.Fatalf("severity decreased at %d failures: %d < %d", f, got, prev)
		}
		prev = got
	}
}

func TestRestrictedFeaturesCumulative(t *testing.T) {
	level1 := RestrictedFeatures(models.RestrictionTypeFeatureLock, 1)
	level2 := RestrictedFeatures(models.RestrictionTypeFeatureLock, 2)

	for _, f := range level1.Features {
		found := false
		for _, g := range level2.Features {
			if f == g {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("level 2 gate is missing level 1 feature %q", f)
		}
	}
	if len(level2.Features) <= len(level1.Features) {
		t.Errorf("level 2 gate should add features beyond level 1")
	}
}

func TestRestrictedFeaturesLevel3IsBlanket(t *testing.T) {
	tests := []struct {
		name  string
		rtype models.RestrictionType
		class models.FeatureClass
	}{
		{"feature lock", models.RestrictionTypeFeatureLock, models.FeatureClassPremium},
		{"social reduction", models.RestrictionTypeSocialReduction, models.FeatureClassSocial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := RestrictedFeatures(tt.rtype, 3)
			if !gate.AllLocked {
				t.Fatalf("level 3 gate should be a blanket lock, got %+v", gate)
			}
			if gate.Class != tt.class {
				t.Errorf("level 3 gate class = %q, want %q", gate.Class, tt.class)
			}
			if len(gate.Features) != 0 {
				t.Errorf("blanket gate should not enumerate features, got %v", gate.Features)
			}
		})
	}
}

func TestRestrictedFeaturesUnknownType(t *testing.T) {
	gate := RestrictedFeatures(models.RestrictionType("unknown_type"), 1)
	if !gate.Empty() {
		t.Errorf("unknown type should yield an empty gate, got %+v", gate)
	}
	if !reflect.DeepEqual(RestrictedFeatures(models.RestrictionTypeXPPenalty, 2), models.FeatureGate{}) {
		t.Errorf("xp_penalty should carry no feature gate")
	}
}

func TestRestrictionDuration(t *testing.T) {
	tests := []struct {
		level int
		want  time.Duration
	}{
		{1, 7 * 24 * time.Hour},
		{2, 14 * 24 * time.Hour},
		{3, 30 * 24 * time.Hour},
		{9, 7 * 24 * time.Hour}, // unknown levels fall back to level 1
	}
	for _, tt := range tests {
		if got := RestrictionDuration(tt.level); got != tt.want {
			t.Errorf("RestrictionDuration(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func activeRestriction(rtype models.RestrictionType, gate models.FeatureGate) models.Restriction {
	now := time.Now()
	return models.Restriction{
		Type:      rtype,
		Features:  gate,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
	}
}

func TestIsFeatureRestricted(t *testing.T) {
	blanketPremium := activeRestriction(models.RestrictionTypeFeatureLock,
		models.FeatureGate{AllLocked: true, Class: models.FeatureClassPremium})
	blanketSocial := activeRestriction(models.RestrictionTypeSocialReduction,
		models.FeatureGate{AllLocked: true, Class: models.FeatureClassSocial})
	enumerated := activeRestriction(models.RestrictionTypeFeatureLock,
		models.FeatureGate{Features: []string{"ai_planner"}})

	expired := blanketPremium
	expired.EndDate = time.Now().Add(-time.Minute)

	inactive := blanketPremium
	inactive.IsActive = false

	tests := []struct {
		name    string
		active  []models.Restriction
		feature string
		want    bool
	}{
		{"blanket premium covers premium feature", []models.Restriction{blanketPremium}, "ai_planner", true},
		{"blanket premium does not cover social feature", []models.Restriction{blanketPremium}, "study_groups", false},
		{"blanket social covers social feature", []models.Restriction{blanketSocial}, "study_groups", true},
		{"enumerated exact match", []models.Restriction{enumerated}, "ai_planner", true},
		{"enumerated non-match", []models.Restriction{enumerated}, "advanced_stats", false},
		{"expired restriction ignored", []models.Restriction{expired}, "ai_planner", false},
		{"inactive restriction ignored", []models.Restriction{inactive}, "ai_planner", false},
		{"no restrictions", nil, "ai_planner", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFeatureRestricted(tt.active, tt.feature); got != tt.want {
				t.Errorf("IsFeatureRestricted(%q) = %v, want %v", tt.feature, got, tt.want)
			}
		})
	}
}

func TestHasCoveringRestriction(t *testing.T) {
	lock := func(level int) models.Restriction {
		r := activeRestriction(models.RestrictionTypeFeatureLock, models.FeatureGate{})
		r.Level = level
		return r
	}
	expiredLock := lock(3)
	expiredLock.EndDate = time.Now().Add(-time.Minute)
	social := activeRestriction(models.RestrictionTypeSocialReduction, models.FeatureGate{})
	social.Level = 3

	tests := []struct {
		name   string
		active []models.Restriction
		level  int
		want   bool
	}{
		{"no restrictions", nil, 1, false},
		{"same level already in force", []models.Restriction{lock(2)}, 2, true},
		{"higher level already in force", []models.Restriction{lock(3)}, 2, true},
		{"escalation past active level", []models.Restriction{lock(1)}, 2, false},
		{"expired lock does not cover", []models.Restriction{expiredLock}, 2, false},
		{"other type does not cover", []models.Restriction{social}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasCoveringRestriction(tt.active, models.RestrictionTypeFeatureLock, tt.level)
			if got != tt.want {
				t.Errorf("HasCoveringRestriction(level=%d) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestXPMultiplier(t *testing.T) {
	penalty := func(level int) models.Restriction {
		r := activeRestriction(models.RestrictionTypeXPPenalty, models.FeatureGate{})
		r.Level = level
		return r
	}
	featureLock := activeRestriction(models.RestrictionTypeFeatureLock,
		models.FeatureGate{Features: []string{"ai_planner"}})

	tests := []struct {
		name   string
		active []models.Restriction
		want   float64
	}{
		{"no restrictions", nil, 1.0},
		{"level 1 penalty", []models.Restriction{penalty(1)}, 0.75},
		{"level 3 penalty", []models.Restriction{penalty(3)}, 0.25},
		{"harshest wins", []models.Restriction{penalty(1), penalty(2)}, 0.50},
		{"feature lock does not affect rate", []models.Restriction{featureLock}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := XPMultiplier(tt.active); got != tt.want {
				t.Errorf("XPMultiplier() = %v, want %v", got, tt.want)
			}
		})
	}
}
