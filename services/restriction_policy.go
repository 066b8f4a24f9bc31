package services

import (
	"time"

	"study-discipline-system/models"
)

// Severity tiers escalate with consecutive failed sessions:
// 1–2 failures → level 1, 3–4 → level 2, 5+ → level 3.
const (
	severityLevel2Failures = 3
	severityLevel3Failures = 5
)

// Duration per severity level (fixed, not configurable per call)
var restrictionDurations = map[int]time.Duration{
	1: 7 * 24 * time.Hour,
	2: 14 * 24 * time.Hour,
	3: 30 * 24 * time.Hour,
}

// Feature tables are cumulative: level 2 locks everything level 1 does plus
// its own set. Level 3 is a blanket lock over the whole class.
var featureLockTiers = map[int][]string{
	1: {"ai_planner", "advanced_stats"},
	2: {"custom_themes", "focus_insights", "challenge_creation"},
}

var socialReductionTiers = map[int][]string{
	1: {"leaderboard_visibility", "friend_challenges"},
	2: {"study_groups", "profile_comments"},
}

// featureClasses maps each gateable feature to its class, used when a
// blanket gate must answer "is this feature covered".
var featureClasses = map[string]models.FeatureClass{
	"ai_planner":             models.FeatureClassPremium,
	"advanced_stats":         models.FeatureClassPremium,
	"custom_themes":          models.FeatureClassPremium,
	"focus_insights":         models.FeatureClassPremium,
	"challenge_creation":     models.FeatureClassPremium,
	"leaderboard_visibility": models.FeatureClassSocial,
	"friend_challenges":      models.FeatureClassSocial,
	"study_groups":           models.FeatureClassSocial,
	"profile_comments":       models.FeatureClassSocial,
}

// XP rate multiplier while an xp_penalty restriction is in effect
var xpPenaltyMultipliers = map[int]float64{
	1: 0.75,
	2: 0.50,
	3: 0.25,
}

// CalculateSeverity maps a consecutive-failure count to a tier in {1,2,3}.
// Total function: any non-negative count maps to a tier, no error cases.
func CalculateSeverity(consecutiveFailures int) int {
	switch {
	case consecutiveFailures >= severityLevel3Failures:
		return 3
	case consecutiveFailures >= severityLevel2Failures:
		return 2
	default:
		return 1
	}
}

// RestrictionDuration returns how long a restriction of the given severity
// lasts. Unknown levels get the level-1 duration.
func RestrictionDuration(level int) time.Duration {
	if d, ok := restrictionDurations[level]; ok {
		return d
	}
	return restrictionDurations[1]
}

// RestrictedFeatures resolves the feature gate for a restriction type and
// severity. Unknown types yield an empty gate (purely numeric penalties like
// xp_penalty carry no feature locks).
func RestrictedFeatures(rtype models.RestrictionType, level int) models.FeatureGate {
	var tiers map[int][]string
	var class models.FeatureClass

	switch rtype {
	case models.RestrictionTypeFeatureLock:
		tiers = featureLockTiers
		class = models.FeatureClassPremium
	case models.RestrictionTypeSocialReduction:
		tiers = socialReductionTiers
		class = models.FeatureClassSocial
	default:
		return models.FeatureGate{}
	}

	if level >= 3 {
		return models.FeatureGate{AllLocked: true, Class: class}
	}

	var features []string
	for l := 1; l <= level; l++ {
		features = append(features, tiers[l]...)
	}
	return models.FeatureGate{Features: features}
}

// IsFeatureRestricted reports whether any currently effective restriction
// gates the named feature, either by enumerating it or via a blanket lock
// over the feature's class.
func IsFeatureRestricted(active []models.Restriction, feature string) bool {
	now := time.Now()
	for _, r := range active {
		if !r.InEffect(now) {
			continue
		}
		if gateCovers(r.Features, feature) {
			return true
		}
	}
	return false
}

// XPMultiplier returns the XP rate applied to a user's awards given their
// currently effective restrictions. The harshest active xp_penalty wins;
// no penalty means full rate.
func XPMultiplier(active []models.Restriction) float64 {
	now := time.Now()
	multiplier := 1.0
	for _, r := range active {
		if r.Type != models.RestrictionTypeXPPenalty || !r.InEffect(now) {
			continue
		}
		if m, ok := xpPenaltyMultipliers[r.Level]; ok && m < multiplier {
			multiplier = m
		}
	}
	return multiplier
}

// HasCoveringRestriction reports whether one of the restrictions already
// imposes the given type at an equal or higher level right now. Callers use
// it to escalate instead of stacking duplicate rows.
func HasCoveringRestriction(active []models.Restriction, rtype models.RestrictionType, level int) bool {
	now := time.Now()
	for _, r := range active {
		if r.Type == rtype && r.Level >= level && r.InEffect(now) {
			return true
		}
	}
	return false
}

func gateCovers(gate models.FeatureGate, feature string) bool {
	if gate.AllLocked {
		return featureClasses[feature] == gate.Class
	}
	for _, f := range gate.Features {
		if f == feature {
			return true
		}
	}
	return false
}
