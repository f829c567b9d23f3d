package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports per-learner targeting, tier-based gating and time windows.
//
// Philosophy alignment: the platform should reward practice, not grind.
// - Progression features are always on
// - Community content is informative, never gamified
// - Quiz experiments roll out gradually
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	learnerOverrides map[string]map[string]bool // learnerID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Learners are assigned based on hash of their ID
	RolloutPercent int

	// Tier targeting (e.g., "intermediate", "advanced")
	// Empty means all tiers
	TargetTiers []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	LearnerID string // learner UUID
	Tier      string // current skill tier
	IsAdmin   bool   // is admin user
}

// Predefined feature flag names.
const (
	// === Catalog Features ===
	FeatureCatalogShowLocked    = "catalog.show_locked"    // List locked lessons with a marker
	FeatureCatalogPathProgress  = "catalog.path_progress"  // Per-path completion counters
	FeatureCatalogNextUnlock    = "catalog.next_unlock"    // "Complete N more lessons to unlock"
	FeatureCatalogTierBadges    = "catalog.tier_badges"    // Tier badges on lesson cards
	FeatureCatalogCompletedMark = "catalog.completed_mark" // Checkmarks on completed lessons

	// === Progression Features (core to project philosophy) ===
	FeatureProgressAutoPromote = "progress.auto_promote" // Promote tier on path completion
	FeatureProgressMultiStep   = "progress.multi_step"   // Allow multi-step promotions
	FeatureProgressReset       = "progress.reset"        // Self-service progress reset

	// === Quiz Features ===
	FeatureQuizEnabled      = "quiz.enabled"       // Lesson quizzes
	FeatureQuizDemoFallback = "quiz.demo_fallback" // Serve demo quiz when generator is down
	FeatureQuizCaching      = "quiz.caching"       // Cache generated quizzes

	// === Community Insights Features ===
	FeatureInsightsFeed        = "insights.feed"         // Community insights feed
	FeatureInsightsThemeFilter = "insights.theme_filter" // Filter feed by theme
	FeatureInsightsThemeCounts = "insights.theme_counts" // Per-theme counters

	// === Notification Features ===
	FeatureNotifyPathUnlocked = "notify.path_unlocked" // "New path unlocked!"
	FeatureNotifyTierPromoted = "notify.tier_promoted" // "You were promoted!"

	// === Experimental Features ===
	FeatureExperimentalQuizAI    = "experimental.quiz_ai"   // AI-generated quizzes
	FeatureExperimentalAnalytics = "experimental.analytics" // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		learnerOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Catalog features - mostly enabled by default
	ff.features[FeatureCatalogShowLocked] = &Feature{
		Name:           FeatureCatalogShowLocked,
		Description:    "List locked lessons with a marker",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCatalogPathProgress] = &Feature{
		Name:           FeatureCatalogPathProgress,
		Description:    "Show per-path completion counters",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCatalogNextUnlock] = &Feature{
		Name:           FeatureCatalogNextUnlock,
		Description:    "Show how many lessons remain until the next unlock",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}

	ff.features[FeatureCatalogTierBadges] = &Feature{
		Name:           FeatureCatalogTierBadges,
		Description:    "Show tier badges on lesson cards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCatalogCompletedMark] = &Feature{
		Name:           FeatureCatalogCompletedMark,
		Description:    "Show checkmarks on completed lessons",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Progression features - CORE to project, enabled by default
	ff.features[FeatureProgressAutoPromote] = &Feature{
		Name:           FeatureProgressAutoPromote,
		Description:    "Promote tier automatically on path completion",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressMultiStep] = &Feature{
		Name:           FeatureProgressMultiStep,
		Description:    "Allow multiple promotions in one completion",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressReset] = &Feature{
		Name:           FeatureProgressReset,
		Description:    "Self-service progress reset",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Quiz features
	ff.features[FeatureQuizEnabled] = &Feature{
		Name:           FeatureQuizEnabled,
		Description:    "Lesson quizzes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureQuizDemoFallback] = &Feature{
		Name:           FeatureQuizDemoFallback,
		Description:    "Serve demo quiz when generator is unavailable",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureQuizCaching] = &Feature{
		Name:           FeatureQuizCaching,
		Description:    "Cache generated quizzes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Community insights features
	ff.features[FeatureInsightsFeed] = &Feature{
		Name:           FeatureInsightsFeed,
		Description:    "Community insights feed",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureInsightsThemeFilter] = &Feature{
		Name:           FeatureInsightsThemeFilter,
		Description:    "Filter insights by theme",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureInsightsThemeCounts] = &Feature{
		Name:           FeatureInsightsThemeCounts,
		Description:    "Per-theme post counters",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - carefully tuned to avoid spam
	ff.features[FeatureNotifyPathUnlocked] = &Feature{
		Name:           FeatureNotifyPathUnlocked,
		Description:    "Notify when a new path unlocks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyTierPromoted] = &Feature{
		Name:           FeatureNotifyTierPromoted,
		Description:    "Notify when the tier is promoted",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalQuizAI] = &Feature{
		Name:           FeatureExperimentalQuizAI,
		Description:    "AI-generated quizzes",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_QUIZ_ENABLED=true
// Example: FEATURE_CATALOG_NEXT_UNLOCK=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "catalog.show_locked" -> "FEATURE_CATALOG_SHOW_LOCKED"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check learner overrides first
	if ctx != nil && ctx.LearnerID != "" {
		if overrides, ok := ff.learnerOverrides[ctx.LearnerID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check tier targeting
	if len(feature.TargetTiers) > 0 && ctx != nil && ctx.Tier != "" {
		tierMatch := false
		for _, t := range feature.TargetTiers {
			if t == ctx.Tier {
				tierMatch = true
				break
			}
		}
		if !tierMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.LearnerID != "" {
		return ff.isInRollout(ctx.LearnerID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a learner is in the rollout percentage.
// Uses consistent hashing so learners stay in their bucket.
func (ff *FeatureFlags) isInRollout(learnerID, featureName string, percent int) bool {
	// Create a consistent hash for this learner+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(learnerID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a learner.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.LearnerID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetLearnerOverride sets a feature override for a specific learner.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetLearnerOverride(learnerID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.learnerOverrides[learnerID]; !ok {
		ff.learnerOverrides[learnerID] = make(map[string]bool)
	}
	ff.learnerOverrides[learnerID][featureName] = enabled
}

// ClearLearnerOverrides removes all overrides for a learner.
func (ff *FeatureFlags) ClearLearnerOverrides(learnerID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.learnerOverrides, learnerID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// QuizzesEnabled checks if lesson quizzes should be served.
func (ff *FeatureFlags) QuizzesEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureQuizEnabled, ctx)
}

// NotificationsEnabled checks if any notifications are enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyPathUnlocked, ctx) ||
		ff.IsEnabled(FeatureNotifyTierPromoted, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
