package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

func TestCanAccess_TierOrdering(t *testing.T) {
	cases := []struct {
		tier     shared.SkillTier
		required shared.SkillTier
		want     bool
	}{
		{shared.TierBeginner, shared.TierBeginner, true},
		{shared.TierBeginner, shared.TierIntermediate, false},
		{shared.TierBeginner, shared.TierAdvanced, false},
		{shared.TierIntermediate, shared.TierBeginner, true},
		{shared.TierIntermediate, shared.TierIntermediate, true},
		{shared.TierIntermediate, shared.TierAdvanced, false},
		{shared.TierAdvanced, shared.TierBeginner, true},
		{shared.TierAdvanced, shared.TierIntermediate, true},
		{shared.TierAdvanced, shared.TierAdvanced, true},
	}

	for _, tc := range cases {
		got := CanAccess(tc.tier, tc.required)
		assert.Equal(t, tc.want, got, "CanAccess(%q, %q)", tc.tier, tc.required)
	}
}

func TestCanAccess_CaseInsensitive(t *testing.T) {
	assert.True(t, CanAccess("Intermediate", "intermediate"))
	assert.True(t, CanAccess("ADVANCED", "Beginner"))
	assert.False(t, CanAccess("BEGINNER", "Advanced"))
	assert.True(t, CanAccess("  advanced  ", "intermediate"))
}

func TestCanAccess_UnknownTierFallsBackToZero(t *testing.T) {
	// Unknown learner tier ranks 0 and is denied all known content.
	assert.False(t, CanAccess("wizard", shared.TierBeginner))
	assert.False(t, CanAccess("", shared.TierBeginner))

	// Unknown required tier also ranks 0, so anything may access it,
	// including another unknown tier (0 >= 0).
	assert.True(t, CanAccess(shared.TierBeginner, "wizard"))
	assert.True(t, CanAccess("wizard", "sorcerer"))
	assert.True(t, CanAccess("", ""))
}

// Access monotonicity: for all T1 <= T2 and all R,
// CanAccess(T1, R) implies CanAccess(T2, R).
func TestCanAccess_Monotonicity(t *testing.T) {
	tiers := []shared.SkillTier{"unknown", shared.TierBeginner, shared.TierIntermediate, shared.TierAdvanced}

	for i, lower := range tiers {
		for _, higher := range tiers[i:] {
			for _, required := range tiers {
				if CanAccess(lower, required) {
					assert.True(t, CanAccess(higher, required),
						"access granted to %q but denied to higher tier %q for required %q",
						lower, higher, required)
				}
			}
		}
	}
}

func TestCanAccess_BeginnerGateScenario(t *testing.T) {
	// A beginner cannot open an intermediate lesson; after promotion the
	// same check passes.
	required := shared.TierIntermediate

	assert.False(t, CanAccess(shared.TierBeginner, required))

	promoted, ok := shared.TierBeginner.Next()
	assert.True(t, ok)
	assert.Equal(t, shared.TierIntermediate, promoted)
	assert.True(t, CanAccess(promoted, required))
}
