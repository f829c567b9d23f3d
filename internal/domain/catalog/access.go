package catalog

import (
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCESS POLICY
// ══════════════════════════════════════════════════════════════════════════════

// CanAccess decides whether a learner holding tier T may access content
// requiring tier R. Pure, total function: true iff rank(T) >= rank(R).
//
// Tier strings are compared case-insensitively and unrecognized strings rank
// 0. That means an unknown learner tier is denied everything except content
// whose required tier is itself unrecognized (0 >= 0). The fallback is kept
// permissive on purpose rather than rejecting unknown input.
func CanAccess(tier, requiredTier shared.SkillTier) bool {
	return tier.Rank() >= requiredTier.Rank()
}
