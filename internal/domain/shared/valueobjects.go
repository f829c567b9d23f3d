// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// LearnerID represents a unique learner identifier (UUID format).
type LearnerID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the learner ID is a valid UUID.
func (l LearnerID) IsValid() bool {
	return uuidRegex.MatchString(string(l))
}

// String returns the string representation.
func (l LearnerID) String() string {
	return string(l)
}

// IsEmpty checks if the ID is empty.
func (l LearnerID) IsEmpty() bool {
	return l == ""
}

// NewLearnerID creates a new LearnerID with validation.
func NewLearnerID(id string) (LearnerID, error) {
	lid := LearnerID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", NewDomainError("shared", "NewLearnerID", ErrInvalidID, "invalid learner ID format")
	}
	return lid, nil
}

// LessonID represents a unique lesson identifier.
// Lesson IDs are opaque keys: zero and negative values are legal and carry
// no meaning beyond identity.
type LessonID int

// Int returns the underlying int value.
func (l LessonID) Int() int {
	return int(l)
}

// String returns the string representation.
func (l LessonID) String() string {
	return strconv.Itoa(int(l))
}

// PathID represents a named curriculum track grouping lessons.
// An empty PathID means the lesson belongs to no path.
type PathID string

// IsEmpty checks if the path ID is empty.
func (p PathID) IsEmpty() bool {
	return p == ""
}

// String returns the string representation.
func (p PathID) String() string {
	return string(p)
}

// ═══════════════════════════════════════════════════════════════════════════
// SkillTier Value Object
// ═══════════════════════════════════════════════════════════════════════════

// SkillTier represents a learner's skill level gating content visibility.
// The underlying string is preserved as received: tiers may arrive from
// untrusted input, and comparison falls back to rank 0 for anything
// unrecognized instead of rejecting it.
type SkillTier string

// The three known tiers, totally ordered beginner < intermediate < advanced.
const (
	TierBeginner     SkillTier = "beginner"
	TierIntermediate SkillTier = "intermediate"
	TierAdvanced     SkillTier = "advanced"
)

// Rank maps a tier to its position in the total order.
// Comparison is case-insensitive; unrecognized tiers rank 0.
func (t SkillTier) Rank() int {
	switch strings.ToLower(strings.TrimSpace(string(t))) {
	case string(TierBeginner):
		return 1
	case string(TierIntermediate):
		return 2
	case string(TierAdvanced):
		return 3
	default:
		return 0
	}
}

// IsKnown checks if the tier is one of the three recognized values.
func (t SkillTier) IsKnown() bool {
	return t.Rank() > 0
}

// Normalize returns the canonical lowercase form for a known tier,
// or the input unchanged if unrecognized.
func (t SkillTier) Normalize() SkillTier {
	lower := SkillTier(strings.ToLower(strings.TrimSpace(string(t))))
	if lower.Rank() > 0 {
		return lower
	}
	return t
}

// Next returns the tier one step above, and false when there is no higher
// tier (advanced is terminal, unknown tiers do not promote).
func (t SkillTier) Next() (SkillTier, bool) {
	switch t.Rank() {
	case 1:
		return TierIntermediate, true
	case 2:
		return TierAdvanced, true
	default:
		return t, false
	}
}

// AtLeast reports whether this tier ranks at or above the other tier.
func (t SkillTier) AtLeast(other SkillTier) bool {
	return t.Rank() >= other.Rank()
}

// String returns the string representation.
func (t SkillTier) String() string {
	return string(t)
}

// ParseSkillTier parses a string into a known SkillTier.
// Returns an error for unrecognized input; use SkillTier(s) directly where
// the permissive rank-0 fallback is wanted.
func ParseSkillTier(s string) (SkillTier, error) {
	t := SkillTier(s).Normalize()
	if !t.IsKnown() {
		return "", NewDomainError("shared", "ParseSkillTier", ErrInvalidInput, fmt.Sprintf("unknown skill tier: %q", s))
	}
	return t, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a learner's email address.
type Email string

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValid checks if the email format is valid.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns a normalized (lowercase, trimmed) version of the email.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// NewEmail creates a new Email with validation.
func NewEmail(s string) (Email, error) {
	e := Email(s).Normalize()
	if !e.IsValid() {
		return "", NewDomainError("shared", "NewEmail", ErrInvalidFormat, "invalid email format")
	}
	return e, nil
}
