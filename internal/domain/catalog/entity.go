// Package catalog contains the lesson catalog domain: immutable lesson
// records grouped into curriculum paths, and the access policy gating them.
// This is a pure domain layer with zero external dependencies.
package catalog

import (
	"sort"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson is a single unit of curriculum content.
// Lessons are immutable configuration data, loaded once at startup.
type Lesson struct {
	// ID is the unique lesson identifier. Opaque key: zero and negative
	// values are legal.
	ID shared.LessonID

	// Title is the human-readable lesson title.
	Title string

	// RequiredTier is the minimum skill tier needed to access the lesson.
	RequiredTier shared.SkillTier

	// PathID groups the lesson with its siblings. Empty means unaffiliated.
	PathID shared.PathID

	// Position is the ordering position within the path.
	Position int
}

// InPath checks if the lesson belongs to a path.
func (l Lesson) InPath() bool {
	return !l.PathID.IsEmpty()
}

// ══════════════════════════════════════════════════════════════════════════════
// PATH
// ══════════════════════════════════════════════════════════════════════════════

// Path is a derived grouping of lessons sharing a PathID. It is never stored;
// it is computed from the catalog.
type Path struct {
	// ID is the path identifier.
	ID shared.PathID

	// Lessons are the member lessons, ordered by Position.
	Lessons []Lesson
}

// LessonIDs returns the member lesson IDs in order.
func (p Path) LessonIDs() []shared.LessonID {
	ids := make([]shared.LessonID, len(p.Lessons))
	for i, l := range p.Lessons {
		ids[i] = l.ID
	}
	return ids
}

// IsEmpty checks if the path has no lessons. An empty path is never
// considered completable: a fold over zero lessons is vacuously true, and
// that vacuous truth must not unlock anything.
func (p Path) IsEmpty() bool {
	return len(p.Lessons) == 0
}

// LessonsAtTier returns the member lessons whose required tier matches.
func (p Path) LessonsAtTier(tier shared.SkillTier) []Lesson {
	var out []Lesson
	for _, l := range p.Lessons {
		if l.RequiredTier.Rank() == tier.Rank() {
			out = append(out, l)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog is the full set of lessons known to the platform. Read-only after
// construction; safe for concurrent use.
type Catalog struct {
	lessons  []Lesson
	byID     map[shared.LessonID]Lesson
	byPathID map[shared.PathID][]Lesson
}

// NewCatalog builds a catalog from lesson records. Lesson order within a path
// follows Position; ties keep input order.
func NewCatalog(lessons []Lesson) *Catalog {
	c := &Catalog{
		lessons:  make([]Lesson, len(lessons)),
		byID:     make(map[shared.LessonID]Lesson, len(lessons)),
		byPathID: make(map[shared.PathID][]Lesson),
	}
	copy(c.lessons, lessons)

	for _, l := range c.lessons {
		c.byID[l.ID] = l
		if l.InPath() {
			c.byPathID[l.PathID] = append(c.byPathID[l.PathID], l)
		}
	}

	for id, members := range c.byPathID {
		sorted := members
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Position < sorted[j].Position
		})
		c.byPathID[id] = sorted
	}

	return c
}

// Lesson returns the lesson with the given ID.
func (c *Catalog) Lesson(id shared.LessonID) (Lesson, bool) {
	l, ok := c.byID[id]
	return l, ok
}

// Lessons returns all lessons in input order.
func (c *Catalog) Lessons() []Lesson {
	out := make([]Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}

// Path returns the path with the given ID. The second value is false when no
// lesson references the path.
func (c *Catalog) Path(id shared.PathID) (Path, bool) {
	members, ok := c.byPathID[id]
	if !ok {
		return Path{ID: id}, false
	}
	out := make([]Lesson, len(members))
	copy(out, members)
	return Path{ID: id, Lessons: out}, true
}

// Paths returns every known path, sorted by ID for deterministic iteration.
func (c *Catalog) Paths() []Path {
	ids := make([]shared.PathID, 0, len(c.byPathID))
	for id := range c.byPathID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	paths := make([]Path, 0, len(ids))
	for _, id := range ids {
		p, _ := c.Path(id)
		paths = append(paths, p)
	}
	return paths
}

// PathOf returns the path containing the given lesson, if any.
func (c *Catalog) PathOf(lessonID shared.LessonID) (Path, bool) {
	l, ok := c.byID[lessonID]
	if !ok || !l.InPath() {
		return Path{}, false
	}
	return c.Path(l.PathID)
}

// Len returns the number of lessons in the catalog.
func (c *Catalog) Len() int {
	return len(c.lessons)
}

// AccessibleLessons returns the lessons a learner at the given tier may see,
// per the access policy, preserving catalog order.
func (c *Catalog) AccessibleLessons(tier shared.SkillTier) []Lesson {
	var out []Lesson
	for _, l := range c.lessons {
		if CanAccess(tier, l.RequiredTier) {
			out = append(out, l)
		}
	}
	return out
}
