package redis

import (
	"context"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ProgressCache is a read model of learner progress on top of the generic
// Cache. It sits in front of the Postgres ProgressStore for the dashboard
// query path; writes always go through Postgres and invalidate this cache.
type ProgressCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewProgressCache creates a new ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{
		cache: cache,
		ttl:   TTLProgressCache,
	}
}

// progressDTO is the JSON shape of cached progress. Sets become sorted
// slices: the domain maps do not round-trip through JSON.
type progressDTO struct {
	LearnerID        string    `json:"learner_id"`
	Tier             string    `json:"tier"`
	CompletedLessons []int     `json:"completed_lessons"`
	CompletedPaths   []string  `json:"completed_paths"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toDTO(p *learner.Progress) progressDTO {
	dto := progressDTO{
		LearnerID:        p.LearnerID.String(),
		Tier:             p.Tier.String(),
		CompletedLessons: make([]int, 0, len(p.CompletedLessons)),
		CompletedPaths:   make([]string, 0, len(p.CompletedPaths)),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for _, id := range p.CompletedLessonIDs() {
		dto.CompletedLessons = append(dto.CompletedLessons, int(id))
	}
	for _, id := range p.CompletedPathIDs() {
		dto.CompletedPaths = append(dto.CompletedPaths, id.String())
	}
	return dto
}

func fromDTO(dto progressDTO) *learner.Progress {
	p := &learner.Progress{
		LearnerID:        shared.LearnerID(dto.LearnerID),
		Tier:             shared.SkillTier(dto.Tier),
		CompletedLessons: make(map[shared.LessonID]struct{}, len(dto.CompletedLessons)),
		CompletedPaths:   make(map[shared.PathID]struct{}, len(dto.CompletedPaths)),
		CreatedAt:        dto.CreatedAt,
		UpdatedAt:        dto.UpdatedAt,
	}
	for _, id := range dto.CompletedLessons {
		p.CompletedLessons[shared.LessonID(id)] = struct{}{}
	}
	for _, id := range dto.CompletedPaths {
		p.CompletedPaths[shared.PathID(id)] = struct{}{}
	}
	return p
}

// Get returns cached progress, or ErrCacheMiss.
func (c *ProgressCache) Get(ctx context.Context, learnerID shared.LearnerID) (*learner.Progress, error) {
	var dto progressDTO
	if err := c.cache.Get(ctx, ProgressKey(learnerID.String()), &dto); err != nil {
		return nil, err
	}
	return fromDTO(dto), nil
}

// Set caches progress with the default TTL.
func (c *ProgressCache) Set(ctx context.Context, progress *learner.Progress) error {
	if progress == nil {
		return nil
	}
	return c.cache.Set(ctx, ProgressKey(progress.LearnerID.String()), toDTO(progress), c.ttl)
}

// Invalidate drops cached progress after a write.
func (c *ProgressCache) Invalidate(ctx context.Context, learnerID shared.LearnerID) error {
	return c.cache.Delete(ctx, ProgressKey(learnerID.String()))
}

// InvalidateAll clears all cached progress.
func (c *ProgressCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixProgress+"*")
}
