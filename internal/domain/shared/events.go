// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"
	EventLearnerReset      EventType = "learner.reset"
	EventTierOverridden    EventType = "learner.tier_overridden"

	// Progress events
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventPathUnlocked    EventType = "progress.path_unlocked"
	EventTierPromoted    EventType = "progress.tier_promoted"

	// Insights events
	EventInsightsSynced EventType = "insights.synced"

	// System events
	EventReconcileCompleted EventType = "system.reconcile_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner registers.
type LearnerRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
		"tier":         e.Tier,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(learnerID LearnerID, email Email, displayName string, tier SkillTier) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, learnerID.String()),
		Email:       email.String(),
		DisplayName: displayName,
		Tier:        tier.String(),
	}
}

// LearnerResetEvent is emitted when a learner's progress is wiped.
type LearnerResetEvent struct {
	BaseEvent
	PreviousTier     string `json:"previous_tier"`
	LessonsForgotten int    `json:"lessons_forgotten"`
}

// Payload implements Event interface.
func (e LearnerResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_tier":     e.PreviousTier,
		"lessons_forgotten": e.LessonsForgotten,
	}
}

// NewLearnerResetEvent creates a new LearnerResetEvent.
func NewLearnerResetEvent(learnerID LearnerID, previousTier SkillTier, lessonsForgotten int) LearnerResetEvent {
	return LearnerResetEvent{
		BaseEvent:        NewBaseEvent(EventLearnerReset, learnerID.String()),
		PreviousTier:     previousTier.String(),
		LessonsForgotten: lessonsForgotten,
	}
}

// TierOverriddenEvent is emitted when an administrator manually sets a tier.
type TierOverriddenEvent struct {
	BaseEvent
	OldTier string `json:"old_tier"`
	NewTier string `json:"new_tier"`
	Actor   string `json:"actor"`
}

// Payload implements Event interface.
func (e TierOverriddenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_tier": e.OldTier,
		"new_tier": e.NewTier,
		"actor":    e.Actor,
	}
}

// NewTierOverriddenEvent creates a new TierOverriddenEvent.
func NewTierOverriddenEvent(learnerID LearnerID, oldTier, newTier SkillTier, actor string) TierOverriddenEvent {
	return TierOverriddenEvent{
		BaseEvent: NewBaseEvent(EventTierOverridden, learnerID.String()),
		OldTier:   oldTier.String(),
		NewTier:   newTier.String(),
		Actor:     actor,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a learner finishes a lesson for the
// first time. Re-completions of the same lesson do not produce an event.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID int    `json:"lesson_id"`
	PathID   string `json:"path_id,omitempty"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id": e.LessonID,
		"path_id":   e.PathID,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(learnerID LearnerID, lessonID LessonID, pathID PathID) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, learnerID.String()),
		LessonID:  lessonID.Int(),
		PathID:    pathID.String(),
	}
}

// PathUnlockedEvent is emitted when the last lesson of a path is completed.
// The presentation layer renders it as a banner; emitting it twice for the
// same (learner, path) pair is a user-visible defect.
type PathUnlockedEvent struct {
	BaseEvent
	PathID string `json:"path_id"`
}

// Payload implements Event interface.
func (e PathUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"path_id": e.PathID,
	}
}

// NewPathUnlockedEvent creates a new PathUnlockedEvent.
func NewPathUnlockedEvent(learnerID LearnerID, pathID PathID) PathUnlockedEvent {
	return PathUnlockedEvent{
		BaseEvent: NewBaseEvent(EventPathUnlocked, learnerID.String()),
		PathID:    pathID.String(),
	}
}

// TierPromotedEvent is emitted when a learner advances exactly one tier.
type TierPromotedEvent struct {
	BaseEvent
	OldTier string `json:"old_tier"`
	NewTier string `json:"new_tier"`
}

// Payload implements Event interface.
func (e TierPromotedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_tier": e.OldTier,
		"new_tier": e.NewTier,
	}
}

// NewTierPromotedEvent creates a new TierPromotedEvent.
func NewTierPromotedEvent(learnerID LearnerID, oldTier, newTier SkillTier) TierPromotedEvent {
	return TierPromotedEvent{
		BaseEvent: NewBaseEvent(EventTierPromoted, learnerID.String()),
		OldTier:   oldTier.String(),
		NewTier:   newTier.String(),
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Insights Events
// ═══════════════════════════════════════════════════════════════════════════

// InsightsSyncedEvent is emitted after a community insights sync run.
type InsightsSyncedEvent struct {
	BaseEvent
	Subreddits []string `json:"subreddits"`
	Fetched    int      `json:"fetched"`
	Matched    int      `json:"matched"`
	Stored     int      `json:"stored"`
}

// Payload implements Event interface.
func (e InsightsSyncedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"subreddits": e.Subreddits,
		"fetched":    e.Fetched,
		"matched":    e.Matched,
		"stored":     e.Stored,
	}
}

// NewInsightsSyncedEvent creates a new InsightsSyncedEvent.
func NewInsightsSyncedEvent(runID string, subreddits []string, fetched, matched, stored int) InsightsSyncedEvent {
	return InsightsSyncedEvent{
		BaseEvent:  NewBaseEvent(EventInsightsSynced, runID),
		Subreddits: subreddits,
		Fetched:    fetched,
		Matched:    matched,
		Stored:     stored,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish sends an event to all subscribed handlers.
	Publish(event Event) error
}

// EventSubscriber subscribes handlers to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber

	// Close shuts down the bus and waits for in-flight handlers.
	Close() error
}
