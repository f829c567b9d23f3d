// Package service contains infrastructure adapters that implement the ports
// declared by the application layer.
package service

import (
	"github.com/google/uuid"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// UUIDGenerator issues learner IDs backed by random UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewLearnerID implements command.IDGenerator.
func (g *UUIDGenerator) NewLearnerID() shared.LearnerID {
	return shared.LearnerID(uuid.NewString())
}
