package catalog

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// The catalog is read-only from the domain's perspective. Implementations
// live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository loads the lesson catalog from durable storage.
type Repository interface {
	// Load returns the complete catalog. Called once at startup; the
	// returned Catalog is immutable.
	Load(ctx context.Context) (*Catalog, error)
}
