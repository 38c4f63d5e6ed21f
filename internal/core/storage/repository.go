package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// ErrDuplicate is returned when a fact with the same id already exists.
var ErrDuplicate = errors.New("fact already exists")

// FactStore defines the interface for persisting and materializing facts.
// The engine never talks to the store directly: the query layer materializes
// the full fact batch for a query before the pipeline starts.
type FactStore interface {
	// SaveFacts persists a batch of facts atomically.
	SaveFacts(ctx context.Context, facts []*v1.Fact) error

	// RetrieveFacts materializes every fact for the given marketplaces whose
	// occurrence date falls inside [start, end], ordered by ingestion
	// sequence for reproducible downstream folds.
	RetrieveFacts(
		ctx context.Context,
		marketplaceIDs []string,
		start time.Time,
		end time.Time,
	) ([]*v1.Fact, error)

	// Ping verifies connectivity for health reporting.
	Ping(ctx context.Context) error
}
