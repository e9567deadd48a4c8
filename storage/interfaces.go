package storage

import (
	"context"

	"foreclosure-ingest/models"
)

// ListingUpserter is the interface the document store must satisfy. Upsert is
// keyed by Listing.ID and idempotent: writing the same batch twice leaves the
// store in the same observable state as writing it once.
type ListingUpserter interface {
	Upsert(ctx context.Context, listings []models.Listing) error
	FetchAll(ctx context.Context) ([]models.Listing, error)
	Close() error
}

// SnapshotStore is the interface for the independent backup path: write-once
// named artifacts in durable object storage.
type SnapshotStore interface {
	// Snapshot serializes payload as JSON under a name derived from the
	// source label and the run date.
	Snapshot(ctx context.Context, label string, payload any) error

	// PutLog stores the run-log text artifact.
	PutLog(ctx context.Context, name, text string) error
}
