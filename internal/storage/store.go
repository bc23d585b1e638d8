package storage

import (
	"context"
	"errors"

	"heredity/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists genome records and their lineage.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, genome model.GenomeRecord) error
	GetGenome(ctx context.Context, id string) (model.GenomeRecord, bool, error)
	ListGenomes(ctx context.Context) ([]string, error)
	// DeleteGenome removes the genome and its lineage record. Deleting an
	// unknown id is not an error.
	DeleteGenome(ctx context.Context, id string) error
	SaveLineage(ctx context.Context, record model.LineageRecord) error
	GetLineage(ctx context.Context, genomeID string) (model.LineageRecord, bool, error)
}
