// Package store provides data persistence for structures and legs.
package store

import (
	"context"
	"time"

	"options-journal/internal/models"
	"options-journal/internal/pnl"
)

// StructureFilter narrows a structure listing.
type StructureFilter struct {
	Status models.StructureStatus // empty means all
	Name   string                 // substring match, empty means all
	Limit  int                    // 0 means no limit
}

// StructureStore defines the persistence interface for structures.
//
// CloseStructure and ReopenStructure own the Active <-> Closed status
// transitions. Closing settles every open leg through the engine's
// settlement formula; reopening clears the close fields and discards
// the cached realized P&L.
type StructureStore interface {
	SaveStructure(ctx context.Context, s *models.Structure) error
	GetStructure(ctx context.Context, id int64) (*models.Structure, error)
	ListStructures(ctx context.Context, filter StructureFilter) ([]models.Structure, error)
	DeleteStructure(ctx context.Context, id int64) error

	CloseStructure(ctx context.Context, id int64, market models.MarketSnapshot, now time.Time) (*pnl.Settlement, error)
	ReopenStructure(ctx context.Context, id int64) error

	Close() error
}
