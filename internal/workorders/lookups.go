package workorders

import (
	"context"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
)

// Lookups is the slice of the lookup resolver the store depends on.
// Resolution misses are nil/false results; errors mean the reference tables
// themselves were unreachable.
type Lookups interface {
	Status(ctx context.Context, value string) (*models.Lookup, error)
	StatusByLabel(ctx context.Context, label string) (*models.Lookup, error)
	ServiceType(ctx context.Context, value string) (*models.Lookup, error)
	TroubleCode(ctx context.Context, value string) (*models.Lookup, error)
	MeterType(ctx context.Context, value string) (*models.Lookup, error)
	UserID(ctx context.Context, identifier string) (int, bool, error)
	GroupName(ctx context.Context, value string) (string, bool, error)
}

// SchemaMigrator brings a project schema forward to the canonical shape.
type SchemaMigrator interface {
	Migrate(ctx context.Context, schema string) error
}
