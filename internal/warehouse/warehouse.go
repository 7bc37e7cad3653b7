package warehouse

import (
	"context"
	"fmt"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/models"
)

// Mode selects between creating the destination table and appending to it.
type Mode string

const (
	// ModeCreate rebuilds the destination table from scratch (bulk runs).
	ModeCreate Mode = "create"
	// ModeAppend adds rows to an existing table (incremental runs).
	ModeAppend Mode = "append"
)

// Warehouse is the destination analytical store. Backends either copy the
// staged object in (Redshift) or insert the typed records directly (MongoDB).
type Warehouse interface {
	EnsureTable(ctx context.Context, mode Mode) error
	Load(ctx context.Context, complaints []models.Complaint, stagedURI string) error
	Close() error
}

// New creates a warehouse instance based on configuration
func New(cfg config.WarehouseConfig) (Warehouse, error) {
	switch cfg.Type {
	case "redshift":
		return NewRedshiftWarehouse(cfg)
	case "mongodb":
		return NewMongoWarehouse(cfg)
	default:
		return nil, fmt.Errorf("unsupported warehouse type: %s", cfg.Type)
	}
}
