package load

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/acronymdata/complaints-etl/internal/models"
	"github.com/acronymdata/complaints-etl/internal/storage"
	"github.com/acronymdata/complaints-etl/internal/warehouse"
)

// LoadError reports a failure during the load stage. Stage names which half
// failed: "storage" means the staging upload, "warehouse" means the table
// load. A warehouse failure can leave the staged object behind; there is no
// rollback, cleanup is manual.
type LoadError struct {
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed at %s: %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader stages a transformed dataset in object storage and loads it into
// the warehouse table.
type Loader struct {
	store storage.ObjectStore
	wh    warehouse.Warehouse
	table string
	now   func() time.Time
}

// New creates a new loader for the given destination table
func New(store storage.ObjectStore, wh warehouse.Warehouse, table string) *Loader {
	return &Loader{
		store: store,
		wh:    wh,
		table: table,
		now:   time.Now,
	}
}

// Load serializes the dataset to CSV, uploads it, and loads the destination
// table. It returns the number of rows handed to the warehouse.
func (l *Loader) Load(ctx context.Context, complaints []models.Complaint, mode warehouse.Mode) (int, error) {
	data, err := csvutil.Marshal(complaints)
	if err != nil {
		return 0, &LoadError{Stage: "storage", Err: fmt.Errorf("failed to serialize dataset: %w", err)}
	}

	key := fmt.Sprintf("complaints/%s/%s.csv", l.table, l.now().UTC().Format("20060102T150405Z"))
	uri, err := l.store.Upload(ctx, key, bytes.NewReader(data))
	if err != nil {
		return 0, &LoadError{Stage: "storage", Err: err}
	}
	log.Printf("Staged %d complaints at %s", len(complaints), uri)

	if err := l.wh.EnsureTable(ctx, mode); err != nil {
		return 0, &LoadError{Stage: "warehouse", Err: err}
	}

	if err := l.wh.Load(ctx, complaints, uri); err != nil {
		return 0, &LoadError{Stage: "warehouse", Err: err}
	}

	return len(complaints), nil
}
