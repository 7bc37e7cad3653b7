package storage

import (
	"context"
	"io"
)

// ObjectStore stages datasets durably before the warehouse load.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) (string, error)
}
