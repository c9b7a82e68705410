package repository

import "context"

// ModelStore persists trained model snapshots. Implementations store the
// model as an opaque serialized blob keyed by ID.
type ModelStore interface {
	Save(ctx context.Context, id string, blob []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	LoadLatest(ctx context.Context) (id string, blob []byte, err error)
	Close() error
}
