package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/storage"
)

// FrontierRepository implements storage.FrontierRepository for BadgerDB.
// The whole frontier is checkpointed as one blob: a crawl either resumes from
// a complete checkpoint or starts fresh.
type FrontierRepository struct {
	backend *Backend
}

var _ storage.FrontierRepository = (*FrontierRepository)(nil)

// NewFrontierRepository creates a new FrontierRepository.
func NewFrontierRepository(backend *Backend) (storage.FrontierRepository, error) {
	return &FrontierRepository{backend: backend}, nil
}

// Close releases resources. FrontierRepository has no resources to release.
func (r *FrontierRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *FrontierRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveFrontier replaces the checkpointed frontier.
func (r *FrontierRepository) SaveFrontier(ctx context.Context, entries []*core.FrontierEntry) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFrontierKey(), storage.MarshalFrontier(entries)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadFrontier retrieves the checkpointed frontier entries, nil when absent.
func (r *FrontierRepository) LoadFrontier(ctx context.Context) ([]*core.FrontierEntry, error) {
	var result []*core.FrontierEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFrontierKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalFrontier(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ClearFrontier removes the checkpoint.
func (r *FrontierRepository) ClearFrontier(ctx context.Context) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeFrontierKey()); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return tx.Commit()
	}, true)
}
