package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) (storage.IndexRepository, error) {
	return &IndexRepository{backend: backend}, nil
}

// Close releases resources. IndexRepository has no resources to release.
func (r *IndexRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *IndexRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutPostings inserts or replaces posting lists. Large snapshots are split
// into multiple transactions to stay under badger's transaction size limit.
func (r *IndexRepository) PutPostings(ctx context.Context, lists ...*core.PostingList) error {
	const batchSize = 512

	for start := 0; start < len(lists); start += batchSize {
		end := start + batchSize
		if end > len(lists) {
			end = len(lists)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, list := range lists[start:end] {
				if err := tx.Set(makePostingKey(list.Term), storage.MarshalPostingList(list)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetPostings retrieves the posting list for a term.
func (r *IndexRepository) GetPostings(ctx context.Context, term string) (*core.PostingList, error) {
	var result *core.PostingList
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePostingKey(term))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalPostingList(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ForEachPostings iterates all snapshotted posting lists in term order.
func (r *IndexRepository) ForEachPostings(ctx context.Context, fn func(*core.PostingList) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(postingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var list *core.PostingList
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				list, err = storage.UnmarshalPostingList(val)
				return err
			}); err != nil {
				return err
			}
			if err := fn(list); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// PutStats replaces the persisted index statistics.
func (r *IndexRepository) PutStats(ctx context.Context, stats *core.IndexStats) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		stats.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeIndexStatsKey(), storage.MarshalIndexStats(stats)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetStats retrieves the persisted index statistics.
func (r *IndexRepository) GetStats(ctx context.Context) (*core.IndexStats, error) {
	var result *core.IndexStats
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexStatsKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalIndexStats(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}
