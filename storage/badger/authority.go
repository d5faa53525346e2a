// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/storage"
)

// AuthorityRepository implements storage.AuthorityRepository for BadgerDB.
// The table is stored as a single blob so that writers replace it atomically.
type AuthorityRepository struct {
	backend *Backend
}

var _ storage.AuthorityRepository = (*AuthorityRepository)(nil)

// NewAuthorityRepository creates a new AuthorityRepository.
func NewAuthorityRepository(backend *Backend) (storage.AuthorityRepository, error) {
	return &AuthorityRepository{backend: backend}, nil
}

// Close releases resources. AuthorityRepository has no resources to release.
func (r *AuthorityRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *AuthorityRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveTable replaces the stored authority table.
func (r *AuthorityRepository) SaveTable(ctx context.Context, table core.AuthorityTable) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeAuthorityTableKey(), storage.MarshalAuthorityTable(table)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadTable retrieves the stored authority table, empty when absent.
func (r *AuthorityRepository) LoadTable(ctx context.Context) (core.AuthorityTable, error) {
	result := core.AuthorityTable{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeAuthorityTableKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalAuthorityTable(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}
