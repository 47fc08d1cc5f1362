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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
)

// Store implements storage.CollectionStore for BadgerDB.
type Store struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.CollectionStore = (*Store)(nil)

// NewStore opens (or creates) a BadgerDB store in the directory at path.
func NewStore(path string) (storage.CollectionStore, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

func newStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}

// CreateCollection persists collection metadata.
func (s *Store) CreateCollection(ctx context.Context, name string, opts core.CollectionOptions) error {
	if err := core.ValidateCollectionName(name); err != nil {
		return err
	}
	if opts.Dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", core.ErrConfiguration, opts.Dimension)
	}

	err := s.backend.Update(func(tx *badger.Txn) error {
		key := makeCollectionKey(name)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrCollectionExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		info := &core.CollectionInfo{
			Name:      name,
			Dimension: opts.Dimension,
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		}
		return tx.Set(key, storage.MarshalCollectionInfo(info))
	})
	if err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}

	s.logger.Info("created collection", "collection", name, "dimension", opts.Dimension)
	return nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) storage.Collection {
	return &Collection{
		name:    name,
		backend: s.backend,
	}
}

// DescribeCollection returns the stored metadata of a collection.
// Returns storage.ErrCollectionNotFound if it has not been created.
func (s *Store) DescribeCollection(ctx context.Context, name string) (*core.CollectionInfo, error) {
	var info *core.CollectionInfo
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = readCollectionInfo(tx, name)
		return err
	}, false)
	return info, err
}

func readCollectionInfo(tx *badger.Txn, name string) (*core.CollectionInfo, error) {
	item, err := tx.Get(makeCollectionKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %q", storage.ErrCollectionNotFound, name)
		}
		return nil, err
	}

	var info *core.CollectionInfo
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		info, unmarshalErr = storage.UnmarshalCollectionInfo(val)
		return unmarshalErr
	})
	return info, err
}
