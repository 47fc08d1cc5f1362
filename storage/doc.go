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


// Package storage provides the vector store abstraction layer for vecload.
//
// This package defines the collection interfaces that decouple the load
// pipeline from any particular store. Two backends are provided: an embedded
// BadgerDB store (storage/badger) and an Astra DB Data API client
// (storage/astra).
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the CollectionStore interface:
//
//	store, err := badger.NewStore(path)  // returns storage.CollectionStore
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - CollectionStore: creates collections and hands out handles
//   - Collection: InsertOne, UpsertOne, CountDocuments, FindByDocumentID
//
// Entries are serialized with mus-go. Free-form Info metadata is nested as
// JSON text inside the binary record.
//
// # Usage
//
//	store, err := badger.NewStore("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.CreateCollection(ctx, "books", core.CollectionOptions{Dimension: 1536})
//	if errors.Is(err, storage.ErrCollectionExists) {
//	    // already provisioned
//	}
//	err = store.Collection("books").InsertOne(ctx, entry)
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
