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


package storage

import "errors"

var (
	// ErrDuplicateKey is returned by InsertOne when the entry id is taken.
	ErrDuplicateKey = errors.New("duplicate entry id")

	// ErrCollectionExists indicates a collection with the requested name already exists.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrCollectionNotFound indicates the collection has not been created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension does not match collection")

	// ErrStorageClosed is returned by operations on a closed store.
	ErrStorageClosed = errors.New("store is closed")

	// ErrSerializationFailed wraps encoding and decoding failures of stored
	// entries and API payloads.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData means an encoded entry ended early.
	ErrTruncatedData = errors.New("truncated data")
)
