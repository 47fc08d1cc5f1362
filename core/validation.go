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


package core

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxCollectionNameLength is the longest accepted collection name.
const MaxCollectionNameLength = 48

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateSourceRecord validates a SourceRecord according to domain rules.
//
// Validation rules:
//   - ID must not be blank
//
// NOT validated:
//   - Description (an empty description is valid and yields no chunks)
//   - Info (arbitrary metadata, copied verbatim)
//   - ID uniqueness (the caller's responsibility)
func ValidateSourceRecord(record *SourceRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidSourceRecord)
	}

	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSourceRecord, ErrEmptyID)
	}

	return nil
}

// ValidateVectorEntry validates a VectorEntry before it is written.
//
// Validation rules:
//   - DocumentID must not be blank
//   - Sequence must be >= 1
//   - Vector must not be empty
//
// NOT validated:
//   - ID (assigned by the store)
//   - Vector length (checked against the collection dimension by callers)
func ValidateVectorEntry(entry *VectorEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidVectorEntry)
	}

	if strings.TrimSpace(entry.DocumentID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyID)
	}

	if entry.Sequence < 1 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidVectorEntry, ErrInvalidSequence, entry.Sequence)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVectorEntry, ErrEmptyVector)
	}

	return nil
}

// ValidateCollectionName checks that name starts with a letter, contains only
// letters, digits and underscores, and is at most MaxCollectionNameLength long.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", ErrConfiguration)
	}
	if len(name) > MaxCollectionNameLength || !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid collection name %q", ErrConfiguration, name)
	}
	return nil
}
