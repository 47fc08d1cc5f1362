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

import "errors"

// Domain validation errors
var (
	// ErrConfiguration indicates invalid or missing configuration.
	// It is always fatal and reported before any work is done.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidSourceRecord indicates a SourceRecord failed validation.
	ErrInvalidSourceRecord = errors.New("invalid source record")

	// ErrInvalidVectorEntry indicates a VectorEntry failed validation.
	ErrInvalidVectorEntry = errors.New("invalid vector entry")

	// ErrEmptyID indicates a required identifier is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyVector indicates a VectorEntry has no vector.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrInvalidSequence indicates a chunk sequence below 1.
	ErrInvalidSequence = errors.New("sequence must be positive")
)
