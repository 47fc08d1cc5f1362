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


package ingestion

import (
	"context"

	"github.com/poiesic/vecload/core"
)

// processor is an internal interface for loading a single source record.
type processor interface {
	// process chunks, embeds and writes one record. The result carries
	// partial counts even when err is set.
	process(ctx context.Context, record *core.SourceRecord) recordResult
}

// recordResult is the outcome of processing one record.
type recordResult struct {
	chunks   int
	embedded int
	written  int
	skipped  bool
	err      error
}
