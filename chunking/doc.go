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


// Package chunking splits long text into bounded, overlapping chunks.
//
// Sizes and overlaps are counted in Unicode code points. A Splitter is
// validated when it is built, so a bad size/overlap pair fails before any
// text is processed:
//
//	splitter, err := chunking.New(
//	    chunking.WithChunkSize(1000),
//	    chunking.WithChunkOverlap(200),
//	)
//	if err != nil {
//	    return err // wraps core.ErrConfiguration
//	}
//	chunks, err := splitter.Split("p1", description)
//
// # Strategies
//
// StrategyWindow (the default) slides a window of ChunkSize runes over the
// text. Each window is cut at the last paragraph, line, sentence or word
// boundary it contains, falling back to a hard cut. The next window starts
// exactly ChunkOverlap runes before the previous cut, so dropping the first
// ChunkOverlap runes of every chunk but the first and concatenating yields
// the original text.
//
// StrategyRecursive delegates to langchaingo's RecursiveCharacter splitter.
// It merges separator-delimited pieces and trims whitespace, so its output
// is not guaranteed to reassemble losslessly.
//
// Splitter satisfies langchaingo's textsplitter.TextSplitter interface and
// can be passed to textsplitter.SplitDocuments.
package chunking
