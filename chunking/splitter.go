package chunking

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/vecload/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the default maximum chunk length in runes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the default number of runes shared by neighbouring chunks.
	DefaultChunkOverlap = 200
)

// Strategy selects the splitting algorithm.
type Strategy string

const (
	// StrategyWindow is the boundary-aware sliding window. Lossless.
	StrategyWindow Strategy = "window"

	// StrategyRecursive uses langchaingo's recursive character splitter.
	StrategyRecursive Strategy = "recursive"
)

// DefaultSeparators are tried in order when looking for a cut point:
// paragraph, line, sentence, then word.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Splitter splits text into ordered, overlapping chunks.
// A Splitter is immutable after construction and safe for concurrent use.
type Splitter struct {
	size       int
	overlap    int
	strategy   Strategy
	separators [][]rune
	recursive  textsplitter.RecursiveCharacter
}

var _ textsplitter.TextSplitter = (*Splitter)(nil)

type options struct {
	size       int
	overlap    int
	strategy   Strategy
	separators []string
}

// Option configures a Splitter.
type Option func(*options)

// WithChunkSize sets the maximum chunk length in runes.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.size = size
	}
}

// WithChunkOverlap sets how many trailing runes of a chunk are repeated
// at the start of the next one.
func WithChunkOverlap(overlap int) Option {
	return func(o *options) {
		o.overlap = overlap
	}
}

// WithStrategy selects the splitting algorithm.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) {
		o.strategy = strategy
	}
}

// WithSeparators overrides the boundary separators, highest priority first.
func WithSeparators(separators []string) Option {
	return func(o *options) {
		o.separators = separators
	}
}

// New creates a Splitter. It fails with core.ErrConfiguration when the
// size/overlap pair is unusable (size < 1, overlap < 0 or overlap >= size)
// or the strategy is unknown.
func New(opts ...Option) (*Splitter, error) {
	o := options{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		strategy:   StrategyWindow,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.size < 1 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrConfiguration, o.size)
	}
	if o.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", core.ErrConfiguration, o.overlap)
	}
	if o.overlap >= o.size {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)",
			core.ErrConfiguration, o.overlap, o.size)
	}

	s := &Splitter{
		size:     o.size,
		overlap:  o.overlap,
		strategy: o.strategy,
	}

	switch o.strategy {
	case StrategyWindow:
		for _, sep := range o.separators {
			if sep == "" {
				continue
			}
			s.separators = append(s.separators, []rune(sep))
		}
	case StrategyRecursive:
		// The recursive splitter needs the empty separator as its last resort.
		seps := slices.Clone(o.separators)
		if !slices.Contains(seps, "") {
			seps = append(seps, "")
		}
		s.recursive = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(o.size),
			textsplitter.WithChunkOverlap(o.overlap),
			textsplitter.WithSeparators(seps),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		)
	default:
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", core.ErrConfiguration, o.strategy)
	}

	return s, nil
}

// ChunkSize returns the maximum chunk length in runes.
func (s *Splitter) ChunkSize() int {
	return s.size
}

// ChunkOverlap returns the overlap between neighbouring chunks in runes.
func (s *Splitter) ChunkOverlap() int {
	return s.overlap
}

// Strategy returns the splitting algorithm in use.
func (s *Splitter) Strategy() Strategy {
	return s.strategy
}

// SplitText splits text into chunks. Blank text yields no chunks.
func (s *Splitter) SplitText(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if s.strategy == StrategyRecursive {
		parts, err := s.recursive.SplitText(text)
		if err != nil {
			return nil, err
		}
		out := parts[:0]
		for _, p := range parts {
			if p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}

	return s.window(text), nil
}

// Split splits a record's text into numbered chunks. Sequences start at 1.
func (s *Splitter) Split(sourceID, text string) ([]core.Chunk, error) {
	parts, err := s.SplitText(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]core.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = core.Chunk{
			SourceID: sourceID,
			Text:     part,
			Sequence: i + 1,
		}
	}
	return chunks, nil
}

// window implements StrategyWindow.
func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	var chunks []string

	start := 0
	for len(runes)-start > s.size {
		end := s.cut(runes, start)
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}
	return append(chunks, string(runes[start:]))
}

// cut picks the end (exclusive) of the chunk starting at start.
// The cut always lies past start+overlap so every chunk contributes new text,
// and no earlier than half a chunk so boundaries don't produce slivers.
func (s *Splitter) cut(runes []rune, start int) int {
	limit := start + s.size
	floor := max(start+s.overlap+1, start+s.size/2)

	for _, sep := range s.separators {
		// Cut right after the separator so it stays with the preceding chunk.
		for p := limit; p >= floor; p-- {
			if hasSuffixAt(runes, p, sep) {
				return p
			}
		}
	}
	return limit
}

// hasSuffixAt reports whether runes[:p] ends with sep.
func hasSuffixAt(runes []rune, p int, sep []rune) bool {
	if p < len(sep) || p > len(runes) {
		return false
	}
	return slices.Equal(runes[p-len(sep):p], sep)
}
