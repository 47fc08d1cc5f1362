package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vecload/ai"
	"github.com/poiesic/vecload/chunking"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
)

// WriteMode selects how entries are written to the collection.
type WriteMode int

const (
	// WriteModeAppend inserts a new entry per chunk on every run.
	// Re-running a load duplicates entries.
	WriteModeAppend WriteMode = iota

	// WriteModeUpsert keys entries by document ID and sequence, so
	// re-running a load replaces entries instead of duplicating them.
	WriteModeUpsert
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeAppend:
		return "append"
	case WriteModeUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// ParseWriteMode parses "append" or "upsert".
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return WriteModeAppend, nil
	case "upsert":
		return WriteModeUpsert, nil
	default:
		return 0, fmt.Errorf("%w: unknown write mode %q", core.ErrConfiguration, s)
	}
}

// Loader runs every record through chunking, embedding and writing.
type Loader struct {
	collection       storage.Collection
	proc             processor
	workers          int
	embedConcurrency int
	continueOnError  bool
	writeMode        WriteMode
	progressWriter   io.Writer
	progressInterval int
	logger           *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithWorkers sets how many records are processed concurrently.
// Default is 1, which processes records strictly in order.
func WithWorkers(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			n = 1
		}
		l.workers = n
		return nil
	}
}

// WithEmbedConcurrency sets how many chunks of one record are embedded
// concurrently. Writes still happen in sequence order. Default is 1.
func WithEmbedConcurrency(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			n = 1
		}
		l.embedConcurrency = n
		return nil
	}
}

// WithContinueOnError keeps loading after a record fails and collects the
// failures in the Summary. By default the first error stops the run.
func WithContinueOnError(enabled bool) Option {
	return func(l *Loader) error {
		l.continueOnError = enabled
		return nil
	}
}

// WithWriteMode selects append or upsert writes. Default is WriteModeAppend.
func WithWriteMode(mode WriteMode) Option {
	return func(l *Loader) error {
		if mode != WriteModeAppend && mode != WriteModeUpsert {
			return fmt.Errorf("%w: unknown write mode %d", core.ErrConfiguration, int(mode))
		}
		l.writeMode = mode
		return nil
	}
}

// WithProgress reports progress to w every interval records.
func WithProgress(w io.Writer, interval int) Option {
	return func(l *Loader) error {
		if interval < 1 {
			interval = 1
		}
		l.progressWriter = w
		l.progressInterval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a Loader writing into collection. Every embedding must
// have exactly dimension components.
func NewLoader(
	collection storage.Collection,
	splitter *chunking.Splitter,
	embedder ai.Embedder,
	dimension int,
	opts ...Option,
) (*Loader, error) {
	if collection == nil {
		return nil, ErrCollectionRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrConfiguration, dimension)
	}

	l := &Loader{
		collection:       collection,
		workers:          1,
		embedConcurrency: 1,
		writeMode:        WriteModeAppend,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	// Create the processor after options are applied so it gets final config
	l.proc = &embeddingProcessor{
		collection:  collection,
		splitter:    splitter,
		embedder:    embedder,
		dimension:   dimension,
		writeMode:   l.writeMode,
		concurrency: l.embedConcurrency,
		logger:      l.logger.With("component", "loader"),
	}
	l.logger = l.logger.With("component", "loader")

	return l, nil
}

// Load processes records and reports what happened in a Summary. The
// Summary is always returned, also when err is non-nil.
//
// In the default fail-fast mode the first error stops the run and is
// returned. With WithContinueOnError failed records are counted and the
// returned error joins every failure. Entries written before a failure or
// cancellation stay in the store.
func (l *Loader) Load(ctx context.Context, records []core.SourceRecord) (*Summary, error) {
	start := time.Now()
	l.logger.Info("load started",
		"collection", l.collection.Name(),
		"records", len(records),
		"workers", l.workers,
		"write_mode", l.writeMode.String())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &loadRun{
		continueOnError: l.continueOnError,
		cancel:          cancel,
	}
	if l.progressWriter != nil {
		run.progress = NewProgressTracker(l.progressWriter, len(records), l.progressInterval)
		run.progress.Start()
	}

	var err error
	if l.workers > 1 {
		err = l.loadConcurrent(runCtx, records, run)
	} else {
		l.loadSequential(runCtx, records, run)
	}

	if run.progress != nil {
		run.progress.Finish()
	}

	summary := run.summary(ctx, err)
	summary.Duration = time.Since(start)

	l.logger.Info("load finished",
		"collection", l.collection.Name(),
		"processed", summary.RecordsProcessed,
		"skipped", summary.RecordsSkipped,
		"failed", summary.RecordsFailed,
		"entries", summary.EntriesWritten,
		"duration", summary.Duration)

	return summary, summary.Err
}

func (l *Loader) loadSequential(ctx context.Context, records []core.SourceRecord, run *loadRun) {
	for i := range records {
		if ctx.Err() != nil {
			return
		}
		run.record(ctx, l.proc.process(ctx, &records[i]))
	}
}

func (l *Loader) loadConcurrent(ctx context.Context, records []core.SourceRecord, run *loadRun) error {
	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		record := &records[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			run.record(ctx, l.proc.process(ctx, record))
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return nil
}

// loadRun accumulates per-record results; safe for concurrent use.
type loadRun struct {
	mu              sync.Mutex
	continueOnError bool
	cancel          context.CancelFunc
	progress        *ProgressTracker

	processed int
	skipped   int
	failed    int
	embedded  int
	written   int
	failures  []error
	first     error
}

func (r *loadRun) record(ctx context.Context, res recordResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.embedded += res.embedded
	r.written += res.written

	if r.progress != nil {
		defer r.progress.RecordDone(res.written, res.err != nil)
	}

	switch {
	case res.err == nil && res.skipped:
		r.skipped++
		r.processed++
	case res.err == nil:
		r.processed++
	case r.first != nil && !r.continueOnError:
		// run already failed; later errors are fallout from the cancel
	case ctx.Err() != nil && isCancellation(res.err):
		// aborted by the caller, not a record failure
	default:
		r.failed++
		r.failures = append(r.failures, res.err)
		if r.first == nil {
			r.first = res.err
		}
		if !r.continueOnError {
			r.cancel()
		}
	}
}

func (r *loadRun) summary(parent context.Context, runErr error) *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{
		RecordsProcessed: r.processed,
		RecordsSkipped:   r.skipped,
		RecordsFailed:    r.failed,
		ChunksEmbedded:   r.embedded,
		EntriesWritten:   r.written,
		Failures:         r.failures,
	}

	switch {
	case runErr != nil:
		s.Err = runErr
	case r.first != nil && !r.continueOnError:
		s.Err = r.first
	case len(r.failures) > 0:
		s.Err = errors.Join(r.failures...)
	}
	if s.Err == nil && parent.Err() != nil {
		s.Err = parent.Err()
	}
	return s
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
