package ingestion

import (
	"fmt"
	"time"
)

// Summary describes the outcome of one Load call.
type Summary struct {
	// RecordsProcessed counts records that reached Done, including
	// skipped ones.
	RecordsProcessed int

	// RecordsSkipped counts records with an empty description. They
	// produce no entries.
	RecordsSkipped int

	// RecordsFailed counts records that hit an error.
	RecordsFailed int

	// ChunksEmbedded counts successful embedding calls.
	ChunksEmbedded int

	// EntriesWritten counts entries accepted by the store.
	EntriesWritten int

	// Failures holds one error per failed record, in completion order.
	Failures []error

	// Err is the error returned by Load.
	Err error

	// Duration is the wall time of the run.
	Duration time.Duration
}

func (s *Summary) String() string {
	return fmt.Sprintf("processed=%d skipped=%d failed=%d chunks=%d entries=%d duration=%s",
		s.RecordsProcessed, s.RecordsSkipped, s.RecordsFailed, s.ChunksEmbedded, s.EntriesWritten,
		s.Duration.Round(time.Millisecond))
}
