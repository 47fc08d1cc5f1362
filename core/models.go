package core

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a compact identifier derived from content hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex renders the ID as a fixed-width lowercase hex string.
func (id ID) Hex() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return hex.EncodeToString(buf[:])
}

// EntryKey returns the deterministic key of the chunk identified by
// (documentID, sequence). Upserts use it so that reruns replace entries
// instead of appending duplicates.
func EntryKey(documentID string, sequence int) string {
	return IDFromContent(documentID + "\x00" + strconv.Itoa(sequence)).Hex()
}

// SourceRecord is one logical input item, e.g. a portfolio entry.
// Records are never modified by the pipeline.
type SourceRecord struct {
	ID          string         `json:"id" yaml:"id"`
	Info        map[string]any `json:"info" yaml:"info"`
	Description string         `json:"description" yaml:"description"`
}

// Chunk is a bounded slice of a record's description.
// Sequence starts at 1 and follows source order.
type Chunk struct {
	SourceID string
	Text     string
	Sequence int
}

// VectorEntry is the unit persisted to a vector collection.
type VectorEntry struct {
	ID          string         // Store-assigned identifier
	DocumentID  string         // ID of the SourceRecord the chunk came from
	Sequence    int            // Chunk sequence within the source record
	Vector      []float32      // Embedding of Description
	Info        map[string]any // Metadata copied verbatim from the SourceRecord
	Description string         // Chunk text
	InsertedAt  time.Time
}

// CollectionOptions describes how a vector collection is provisioned.
type CollectionOptions struct {
	Dimension int
}

// CollectionInfo is the persisted description of a collection.
type CollectionInfo struct {
	Name      string
	Dimension int
	CreatedAt time.Time
}
