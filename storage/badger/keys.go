package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	collectionPrefix = "col"
	entryPrefix      = "ent"
	documentPrefix   = "doc"
)

// makeCollectionKey generates the metadata key for a collection.
// Format: col:name
func makeCollectionKey(name string) []byte {
	return []byte(collectionPrefix + ":" + name)
}

// makeEntryKey generates a key for an entry by ID.
// Format: ent:collection:id
func makeEntryKey(collection, id string) []byte {
	return append(makeEntryPrefix(collection), id...)
}

// makeEntryPrefix generates the prefix shared by every entry of a collection.
func makeEntryPrefix(collection string) []byte {
	return []byte(entryPrefix + ":" + collection + ":")
}

// makeDocumentKey generates a composite key for the document index.
// Format: doc:collection:documentID:sequence:id
func makeDocumentKey(collection, documentID string, sequence int, id string) []byte {
	prefix := makeDocumentPrefix(collection, documentID)
	buf := make([]byte, len(prefix)+4+1+len(id))
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort follows sequence order
	binary.BigEndian.PutUint32(buf[offset:], uint32(sequence))
	offset += 4
	buf[offset] = ':'
	offset++
	copy(buf[offset:], id)
	return buf
}

// makeDocumentPrefix generates a partial key for document lookups.
// Format: doc:collection:documentID:
func makeDocumentPrefix(collection, documentID string) []byte {
	return []byte(documentPrefix + ":" + collection + ":" + documentID + ":")
}
