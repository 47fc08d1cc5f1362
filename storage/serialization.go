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

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/vecload/core"
)

// MarshalVectorEntry serializes a VectorEntry to bytes.
// Field order: ID, DocumentID, Sequence, Vector, Info (JSON text),
// Description, InsertedAt (unix micro).
func MarshalVectorEntry(entry *core.VectorEntry) ([]byte, error) {
	info, err := marshalInfo(entry.Info)
	if err != nil {
		return nil, err
	}
	inserted := entry.InsertedAt.UnixMicro()

	size := ord.String.Size(entry.ID) +
		ord.String.Size(entry.DocumentID) +
		varint.Int.Size(entry.Sequence) +
		sizeVector(entry.Vector) +
		ord.String.Size(info) +
		ord.String.Size(entry.Description) +
		varint.Int64.Size(inserted)

	buf := make([]byte, size)
	n := ord.String.Marshal(entry.ID, buf)
	n += ord.String.Marshal(entry.DocumentID, buf[n:])
	n += varint.Int.Marshal(entry.Sequence, buf[n:])
	n += marshalVector(entry.Vector, buf[n:])
	n += ord.String.Marshal(info, buf[n:])
	n += ord.String.Marshal(entry.Description, buf[n:])
	varint.Int64.Marshal(inserted, buf[n:])
	return buf, nil
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (*core.VectorEntry, error) {
	var (
		entry    core.VectorEntry
		info     string
		inserted int64
		n, off   int
		err      error
	)

	if entry.ID, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, serializationError("id", err)
	}
	off += n
	if entry.DocumentID, n, err = ord.String.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("document_id", err)
	}
	off += n
	if entry.Sequence, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("sequence", err)
	}
	off += n
	if entry.Vector, n, err = unmarshalVector(data[off:]); err != nil {
		return nil, serializationError("vector", err)
	}
	off += n
	if info, n, err = ord.String.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("info", err)
	}
	off += n
	if entry.Description, n, err = ord.String.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("description", err)
	}
	off += n
	if inserted, _, err = varint.Int64.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("inserted_at", err)
	}

	if entry.Info, err = unmarshalInfo(info); err != nil {
		return nil, err
	}
	entry.InsertedAt = time.UnixMicro(inserted).UTC()
	return &entry, nil
}

// MarshalCollectionInfo serializes collection metadata to bytes.
func MarshalCollectionInfo(info *core.CollectionInfo) []byte {
	created := info.CreatedAt.UnixMicro()
	size := ord.String.Size(info.Name) +
		varint.Int.Size(info.Dimension) +
		varint.Int64.Size(created)

	buf := make([]byte, size)
	n := ord.String.Marshal(info.Name, buf)
	n += varint.Int.Marshal(info.Dimension, buf[n:])
	varint.Int64.Marshal(created, buf[n:])
	return buf
}

// UnmarshalCollectionInfo deserializes collection metadata from bytes.
func UnmarshalCollectionInfo(data []byte) (*core.CollectionInfo, error) {
	var (
		info    core.CollectionInfo
		created int64
		n, off  int
		err     error
	)
	if info.Name, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, serializationError("name", err)
	}
	off += n
	if info.Dimension, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("dimension", err)
	}
	off += n
	if created, _, err = varint.Int64.Unmarshal(data[off:]); err != nil {
		return nil, serializationError("created_at", err)
	}
	info.CreatedAt = time.UnixMicro(created).UTC()
	return &info, nil
}

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, buf []byte) int {
	n := varint.Int.Marshal(len(v), buf)
	for _, f := range v {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return n
}

func unmarshalVector(data []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, n, err
	}
	// each float32 occupies four bytes
	if length < 0 || length*4 > len(data)-n {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := range v {
		f, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, n, err
		}
		v[i] = f
		n += m
	}
	return v, n, nil
}

func marshalInfo(info map[string]any) (string, error) {
	if len(info) == 0 {
		return "", nil
	}
	bs, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("%w: info: %w", ErrSerializationFailed, err)
	}
	return string(bs), nil
}

func unmarshalInfo(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(s), &info); err != nil {
		return nil, fmt.Errorf("%w: info: %w", ErrSerializationFailed, err)
	}
	return info, nil
}

func serializationError(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSerializationFailed, field, err)
}
