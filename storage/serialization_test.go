package storage

import (
	"testing"
	"time"

	"github.com/poiesic/vecload/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalVectorEntry(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		entry *core.VectorEntry
	}{
		{
			name: "minimal entry",
			entry: &core.VectorEntry{
				ID:         "a",
				DocumentID: "doc-1",
				Sequence:   1,
				Vector:     []float32{0.5},
				InsertedAt: now,
			},
		},
		{
			name: "entry with info",
			entry: &core.VectorEntry{
				ID:          core.EntryKey("doc-2", 3),
				DocumentID:  "doc-2",
				Sequence:    3,
				Vector:      []float32{0.1, -0.2, 0.3, 1e-7},
				Info:        map[string]any{"title": "Dune", "year": float64(1965), "tags": []any{"sf", "classic"}},
				Description: "A stunning blend of adventure and mysticism.",
				InsertedAt:  now,
			},
		},
		{
			name: "unicode description",
			entry: &core.VectorEntry{
				ID:          "c",
				DocumentID:  "ドキュメント",
				Sequence:    12,
				Vector:      make([]float32, 1536),
				Description: "naïve café 🚀",
				InsertedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalVectorEntry(tt.entry)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalVectorEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestMarshalVectorEntry_UnsupportedInfo(t *testing.T) {
	entry := &core.VectorEntry{
		ID:     "a",
		Vector: []float32{1},
		Info:   map[string]any{"ch": make(chan int)},
	}

	_, err := MarshalVectorEntry(entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalVectorEntry_Invalid(t *testing.T) {
	entry := &core.VectorEntry{
		ID:         "a",
		DocumentID: "doc",
		Sequence:   1,
		Vector:     []float32{1, 2, 3},
		InsertedAt: time.Now(),
	}
	data, err := MarshalVectorEntry(entry)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated vector", data[:8]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalVectorEntry(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalCollectionInfo(t *testing.T) {
	info := &core.CollectionInfo{
		Name:      "books",
		Dimension: 1536,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCollectionInfo(MarshalCollectionInfo(info))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)

	_, err = UnmarshalCollectionInfo(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
