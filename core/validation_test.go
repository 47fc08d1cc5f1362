package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSourceRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *SourceRecord
		wantErr error
	}{
		{
			name:    "valid record",
			record:  &SourceRecord{ID: "p1", Description: "A portfolio item"},
			wantErr: nil,
		},
		{
			name:    "valid record with empty description",
			record:  &SourceRecord{ID: "p1"},
			wantErr: nil,
		},
		{
			name:    "valid record with info",
			record:  &SourceRecord{ID: "p1", Info: map[string]any{"tag": "x"}},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidSourceRecord,
		},
		{
			name:    "empty id",
			record:  &SourceRecord{Description: "text"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "blank id",
			record:  &SourceRecord{ID: "   ", Description: "text"},
			wantErr: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSourceRecord() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSourceRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidSourceRecord) {
				t.Errorf("ValidateSourceRecord() error = %v, should wrap ErrInvalidSourceRecord", err)
			}
		})
	}
}

func TestValidateVectorEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *VectorEntry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   &VectorEntry{DocumentID: "p1", Sequence: 1, Vector: []float32{0.1}},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidVectorEntry,
		},
		{
			name:    "missing document id",
			entry:   &VectorEntry{Sequence: 1, Vector: []float32{0.1}},
			wantErr: ErrEmptyID,
		},
		{
			name:    "zero sequence",
			entry:   &VectorEntry{DocumentID: "p1", Vector: []float32{0.1}},
			wantErr: ErrInvalidSequence,
		},
		{
			name:    "empty vector",
			entry:   &VectorEntry{DocumentID: "p1", Sequence: 2},
			wantErr: ErrEmptyVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVectorEntry(tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateVectorEntry() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateVectorEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectionName(t *testing.T) {
	valid := []string{"books", "Books_2024", "a", strings.Repeat("x", MaxCollectionNameLength)}
	for _, name := range valid {
		if err := ValidateCollectionName(name); err != nil {
			t.Errorf("ValidateCollectionName(%q) unexpected error = %v", name, err)
		}
	}

	invalid := []string{"", "2books", "my-books", "ns:books", "with space", strings.Repeat("x", MaxCollectionNameLength+1)}
	for _, name := range invalid {
		if err := ValidateCollectionName(name); !errors.Is(err, ErrConfiguration) {
			t.Errorf("ValidateCollectionName(%q) error = %v, want ErrConfiguration", name, err)
		}
	}
}
