package astra

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
)

// Collection implements storage.Collection for one Data API collection.
type Collection struct {
	name  string
	store *Store
}

var _ storage.Collection = (*Collection)(nil)

// document is the JSON shape of a stored entry.
type document struct {
	ID          string         `json:"_id"`
	DocumentID  string         `json:"document_id"`
	Sequence    int            `json:"sequence"`
	Vector      []float32      `json:"$vector,omitempty"`
	Info        map[string]any `json:"info,omitempty"`
	Description string         `json:"description"`
	InsertedAt  time.Time      `json:"inserted_at"`
}

func toDocument(entry *core.VectorEntry) document {
	return document{
		ID:          entry.ID,
		DocumentID:  entry.DocumentID,
		Sequence:    entry.Sequence,
		Vector:      entry.Vector,
		Info:        entry.Info,
		Description: entry.Description,
		InsertedAt:  entry.InsertedAt,
	}
}

func (d document) entry() *core.VectorEntry {
	return &core.VectorEntry{
		ID:          d.ID,
		DocumentID:  d.DocumentID,
		Sequence:    d.Sequence,
		Vector:      d.Vector,
		Info:        d.Info,
		Description: d.Description,
		InsertedAt:  d.InsertedAt.UTC(),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// InsertOne issues an insertOne command. A UUID is generated when entry.ID
// is empty.
func (c *Collection) InsertOne(ctx context.Context, entry *core.VectorEntry) error {
	if err := core.ValidateVectorEntry(entry); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.InsertedAt.IsZero() {
		entry.InsertedAt = time.Now().UTC()
	}

	cmd := map[string]any{
		"insertOne": map[string]any{
			"document": toDocument(entry),
		},
	}
	return c.store.command(ctx, c.name, cmd, nil, nil)
}

// UpsertOne issues a findOneAndReplace on _id with upsert enabled.
func (c *Collection) UpsertOne(ctx context.Context, entry *core.VectorEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("upsert: %w", core.ErrEmptyID)
	}
	if err := core.ValidateVectorEntry(entry); err != nil {
		return err
	}
	if entry.InsertedAt.IsZero() {
		entry.InsertedAt = time.Now().UTC()
	}

	cmd := map[string]any{
		"findOneAndReplace": map[string]any{
			"filter":      map[string]any{"_id": entry.ID},
			"replacement": toDocument(entry),
			"options":     map[string]any{"upsert": true},
		},
	}
	return c.store.command(ctx, c.name, cmd, nil, nil)
}

// CountDocuments issues a countDocuments command. The Data API caps exact
// counts; a capped result is logged and returned as is.
func (c *Collection) CountDocuments(ctx context.Context) (int, error) {
	var status struct {
		Count    int  `json:"count"`
		MoreData bool `json:"moreData"`
	}
	cmd := map[string]any{"countDocuments": map[string]any{}}
	if err := c.store.command(ctx, c.name, cmd, &status, nil); err != nil {
		return 0, err
	}
	if status.MoreData {
		c.store.logger.Warn("document count exceeds the exact count limit", "collection", c.name, "count", status.Count)
	}
	return status.Count, nil
}

// FindByDocumentID pages through find results filtered on document_id and
// returns them sorted by sequence.
func (c *Collection) FindByDocumentID(ctx context.Context, documentID string) ([]*core.VectorEntry, error) {
	var (
		entries   []*core.VectorEntry
		pageState string
	)
	for {
		options := map[string]any{}
		if pageState != "" {
			options["pageState"] = pageState
		}
		cmd := map[string]any{
			"find": map[string]any{
				"filter":     map[string]any{"document_id": documentID},
				"projection": map[string]any{"$vector": 1},
				"options":    options,
			},
		}

		var page struct {
			Documents     []document `json:"documents"`
			NextPageState *string    `json:"nextPageState"`
		}
		if err := c.store.command(ctx, c.name, cmd, nil, &page); err != nil {
			return nil, err
		}
		for _, d := range page.Documents {
			entries = append(entries, d.entry())
		}
		if page.NextPageState == nil || *page.NextPageState == "" {
			break
		}
		pageState = *page.NextPageState
	}

	slices.SortFunc(entries, func(a, b *core.VectorEntry) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return entries, nil
}
