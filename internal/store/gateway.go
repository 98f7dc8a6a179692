// Package store is the persistence gateway for record collections. Each
// collection is a list of JSON items keyed by id with merge-by-id writes.
//
// There are no transactions across collections: a caller that saves tasks
// and then fails saving transactions keeps the tasks.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sumalravindran/My-journal-new/internal/records"
)

// Item is one stored record in its serialized form
type Item struct {
	ID   string
	Data json.RawMessage
}

// Gateway is the key-value persistence contract
type Gateway interface {
	// GetList returns every item of a kind in insertion order
	GetList(ctx context.Context, kind records.Kind) ([]Item, error)
	// PutList merges items by id: existing ids are replaced in place, new ids appended
	PutList(ctx context.Context, kind records.Kind, items []Item) error
	// DeleteByID removes one item. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, kind records.Kind, id string) error
}

// Load decodes every item of kind into T
func Load[T records.Record](ctx context.Context, g Gateway, kind records.Kind) ([]T, error) {
	items, err := g.GetList(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		var v T
		if err := json.Unmarshal(it.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", kind, it.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Save encodes records and merges them into kind
func Save[T records.Record](ctx context.Context, g Gateway, kind records.Kind, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	items := make([]Item, 0, len(recs))
	for _, r := range recs {
		if r.RecordID() == "" {
			return fmt.Errorf("save %s: record without id", kind)
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", kind, r.RecordID(), err)
		}
		items = append(items, Item{ID: r.RecordID(), Data: data})
	}
	return g.PutList(ctx, kind, items)
}

// Find returns the record with id, or false when absent
func Find[T records.Record](ctx context.Context, g Gateway, kind records.Kind, id string) (T, bool, error) {
	var zero T
	recs, err := Load[T](ctx, g, kind)
	if err != nil {
		return zero, false, err
	}
	for _, r := range recs {
		if r.RecordID() == id {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// merge applies merge-by-id semantics to an in-memory list
func merge(existing []Item, incoming []Item) []Item {
	index := make(map[string]int, len(existing))
	for i, it := range existing {
		index[it.ID] = i
	}
	for _, it := range incoming {
		if i, ok := index[it.ID]; ok {
			existing[i] = it
			continue
		}
		index[it.ID] = len(existing)
		existing = append(existing, it)
	}
	return existing
}
