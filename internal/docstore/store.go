// Package docstore is the document database the matching core talks to:
// collections of small field maps addressed by path, with last-write-wins
// upserts and live full-snapshot subscriptions per collection.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the document is absent.
var ErrNotFound = errors.New("document not found")

// Store is the contract every backend implements.
//
// Set is an upsert that replaces all fields of the document (last write wins).
// Delete of an absent document is not an error. List returns documents
// ordered by ID.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Document, error)
	Subscribe(ctx context.Context, collection string) (*Subscription, error)
}

// Document is one stored document.
type Document struct {
	Collection string
	ID         string
	Fields     Fields
	UpdatedAt  time.Time
}

// Fields holds a document's data. Values must be JSON-encodable; after a
// round trip through a persistent backend numbers come back as float64.
type Fields map[string]any

// Path joins collection path segments: Path("likes", "u1", "users") == "likes/u1/users".
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Int64 reads an integer field regardless of how the backend decoded it.
func (f Fields) Int64(key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(math.Round(v))
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// Time reads a field written as Unix milliseconds.
func (f Fields) Time(key string) time.Time {
	ms := f.Int64(key)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Clone returns a shallow copy so callers cannot mutate stored state.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func sortDocs(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
