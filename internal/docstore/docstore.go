// Package docstore is a small hierarchical document store: JSON documents
// addressed by slash-separated paths, grouped into collections, listed in the
// order of a named field, and updated in atomic batches.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nhle/novelstudio/internal/common"
)

// TimeLayout is the fixed-width UTC layout used for createdAt/updatedAt so
// that stamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Stamp field names written by every backend.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = common.ErrNotFound

// Path is a slash-separated document or collection path such as
// "users/u1/projects/p1/chapters". Collections have an odd number of
// segments and documents an even number.
type Path string

// Join builds a path from segments.
func Join(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

// Segments splits the path.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), "/")
}

// IsCollection reports whether p names a collection.
func (p Path) IsCollection() bool { return len(p.Segments())%2 == 1 }

// IsDocument reports whether p names a document.
func (p Path) IsDocument() bool {
	n := len(p.Segments())
	return n > 0 && n%2 == 0
}

// Doc returns the path of document id inside collection p.
func (p Path) Doc(id string) Path { return Path(string(p) + "/" + id) }

// Collection returns the path of a subcollection of document p.
func (p Path) Collection(name string) Path { return Path(string(p) + "/" + name) }

// Parent returns the collection containing document p.
func (p Path) Parent() Path {
	i := strings.LastIndex(string(p), "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// ID returns the last segment of p.
func (p Path) ID() string {
	i := strings.LastIndex(string(p), "/")
	return string(p[i+1:])
}

func (p Path) String() string { return string(p) }

var segmentRE = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

func (p Path) validate(wantDoc bool) error {
	segs := p.Segments()
	if len(segs) == 0 {
		return fmt.Errorf("empty path")
	}
	for _, s := range segs {
		if !segmentRE.MatchString(s) || s == "." || s == ".." {
			return fmt.Errorf("invalid path segment %q in %q", s, p)
		}
	}
	if wantDoc && !p.IsDocument() {
		return fmt.Errorf("%q is not a document path", p)
	}
	if !wantDoc && !p.IsCollection() {
		return fmt.Errorf("%q is not a collection path", p)
	}
	return nil
}

// OrderBy selects the field documents are listed by. An empty Field lists
// by creation time.
type OrderBy struct {
	Field string
	Desc  bool
}

var fieldRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (o OrderBy) field() (string, error) {
	if o.Field == "" {
		return FieldCreatedAt, nil
	}
	if !fieldRE.MatchString(o.Field) {
		return "", fmt.Errorf("invalid order field %q", o.Field)
	}
	return o.Field, nil
}

// Document is a stored JSON object and its address.
type Document struct {
	ID   string
	Path Path
	Data json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", d.Path, err)
	}
	return nil
}

// Write is one update inside a batch.
type Write struct {
	Path  Path
	Patch map[string]any
}

// Store is the document store contract shared by every backend.
type Store interface {
	// List returns the documents directly inside collection, ordered by
	// the given field. Ties keep creation order.
	List(ctx context.Context, collection Path, order OrderBy) ([]Document, error)
	// Get returns one document or ErrNotFound.
	Get(ctx context.Context, path Path) (Document, error)
	// Create adds a document with a fresh id to collection and returns the id.
	// createdAt is stamped unless present; updatedAt is always stamped.
	Create(ctx context.Context, collection Path, data map[string]any) (string, error)
	// Update merges patch into the top-level fields of an existing document.
	Update(ctx context.Context, path Path, patch map[string]any) error
	// Delete removes a document and every document beneath it.
	Delete(ctx context.Context, path Path) error
	// Commit applies all writes or none of them.
	Commit(ctx context.Context, writes []Write) error
	Close() error
}

var nowFunc = func() time.Time { return time.Now().UTC() }

func stampNow() string { return nowFunc().UTC().Format(TimeLayout) }

// merge applies patch on top of existing and stamps updatedAt, plus createdAt
// when creating and it is absent.
func merge(existing []byte, patch map[string]any, now string, create bool) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &fields); err != nil {
			return nil, fmt.Errorf("decoding stored document: %w", err)
		}
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", k, err)
		}
		fields[k] = raw
	}
	if create {
		if raw, ok := fields[FieldCreatedAt]; !ok || string(raw) == "null" || string(raw) == `""` {
			fields[FieldCreatedAt] = json.RawMessage(`"` + now + `"`)
		}
	}
	fields[FieldUpdatedAt] = json.RawMessage(`"` + now + `"`)

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return out, nil
}

// createdAtOf extracts the createdAt stamp of an encoded document.
func createdAtOf(data []byte) string {
	var f struct {
		CreatedAt string `json:"createdAt"`
	}
	_ = json.Unmarshal(data, &f)
	return f.CreatedAt
}
