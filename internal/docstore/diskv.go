package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
)

const diskvExt = ".json"

// DiskvStore implements Store with one JSON file per document under a base
// directory, mirroring the document path as directories.
type DiskvStore struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

// NewDiskvStore opens a file-backed store rooted at basePath.
func NewDiskvStore(basePath string) *DiskvStore {
	return &DiskvStore{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

func keyToPathTransform(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1] + diskvExt,
	}
}

func pathToKeyTransform(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, diskvExt)
	if len(pk.Path) == 0 {
		return name
	}
	return strings.Join(pk.Path, "/") + "/" + name
}

// Close is a no-op; files are written synchronously.
func (s *DiskvStore) Close() error { return nil }

func (s *DiskvStore) keys(ctx context.Context, prefix string) []string {
	var out []string
	for key := range s.d.KeysPrefix(prefix, ctx.Done()) {
		out = append(out, key)
	}
	return out
}

// List returns the documents of a collection ordered by a JSON field.
func (s *DiskvStore) List(ctx context.Context, collection Path, order OrderBy) ([]Document, error) {
	if err := collection.validate(false); err != nil {
		return nil, err
	}
	field, err := order.field()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := string(collection) + "/"
	type entry struct {
		doc     Document
		key     json.RawMessage
		created string
	}
	var entries []entry
	for _, key := range s.keys(ctx, prefix) {
		rest := strings.TrimPrefix(key, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		data, err := s.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		entries = append(entries, entry{
			doc:     Document{ID: rest, Path: Path(key), Data: data},
			key:     fields[field],
			created: createdAtOf(data),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		c := compareJSON(entries[i].key, entries[j].key)
		if c == 0 {
			c = strings.Compare(entries[i].created, entries[j].created)
		}
		if c == 0 {
			c = strings.Compare(string(entries[i].doc.Path), string(entries[j].doc.Path))
		}
		if order.Desc {
			return c > 0
		}
		return c < 0
	})

	docs := make([]Document, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs, nil
}

// Get returns the document at path.
func (s *DiskvStore) Get(ctx context.Context, path Path) (Document, error) {
	if err := path.validate(true); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.d.Has(string(path)) {
		return Document{}, fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	data, err := s.d.Read(string(path))
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Document{ID: path.ID(), Path: path, Data: data}, nil
}

// Create writes a new document with a generated id.
func (s *DiskvStore) Create(ctx context.Context, collection Path, data map[string]any) (string, error) {
	if err := collection.validate(false); err != nil {
		return "", err
	}
	body, err := merge(nil, data, stampNow(), true)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	if err := s.d.Write(string(collection.Doc(id)), body); err != nil {
		return "", fmt.Errorf("creating document in %s: %w", collection, err)
	}
	return id, nil
}

// Update merges patch into an existing document.
func (s *DiskvStore) Update(ctx context.Context, path Path, patch map[string]any) error {
	return s.Commit(ctx, []Write{{Path: path, Patch: patch}})
}

// Delete removes a document and all of its descendants.
func (s *DiskvStore) Delete(ctx context.Context, path Path) error {
	if err := path.validate(true); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.d.Has(string(path)) {
		return fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	for _, key := range s.keys(ctx, string(path)+"/") {
		if err := s.d.Erase(key); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	if err := s.d.Erase(string(path)); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

// Commit applies a batch of updates. Every target is read and merged before
// anything is written, and already written files are restored if a later
// write fails.
func (s *DiskvStore) Commit(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	for _, w := range writes {
		if err := w.Path.validate(true); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := stampNow()
	originals := make(map[string][]byte, len(writes))
	pending := make(map[string][]byte, len(writes))
	var order []string
	for _, w := range writes {
		key := string(w.Path)
		current, seen := pending[key]
		if !seen {
			if !s.d.Has(key) {
				return fmt.Errorf("committing batch: document %s: %w", key, ErrNotFound)
			}
			orig, err := s.d.Read(key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", key, err)
			}
			originals[key] = orig
			current = orig
			order = append(order, key)
		}
		body, err := merge(current, w.Patch, now, false)
		if err != nil {
			return err
		}
		pending[key] = body
	}

	for i, key := range order {
		if err := s.d.Write(key, pending[key]); err != nil {
			for _, done := range order[:i] {
				_ = s.d.Write(done, originals[done])
			}
			return fmt.Errorf("committing batch: writing %s: %w", key, err)
		}
	}
	return nil
}

// compareJSON orders encoded JSON scalars: missing and null first, then
// booleans, numbers, strings, and anything else by raw bytes.
func compareJSON(a, b json.RawMessage) int {
	ra, va := jsonRank(a)
	rb, vb := jsonRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := va.(type) {
	case bool:
		y := vb.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case float64:
		y := vb.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, vb.(string))
	case nil:
		return 0
	}
	return bytes.Compare(a, b)
}

func jsonRank(raw json.RawMessage) (int, any) {
	if len(raw) == 0 {
		return 0, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 4, raw
	}
	switch x := v.(type) {
	case nil:
		return 0, nil
	case bool:
		return 1, x
	case float64:
		return 2, x
	case string:
		return 3, x
	}
	return 4, raw
}
