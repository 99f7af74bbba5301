package testutil

import (
	"testing"

	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/store"
)

// NewDocStore creates an in-memory SQLite document store with all migrations
// applied. It automatically closes the store when the test completes.
func NewDocStore(t *testing.T) *docstore.SQLiteStore {
	t.Helper()

	s, err := docstore.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewStore wraps NewDocStore in the typed repository.
func NewStore(t *testing.T) *store.DocStore {
	t.Helper()
	return store.New(NewDocStore(t))
}

// NewDiskvStore creates a file-backed repository under a temporary directory.
func NewDiskvStore(t *testing.T) *store.DocStore {
	t.Helper()
	return store.New(docstore.NewDiskvStore(t.TempDir()))
}

// FailingDocStore wraps a document store and fails selected operations.
type FailingDocStore struct {
	docstore.Store
	FailCommit bool
	FailUpdate bool
	FailList   bool
	FailDelete bool
	Err        error
}
