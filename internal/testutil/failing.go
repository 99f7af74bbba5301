package testutil

import (
	"context"
	"errors"

	"github.com/nhle/novelstudio/internal/docstore"
)

// ErrInjected is returned by FailingDocStore when no Err is set.
var ErrInjected = errors.New("injected failure")

func (f *FailingDocStore) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

func (f *FailingDocStore) List(ctx context.Context, c docstore.Path, o docstore.OrderBy) ([]docstore.Document, error) {
	if f.FailList {
		return nil, f.err()
	}
	return f.Store.List(ctx, c, o)
}

func (f *FailingDocStore) Update(ctx context.Context, p docstore.Path, patch map[string]any) error {
	if f.FailUpdate {
		return f.err()
	}
	return f.Store.Update(ctx, p, patch)
}

func (f *FailingDocStore) Delete(ctx context.Context, p docstore.Path) error {
	if f.FailDelete {
		return f.err()
	}
	return f.Store.Delete(ctx, p)
}

func (f *FailingDocStore) Commit(ctx context.Context, w []docstore.Write) error {
	if f.FailCommit {
		return f.err()
	}
	return f.Store.Commit(ctx, w)
}
