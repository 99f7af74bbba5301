package store_test

import (
	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/store"
)

func docPath(ck store.ChapterKey, col, id string) docstore.Path {
	return docstore.Join("users", ck.UserID, "projects", ck.ProjectID, "chapters", ck.ChapterID, col, id)
}
