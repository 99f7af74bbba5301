package docstore

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/common"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	b := map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"diskv": func(t *testing.T) Store {
			return NewDiskvStore(t.TempDir())
		},
	}
	if dsn := os.Getenv("NOVELSTUDIO_TEST_PG_DSN"); dsn != "" {
		b["postgres"] = func(t *testing.T) Store {
			s, err := NewPostgresStore(context.Background(), dsn)
			require.NoError(t, err)
			t.Cleanup(func() {
				_, _ = s.db.Exec("TRUNCATE documents")
				_ = s.Close()
			})
			return s
		}
	}
	return b
}

func decode(t *testing.T, d Document) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, d.Decode(&m))
	return m
}

func TestPath(t *testing.T) {
	t.Parallel()
	p := Join("users", "u1", "projects")
	assert.True(t, p.IsCollection())
	doc := p.Doc("p1")
	assert.True(t, doc.IsDocument())
	assert.Equal(t, "p1", doc.ID())
	assert.Equal(t, p, doc.Parent())
	assert.Equal(t, Path("users/u1/projects/p1/chapters"), doc.Collection("chapters"))

	assert.Error(t, Path("users/../x").validate(true))
	assert.Error(t, Path("users").validate(true))
	assert.NoError(t, Path("users").validate(false))
}

func TestCompareJSON(t *testing.T) {
	t.Parallel()
	assert.Equal(t, -1, compareJSON(nil, json.RawMessage(`1`)))
	assert.Equal(t, -1, compareJSON(json.RawMessage(`2`), json.RawMessage(`10`)))
	assert.Equal(t, 1, compareJSON(json.RawMessage(`"b"`), json.RawMessage(`"a"`)))
	assert.Equal(t, -1, compareJSON(json.RawMessage(`5`), json.RawMessage(`"a"`)))
	assert.Equal(t, 0, compareJSON(json.RawMessage(`null`), nil))
}

func TestStoreConformance(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("create and get stamps times", func(t *testing.T) {
				s := open(t)
				col := Join("users", "u1", "projects")
				id, err := s.Create(ctx, col, map[string]any{"title": "Novel"})
				require.NoError(t, err)
				require.NotEmpty(t, id)

				doc, err := s.Get(ctx, col.Doc(id))
				require.NoError(t, err)
				assert.Equal(t, id, doc.ID)
				m := decode(t, doc)
				assert.Equal(t, "Novel", m["title"])

				created, err := time.Parse(TimeLayout, m[FieldCreatedAt].(string))
				require.NoError(t, err)
				assert.WithinDuration(t, time.Now(), created, time.Minute)
				assert.Equal(t, m[FieldCreatedAt], m[FieldUpdatedAt])
			})

			t.Run("create keeps supplied createdAt", func(t *testing.T) {
				s := open(t)
				col := Path("users")
				id, err := s.Create(ctx, col, map[string]any{FieldCreatedAt: "2020-01-01T00:00:00.000000000Z"})
				require.NoError(t, err)
				doc, err := s.Get(ctx, col.Doc(id))
				require.NoError(t, err)
				assert.Equal(t, "2020-01-01T00:00:00.000000000Z", decode(t, doc)[FieldCreatedAt])
			})

			t.Run("list orders by field", func(t *testing.T) {
				s := open(t)
				col := Join("users", "u1", "projects", "p1", "chapters")
				for _, idx := range []int{2, 0, 10, 1} {
					_, err := s.Create(ctx, col, map[string]any{"orderIndex": idx})
					require.NoError(t, err)
				}
				other := Join("users", "u1", "projects", "p2", "chapters")
				_, err := s.Create(ctx, other, map[string]any{"orderIndex": -1})
				require.NoError(t, err)

				docs, err := s.List(ctx, col, OrderBy{Field: "orderIndex"})
				require.NoError(t, err)
				var got []float64
				for _, d := range docs {
					got = append(got, decode(t, d)["orderIndex"].(float64))
				}
				assert.Equal(t, []float64{0, 1, 2, 10}, got)

				docs, err = s.List(ctx, col, OrderBy{Field: "orderIndex", Desc: true})
				require.NoError(t, err)
				assert.Equal(t, float64(10), decode(t, docs[0])["orderIndex"])

				_, err = s.List(ctx, col, OrderBy{Field: "bad field"})
				assert.Error(t, err)
			})

			t.Run("list excludes nested documents", func(t *testing.T) {
				s := open(t)
				col := Join("users", "u1", "projects")
				pid, err := s.Create(ctx, col, map[string]any{"title": "A"})
				require.NoError(t, err)
				_, err = s.Create(ctx, col.Doc(pid).Collection("chapters"), map[string]any{"title": "C"})
				require.NoError(t, err)

				docs, err := s.List(ctx, col, OrderBy{})
				require.NoError(t, err)
				require.Len(t, docs, 1)
				assert.Equal(t, pid, docs[0].ID)
			})

			t.Run("update merges top-level fields", func(t *testing.T) {
				s := open(t)
				col := Path("beats")
				id, err := s.Create(ctx, col, map[string]any{"title": "B", "linkedSceneId": "s1"})
				require.NoError(t, err)

				require.NoError(t, s.Update(ctx, col.Doc(id), map[string]any{"linkedSceneId": nil, "description": "d"}))
				doc, err := s.Get(ctx, col.Doc(id))
				require.NoError(t, err)
				m := decode(t, doc)
				assert.Equal(t, "B", m["title"])
				assert.Equal(t, "d", m["description"])
				assert.Contains(t, m, "linkedSceneId")
				assert.Nil(t, m["linkedSceneId"])

				err = s.Update(ctx, col.Doc("missing"), map[string]any{"x": 1})
				assert.True(t, common.IsNotFound(err))
			})

			t.Run("delete cascades", func(t *testing.T) {
				s := open(t)
				col := Join("users", "u1", "projects")
				pid, err := s.Create(ctx, col, map[string]any{})
				require.NoError(t, err)
				chapters := col.Doc(pid).Collection("chapters")
				cid, err := s.Create(ctx, chapters, map[string]any{})
				require.NoError(t, err)
				sid, err := s.Create(ctx, chapters.Doc(cid).Collection("scenes"), map[string]any{})
				require.NoError(t, err)
				keep, err := s.Create(ctx, col, map[string]any{})
				require.NoError(t, err)

				require.NoError(t, s.Delete(ctx, col.Doc(pid)))

				_, err = s.Get(ctx, chapters.Doc(cid).Collection("scenes").Doc(sid))
				assert.True(t, common.IsNotFound(err))
				_, err = s.Get(ctx, col.Doc(keep))
				assert.NoError(t, err)

				assert.True(t, common.IsNotFound(s.Delete(ctx, col.Doc(pid))))
			})

			t.Run("commit is all or nothing", func(t *testing.T) {
				s := open(t)
				col := Path("scenes")
				a, err := s.Create(ctx, col, map[string]any{"orderIndex": 0})
				require.NoError(t, err)
				b, err := s.Create(ctx, col, map[string]any{"orderIndex": 1})
				require.NoError(t, err)

				err = s.Commit(ctx, []Write{
					{Path: col.Doc(a), Patch: map[string]any{"orderIndex": 5}},
					{Path: col.Doc("missing"), Patch: map[string]any{"orderIndex": 6}},
				})
				require.Error(t, err)
				doc, err := s.Get(ctx, col.Doc(a))
				require.NoError(t, err)
				assert.Equal(t, float64(0), decode(t, doc)["orderIndex"])

				require.NoError(t, s.Commit(ctx, []Write{
					{Path: col.Doc(a), Patch: map[string]any{"orderIndex": 1}},
					{Path: col.Doc(b), Patch: map[string]any{"orderIndex": 0}},
				}))
				docs, err := s.List(ctx, col, OrderBy{Field: "orderIndex"})
				require.NoError(t, err)
				require.Len(t, docs, 2)
				assert.Equal(t, b, docs[0].ID)
				assert.Equal(t, a, docs[1].ID)
			})
		})
	}
}
