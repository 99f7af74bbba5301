package store

import (
	"context"
	"time"

	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/reorder"
)

// ProjectKey addresses one project of one user.
type ProjectKey struct {
	UserID    string
	ProjectID string
}

// ChapterKey addresses one chapter of a project.
type ChapterKey struct {
	ProjectKey
	ChapterID string
}

// ProjectUpdate lists the project fields to change. Nil fields are kept.
type ProjectUpdate struct {
	Title            *string
	Status           *string
	GoalWordCount    *int
	CurrentWordCount *int
	LastEdited       *time.Time
}

// ChapterUpdate lists the chapter fields to change. Nil fields are kept.
type ChapterUpdate struct {
	Title           *string
	Status          *string
	OrderIndex      *int64
	TargetWordCount *int
}

// SceneUpdate lists the scene fields to change. Nil fields are kept.
type SceneUpdate struct {
	Title           *string
	Text            *string
	OrderIndex      *int64
	ActiveVersionID *string
	Versions        *[]model.SceneVersion
	ManuscriptTitle *string
	ManuscriptText  *string
}

// BeatUpdate lists the beat fields to change. Nil fields are kept. Links are
// changed through SetBeatLink.
type BeatUpdate struct {
	Title       *string
	Description *string
	OrderIndex  *int64
}

// Store defines the persistence interface for the writing studio. Every
// method maps onto documents under users/{uid}/projects/... and keeps the
// persisted field names stable.
type Store interface {
	// === Projects ===

	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	GetProject(ctx context.Context, key ProjectKey) (*model.Project, error)
	CreateProject(ctx context.Context, userID string, project model.Project) (*model.Project, error)
	UpdateProject(ctx context.Context, key ProjectKey, upd ProjectUpdate) error
	DeleteProject(ctx context.Context, key ProjectKey) error

	// === Chapters ===

	ListChapters(ctx context.Context, key ProjectKey) ([]model.Chapter, error)
	GetChapter(ctx context.Context, key ChapterKey) (*model.Chapter, error)
	CreateChapter(ctx context.Context, key ProjectKey, chapter model.Chapter) (*model.Chapter, error)
	UpdateChapter(ctx context.Context, key ChapterKey, upd ChapterUpdate) error
	DeleteChapter(ctx context.Context, key ChapterKey) error

	// === Scenes ===

	ListScenes(ctx context.Context, key ChapterKey) ([]model.Scene, error)
	GetScene(ctx context.Context, key ChapterKey, id string) (*model.Scene, error)
	CreateScene(ctx context.Context, key ChapterKey, scene model.Scene) (*model.Scene, error)
	UpdateScene(ctx context.Context, key ChapterKey, id string, upd SceneUpdate) error
	DeleteScene(ctx context.Context, key ChapterKey, id string) error

	// === Beats ===

	ListBeats(ctx context.Context, key ChapterKey) ([]model.Beat, error)
	GetBeat(ctx context.Context, key ChapterKey, id string) (*model.Beat, error)
	CreateBeat(ctx context.Context, key ChapterKey, beat model.Beat) (*model.Beat, error)
	UpdateBeat(ctx context.Context, key ChapterKey, id string, upd BeatUpdate) error
	DeleteBeat(ctx context.Context, key ChapterKey, id string) error
	// SetBeatLink sets or, with a nil sceneID, clears a beat's linked scene.
	SetBeatLink(ctx context.Context, key ChapterKey, beatID string, sceneID *string) error

	// ApplyOrder writes a reorder plan as one atomic batch.
	ApplyOrder(ctx context.Context, key ChapterKey, plan reorder.Plan) error

	// === Comments & highlights ===

	ListComments(ctx context.Context, key ChapterKey) ([]model.Comment, error)
	CreateComment(ctx context.Context, key ChapterKey, c model.Comment) (*model.Comment, error)
	DeleteComment(ctx context.Context, key ChapterKey, id string) error

	ListHighlights(ctx context.Context, key ChapterKey) ([]model.Highlight, error)
	CreateHighlight(ctx context.Context, key ChapterKey, h model.Highlight) (*model.Highlight, error)
	DeleteHighlight(ctx context.Context, key ChapterKey, id string) error

	// === Users ===

	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)

	Close() error
}
