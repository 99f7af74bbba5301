package store

import "github.com/nhle/novelstudio/internal/docstore"

// Collection names under each document.
const (
	colUsers      = "users"
	colProjects   = "projects"
	colChapters   = "chapters"
	colScenes     = "scenes"
	colBeats      = "beats"
	colComments   = "comments"
	colHighlights = "highlights"
)

// Persisted field names.
const (
	fOrderIndex       = "orderIndex"
	fTitle            = "title"
	fText             = "text"
	fStatus           = "status"
	fActiveVersionID  = "activeVersionId"
	fVersions         = "versions"
	fManuscriptTitle  = "manuscriptTitle"
	fManuscriptText   = "manuscriptText"
	fLinkedSceneID    = "linkedSceneId"
	fDescription      = "description"
	fGoalWordCount    = "goalWordCount"
	fCurrentWordCount = "currentWordCount"
	fLastEdited       = "lastEdited"
	fTargetWordCount  = "targetWordCount"
	fSceneID          = "sceneId"
	fSelection        = "selection"
	fColor            = "color"
	fStart            = "start"
	fEnd              = "end"
	fEmail            = "email"
	fPasswordHash     = "passwordHash"
	fCreatedAt        = docstore.FieldCreatedAt
)

func usersPath() docstore.Path { return docstore.Join(colUsers) }

func projectsPath(userID string) docstore.Path {
	return usersPath().Doc(userID).Collection(colProjects)
}

func projectPath(k ProjectKey) docstore.Path {
	return projectsPath(k.UserID).Doc(k.ProjectID)
}

func chaptersPath(k ProjectKey) docstore.Path {
	return projectPath(k).Collection(colChapters)
}

func chapterPath(k ChapterKey) docstore.Path {
	return chaptersPath(k.ProjectKey).Doc(k.ChapterID)
}

func chapterChild(k ChapterKey, col string) docstore.Path {
	return chapterPath(k).Collection(col)
}
