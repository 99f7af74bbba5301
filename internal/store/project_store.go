package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/model"
)

func setProject(p *model.Project, d docstore.Document) { p.ID = d.ID }

// ListProjects returns a user's projects, most recently edited first.
func (s *DocStore) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	docs, err := s.ds.List(ctx, projectsPath(userID), docstore.OrderBy{Field: fLastEdited, Desc: true})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return decodeAll(docs, setProject)
}

// GetProject returns one project.
func (s *DocStore) GetProject(ctx context.Context, key ProjectKey) (*model.Project, error) {
	d, err := s.ds.Get(ctx, projectPath(key))
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", key.ProjectID, err)
	}
	return decodeOne(d, setProject)
}

func validateProject(title, status string, goal int) error {
	if strings.TrimSpace(title) == "" {
		return common.Required("title")
	}
	if !model.ValidProjectStatus(status) {
		return &common.ValidationError{Field: "status", Reason: fmt.Sprintf("must be one of %q, %q, %q",
			model.ProjectStatusPlanning, model.ProjectStatusInProgress, model.ProjectStatusCompleted)}
	}
	if goal < 0 {
		return &common.ValidationError{Field: "goalWordCount", Reason: "must not be negative"}
	}
	return nil
}

// CreateProject inserts a new project. Status defaults to Planning.
func (s *DocStore) CreateProject(ctx context.Context, userID string, project model.Project) (*model.Project, error) {
	if project.Status == "" {
		project.Status = model.ProjectStatusPlanning
	}
	if err := validateProject(project.Title, project.Status, project.GoalWordCount); err != nil {
		return nil, err
	}
	if project.LastEdited.IsZero() {
		project.LastEdited = time.Now()
	}

	id, err := s.ds.Create(ctx, projectsPath(userID), map[string]any{
		fTitle:            strings.TrimSpace(project.Title),
		fStatus:           project.Status,
		fGoalWordCount:    project.GoalWordCount,
		fCurrentWordCount: project.CurrentWordCount,
		fLastEdited:       stamp(project.LastEdited),
	})
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return s.GetProject(ctx, ProjectKey{UserID: userID, ProjectID: id})
}

// UpdateProject updates the given fields of a project.
func (s *DocStore) UpdateProject(ctx context.Context, key ProjectKey, upd ProjectUpdate) error {
	patch := map[string]any{}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return common.Required("title")
		}
		patch[fTitle] = strings.TrimSpace(*upd.Title)
	}
	if upd.Status != nil {
		if !model.ValidProjectStatus(*upd.Status) {
			return &common.ValidationError{Field: "status", Reason: "is not a known status"}
		}
		patch[fStatus] = *upd.Status
	}
	if upd.GoalWordCount != nil {
		if *upd.GoalWordCount < 0 {
			return &common.ValidationError{Field: "goalWordCount", Reason: "must not be negative"}
		}
		patch[fGoalWordCount] = *upd.GoalWordCount
	}
	if upd.CurrentWordCount != nil {
		patch[fCurrentWordCount] = *upd.CurrentWordCount
	}
	if upd.LastEdited != nil {
		patch[fLastEdited] = stamp(*upd.LastEdited)
	}
	if len(patch) == 0 {
		return nil
	}
	if err := s.ds.Update(ctx, projectPath(key), patch); err != nil {
		return fmt.Errorf("updating project %s: %w", key.ProjectID, err)
	}
	return nil
}

// DeleteProject removes a project together with its chapters and their content.
func (s *DocStore) DeleteProject(ctx context.Context, key ProjectKey) error {
	if err := s.ds.Delete(ctx, projectPath(key)); err != nil {
		return fmt.Errorf("deleting project %s: %w", key.ProjectID, err)
	}
	return nil
}
