package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// projectView adds the id and progress to a project.
type projectView struct {
	ID string `json:"id"`
	model.Project
	Progress float64 `json:"progress"`
}

func viewProject(p model.Project) projectView {
	return projectView{ID: p.ID, Project: p, Progress: p.Progress()}
}

type projectRequest struct {
	Title         *string `json:"title"`
	Status        *string `json:"status"`
	GoalWordCount *int    `json:"goalWordCount"`
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]projectView, len(projects))
	for i, p := range projects {
		out[i] = viewProject(p)
	}
	respondOK(c, out)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.store.GetProject(c.Request.Context(), s.projectKey(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondOK(c, viewProject(*p))
}

func (s *Server) createProject(c *gin.Context) {
	var req projectRequest
	if !bind(c, &req) {
		return
	}
	p := model.Project{}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.GoalWordCount != nil {
		p.GoalWordCount = *req.GoalWordCount
	}
	created, err := s.store.CreateProject(c.Request.Context(), auth.UserID(c), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewProject(*created))
}

func (s *Server) updateProject(c *gin.Context) {
	var req projectRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	key := s.projectKey(c)
	if err := s.store.UpdateProject(ctx, key, store.ProjectUpdate{
		Title:         req.Title,
		Status:        req.Status,
		GoalWordCount: req.GoalWordCount,
	}); err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.store.GetProject(ctx, key)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondOK(c, viewProject(*p))
}

func (s *Server) deleteProject(c *gin.Context) {
	key := s.projectKey(c)
	if err := s.store.DeleteProject(c.Request.Context(), key); err != nil {
		s.fail(c, err)
		return
	}
	s.registry.forget(key)
	c.Status(http.StatusNoContent)
}
