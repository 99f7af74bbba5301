package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
)

type segmentView struct {
	Text        string `json:"text"`
	HighlightID string `json:"highlightId,omitempty"`
	Color       string `json:"color,omitempty"`
}

type blockView struct {
	SceneID  string        `json:"sceneId"`
	Number   int           `json:"number"`
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	Empty    bool          `json:"empty"`
	Words    int           `json:"words"`
	Segments []segmentView `json:"segments"`
	Comments []commentView `json:"comments"`
}

type commentView struct {
	ID string `json:"id"`
	model.Comment
}

type highlightView struct {
	ID string `json:"id"`
	model.Highlight
}

func (s *Server) manuscript(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	m, err := ws.Manuscript(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	blocks := make([]blockView, len(m.Blocks))
	for i, b := range m.Blocks {
		segs := make([]segmentView, len(b.Segments))
		for j, sg := range b.Segments {
			segs[j] = segmentView(sg)
		}
		comments := make([]commentView, len(b.Comments))
		for j, cm := range b.Comments {
			comments[j] = commentView{ID: cm.ID, Comment: cm}
		}
		blocks[i] = blockView{
			SceneID:  b.Scene.ID,
			Number:   b.Number,
			Title:    b.Title,
			Text:     b.Text,
			Empty:    b.Empty,
			Words:    b.Words,
			Segments: segs,
			Comments: comments,
		}
	}
	respondOK(c, gin.H{
		"chapter": chapterView{ID: m.Chapter.ID, Chapter: m.Chapter},
		"number":  m.Number,
		"words":   m.Words,
		"blocks":  blocks,
	})
}

// export answers the plain-text manuscript as a download. scope is chapter
// (with chapterId) or novel.
func (s *Server) export(c *gin.Context) {
	scope := c.DefaultQuery("scope", manuscript.ScopeNovel)
	ws, release, ok := s.workspace(c)
	if !ok {
		return
	}
	defer release()
	ctx := c.Request.Context()

	if err := ws.LoadChapters(ctx); err != nil {
		s.fail(c, err)
		return
	}
	if cid := c.Query("chapterId"); cid != "" {
		if err := ws.SelectChapter(ctx, cid); err != nil {
			s.fail(c, err)
			return
		}
	} else if err := ws.Reload(ctx); err != nil {
		s.fail(c, err)
		return
	}

	text, name, err := ws.ExportManuscript(ctx, scope)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

type commentRequest struct {
	SceneID   string `json:"sceneId"`
	Text      string `json:"text"`
	Selection string `json:"selection"`
}

func (s *Server) listComments(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	comments, _, err := ws.Annotations(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]commentView, len(comments))
	for i, cm := range comments {
		out[i] = commentView{ID: cm.ID, Comment: cm}
	}
	respondOK(c, out)
}

func (s *Server) createComment(c *gin.Context) {
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	cm, err := ws.AddComment(c.Request.Context(), req.SceneID, req.Text, req.Selection)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentView{ID: cm.ID, Comment: *cm})
}

func (s *Server) deleteComment(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	if err := ws.DeleteComment(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type highlightRequest struct {
	SceneID string `json:"sceneId"`
	Text    string `json:"text"`
	Color   string `json:"color"`
}

func (s *Server) listHighlights(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	_, highlights, err := ws.Annotations(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]highlightView, len(highlights))
	for i, h := range highlights {
		out[i] = highlightView{ID: h.ID, Highlight: h}
	}
	respondOK(c, out)
}

func (s *Server) createHighlight(c *gin.Context) {
	var req highlightRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	h, err := ws.AddHighlight(c.Request.Context(), req.SceneID, req.Text, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, highlightView{ID: h.ID, Highlight: *h})
}

func (s *Server) deleteHighlight(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	if err := ws.DeleteHighlight(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
