package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/version"
)

type versionView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Label     string    `json:"label"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type versionRequest struct {
	Title *string `json:"title"`
	Text  *string `json:"text"`
}

// openVersion opens a one-request editor on scene sid at version vid and
// applies the request's edits. An unknown version answers 404.
func (s *Server) openVersion(c *gin.Context, ws *chapter.Workspace, vid string, req versionRequest) (*editor.Session, bool) {
	sid := c.Param("sid")
	sc, found := ws.Scene(sid)
	if !found {
		s.fail(c, fmt.Errorf("scene %s: %w", sid, common.ErrNotFound))
		return nil, false
	}
	if vid != "" {
		if _, ok := version.ByID(sc, version.ParseRef(vid)); !ok {
			s.fail(c, fmt.Errorf("version %s: %w", vid, common.ErrNotFound))
			return nil, false
		}
	}

	sess := editor.NewSession(ws, editor.WithAutosaveInterval(0), editor.WithLogger(s.log))
	if err := sess.Open(model.KindScene, sid, vid); err != nil {
		s.fail(c, err)
		return nil, false
	}
	if req.Title != nil {
		sess.SetTitle(*req.Title)
	}
	if req.Text != nil {
		sess.SetBody(*req.Text)
	}
	return sess, true
}

func (s *Server) listVersions(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	sid := c.Param("sid")
	sc, found := ws.Scene(sid)
	if !found {
		s.fail(c, fmt.Errorf("scene %s: %w", sid, common.ErrNotFound))
		return
	}
	active := version.Active(sc)
	opts := version.Options(sc)
	out := make([]versionView, len(opts))
	for i, v := range opts {
		out[i] = versionView{
			ID:        v.Ref.ID(),
			Title:     v.Title,
			Text:      v.Text,
			Label:     version.Label(sc, v.Ref),
			Active:    v.Ref == active,
			CreatedAt: v.CreatedAt,
		}
	}
	respondOK(c, out)
}

// saveNewVersion stores the request text, or the text of the version named
// by ?from=, as a new version.
func (s *Server) saveNewVersion(c *gin.Context) {
	var req versionRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	sess, ok := s.openVersion(c, ws, c.Query("from"), req)
	if !ok {
		return
	}
	v, err := sess.SaveNewVersion(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, versionView{ID: v.ID, Title: v.Title, Text: v.Text, Label: v.Label, CreatedAt: v.CreatedAt})
}

func (s *Server) saveVersion(c *gin.Context) {
	var req versionRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	sess, ok := s.openVersion(c, ws, c.Param("vid"), req)
	if !ok {
		return
	}
	if err := sess.SaveCurrentVersion(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	sc, _ := ws.Scene(c.Param("sid"))
	respondOK(c, viewScene(sc))
}

func (s *Server) publishVersion(c *gin.Context) {
	var req versionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	sess, ok := s.openVersion(c, ws, c.Param("vid"), req)
	if !ok {
		return
	}
	if err := sess.Publish(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	sc, _ := ws.Scene(c.Param("sid"))
	respondOK(c, viewScene(sc))
}

func (s *Server) deleteVersion(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	sess, ok := s.openVersion(c, ws, c.Param("vid"), versionRequest{})
	if !ok {
		return
	}
	if err := sess.DeleteCurrentVersion(c.Request.Context(), confirm); err != nil {
		s.fail(c, err)
		return
	}
	sc, _ := ws.Scene(c.Param("sid"))
	respondOK(c, viewScene(sc))
}
