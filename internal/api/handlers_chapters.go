package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/version"
)

type chapterView struct {
	ID string `json:"id"`
	model.Chapter
}

type sceneView struct {
	ID string `json:"id"`
	model.Scene
	Display version.Display `json:"display"`
	Words   int             `json:"words"`
}

type beatView struct {
	ID string `json:"id"`
	model.Beat
}

func viewScene(sc model.Scene) sceneView {
	d := version.DisplayContent(sc)
	return sceneView{ID: sc.ID, Scene: sc, Display: d, Words: manuscript.WordCount(d.Text)}
}

func viewScenes(scenes []model.Scene) []sceneView {
	out := make([]sceneView, len(scenes))
	for i, sc := range scenes {
		out[i] = viewScene(sc)
	}
	return out
}

func viewBeats(beats []model.Beat) []beatView {
	out := make([]beatView, len(beats))
	for i, b := range beats {
		out[i] = beatView{ID: b.ID, Beat: b}
	}
	return out
}

type chapterRequest struct {
	Title           *string `json:"title"`
	Status          *string `json:"status"`
	OrderIndex      *int64  `json:"orderIndex"`
	TargetWordCount *int    `json:"targetWordCount"`
}

func (s *Server) listChapters(c *gin.Context) {
	ws, release, ok := s.workspace(c)
	if !ok {
		return
	}
	defer release()
	if err := ws.LoadChapters(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	chapters := ws.Chapters()
	out := make([]chapterView, len(chapters))
	for i, ch := range chapters {
		out[i] = chapterView{ID: ch.ID, Chapter: ch}
	}
	respondOK(c, out)
}

func (s *Server) createChapter(c *gin.Context) {
	var req chapterRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.workspace(c)
	if !ok {
		return
	}
	defer release()

	title := ws.DefaultChapterTitle()
	if req.Title != nil {
		title = *req.Title
	}
	ch, err := ws.CreateChapter(c.Request.Context(), title)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, chapterView{ID: ch.ID, Chapter: *ch})
}

func (s *Server) getChapter(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	ch, _ := ws.Selected()
	scenes := ws.Scenes()
	respondOK(c, gin.H{
		"chapter": chapterView{ID: ch.ID, Chapter: ch},
		"scenes":  viewScenes(scenes),
		"beats":   viewBeats(ws.Beats()),
		"words":   manuscript.ChapterWords(scenes),
	})
}

func (s *Server) updateChapter(c *gin.Context) {
	var req chapterRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	if err := ws.UpdateChapter(c.Request.Context(), c.Param("cid"), store.ChapterUpdate{
		Title:           req.Title,
		Status:          req.Status,
		OrderIndex:      req.OrderIndex,
		TargetWordCount: req.TargetWordCount,
	}); err != nil {
		s.fail(c, err)
		return
	}
	ch, _ := ws.Selected()
	respondOK(c, chapterView{ID: ch.ID, Chapter: ch})
}

func (s *Server) deleteChapter(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	if err := ws.DeleteChapter(c.Request.Context(), c.Param("cid")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type sceneRequest struct {
	Title      *string `json:"title"`
	Text       *string `json:"text"`
	OrderIndex *int64  `json:"orderIndex"`
	WithBeat   bool    `json:"withBeat"`
}

func (s *Server) createScene(c *gin.Context) {
	var req sceneRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	ctx := c.Request.Context()

	if req.WithBeat {
		sc, b, err := ws.CreateSceneAndBeat(ctx)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"scene": viewScene(*sc), "beat": beatView{ID: b.ID, Beat: *b}})
		return
	}

	title := ""
	if req.Title != nil {
		title = *req.Title
	}
	sc, err := ws.CreateScene(ctx, title)
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.Text != nil {
		if err := ws.UpdateScene(ctx, sc.ID, store.SceneUpdate{Text: req.Text}); err != nil {
			s.fail(c, err)
			return
		}
		sc.Text = *req.Text
	}
	c.JSON(http.StatusCreated, viewScene(*sc))
}

func (s *Server) updateScene(c *gin.Context) {
	var req sceneRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	id := c.Param("sid")
	if _, found := ws.Scene(id); !found {
		s.fail(c, common.ErrNotFound)
		return
	}
	if err := ws.UpdateScene(c.Request.Context(), id, store.SceneUpdate{
		Title:      req.Title,
		Text:       req.Text,
		OrderIndex: req.OrderIndex,
	}); err != nil {
		s.fail(c, err)
		return
	}
	sc, _ := ws.Scene(id)
	respondOK(c, viewScene(sc))
}

func (s *Server) deleteScene(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	id := c.Param("sid")
	if _, found := ws.Scene(id); !found {
		s.fail(c, common.ErrNotFound)
		return
	}
	if err := ws.DeleteItem(c.Request.Context(), model.KindScene, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	DragIndex *int `json:"dragIndex"`
	DropIndex *int `json:"dropIndex"`
}

func (s *Server) reorderScenes(c *gin.Context) {
	var req reorderRequest
	if !bind(c, &req) {
		return
	}
	if req.DragIndex == nil {
		s.fail(c, common.Required("dragIndex"))
		return
	}
	if req.DropIndex == nil {
		s.fail(c, common.Required("dropIndex"))
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	if _, err := ws.ReorderScenes(c.Request.Context(), *req.DragIndex, *req.DropIndex); err != nil {
		s.fail(c, err)
		return
	}
	respondOK(c, gin.H{"scenes": viewScenes(ws.Scenes()), "beats": viewBeats(ws.Beats())})
}

type beatRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	OrderIndex  *int64  `json:"orderIndex"`
	SceneID     *string `json:"sceneId"`
}

func (s *Server) createBeat(c *gin.Context) {
	var req beatRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	ctx := c.Request.Context()

	var (
		b   *model.Beat
		err error
	)
	if req.SceneID != nil && *req.SceneID != "" {
		b, err = ws.CreateBeatForScene(ctx, *req.SceneID)
		if err == nil && req.Title != nil {
			err = ws.UpdateBeat(ctx, b.ID, store.BeatUpdate{Title: req.Title})
			b.Title = *req.Title
		}
	} else {
		title := ""
		if req.Title != nil {
			title = *req.Title
		}
		b, err = ws.CreateBeat(ctx, title)
	}
	if err == nil && req.Description != nil {
		err = ws.UpdateBeat(ctx, b.ID, store.BeatUpdate{Description: req.Description})
		b.Description = *req.Description
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, beatView{ID: b.ID, Beat: *b})
}

func (s *Server) updateBeat(c *gin.Context) {
	var req beatRequest
	if !bind(c, &req) {
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	id := c.Param("bid")
	if _, found := ws.Beat(id); !found {
		s.fail(c, common.ErrNotFound)
		return
	}
	if err := ws.UpdateBeat(c.Request.Context(), id, store.BeatUpdate{
		Title:       req.Title,
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
	}); err != nil {
		s.fail(c, err)
		return
	}
	b, _ := ws.Beat(id)
	respondOK(c, beatView{ID: b.ID, Beat: b})
}

func (s *Server) deleteBeat(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	id := c.Param("bid")
	if _, found := ws.Beat(id); !found {
		s.fail(c, common.ErrNotFound)
		return
	}
	if err := ws.DeleteItem(c.Request.Context(), model.KindBeat, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type linkRequest struct {
	SceneID string `json:"sceneId"`
}

func (s *Server) linkBeat(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}
	if req.SceneID == "" {
		s.fail(c, common.Required("sceneId"))
		return
	}
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	id := c.Param("bid")
	if err := ws.LinkBeat(c.Request.Context(), id, req.SceneID); err != nil {
		s.fail(c, err)
		return
	}
	b, _ := ws.Beat(id)
	respondOK(c, beatView{ID: b.ID, Beat: b})
}

func (s *Server) unlinkBeat(c *gin.Context) {
	ws, release, ok := s.chapterWorkspace(c)
	if !ok {
		return
	}
	defer release()
	id := c.Param("bid")
	if err := ws.UnlinkBeat(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	b, _ := ws.Beat(id)
	respondOK(c, beatView{ID: b.ID, Beat: b})
}
