// Package api serves the writing studio over HTTP with gin and streams
// change events over a websocket.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// Server holds the API dependencies.
type Server struct {
	store    store.Store
	auth     *auth.Service
	bus      *events.Bus
	log      *logging.Logger
	cfg      model.ServerConfig
	registry *registry
}

// NewServer creates a Server.
func NewServer(s store.Store, authSvc *auth.Service, bus *events.Bus, cfg model.ServerConfig, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("component", "api")
	return &Server{
		store:    s,
		auth:     authSvc,
		bus:      bus,
		log:      log,
		cfg:      cfg,
		registry: newRegistry(s, bus, log),
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.GET("/healthcheck", func(c *gin.Context) { respondOK(c, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	protected := api.Group("/")
	protected.Use(s.auth.RequireAuth())

	protected.GET("/ws", s.serveWS)

	protected.GET("/projects", s.listProjects)
	protected.POST("/projects", s.createProject)
	protected.GET("/projects/:pid", s.getProject)
	protected.PUT("/projects/:pid", s.updateProject)
	protected.DELETE("/projects/:pid", s.deleteProject)
	protected.GET("/projects/:pid/export", s.export)

	protected.GET("/projects/:pid/chapters", s.listChapters)
	protected.POST("/projects/:pid/chapters", s.createChapter)

	ch := protected.Group("/projects/:pid/chapters/:cid")
	ch.GET("", s.getChapter)
	ch.PUT("", s.updateChapter)
	ch.DELETE("", s.deleteChapter)
	ch.GET("/manuscript", s.manuscript)

	ch.POST("/scenes", s.createScene)
	ch.POST("/scenes/reorder", s.reorderScenes)
	ch.PUT("/scenes/:sid", s.updateScene)
	ch.DELETE("/scenes/:sid", s.deleteScene)
	ch.GET("/scenes/:sid/versions", s.listVersions)
	ch.POST("/scenes/:sid/versions", s.saveNewVersion)
	ch.PUT("/scenes/:sid/versions/:vid", s.saveVersion)
	ch.POST("/scenes/:sid/versions/:vid/publish", s.publishVersion)
	ch.DELETE("/scenes/:sid/versions/:vid", s.deleteVersion)

	ch.POST("/beats", s.createBeat)
	ch.PUT("/beats/:bid", s.updateBeat)
	ch.DELETE("/beats/:bid", s.deleteBeat)
	ch.PUT("/beats/:bid/link", s.linkBeat)
	ch.DELETE("/beats/:bid/link", s.unlinkBeat)

	ch.GET("/comments", s.listComments)
	ch.POST("/comments", s.createComment)
	ch.DELETE("/comments/:id", s.deleteComment)
	ch.GET("/highlights", s.listHighlights)
	ch.POST("/highlights", s.createHighlight)
	ch.DELETE("/highlights/:id", s.deleteHighlight)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) projectKey(c *gin.Context) store.ProjectKey {
	return store.ProjectKey{UserID: auth.UserID(c), ProjectID: c.Param("pid")}
}

// workspace returns the caller's project workspace, locked until release.
// A project that does not exist answers 404.
func (s *Server) workspace(c *gin.Context) (*chapter.Workspace, func(), bool) {
	ctx := c.Request.Context()
	key := s.projectKey(c)
	if _, err := s.store.GetProject(ctx, key); err != nil {
		s.fail(c, err)
		return nil, nil, false
	}
	ws, release, err := s.registry.acquire(ctx, key)
	if err != nil {
		s.fail(c, err)
		return nil, nil, false
	}
	return ws, release, true
}

// chapterWorkspace is workspace with the :cid chapter freshly loaded.
func (s *Server) chapterWorkspace(c *gin.Context) (*chapter.Workspace, func(), bool) {
	ws, release, ok := s.workspace(c)
	if !ok {
		return nil, nil, false
	}
	ctx := c.Request.Context()
	cid := c.Param("cid")
	err := ws.SelectChapter(ctx, cid)
	if common.IsNotFound(err) {
		// The chapter list may predate a chapter created elsewhere.
		if err = ws.LoadChapters(ctx); err == nil {
			err = ws.SelectChapter(ctx, cid)
		}
	}
	if err != nil {
		release()
		s.fail(c, err)
		return nil, nil, false
	}
	return ws, release, true
}
