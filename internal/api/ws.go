package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware and the bearer token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS streams the caller's change events as JSON. ?projectId= limits
// the stream to one project.
func (s *Server) serveWS(c *gin.Context) {
	userID := auth.UserID(c)
	projectID := c.Query("projectId")

	evs, cancel := s.bus.Subscribe(wsBuffer)
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	done := make(chan struct{})
	go s.wsReadPump(conn, done)
	s.wsWritePump(conn, evs, done, userID, projectID)
}

// wsReadPump discards client messages and keeps the read deadline fresh
// on pongs. It closes done when the connection goes away.
func (s *Server) wsReadPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) wsWritePump(conn *websocket.Conn, evs <-chan events.Event, done <-chan struct{}, userID, projectID string) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-evs:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if ev.UserID != userID || (projectID != "" && ev.ProjectID != projectID) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed", "user_id", userID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
