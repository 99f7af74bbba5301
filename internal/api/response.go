package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/common"
)

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ConflictBody is the error body for a link conflict.
type ConflictBody struct {
	APIError
	BeatID      string `json:"beatId,omitempty"`
	SceneID     string `json:"sceneId"`
	OtherBeatID string `json:"otherBeatId"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// fail maps a domain error to its status code.
func (s *Server) fail(c *gin.Context, err error) {
	var conflict *common.ConflictError
	var invalid *common.ValidationError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": ConflictBody{
			APIError:    APIError{Message: err.Error(), Code: "conflict"},
			BeatID:      conflict.BeatID,
			SceneID:     conflict.SceneID,
			OtherBeatID: conflict.OtherBeatID,
		}})
	case errors.As(err, &invalid):
		respondError(c, http.StatusBadRequest, "invalid", err)
	case errors.Is(err, common.ErrBaseVersionPermanent),
		errors.Is(err, common.ErrConfirmationRequired):
		respondError(c, http.StatusBadRequest, "invalid", err)
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrNoChapter):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, common.ErrAlreadyExists):
		respondError(c, http.StatusConflict, "already_exists", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "unauthorized", err)
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}

// bind decodes the JSON body into v, answering 400 on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, http.StatusBadRequest, "invalid", err)
		return false
	}
	return true
}
