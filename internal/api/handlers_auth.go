package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}
	sess, err := s.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}
	sess, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondOK(c, sess)
}
