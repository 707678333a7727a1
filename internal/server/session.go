package server

import (
	"net/http"

	sessiondomain "github.com/atmodecor/tally/internal/session/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) StartDay(c *gin.Context) {
	var req sessiondomain.StartDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	summary, err := s.sessionSvc.StartDay(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordSessionStarted(c.Request.Context())

	c.JSON(http.StatusCreated, summary)
}

func (s *Server) GetSummary(c *gin.Context) {
	summary, err := s.sessionSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) ResetSession(c *gin.Context) {
	summary, err := s.sessionSvc.Reset(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordSessionArchived(c.Request.Context(), "reset")

	c.JSON(http.StatusOK, summary)
}
