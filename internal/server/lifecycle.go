package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunLifecycle triggers one scheduler pass. The jobs are idempotent, so
// running this alongside the interval loop is safe.
func (s *Server) RunLifecycle(c *gin.Context) {
	if err := s.scheduler.RunOnce(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
