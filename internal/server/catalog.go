package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
)

func (s *Server) ListCatalog(c *gin.Context) {
	resp, err := s.catalogSvc.ListCatalog(c.Request.Context(), catalogdomain.ListRequest{
		Category: c.Query("category"),
		Role:     c.Query("role"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
