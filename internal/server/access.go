package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/rareminds/skillpassport-billing/internal/access/domain"
	"github.com/rareminds/skillpassport-billing/internal/auth"
)

func (s *Server) CheckAccess(c *gin.Context) {
	userID, _ := auth.UserID(c)

	decision, err := s.accessSvc.Evaluate(c.Request.Context(), accessdomain.Request{
		UserID: userID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (s *Server) CheckFeatureAccess(c *gin.Context) {
	userID, _ := auth.UserID(c)
	featureKey := strings.TrimSpace(c.Param("feature_key"))
	if featureKey == "" {
		AbortWithError(c, newValidationError("feature_key", "invalid_feature_key", "feature key is required"))
		return
	}

	decision, err := s.accessSvc.Evaluate(c.Request.Context(), accessdomain.Request{
		UserID:     userID,
		FeatureKey: featureKey,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}
