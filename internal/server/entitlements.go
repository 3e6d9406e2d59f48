package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rareminds/skillpassport-billing/internal/auth"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
)

func (s *Server) ListEntitlements(c *gin.Context) {
	userID, _ := auth.UserID(c)

	rows, err := s.entitlementSvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entitlements": rows})
}

func (s *Server) CancelEntitlement(c *gin.Context) {
	userID, _ := auth.UserID(c)

	resp, err := s.entitlementSvc.Cancel(c.Request.Context(), entitlementdomain.CancelRequest{
		UserID:        userID,
		EntitlementID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SetEntitlementAutoRenew(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	row, err := s.entitlementSvc.SetAutoRenew(c.Request.Context(), entitlementdomain.AutoRenewRequest{
		UserID:        userID,
		EntitlementID: c.Param("id"),
		Enabled:       *req.Enabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}
