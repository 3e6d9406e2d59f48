package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rareminds/skillpassport-billing/internal/auth"
	orderdomain "github.com/rareminds/skillpassport-billing/internal/order/domain"
)

func (s *Server) CreateAddOnOrder(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req orderdomain.CreateAddOnOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.FeatureKey) == "" {
		AbortWithError(c, newValidationError("feature_key", "invalid_feature_key", "feature key is required"))
		return
	}
	req.UserID = userID

	resp, err := s.orderSvc.CreateAddOnOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) CreateBundleOrder(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req orderdomain.CreateBundleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.BundleID) == "" {
		AbortWithError(c, newValidationError("bundle_id", "invalid_bundle_id", "bundle id is required"))
		return
	}
	req.UserID = userID

	resp, err := s.orderSvc.CreateBundleOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
