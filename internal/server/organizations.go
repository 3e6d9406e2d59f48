package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/rareminds/skillpassport-billing/internal/organization/domain"
	"github.com/rareminds/skillpassport-billing/pkg/db/pagination"
)

func (s *Server) CreateOrgSubscription(c *gin.Context) {
	var req struct {
		OrgID      string    `json:"org_id"`
		Plan       string    `json:"plan"`
		TotalSeats int       `json:"total_seats"`
		StartDate  time.Time `json:"start_date"`
		EndDate    time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.organizationSvc.CreateSubscription(c.Request.Context(), organizationdomain.CreateSubscriptionRequest{
		OrgID:      req.OrgID,
		Plan:       req.Plan,
		TotalSeats: req.TotalSeats,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (s *Server) CreateLicensePool(c *gin.Context) {
	var req organizationdomain.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pool, err := s.organizationSvc.CreatePool(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pool)
}

func (s *Server) AssignSeat(c *gin.Context) {
	var req organizationdomain.AssignSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	assignment, err := s.organizationSvc.AssignSeat(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

func (s *Server) RevokeSeat(c *gin.Context) {
	var req struct {
		OrgSubscriptionID string `json:"org_subscription_id"`
		UserID            string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.organizationSvc.RevokeSeat(c.Request.Context(), organizationdomain.RevokeSeatRequest{
		OrgSubscriptionID: req.OrgSubscriptionID,
		UserID:            req.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

func (s *Server) ListOrgLicenses(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rows, info, err := s.organizationSvc.ListLicenses(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"licenses":  rows,
		"page_info": info,
	})
}
