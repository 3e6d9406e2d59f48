package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/rareminds/skillpassport-billing/internal/order/domain"
)

func (s *Server) VerifyPayment(c *gin.Context) {
	var req orderdomain.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		// The charge went through but activation failed. Tell the client
		// the payment succeeded so nobody retries the charge.
		var actErr *orderdomain.ActivationError
		if errors.As(err, &actErr) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"payment_succeeded": true,
				"order_id":          actErr.OrderID,
				"payment_id":        actErr.PaymentID,
				"message":           "payment received, entitlement activation pending",
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
