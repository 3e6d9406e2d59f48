package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rareminds/skillpassport-billing/internal/auth"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	orderdomain "github.com/rareminds/skillpassport-billing/internal/order/domain"
	organizationdomain "github.com/rareminds/skillpassport-billing/internal/organization/domain"
	paymentdomain "github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"github.com/rareminds/skillpassport-billing/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal_error")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalogdomain.ErrInvalidBillingPeriod),
		errors.Is(err, catalogdomain.ErrInvalidBundleID),
		errors.Is(err, catalogdomain.ErrAddOnUnavailable),
		errors.Is(err, catalogdomain.ErrBundleEmpty),
		errors.Is(err, orderdomain.ErrInvalidSignature),
		errors.Is(err, orderdomain.ErrMissingVerificationField),
		errors.Is(err, entitlementdomain.ErrInvalidEntitlementID),
		errors.Is(err, entitlementdomain.ErrEntitlementExpired),
		errors.Is(err, organizationdomain.ErrInvalidSubscriptionID),
		errors.Is(err, organizationdomain.ErrInvalidPoolID),
		errors.Is(err, organizationdomain.ErrInvalidSeatCount),
		errors.Is(err, organizationdomain.ErrInvalidPeriod),
		errors.Is(err, organizationdomain.ErrSubscriptionInactive),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrAlreadyOwned),
		errors.Is(err, orderdomain.ErrOrderAlreadyProcessed),
		errors.Is(err, entitlementdomain.ErrAlreadyCancelled),
		errors.Is(err, organizationdomain.ErrSeatAlreadyAssigned),
		errors.Is(err, organizationdomain.ErrNoSeatsAvailable):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrAddOnNotFound),
		errors.Is(err, catalogdomain.ErrBundleNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, entitlementdomain.ErrEntitlementNotFound),
		errors.Is(err, organizationdomain.ErrSubscriptionNotFound),
		errors.Is(err, organizationdomain.ErrPoolNotFound),
		errors.Is(err, organizationdomain.ErrAssignmentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
