package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rareminds/skillpassport-billing/internal/auth"
	"go.uber.org/zap"
)

// RequestLogger logs each request with correlation identifiers and safe
// fields.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}

		if lastErr := c.Errors.Last(); lastErr != nil {
			errorType, errorCode := classifyErrorForLog(lastErr.Err)
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
		}

		switch {
		case strings.EqualFold(route, "/metrics"):
			log.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set("request_id", requestID)
	c.Header("X-Request-Id", requestID)
	return requestID
}

// AuthRequired validates the bearer token and stores the user id on the
// request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		userID, err := s.verifier.Parse(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		auth.SetUserID(c, userID)
		c.Next()
	}
}

// AccessSoftAuth authenticates like AuthRequired but answers denials in
// the access-decision shape, so callers always get has_access back.
func (s *Server) AccessSoftAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		userID, err := s.verifier.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"has_access": false,
				"reason":     "unauthorized",
			})
			return
		}

		auth.SetUserID(c, userID)
		c.Next()
	}
}

// RateLimit throttles public API traffic per client IP. Without Redis
// (or with a zero rate) it is a no-op; limiter failures fail open.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || s.cfg.RateLimitRPS <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:v1:" + c.ClientIP()
		res, err := s.limiter.Allow(c.Request.Context(), key, float64(s.cfg.RateLimitRPS), s.cfg.RateLimitBurst)
		if err != nil {
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+1)))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: errorPayload{
					Type:    "rate_limited",
					Message: "too many requests",
				},
			})
			return
		}
		c.Next()
	}
}

// SystemAuthRequired gates internal and organization-admin endpoints on
// the shared system token.
func (s *Server) SystemAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if s.cfg.SystemToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.SystemToken)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
