package api

import (
	"alcyxob/fitness-social/internal/metrics"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Constants for context keys
const (
	ContextUserIDKey    = "userID"
	ContextRequestIDKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware creates a Gin middleware for JWT authentication. Tokens are
// issued by the identity provider; the subject claim is its user id.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.Subject == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Next()
	}
}

// RequestLogger tags every request with an id and logs it once it is served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
			"ua":        c.Request.UserAgent(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("request served")
	}
}

// RequestMetrics counts requests per route and status and observes their duration.
func RequestMetrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.GaugeRequests.Inc()
		defer m.GaugeRequests.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HistRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.CounterRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Recovery turns a handler panic into a 500 and counts it.
func Recovery(m *metrics.Manager) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		m.CounterPanics.Inc()
		log.WithField("requestId", c.GetString(ContextRequestIDKey)).Errorf("panic serving %s: %v", c.Request.URL.Path, recovered)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	})
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, bool) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := idRaw.(string)
	return idStr, ok && idStr != ""
}

// actingUserID reconciles the userId a request names with the token subject.
// With auth on, a different id is forbidden and a missing one defaults to the
// subject. It aborts the request and returns false when there is no usable id.
func actingUserID(c *gin.Context, supplied string) (string, bool) {
	subject, authenticated := getUserIDFromContext(c)
	switch {
	case authenticated && supplied != "" && supplied != subject:
		abortWithError(c, http.StatusForbidden, "userId does not match the authenticated user")
		return "", false
	case authenticated:
		return subject, true
	case supplied == "":
		abortWithError(c, http.StatusBadRequest, "userId is required")
		return "", false
	default:
		return supplied, true
	}
}
