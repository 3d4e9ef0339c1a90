package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"weekly-menu/internal/auth"
	"weekly-menu/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestLogger tags every request with an id and writes one access log
// entry once the response is done.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		fields := logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}
		if user := auth.UserFromContext(c.Request.Context()); user != nil {
			fields["user"] = user.ID
		}
		entry := h.log.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// authGate admits requests carrying a valid bearer token of an existing user.
func (h *Handler) authGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			h.fail(c, domain.Unauthorized("missing bearer token"))
			return
		}

		userID, err := h.opts.Tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			h.fail(c, domain.Unauthorized("invalid or expired token"))
			return
		}

		user, err := h.svc.Users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if domain.HasCode(err, domain.CodeNotFound) {
				h.fail(c, domain.Unauthorized("token subject no longer exists"))
				return
			}
			h.fail(c, err)
			return
		}

		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// currentUser returns the caller admitted by authGate.
func currentUser(c *gin.Context) *domain.User {
	return auth.UserFromContext(c.Request.Context())
}
