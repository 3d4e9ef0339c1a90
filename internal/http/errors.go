package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"weekly-menu/internal/domain"
)

type errorResponse struct {
	Error       domain.ErrorCode    `json:"error"`
	Description string              `json:"description"`
	Details     []domain.FieldError `json:"details"`
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeBadRequest:         http.StatusBadRequest,
	domain.CodeInvalidPayload:     http.StatusBadRequest,
	domain.CodeUnauthorized:       http.StatusUnauthorized,
	domain.CodeBadCredentials:     http.StatusUnauthorized,
	domain.CodeForbidden:          http.StatusForbidden,
	domain.CodeCannotSetID:        http.StatusForbidden,
	domain.CodeCannotSetTimestamp: http.StatusForbidden,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeDuplicateEntry:     http.StatusConflict,
	domain.CodeInternal:           http.StatusInternalServerError,
}

func statusFor(code domain.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// fail renders err and aborts the chain. Errors without a code are logged
// and hidden behind INTERNAL.
func (h *Handler) fail(c *gin.Context, err error) {
	e, ok := domain.AsError(err)
	if !ok {
		h.log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("unhandled error")
		e = &domain.Error{Code: domain.CodeInternal, Description: "internal server error"}
	}
	details := e.Details
	if details == nil {
		details = []domain.FieldError{}
	}
	c.AbortWithStatusJSON(statusFor(e.Code), errorResponse{
		Error:       e.Code,
		Description: e.Description,
		Details:     details,
	})
}
