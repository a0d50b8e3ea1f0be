package httpkit

import (
	"errors"
	"net/http"

	"dealflow_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-2xx answer. RequestID lets a client
// quote the failing request.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: c.Writer.Header().Get(HeaderRequestID),
	})
}

// ValidationError answers 400 with one entry per failing field, keyed by the
// field's JSON name.
func ValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	Error(c, http.StatusBadRequest, "validation failed", fields)
}

// HandleError writes err and reports whether there was one. *apperr.Error
// values answer with their kind's status and message. Anything else is an
// infrastructure failure: the client gets a bare 500 and the error is
// attached to the context for RequestLogger.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		Error(c, appErr.HTTPStatus(), appErr.Message, appErr.Details)
		return true
	}

	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "internal server error", nil)
	return true
}
