package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standardized error body returned by every failure
// path. Code is a stable machine-readable constant; clients branch on it
// rather than on Message.
type ErrorResponse struct {
	Timestamp time.Time   `json:"timestamp"`
	Status    int         `json:"status"`
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Path      string      `json:"path"`
	Details   interface{} `json:"details,omitempty"`
}

// Error writes the standardized error body and aborts the request.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		Path:      c.Request.URL.Path,
		Details:   details,
	})
}

// JSON writes a bare success body.
func JSON(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
