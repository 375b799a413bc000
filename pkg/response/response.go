package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data      interface{}            `json:"data,omitempty"`
	UpdatedAt *time.Time             `json:"updatedAt,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// ErrorBody is the error contract: a human message plus a machine code.
type ErrorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details []appErrors.FieldError `json:"details,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Snapshot sends data stamped with the time it was computed.
func Snapshot(c *gin.Context, data interface{}, updatedAt time.Time) {
	noStore(c)
	ts := updatedAt.UTC()
	c.JSON(http.StatusOK, Envelope{Data: data, UpdatedAt: &ts})
}

// OK sends a bare acknowledgement body such as {"ok":true,"id":"..."}.
func OK(c *gin.Context, status int, fields gin.H) {
	noStore(c)
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error sends an error response converting the error to the common structure.
// Internal errors only ever expose the generic message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, ErrorBody{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
