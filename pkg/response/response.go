package response

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
)

// MetaContextKey holds response metadata collected by middleware during a request.
const MetaContextKey = "response_meta"

// Envelope represents the common response contract.
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Error   *appErrors.Error       `json:"error,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// SetMeta records a metadata entry that the next JSON response will carry.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, _ := c.Get(MetaContextKey)
	values, ok := meta.(map[string]interface{})
	if !ok {
		values = map[string]interface{}{}
	}
	values[key] = value
	c.Set(MetaContextKey, values)
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	WithMessage(c, status, "", data)
}

// WithMessage sends a success response with a human readable message.
func WithMessage(c *gin.Context, status int, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Success: true, Message: message, Data: data}
	if meta, ok := c.Get(MetaContextKey); ok {
		if values, ok := meta.(map[string]interface{}); ok && len(values) > 0 {
			envelope.Meta = values
		}
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	WithMessage(c, http.StatusCreated, message, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.AbortWithStatusJSON(appErr.Status, Envelope{Success: false, Error: appErr})
}

// File streams a generated document as an attachment.
func File(c *gin.Context, filename, contentType string, payload []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Length", strconv.Itoa(len(payload)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, payload)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
