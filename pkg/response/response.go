package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

const metaContextKey = "response_meta"

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON writes a success envelope. Metadata collected on the request context
// is merged with any meta passed explicitly.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Meta: mergeMeta(c, meta...)}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error writes an error envelope using the status carried by err.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func mergeMeta(c *gin.Context, extra ...map[string]interface{}) map[string]interface{} {
	var merged map[string]interface{}
	if stored, ok := c.Get(metaContextKey); ok {
		if typed, ok := stored.(map[string]interface{}); ok && len(typed) > 0 {
			merged = make(map[string]interface{}, len(typed))
			for k, v := range typed {
				merged[k] = v
			}
		}
	}
	for _, m := range extra {
		for k, v := range m {
			if merged == nil {
				merged = make(map[string]interface{}, len(m))
			}
			merged[k] = v
		}
	}
	return merged
}
