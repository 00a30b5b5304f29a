package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/middleware"
)

func deviceFromContext(c *gin.Context) string {
	return middleware.DeviceID(c)
}

// queryInt reads a non-negative integer query parameter; ok is false when
// the value is present but malformed.
func queryInt(c *gin.Context, key string) (value int, ok bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}
