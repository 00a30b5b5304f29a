package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
	"github.com/noah-isme/sma-widget-api/pkg/response"
)

// ContextDeviceKey is the gin context key storing device claims.
const ContextDeviceKey = "currentDevice"

type tokenValidator interface {
	ValidateToken(token string) (*models.DeviceClaims, error)
}

// JWT protects routes by requiring a valid device token.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			if c.GetHeader("Authorization") == "" {
				response.Error(c, appErrors.ErrUnauthorized)
			} else {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			}
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextDeviceKey, claims)
		c.Next()
	}
}

// DeviceID returns the authenticated device id, or "" for anonymous requests.
func DeviceID(c *gin.Context) string {
	value, exists := c.Get(ContextDeviceKey)
	if !exists {
		return ""
	}
	claims, ok := value.(*models.DeviceClaims)
	if !ok {
		return ""
	}
	return claims.DeviceID
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
