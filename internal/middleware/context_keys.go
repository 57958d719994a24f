package middleware

import "github.com/gin-gonic/gin"

// deviceKey is the key used to store the authenticated device name.
const deviceKey = contextKey("device")

// GetDeviceFromContext retrieves the device name set by AuthMiddleware.
// It returns false when the API runs without authentication.
func GetDeviceFromContext(c *gin.Context) (string, bool) {
	if v, ok := c.Request.Context().Value(deviceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
