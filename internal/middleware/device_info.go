package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
)

// DeviceInfoKey is the key used to store parsed device information in Gin context
const DeviceInfoKey = "device_info"

// DeviceInfoMiddleware parses the User-Agent header so bookings can
// record which platform they came from
func DeviceInfoMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ua := user_agent.New(c.Request.UserAgent())
		browser, version := ua.Browser()

		c.Set(DeviceInfoKey, map[string]any{
			"platform":  ua.Platform(),
			"os":        ua.OS(),
			"browser":   browser,
			"version":   version,
			"mobile":    ua.Mobile(),
			"bot":       ua.Bot(),
			"client_ip": c.ClientIP(),
		})

		c.Next()
	}
}

// GetDeviceInfo retrieves the parsed device information from Gin context
func GetDeviceInfo(c *gin.Context) map[string]any {
	value, exists := c.Get(DeviceInfoKey)
	if !exists {
		return nil
	}
	info, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return info
}
