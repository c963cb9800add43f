package middleware

import (
	"database/sql"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	provisioning "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Provisioning"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
)

const deviceContextKey = "authenticated_device"

// DeviceAuthMiddleware authenticates devices by X-Device-ID / X-Secret-Key
// headers against the stored bcrypt hash
type DeviceAuthMiddleware struct {
	devices interfaces.DeviceRepository
}

// NewDeviceAuthMiddleware creates a new device auth middleware
func NewDeviceAuthMiddleware(devices interfaces.DeviceRepository) *DeviceAuthMiddleware {
	return &DeviceAuthMiddleware{devices: devices}
}

// Authenticate validates the device credentials and attaches the device to
// the request context
func (m *DeviceAuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader("X-Device-ID")
		secretKey := c.GetHeader("X-Secret-Key")
		if deviceID == "" || secretKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing X-Device-ID or X-Secret-Key header",
			})
			c.Abort()
			return
		}

		device, err := m.devices.GetByDeviceID(c.Request.Context(), deviceID)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid device credentials"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up device"})
			}
			c.Abort()
			return
		}

		if !provisioning.VerifySecretKey(device, secretKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid device credentials"})
			c.Abort()
			return
		}

		c.Set(deviceContextKey, device)
		c.Next()
	}
}

// GetDeviceFromGinContext returns the authenticated device placed by Authenticate
func GetDeviceFromGinContext(c *gin.Context) (*siomodels.Device, bool) {
	value, exists := c.Get(deviceContextKey)
	if !exists {
		return nil, false
	}
	device, ok := value.(*siomodels.Device)
	return device, ok
}

// ServiceAuthMiddleware validates service-to-service authentication
func ServiceAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing Authorization header",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Expected 'Bearer <token>'",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Empty token"})
			c.Abort()
			return
		}

		expectedSecret := os.Getenv("INTERNAL_API_SECRET")
		if expectedSecret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal API secret not configured",
			})
			c.Abort()
			return
		}

		if token != expectedSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid service token"})
			c.Abort()
			return
		}

		c.Set("service_auth", true)
		c.Next()
	}
}
