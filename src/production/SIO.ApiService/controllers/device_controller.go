package controllers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.ApiService/middleware"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	api_models "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models/api"
	provisioning "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Provisioning"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
)

// DeviceController serves configuration and heartbeat endpoints to
// authenticated devices
type DeviceController struct {
	deviceRepo interfaces.DeviceRepository
	thingRepo  interfaces.ThingRepository
	logger     *logger.Logger
	deviceAuth *middleware.DeviceAuthMiddleware
}

// NewDeviceController creates a new device controller
func NewDeviceController(deviceRepo interfaces.DeviceRepository, thingRepo interfaces.ThingRepository, logger *logger.Logger, deviceAuth *middleware.DeviceAuthMiddleware) *DeviceController {
	return &DeviceController{
		deviceRepo: deviceRepo,
		thingRepo:  thingRepo,
		logger:     logger,
		deviceAuth: deviceAuth,
	}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router *gin.Engine) {
	device := router.Group("/api/v1/device", c.deviceAuth.Authenticate())
	{
		device.GET("/config", c.GetConfig)
		device.POST("/heartbeat", c.Heartbeat)
	}
}

// GetConfig returns the authenticated device's thing and variable declarations
func (c *DeviceController) GetConfig(ctx *gin.Context) {
	device, ok := middleware.GetDeviceFromGinContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "device not authenticated"})
		return
	}

	response := api_models.DeviceConfigResponse{
		DeviceID: device.DeviceID,
		Name:     device.Name,
		Status:   string(device.Status),
	}

	thing, err := c.thingRepo.GetByDeviceRecordID(ctx.Request.Context(), device.ID)
	if err != nil && err != sql.ErrNoRows {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err == nil {
		response.ThingUUID = thing.UUID
		response.ThingName = thing.Name
		response.Variables = provisioning.VariableDeclarations(thing.Variables)
	}

	ctx.JSON(http.StatusOK, response)
}

// Heartbeat refreshes the device's last activity timestamp
func (c *DeviceController) Heartbeat(ctx *gin.Context) {
	device, ok := middleware.GetDeviceFromGinContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "device not authenticated"})
		return
	}

	now := time.Now().UTC()
	if err := c.deviceRepo.UpdateLastActivity(ctx.Request.Context(), device.ID, now); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, api_models.HeartbeatResponse{
		Status:         string(device.Status),
		LastActivityAt: now.Format(time.RFC3339),
	})
}
