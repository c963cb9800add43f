package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.ApiService/middleware"
	publisher "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Publisher"
)

// InternalController exposes server-initiated MQTT publishes to trusted
// backend services
type InternalController struct {
	publisher *publisher.Publisher
}

// NewInternalController creates a new internal controller
func NewInternalController(pub *publisher.Publisher) *InternalController {
	return &InternalController{publisher: pub}
}

// RegisterRoutes registers the internal routes with Gin
func (c *InternalController) RegisterRoutes(router *gin.Engine) {
	internal := router.Group("/internal", middleware.ServiceAuthMiddleware())
	{
		internal.POST("/things/:thing_uuid/values", c.PublishValues)
		internal.POST("/devices/:device_id/command", c.PublishCommand)
	}
}

type publishValuesRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}

// PublishValues pushes variable values down to a thing over data/in
func (c *InternalController) PublishValues(ctx *gin.Context) {
	thingUUID := ctx.Param("thing_uuid")

	var req publishValuesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.publisher.PublishToThing(thingUUID, req.Values); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"queued": true})
}

type publishCommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// PublishCommand sends a command to a device over cmd/down
func (c *InternalController) PublishCommand(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	var req publishCommandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.publisher.PublishCommand(deviceID, req.Command); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"queued": true})
}
