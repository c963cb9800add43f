package controllers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	api_models "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models/api"
	provisioning "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Provisioning"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
)

// ProvisionController handles the device provisioning handshake
type ProvisionController struct {
	deviceRepo  interfaces.DeviceRepository
	thingRepo   interfaces.ThingRepository
	provisioner *provisioning.Service
	logger      *logger.Logger
}

// NewProvisionController creates a new provision controller
func NewProvisionController(deviceRepo interfaces.DeviceRepository, thingRepo interfaces.ThingRepository, provisioner *provisioning.Service, logger *logger.Logger) *ProvisionController {
	return &ProvisionController{
		deviceRepo:  deviceRepo,
		thingRepo:   thingRepo,
		provisioner: provisioner,
		logger:      logger,
	}
}

// RegisterRoutes registers the provisioning routes with Gin
func (c *ProvisionController) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/v1/device/provision", c.Provision)
}

// Provision authenticates a device by its secret key and hands back the MQTT
// connection config, topic map and variable declarations it needs to connect
func (c *ProvisionController) Provision(ctx *gin.Context) {
	var req api_models.ProvisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := c.deviceRepo.GetByDeviceID(ctx.Request.Context(), req.DeviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid device credentials"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !provisioning.VerifySecretKey(device, req.SecretKey) {
		c.logger.Logger.Warn().Str("device_id", req.DeviceID).Msg("Provisioning rejected: secret key mismatch")
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid device credentials"})
		return
	}

	connection, err := c.provisioner.GenerateConnectionConfig(ctx.Request.Context(), device)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to generate connection config")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		return
	}

	if _, _, err := c.deviceRepo.TransitionStatus(ctx.Request.Context(), device.DeviceID, siomodels.DeviceProvisioning, true); err != nil {
		c.logger.ErrorWithError(err, "Failed to mark device provisioning")
	}

	response := api_models.ProvisionResponse{
		DeviceID: device.DeviceID,
		MQTT:     connection,
	}

	thing, err := c.thingRepo.GetByDeviceRecordID(ctx.Request.Context(), device.ID)
	switch {
	case err == sql.ErrNoRows:
		response.Topics = provisioning.GenerateTopics("", device.DeviceID)
	case err != nil:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	default:
		response.ThingUUID = thing.UUID
		response.Topics = provisioning.GenerateTopics(thing.UUID, device.DeviceID)
		response.Variables = provisioning.VariableDeclarations(thing.Variables)
	}

	c.logger.Logger.Info().Str("device_id", device.DeviceID).Msg("Device provisioned")
	ctx.JSON(http.StatusOK, response)
}
