package provisioning

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	api_models "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models/api"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
	siorouter "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Router"
)

const (
	// MetadataTokenKey is the device metadata key holding the sha256 hash of
	// the current broker token
	MetadataTokenKey = "mqtt_token"

	tokenLength     = 64
	secretKeyLength = 32

	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Service produces broker credentials and topic maps for devices
type Service struct {
	devices interfaces.DeviceRepository
	cfg     config.MQTTConfig
	logger  *logger.Logger
}

func NewService(devices interfaces.DeviceRepository, cfg config.MQTTConfig, log *logger.Logger) *Service {
	return &Service{
		devices: devices,
		cfg:     cfg,
		logger:  log.WithComponent("provisioning"),
	}
}

// VerifySecretKey checks a plaintext secret against the stored bcrypt hash
func VerifySecretKey(device *siomodels.Device, secretKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(device.SecretKey), []byte(secretKey)) == nil
}

// GenerateSecretKey mints a device secret; the plaintext is returned exactly
// once, only its bcrypt hash is stored.
func GenerateSecretKey() (plain string, hash string, err error) {
	plain, err = randomString(secretKeyLength)
	if err != nil {
		return "", "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash secret key: %w", err)
	}

	return plain, string(hashed), nil
}

// GenerateConnectionConfig mints a single-use broker token for a device and
// records its sha256 hash in the device metadata. The plaintext token leaves
// the server only inside the returned config.
func (s *Service) GenerateConnectionConfig(ctx context.Context, device *siomodels.Device) (api_models.ConnectionConfig, error) {
	token, err := randomString(tokenLength)
	if err != nil {
		return api_models.ConnectionConfig{}, err
	}

	digest := sha256.Sum256([]byte(token))
	if err := s.devices.SetMetadata(ctx, device.ID, MetadataTokenKey, hex.EncodeToString(digest[:])); err != nil {
		return api_models.ConnectionConfig{}, fmt.Errorf("failed to store broker token hash: %w", err)
	}

	return api_models.ConnectionConfig{
		Host:     s.cfg.BrokerHost,
		Port:     s.cfg.BrokerPort,
		TLS:      s.cfg.UseTLS,
		ClientID: device.DeviceID,
		Username: device.DeviceID,
		Password: token,
	}, nil
}

// VerifyBrokerToken checks a presented token against the stored hash
func VerifyBrokerToken(device *siomodels.Device, token string) bool {
	stored, ok := device.GetMetadata(MetadataTokenKey)
	if !ok {
		return false
	}
	storedHash, ok := stored.(string)
	if !ok {
		return false
	}

	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:]) == storedHash
}

// GenerateTopics derives the topic map for a device. Data topics address the
// thing, command and status topics address the device, matching what the
// router consumes.
func GenerateTopics(thingUUID, deviceID string) api_models.TopicMap {
	if thingUUID == "" {
		thingUUID = "unassigned"
	}

	return api_models.TopicMap{
		DataIn:  fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, thingUUID, siorouter.ChannelDataIn),
		DataOut: fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, thingUUID, siorouter.ChannelDataOut),
		CmdUp:   fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, deviceID, siorouter.ChannelCmdUp),
		CmdDown: fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, deviceID, siorouter.ChannelCmdDown),
		Status:  fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, deviceID, siorouter.ChannelStatus),
	}
}

// VariableDeclarations renders the sketch declarations for a thing's variables
func VariableDeclarations(variables []siomodels.CloudVariable) []api_models.VariableDeclaration {
	declarations := make([]api_models.VariableDeclaration, 0, len(variables))
	for i := range variables {
		v := &variables[i]
		declarations = append(declarations, api_models.VariableDeclaration{
			Name:         v.Name,
			VariableName: v.VariableName,
			Type:         string(v.Type),
			Permission:   string(v.Permission),
			Declaration:  v.Declaration(),
		})
	}
	return declarations
}

func randomString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
