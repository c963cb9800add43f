package api_models

// ProvisionRequest is the body of POST /api/v1/device/provision
type ProvisionRequest struct {
	DeviceID  string `json:"device_id" binding:"required"`
	SecretKey string `json:"secret_key" binding:"required"`
}

// ConnectionConfig is the MQTT connection block returned to a device.
// Password is a single-use token; only its sha256 hash is kept server-side.
type ConnectionConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	TLS      bool   `json:"tls"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// TopicMap lists the topics a device publishes and subscribes to
type TopicMap struct {
	DataIn  string `json:"data_in"`
	DataOut string `json:"data_out"`
	CmdUp   string `json:"cmd_up"`
	CmdDown string `json:"cmd_down"`
	Status  string `json:"status"`
}

// VariableDeclaration describes one cloud variable to the device sketch
type VariableDeclaration struct {
	Name         string `json:"name"`
	VariableName string `json:"variable_name"`
	Type         string `json:"type"`
	Permission   string `json:"permission"`
	Declaration  string `json:"declaration"`
}

// ProvisionResponse is the full provisioning handshake response
type ProvisionResponse struct {
	DeviceID  string                `json:"device_id"`
	ThingUUID string                `json:"thing_uuid,omitempty"`
	MQTT      ConnectionConfig      `json:"mqtt"`
	Topics    TopicMap              `json:"topics"`
	Variables []VariableDeclaration `json:"variables"`
}

// DeviceConfigResponse is returned by GET /api/v1/device/config
type DeviceConfigResponse struct {
	DeviceID  string                `json:"device_id"`
	Name      string                `json:"name"`
	Status    string                `json:"status"`
	ThingUUID string                `json:"thing_uuid,omitempty"`
	ThingName string                `json:"thing_name,omitempty"`
	Variables []VariableDeclaration `json:"variables"`
}

// HeartbeatResponse is returned by POST /api/v1/device/heartbeat
type HeartbeatResponse struct {
	Status         string `json:"status"`
	LastActivityAt string `json:"last_activity_at"`
}
