package siorouter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
)

const (
	// TopicNamespace is the fixed first segment of every platform topic
	TopicNamespace = "smartiot"

	topicDelimiter = "/"

	ChannelDataOut = "data/out"
	ChannelDataIn  = "data/in"
	ChannelStatus  = "status"
	ChannelCmdUp   = "cmd/up"
	ChannelCmdDown = "cmd/down"
)

// StatusChangedHandler receives device presence transitions
type StatusChangedHandler func(ctx context.Context, event siomodels.DeviceStatusChanged)

// VariableUpdatedHandler receives applied variable updates, synchronously and
// in order; trigger dispatch hangs off this hook
type VariableUpdatedHandler func(ctx context.Context, event siomodels.CloudVariableUpdated)

// Router decodes inbound topic structure and drives the presence tracker and
// the variable update engine. It is intentionally lossy: malformed or
// unrecognized input is logged and dropped, never returned as an error.
type Router struct {
	devices   interfaces.DeviceRepository
	things    interfaces.ThingRepository
	variables interfaces.CloudVariableRepository
	readings  interfaces.ReadingRepository // optional value archive

	onStatusChanged   StatusChangedHandler
	onVariableUpdated VariableUpdatedHandler

	logger *logger.Logger
	now    func() time.Time
}

// New creates a message router over the given storage handles
func New(
	devices interfaces.DeviceRepository,
	things interfaces.ThingRepository,
	variables interfaces.CloudVariableRepository,
	log *logger.Logger,
) *Router {
	return &Router{
		devices:   devices,
		things:    things,
		variables: variables,
		logger:    log.WithComponent("router"),
		now:       time.Now,
	}
}

// WithReadingArchive enables best-effort archiving of persisted variables
func (r *Router) WithReadingArchive(readings interfaces.ReadingRepository) *Router {
	r.readings = readings
	return r
}

// OnStatusChanged registers the presence transition hook
func (r *Router) OnStatusChanged(fn StatusChangedHandler) {
	r.onStatusChanged = fn
}

// OnVariableUpdated registers the variable update hook
func (r *Router) OnVariableUpdated(fn VariableUpdatedHandler) {
	r.onVariableUpdated = fn
}

// SubscriptionTopics returns the wildcard topics the listener subscribes to
func (r *Router) SubscriptionTopics() []string {
	return []string{
		TopicNamespace + "/+/" + ChannelDataOut,
		TopicNamespace + "/+/" + ChannelCmdUp,
		TopicNamespace + "/+/" + ChannelStatus,
	}
}

// HandleMessage routes one inbound message by its topic. Data-quality
// problems are logged and swallowed; only the storage layer may fail loudly,
// and those failures are logged here as well.
func (r *Router) HandleMessage(ctx context.Context, topic string, payload []byte) {
	segments := strings.Split(topic, topicDelimiter)

	if len(segments) < 3 || segments[0] != TopicNamespace {
		r.logger.Logger.Debug().Str("topic", topic).Msg("Ignoring unrecognized topic")
		return
	}

	identifier := segments[1]
	channel := strings.Join(segments[2:], topicDelimiter)

	switch channel {
	case ChannelDataOut:
		r.handleDataOut(ctx, identifier, payload)
	case ChannelStatus:
		r.handleStatus(ctx, identifier, payload)
	case ChannelCmdUp:
		// Uplink commands are acknowledged but not yet actionable
		r.logger.Logger.Debug().Str("device_id", identifier).Str("payload", string(payload)).Msg("cmd/up received (not yet implemented)")
	default:
		r.logger.Logger.Debug().Str("topic", topic).Msg("Unknown channel")
	}
}

// handleDataOut decodes the variable batch and applies it to the thing
func (r *Router) handleDataOut(ctx context.Context, thingUUID string, payload []byte) {
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		r.logger.Logger.Warn().Str("thing_uuid", thingUUID).Str("payload", string(payload)).Msg("Invalid JSON on data/out")
		return
	}

	r.applyBatch(ctx, thingUUID, data)
}
