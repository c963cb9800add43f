package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	sioqueue "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Queue"
	siorouter "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Router"
)

// Publisher sends server-initiated messages: variable writes to a thing's
// data/in topic and commands to a device's cmd/down topic. Publishes go
// through the task queue so broker hiccups are retried.
type Publisher struct {
	client mqtt.Client
	queue  *sioqueue.Queue
	logger *logger.Logger
}

func New(client mqtt.Client, queue *sioqueue.Queue, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		queue:  queue,
		logger: log.WithComponent("publisher"),
	}
}

// PublishToThing queues a write of variable values to a thing
func (p *Publisher) PublishToThing(thingUUID string, values map[string]interface{}) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal values: %w", err)
	}

	topic := fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, thingUUID, siorouter.ChannelDataIn)
	return p.enqueue(topic, payload)
}

// PublishCommand queues an opaque command string for a device
func (p *Publisher) PublishCommand(deviceID, command string) error {
	topic := fmt.Sprintf("%s/%s/%s", siorouter.TopicNamespace, deviceID, siorouter.ChannelCmdDown)
	return p.enqueue(topic, []byte(command))
}

func (p *Publisher) enqueue(topic string, payload []byte) error {
	task := sioqueue.TaskFunc{
		TaskName: "mqtt-publish:" + topic,
		Fn: func(ctx context.Context) error {
			return p.publish(topic, payload)
		},
	}
	return p.queue.Enqueue(task)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}

	p.logger.Logger.Debug().Str("topic", topic).Msg("Published message")
	return nil
}
