package listener

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siorouter "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Router"
)

// Listener owns the MQTT connection and feeds inbound messages to the router.
// Messages are handled synchronously in the paho callback with ordering
// enabled, so updates from a single device connection apply in arrival order.
type Listener struct {
	cfg        config.MQTTConfig
	router     *siorouter.Router
	mqttClient mqtt.Client
	logger     *logger.Logger
}

func New(cfg config.MQTTConfig, router *siorouter.Router, log *logger.Logger) *Listener {
	return &Listener{
		cfg:    cfg,
		router: router,
		logger: log.WithComponent("listener"),
	}
}

func (l *Listener) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(l.cfg.BrokerURL()).
		SetClientID(l.cfg.ClientID).
		SetOrderMatters(true).
		SetKeepAlive(l.cfg.KeepAlive).
		SetPingTimeout(l.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if l.cfg.BrokerUser != "" {
		opts.SetUsername(l.cfg.BrokerUser)
		opts.SetPassword(l.cfg.BrokerPass)
	}

	if l.cfg.UseTLS {
		tlsCfg, err := tlsConfig(l.cfg.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		l.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		for _, topic := range l.router.SubscriptionTopics() {
			l.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
			if token := c.Subscribe(topic, 1, l.onMessage(ctx)); token.Wait() && token.Error() != nil {
				l.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
			}
		}
	}

	l.mqttClient = mqtt.NewClient(opts)
	if tk := l.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	return nil
}

func (l *Listener) Stop() {
	if l.mqttClient != nil && l.mqttClient.IsConnected() {
		l.mqttClient.Disconnect(500)
	}
}

func (l *Listener) IsConnected() bool {
	return l.mqttClient != nil && l.mqttClient.IsConnected()
}

// Client exposes the underlying connection for outbound publishes
func (l *Listener) Client() mqtt.Client {
	return l.mqttClient
}

func (l *Listener) onMessage(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		l.logger.Logger.Debug().Str("topic", m.Topic()).Str("payload", string(m.Payload())).Msg("Received MQTT message")
		l.router.HandleMessage(ctx, m.Topic(), m.Payload())
	}
}

func tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
