package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ironsheep/gauge-reader/internal/config"
)

// MQTT is a Transport over an MQTT broker.
type MQTT struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
}

// DialMQTT connects to the broker in cfg.
func DialMQTT(cfg config.PublishConfig) (*MQTT, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return &MQTT{client: client, qos: cfg.QoS, timeout: timeout}, nil
}

// Publish implements Transport.
func (m *MQTT) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	tok := m.client.Publish(topic, m.qos, retained, payload)
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return errors.New("mqtt publish timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, allowing in-flight messages a quarter second.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
