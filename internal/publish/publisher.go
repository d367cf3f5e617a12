package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ironsheep/gauge-reader/internal/config"
	"github.com/ironsheep/gauge-reader/internal/gauge"
)

// Transport delivers a payload to a topic.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
	Close()
}

// Payload is the JSON body of every message.
type Payload struct {
	ID         string    `json:"id"`
	Gauge      string    `json:"gauge"`
	Value      float64   `json:"value"`
	Label      string    `json:"label"`
	CapturedAt time.Time `json:"captured_at"`
}

// Publisher applies a Policy and sends what it allows.
type Publisher struct {
	transport Transport
	topic     string
	policy    *Policy
}

// New returns a Publisher sending to topic/value and topic/alert.
func New(t Transport, topic string, policy *Policy) *Publisher {
	return &Publisher{transport: t, topic: topic, policy: policy}
}

// Handle evaluates r and publishes it when the policy allows.
func (p *Publisher) Handle(ctx context.Context, r gauge.Reading) (Verdict, error) {
	v := p.policy.Evaluate(r)
	if v.Suspicious {
		log.Printf("suspicious reading %s from %s: %s", r.ID, r.Gauge, v.Reason)
	}
	if !v.Publish {
		return v, nil
	}

	body, err := json.Marshal(Payload{
		ID:         r.ID,
		Gauge:      r.Gauge,
		Value:      r.Value,
		Label:      string(r.Label),
		CapturedAt: r.CapturedAt,
	})
	if err != nil {
		return v, fmt.Errorf("failed to encode payload: %w", err)
	}

	if err := p.transport.Publish(ctx, p.topic+"/value", body, true); err != nil {
		return v, fmt.Errorf("failed to publish value: %w", err)
	}
	if v.Alert {
		if err := p.transport.Publish(ctx, p.topic+"/alert", body, false); err != nil {
			// Unlatch so the next reading above the threshold retries.
			p.policy.Clear()
			return v, fmt.Errorf("failed to publish alert: %w", err)
		}
		log.Printf("alert sent for %s: %s", r.Gauge, v.Reason)
	}
	return v, nil
}

// Close releases the transport.
func (p *Publisher) Close() { p.transport.Close() }

// NewPolicy returns the policy configured in cfg.
func NewPolicy(cfg config.PublishConfig) *Policy {
	return &Policy{
		Threshold:    cfg.Threshold,
		PlausibleMin: cfg.PlausibleMin,
		PlausibleMax: cfg.PlausibleMax,
	}
}

// FromConfig connects to the configured broker. It returns nil, nil when
// publishing is disabled.
func FromConfig(cfg config.PublishConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	t, err := DialMQTT(cfg)
	if err != nil {
		return nil, err
	}
	return New(t, cfg.Topic, NewPolicy(cfg)), nil
}
