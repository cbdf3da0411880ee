// Package mqttpub publishes indoor readings to an MQTT broker.
package mqttpub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hamed0406/climatewatch/internal/domain"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// client is the subset of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	client  client
	topic   string
	timeout time.Duration
}

type message struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CapturedAt  uint32  `json:"captured_at_ms"`
}

// Dial connects to broker and returns a publisher for topic.
func Dial(broker, clientID, topic string, timeout time.Duration) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect %s: %w", broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	return newPublisher(c, topic, timeout), nil
}

func newPublisher(c client, topic string, timeout time.Duration) *Publisher {
	return &Publisher{client: c, topic: topic, timeout: timeout}
}

// PublishReading sends r with QoS 0, retained so new subscribers see the
// latest value. It waits at most the configured timeout.
func (p *Publisher) PublishReading(r domain.SensorReading) error {
	payload, err := json.Marshal(message{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		CapturedAt:  uint32(r.CapturedAt),
	})
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
