package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// mqttPublisher mirrors daemon events onto an MQTT broker so home-automation
// setups can react to button presses and player state without speaking the
// daemon's own protocols.
//
// Two topics are used:
//
//	<prefix>/events  every daemon event, same JSON as the IPC socket, QoS 0
//	<prefix>/state   latest player state, retained, QoS 1
type mqttPublisher struct {
	client paho.Client
	prefix string
	logger *slog.Logger
}

// NewMQTTPublisher connects to the configured broker. The paho client keeps
// reconnecting on its own after the initial connect succeeds.
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) (*mqttPublisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "mediabuttond"
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "mediabuttond"
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	logger.Info("Connected to MQTT broker", "broker", cfg.Broker, "prefix", prefix)
	return &mqttPublisher{client: client, prefix: prefix, logger: logger}, nil
}

// publishEvent sends one daemon event on the events topic.
func (p *mqttPublisher) publishEvent(payload []byte) error {
	token := p.client.Publish(p.prefix+"/events", 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// publishState updates the retained state topic. QoS 1 so a broker restart
// race does not lose the latest state.
func (p *mqttPublisher) publishState(payload []byte) error {
	token := p.client.Publish(p.prefix+"/state", 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish state timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *mqttPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

// runMQTTBridge consumes one of the daemon's broadcast sinks and forwards
// each event to the broker. Publish failures are logged and skipped; the
// bridge must never stall the daemon because a broker is down.
func runMQTTBridge(ctx context.Context, pub *mqttPublisher, src <-chan Event, logger *slog.Logger) {
	logger.Info("MQTT bridge started")
	defer logger.Info("MQTT bridge stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}

			payload, err := MarshalEvent(ev)
			if err != nil {
				// Internal events have no wire form.
				continue
			}
			if err := pub.publishEvent(payload); err != nil {
				logger.Warn("MQTT event publish failed", "error", err)
			}

			if st, ok := ev.(PlayerStateObserved); ok {
				state, err := json.Marshal(struct {
					State string    `json:"state"`
					At    time.Time `json:"at"`
				}{State: st.State, At: st.At})
				if err != nil {
					continue
				}
				if err := pub.publishState(state); err != nil {
					logger.Warn("MQTT state publish failed", "error", err)
				}
			}
		}
	}
}
