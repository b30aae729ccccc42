// Package telemetry publishes codec lifecycle events (schema reloads,
// decode/encode warnings and errors) to an MQTT broker for external
// monitoring.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/teracodec-project/teracodec/internal/config"
	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("telemetry")

// MQTT topic suffixes, joined onto the configured topic prefix.
const (
	TopicAdmin  = "admin"
	TopicSchema = "schema"
	TopicDecode = "decode"
	TopicEncode = "encode"
)

// MQTTHandler manages the MQTT connection and publishes telemetry events.
type MQTTHandler struct {
	mu sync.Mutex

	cfg      *config.Config
	eventBus *events.EventBus
	client   mqtt.Client
	topic    string

	// Metadata included in every message.
	metadata map[string]interface{}
}

// NewMQTTHandler creates a new MQTT telemetry handler.
func NewMQTTHandler(cfg *config.Config, eventBus *events.EventBus) (*MQTTHandler, error) {
	telemetryCfg := cfg.TelemetryData

	if !telemetryCfg.Enabled {
		return nil, fmt.Errorf("telemetry is disabled")
	}

	sysInfo := util.GetSystemInfo()
	metadata := map[string]interface{}{
		"hostname":    sysInfo.Hostname,
		"platform":    sysInfo.Platform,
		"cpu_cores":   sysInfo.CPUCores,
		"app_version": "1.0.0",
	}

	handler := &MQTTHandler{
		cfg:      cfg,
		eventBus: eventBus,
		metadata: metadata,
		topic:    telemetryCfg.Topic,
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if telemetryCfg.UseTLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, telemetryCfg.BrokerURL, telemetryCfg.Port))

	if telemetryCfg.ClientID != "" {
		opts.SetClientID(telemetryCfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("teracodec-%s", sysInfo.Hostname))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	if telemetryCfg.UseTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		if telemetryCfg.CertFile != "" && telemetryCfg.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(telemetryCfg.CertFile, telemetryCfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load MQTT TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Msg("MQTT connected")
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	handler.client = mqtt.NewClient(opts)

	return handler, nil
}

// Ping reports whether the client currently holds a live connection,
// used by the health manager.
func (h *MQTTHandler) Ping() error {
	if !h.client.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker")
	}
	return nil
}

// Start connects to the MQTT broker and subscribes to codec lifecycle
// events. Blocks until ctx is cancelled.
func (h *MQTTHandler) Start(ctx context.Context) error {
	log.Info().
		Str("broker", h.cfg.TelemetryData.BrokerURL).
		Int("port", h.cfg.TelemetryData.Port).
		Msg("connecting to MQTT broker")

	token := h.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	h.subscribeEvents()

	<-ctx.Done()

	h.publishShutdown()
	h.client.Disconnect(5000)
	log.Info().Msg("MQTT disconnected")

	return nil
}

func (h *MQTTHandler) subscribeEvents() {
	h.eventBus.Subscribe(events.EventSchemaReloaded, "mqtt.schemaReloaded", h.onSchemaReloaded)
	h.eventBus.Subscribe(events.EventDecodeWarning, "mqtt.decodeWarning", h.onDecodeWarning)
	h.eventBus.Subscribe(events.EventDecodeError, "mqtt.decodeError", h.onDecodeError)
	h.eventBus.Subscribe(events.EventEncodeError, "mqtt.encodeError", h.onEncodeError)
}

func (h *MQTTHandler) publish(suffix string, payload interface{}) {
	if !h.client.IsConnected() {
		return
	}

	msg := h.buildMessage(payload)
	data, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Str("topic", suffix).Msg("failed to marshal MQTT message")
		return
	}

	topic := h.topic + "/" + suffix
	token := h.client.Publish(topic, 1, false, data) // QoS 1
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

func (h *MQTTHandler) buildMessage(payload interface{}) map[string]interface{} {
	msg := make(map[string]interface{})
	for k, v := range h.metadata {
		msg[k] = v
	}
	msg["payload"] = payload
	msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return msg
}

func (h *MQTTHandler) onSchemaReloaded(ctx context.Context, event events.Event) error {
	h.publish(TopicSchema, event.Payload)
	return nil
}

func (h *MQTTHandler) onDecodeWarning(ctx context.Context, event events.Event) error {
	h.publish(TopicDecode, event.Payload)
	return nil
}

func (h *MQTTHandler) onDecodeError(ctx context.Context, event events.Event) error {
	h.publish(TopicDecode, event.Payload)
	return nil
}

func (h *MQTTHandler) onEncodeError(ctx context.Context, event events.Event) error {
	h.publish(TopicEncode, event.Payload)
	return nil
}

func (h *MQTTHandler) publishShutdown() {
	h.publish(TopicAdmin, map[string]interface{}{
		"event":     "shutdown",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
