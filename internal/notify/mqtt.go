package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 10 * time.Second

// Publisher is the part of mqtt.Client used by the sink.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// NewMQTTClient connects to the broker that home speakers subscribe to.
func NewMQTTClient(brokerURL, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// MQTT publishes notifications as JSON. Audible prayer calls go to
// <prefix>/<user>/azan so a speaker can play the recording; everything else
// goes to <prefix>/<user>/notifications.
type MQTT struct {
	client Publisher
	prefix string
}

func NewMQTT(client Publisher, prefix string) *MQTT {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "nuhyi"
	}
	return &MQTT{client: client, prefix: prefix}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Topic(userID int64, n models.Notification) string {
	if n.Sound != "" && !n.Silent {
		return fmt.Sprintf("%s/%d/azan", m.prefix, userID)
	}
	return fmt.Sprintf("%s/%d/notifications", m.prefix, userID)
}

func (m *MQTT) Notify(_ context.Context, userID int64, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	token := m.client.Publish(m.Topic(userID, n), 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to MQTT")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to MQTT: %w", err)
	}
	return nil
}
