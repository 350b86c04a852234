// internal/mqtt/client.go

package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const opTimeout = 5 * time.Second

var ErrNotConnected = errors.New("mqtt: not connected to broker")

// Client wraps a paho connection. Subscriptions are remembered and restored
// after every reconnect; presence is announced on a retained topic with a
// matching last will.
type Client struct {
	client mqtt.Client
	cfg    *config.MQTTConfig
	log    *logger.Logger

	mu        sync.RWMutex
	subs      map[string]MessageHandler
	connected bool
	lastUp    time.Time
	lastDown  time.Time
}

type MessageHandler func(topic string, payload []byte) error

type ClientConfig struct {
	MQTT   *config.MQTTConfig
	Logger *logger.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.MQTT == nil || cfg.MQTT.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not configured")
	}

	c := &Client{
		cfg:  cfg.MQTT,
		log:  cfg.Logger,
		subs: make(map[string]MessageHandler),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.MQTT)).
		SetClientID(cfg.MQTT.ClientID).
		SetKeepAlive(cfg.MQTT.KeepAlive).
		SetPingTimeout(10 * time.Second).
		SetConnectTimeout(cfg.MQTT.ConnectTimeout).
		SetAutoReconnect(cfg.MQTT.AutoReconnect).
		SetCleanSession(true).
		SetWill(presenceTopic(cfg.MQTT), "offline", cfg.MQTT.QoS, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			c.log.Warn("Attempting to reconnect to MQTT broker...")
		})

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	c.client = mqtt.NewClient(opts)
	return c, nil
}

func brokerURL(cfg *config.MQTTConfig) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)
}

// presenceTopic sits next to the state topic, e.g. wildlife/elephant/state/presence.
func presenceTopic(cfg *config.MQTTConfig) string {
	return cfg.StateTopic + "/presence"
}

func wait(token mqtt.Token, timeout time.Duration, what string) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%s: timeout after %v", what, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (c *Client) Connect() error {
	c.log.Info("Connecting to MQTT broker: %s", brokerURL(c.cfg))

	if err := wait(c.client.Connect(), c.cfg.ConnectTimeout, "connect"); err != nil {
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.log.Info("Successfully connected to MQTT broker")
	return nil
}

// Disconnect withdraws presence and closes the connection.
func (c *Client) Disconnect() error {
	if c.IsConnected() {
		if err := c.publish(presenceTopic(c.cfg), []byte("offline"), true); err != nil {
			c.log.Warn("Failed to withdraw presence: %v", err)
		}
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Disconnect(250)
	c.log.Info("Disconnected from MQTT broker")
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Subscribe registers handler for filter. Wildcard filters are routed by the
// broker; each subscription gets its own callback.
func (c *Client) Subscribe(filter string, handler MessageHandler) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := c.subscribe(c.client, filter, handler); err != nil {
		return err
	}

	c.mu.Lock()
	c.subs[filter] = handler
	c.mu.Unlock()

	c.log.Info("Subscribed to %s (QoS %d)", filter, c.cfg.QoS)
	return nil
}

func (c *Client) subscribe(client mqtt.Client, filter string, handler MessageHandler) error {
	token := client.Subscribe(filter, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		c.log.Debug("Received %d bytes on %s", len(msg.Payload()), msg.Topic())
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.log.Error("Handler error for topic %s: %v", msg.Topic(), err)
		}
	})
	return wait(token, opTimeout, "subscribe "+filter)
}

func (c *Client) Publish(topic string, payload []byte) error {
	return c.publish(topic, payload, c.cfg.RetainMessages)
}

func (c *Client) publish(topic string, payload []byte, retain bool) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.log.Debug("Publishing %d bytes to %s", len(payload), topic)
	return wait(c.client.Publish(topic, c.cfg.QoS, retain, payload), opTimeout, "publish "+topic)
}

func (c *Client) PublishJSON(topic string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return c.Publish(topic, payload)
}

// onConnect runs on the paho goroutine for the first connect and every reconnect.
func (c *Client) onConnect(client mqtt.Client) {
	c.mu.Lock()
	c.connected = true
	c.lastUp = time.Now()
	subs := make(map[string]MessageHandler, len(c.subs))
	for filter, h := range c.subs {
		subs[filter] = h
	}
	c.mu.Unlock()

	c.log.Info("MQTT connection established")

	token := client.Publish(presenceTopic(c.cfg), c.cfg.QoS, true, "online")
	if err := wait(token, opTimeout, "announce presence"); err != nil {
		c.log.Warn("%v", err)
	}

	for filter, h := range subs {
		if err := c.subscribe(client, filter, h); err != nil {
			c.log.Error("Failed to restore subscription: %v", err)
		}
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.lastDown = time.Now()
	c.mu.Unlock()

	c.log.Error("MQTT connection lost: %v", err)
}
