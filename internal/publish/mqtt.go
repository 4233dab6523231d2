package publish

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/monorkin/soleklart/internal/airquality"
)

const (
	DEFAULT_TOPIC_PREFIX = "soleklart"
	PUBLISH_TIMEOUT      = 5 * time.Second
)

type MQTT struct {
	client      mqtt.Client
	broker      string
	topicPrefix string
	logger      *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// ClientID returns a broker-unique client id.
func ClientID() string {
	return "soleklart-" + uuid.NewString()
}

func NewMQTT(broker, topicPrefix string, logger *slog.Logger) *MQTT {
	c := &MQTT{
		broker:      broker,
		topicPrefix: topicPrefix,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(ClientID())
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", broker)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect waits for the initial connection while respecting ctx and
// Disconnect.
func (c *MQTT) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return fmt.Errorf("client stopped")
	default:
	}

	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return fmt.Errorf("client stopped")
		default:
		}
	}
}

func (c *MQTT) Name() string {
	return "mqtt"
}

// Publish stores the reading as the retained message of the station topic.
func (c *MQTT) Publish(_ context.Context, reading airquality.Reading) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := encode(reading, time.Now())
	if err != nil {
		return err
	}

	topic := Topic(c.topicPrefix, reading.StationID)

	token := c.client.Publish(topic, 1, true, data)
	if !token.WaitTimeout(PUBLISH_TIMEOUT) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}

	c.logger.Debug("published reading", "topic", topic, "station_id", reading.StationID)
	return nil
}

func (c *MQTT) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the client. It is safe to call more than once.
func (c *MQTT) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	if c.client != nil {
		c.client.Disconnect(250)
	}

	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *MQTT) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
