package mqttreport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

// DefaultTimeout bounds the connect handshake and every publish.
const DefaultTimeout = 5 * time.Second

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Client is a minimal publish-only MQTT connection.
type Client struct {
	conn    net.Conn
	timeout time.Duration

	mu       sync.Mutex
	mqtt     *mqtt.Client
	packetID uint16
}

// Dial connects to the broker at addr (host:port) and completes the MQTT
// CONNECT handshake. The handshake is bounded by ctx's deadline, or by
// DefaultTimeout when ctx has none.
func Dial(ctx context.Context, addr, clientID string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mqttreport: dial %s: %w", addr, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	c, err := connect(conn, clientID, deadline)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func connect(conn net.Conn, clientID string, deadline time.Time) (*Client, error) {
	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(clientID))

	conn.SetDeadline(deadline)
	if err := client.StartConnect(conn, &varconn); err != nil {
		return nil, fmt.Errorf("mqttreport: connect: %w", err)
	}
	for !client.IsConnected() {
		if err := client.HandleNext(); err != nil {
			return nil, fmt.Errorf("mqttreport: connect: %w", err)
		}
	}
	conn.SetDeadline(time.Time{})

	return &Client{conn: conn, timeout: DefaultTimeout, mqtt: client}, nil
}

// Publish sends payload to topic with QoS 0.
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mqtt.IsConnected() {
		err := c.mqtt.Err()
		if err == nil {
			err = errors.New("not connected")
		}
		return fmt.Errorf("mqttreport: publish: %w", err)
	}
	c.packetID++
	if c.packetID == 0 {
		c.packetID = 1
	}
	c.conn.SetDeadline(time.Now().Add(c.timeout))
	err := c.mqtt.PublishPayload(pubFlags, mqtt.VariablesPublish{
		TopicName:        []byte(topic),
		PacketIdentifier: c.packetID,
	}, payload)
	if err != nil {
		return fmt.Errorf("mqttreport: publish: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
