package mqttreport

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// PahoClient publishes through the Eclipse Paho client. Unlike Client it
// reconnects on its own after the broker goes away, at the cost of a much
// larger footprint; it is meant for hosts, not microcontrollers.
type PahoClient struct {
	client  paho.Client
	timeout time.Duration
}

// DialPaho connects to broker (host:port) and keeps the connection up until
// Close.
func DialPaho(broker, clientID string, timeout time.Duration) (*PahoClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := paho.NewClientOptions().
		AddBroker("tcp://" + broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)
	client := paho.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqttreport: connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttreport: connect %s: %w", broker, err)
	}
	return &PahoClient{client: client, timeout: timeout}, nil
}

// Publish sends payload to topic with QoS 0.
func (c *PahoClient) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(c.timeout) {
		return errors.New("mqttreport: publish: timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqttreport: publish: %w", err)
	}
	return nil
}

func (c *PahoClient) Close() error {
	c.client.Disconnect(250)
	return nil
}
