// Package mqtt holds the edge-side MQTT connection used for trigger
// subscription, status acknowledgements, and result listening.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/repositories"
	"github.com/sitewatch/sitewatch/internal/retry"
)

// QoS 1 on every subscribe and publish: triggering is at-least-once.
const qos byte = 1

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Options configures the client connection.
type Options struct {
	BrokerURL string
	ClientID  string

	// Mutual-TLS material; all three paths empty means plain TCP.
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string

	ConnectRetries int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
}

// Client wraps a paho connection. The initial connect is bounded and fatal on
// exhaustion; later connection losses are healed by paho's auto-reconnect,
// which also restores subscriptions.
type Client struct {
	client pahomqtt.Client
	logger *zap.Logger
	opts   Options
}

// NewClient builds the client without connecting.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	pahoOpts := pahomqtt.NewClientOptions()
	pahoOpts.AddBroker(opts.BrokerURL)
	pahoOpts.SetClientID(opts.ClientID)
	pahoOpts.SetAutoReconnect(true)
	pahoOpts.SetMaxReconnectInterval(opts.BackoffCap)
	pahoOpts.SetCleanSession(false)
	pahoOpts.SetOrderMatters(false)

	if opts.CACertPath != "" {
		tlsConfig, err := newTLSConfig(opts.CACertPath, opts.ClientCertPath, opts.ClientKeyPath)
		if err != nil {
			return nil, err
		}
		pahoOpts.SetTLSConfig(tlsConfig)
	}

	pahoOpts.OnConnect = func(c pahomqtt.Client) {
		logger.Info("mqtt connection established",
			zap.String("broker", opts.BrokerURL),
			zap.String("clientId", opts.ClientID))
	}
	pahoOpts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost, auto-reconnect engaged",
			zap.String("broker", opts.BrokerURL),
			zap.Error(err))
	}

	return &Client{
		client: pahomqtt.NewClient(pahoOpts),
		logger: logger,
		opts:   opts,
	}, nil
}

// Connect dials the broker with bounded exponential backoff. Exhaustion is
// returned to the caller, which treats it as fatal so the host supervisor can
// restart the process.
func (c *Client) Connect(ctx context.Context) error {
	attempt := 0
	err := retry.Do(ctx, c.opts.BackoffBase, c.opts.BackoffCap, c.opts.ConnectRetries, func() error {
		attempt++
		token := c.client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			c.logger.Warn("mqtt connect timed out",
				zap.Int("attempt", attempt),
				zap.String("broker", c.opts.BrokerURL))
			return fmt.Errorf("mqtt connect timeout")
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("mqtt connect failed",
				zap.Int("attempt", attempt),
				zap.String("broker", c.opts.BrokerURL),
				zap.Error(err))
			return fmt.Errorf("mqtt connect: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mqtt connect retries exhausted: %w", err)
	}
	return nil
}

// Subscribe registers a handler on the topic at QoS 1.
func (c *Client) Subscribe(topic string, handler repositories.MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	c.logger.Info("subscribed", zap.String("topic", topic))
	return nil
}

// Publish sends one message at QoS 1 with a bounded wait.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	token := c.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Disconnect closes the connection, allowing in-flight work to drain.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.logger.Info("mqtt disconnected", zap.String("broker", c.opts.BrokerURL))
}

func newTLSConfig(caPath, certPath, keyPath string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("CA cert %s: no certificates found", caPath)
	}

	config := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}

	if certPath != "" && keyPath != "" {
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return nil, fmt.Errorf("load client keypair: %w", err)
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}
