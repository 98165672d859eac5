// Package mqtt connects to the inspection broker. The Client is both the
// message source for the agent and the publisher for instrument settings.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/wavecap/wavecap/pkg/log"
)

// Defaults.
const (
	DefaultBroker         = "mqtt://192.168.1.73:1883"
	DefaultClientID       = "wavecap"
	DefaultTopic          = "inspection/ascan"
	DefaultQoS            = 1
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = 5 * time.Second
	DefaultBuffer         = 64

	disconnectQuiesce = 250 // milliseconds
)

var (
	// ErrNotConnected is returned when the client is used before Connect.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrTimeout is returned when the broker does not acknowledge in time.
	ErrTimeout = errors.New("mqtt: operation timed out")
)

// Config holds connection settings.
type Config struct {
	Broker         string
	ClientID       string
	Topic          string
	QoS            byte
	ConnectTimeout time.Duration
	PublishTimeout time.Duration

	// Buffer is the number of received messages held before the
	// delivery callback blocks.
	Buffer int
}

// sessionToken is implemented by the connect token.
type sessionToken interface {
	SessionPresent() bool
}

// Client wraps a paho client with a persistent session.
//
// Received payloads are queued in order. Payloads that arrive once the stream
// has ended go to an overflow list, since paho has already acknowledged them.
// When the connection is lost Next drains the queue, then the overflow, and
// then reports io.EOF.
type Client struct {
	cfg       Config
	logger    log.Logger
	newClient func(*paho.ClientOptions) paho.Client

	client paho.Client
	msgs   chan []byte

	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	lostErr  error
	overflow [][]byte
}

// NewClient creates an unconnected client.
func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	return &Client{
		cfg:       cfg,
		logger:    logger,
		newClient: paho.NewClient,
		msgs:      make(chan []byte, cfg.Buffer),
		done:      make(chan struct{}),
	}
}

// Connect opens the session and subscribes when the broker holds no
// session for this client id.
func (c *Client) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.Broker).
		SetClientID(c.cfg.ClientID).
		SetCleanSession(false).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOrderMatters(true).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		// Installed before connecting so queued session messages are routed.
		SetDefaultPublishHandler(c.onMessage).
		SetConnectionLostHandler(c.onConnectionLost)

	c.client = c.newClient(opts)

	c.logger.Info("connecting to broker",
		log.String("broker", c.cfg.Broker),
		log.String("client_id", c.cfg.ClientID),
	)
	tok := c.client.Connect()
	if err := wait(ctx, tok, c.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("connect %s: %w", c.cfg.Broker, err)
	}

	if st, ok := tok.(sessionToken); ok && st.SessionPresent() {
		c.logger.Info("session present, keeping subscription", log.String("topic", c.cfg.Topic))
		return nil
	}

	sub := c.client.Subscribe(c.cfg.Topic, c.cfg.QoS, nil)
	if err := wait(ctx, sub, c.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.cfg.Topic, err)
	}
	c.logger.Info("subscribed", log.String("topic", c.cfg.Topic), log.Int("qos", int(c.cfg.QoS)))
	return nil
}

// Next returns the next payload. Buffered payloads are returned before
// io.EOF once the connection has ended.
func (c *Client) Next(ctx context.Context) ([]byte, error) {
	select {
	case p := <-c.msgs:
		return p, nil
	default:
	}

	select {
	case p := <-c.msgs:
		return p, nil
	case <-c.done:
		select {
		case p := <-c.msgs:
			return p, nil
		default:
		}
		if p, ok := c.popOverflow(); ok {
			return p, nil
		}
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Publish sends one message and waits for the broker acknowledgement.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if c.client == nil {
		return ErrNotConnected
	}
	tok := c.client.Publish(topic, c.cfg.QoS, false, payload)
	if err := wait(ctx, tok, c.cfg.PublishTimeout); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.logger.Debug("published", log.String("topic", topic), log.Int("bytes", len(payload)))
	return nil
}

// Err returns the reason the connection was lost, if it was.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lostErr
}

// Close ends the stream and disconnects.
func (c *Client) Close() error {
	c.finish()
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(disconnectQuiesce)
	}
	return nil
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	// Once ended, everything goes to the overflow to keep arrival order.
	select {
	case <-c.done:
		c.pushOverflow(payload, msg.Topic())
		return
	default:
	}
	select {
	case c.msgs <- payload:
	case <-c.done:
		c.pushOverflow(payload, msg.Topic())
	}
}

func (c *Client) pushOverflow(payload []byte, topic string) {
	c.mu.Lock()
	c.overflow = append(c.overflow, payload)
	n := len(c.overflow)
	c.mu.Unlock()
	c.logger.Debug("message after stream end kept in overflow",
		log.String("topic", topic), log.Int("pending", n))
}

func (c *Client) popOverflow() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.overflow) == 0 {
		return nil, false
	}
	p := c.overflow[0]
	c.overflow = c.overflow[1:]
	return p, true
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.mu.Lock()
	c.lostErr = err
	c.mu.Unlock()
	c.logger.Error("connection lost", log.Err(err))
	c.finish()
}

func (c *Client) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

// wait blocks until tok completes, ctx ends or timeout elapses.
// A non-positive timeout waits without limit.
func wait(ctx context.Context, tok paho.Token, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return ErrTimeout
	}
}
