package mqtt

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecap/wavecap/pkg/log"
)

type fakeToken struct {
	done    chan struct{}
	err     error
	session bool
}

func completed(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pending() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) SessionPresent() bool           { return t.session }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient implements the parts of paho.Client the adapter uses.
type fakeClient struct {
	paho.Client

	opts       *paho.ClientOptions
	connectTok *fakeToken
	publishTok *fakeToken
	subscribed []string
	published  []published
	connected  bool
	quiesce    uint
}

func (f *fakeClient) Connect() paho.Token {
	f.connected = f.connectTok.err == nil
	return f.connectTok
}

func (f *fakeClient) Subscribe(topic string, _ byte, _ paho.MessageHandler) paho.Token {
	f.subscribed = append(f.subscribed, topic)
	return completed(nil)
}

func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	f.published = append(f.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	if f.publishTok != nil {
		return f.publishTok
	}
	return completed(nil)
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Disconnect(quiesce uint) {
	f.connected = false
	f.quiesce = quiesce
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func newTestClient(fake *fakeClient) *Client {
	c := NewClient(Config{
		Broker:         DefaultBroker,
		ClientID:       DefaultClientID,
		Topic:          DefaultTopic,
		QoS:            DefaultQoS,
		ConnectTimeout: time.Second,
		PublishTimeout: time.Second,
		Buffer:         4,
	}, log.NoopLogger{})
	c.newClient = func(opts *paho.ClientOptions) paho.Client {
		fake.opts = opts
		return fake
	}
	return c
}

func TestConnect_SubscribesWithoutSession(t *testing.T) {
	fake := &fakeClient{connectTok: completed(nil)}
	c := newTestClient(fake)

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, []string{DefaultTopic}, fake.subscribed)
	assert.False(t, fake.opts.CleanSession)
	assert.False(t, fake.opts.AutoReconnect)
	assert.Equal(t, DefaultClientID, fake.opts.ClientID)
	assert.NotNil(t, fake.opts.DefaultPublishHandler)
}

func TestConnect_SkipsSubscribeWithSession(t *testing.T) {
	tok := completed(nil)
	tok.session = true
	fake := &fakeClient{connectTok: tok}
	c := newTestClient(fake)

	require.NoError(t, c.Connect(context.Background()))
	assert.Empty(t, fake.subscribed)
}

func TestConnect_Errors(t *testing.T) {
	refused := errors.New("connection refused")

	t.Run("broker error", func(t *testing.T) {
		c := newTestClient(&fakeClient{connectTok: completed(refused)})
		err := c.Connect(context.Background())
		assert.ErrorIs(t, err, refused)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(&fakeClient{connectTok: pending()})
		c.cfg.ConnectTimeout = 10 * time.Millisecond
		err := c.Connect(context.Background())
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("context canceled", func(t *testing.T) {
		c := newTestClient(&fakeClient{connectTok: pending()})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := c.Connect(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNext_DeliversInOrderThenEOFAfterConnectionLost(t *testing.T) {
	fake := &fakeClient{connectTok: completed(nil)}
	c := newTestClient(fake)
	require.NoError(t, c.Connect(context.Background()))

	c.onMessage(fake, fakeMessage{topic: DefaultTopic, payload: []byte("a")})
	c.onMessage(fake, fakeMessage{topic: DefaultTopic, payload: []byte("b")})
	lost := errors.New("eof from broker")
	c.onConnectionLost(fake, lost)

	ctx := context.Background()
	p, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", string(p))
	p, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", string(p))

	_, err = c.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, c.Err(), lost)
}

func TestNext_CopiesPayload(t *testing.T) {
	fake := &fakeClient{connectTok: completed(nil)}
	c := newTestClient(fake)

	buf := []byte("xyz")
	c.onMessage(fake, fakeMessage{payload: buf})
	buf[0] = 'Q'

	p, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(p))
}

func TestNext_ContextCanceled(t *testing.T) {
	c := newTestClient(&fakeClient{connectTok: completed(nil)})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOnMessage_DoesNotBlockAfterClose(t *testing.T) {
	fake := &fakeClient{connectTok: completed(nil)}
	c := newTestClient(fake)
	require.NoError(t, c.Connect(context.Background()))

	for i := 0; i < c.cfg.Buffer; i++ {
		c.onMessage(fake, fakeMessage{payload: []byte{byte(i)}})
	}
	require.NoError(t, c.Close())

	// Buffer is full and the stream has ended: must not block.
	c.onMessage(fake, fakeMessage{payload: []byte("late")})
	assert.False(t, fake.connected)
	assert.Equal(t, uint(disconnectQuiesce), fake.quiesce)
}

func TestNext_KeepsMessagesBlockedWhenConnectionLost(t *testing.T) {
	fake := &fakeClient{connectTok: completed(nil)}
	c := newTestClient(fake)
	require.NoError(t, c.Connect(context.Background()))

	for i := 0; i < c.cfg.Buffer; i++ {
		c.onMessage(fake, fakeMessage{payload: []byte{byte('0' + i)}})
	}

	// The buffer is full, so this delivery waits until the connection drops.
	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		c.onMessage(fake, fakeMessage{payload: []byte("blocked")})
	}()
	c.onConnectionLost(fake, errors.New("broker gone"))
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("onMessage still blocked after connection lost")
	}
	c.onMessage(fake, fakeMessage{payload: []byte("late")})

	ctx := context.Background()
	var got []string
	for {
		p, err := c.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, string(p))
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "blocked", "late"}, got)
}

func TestPublish(t *testing.T) {
	fake := &fakeClient{connectTok: completed(nil)}
	c := newTestClient(fake)

	assert.ErrorIs(t, c.Publish(context.Background(), "t", nil), ErrNotConnected)

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Publish(context.Background(), "mscope/config/probeFrequency", []byte(`{"value":"5"}`)))
	require.Len(t, fake.published, 1)
	assert.Equal(t, "mscope/config/probeFrequency", fake.published[0].topic)
	assert.Equal(t, byte(DefaultQoS), fake.published[0].qos)

	fake.publishTok = completed(errors.New("not authorized"))
	assert.Error(t, c.Publish(context.Background(), "t", []byte("x")))
}

func TestRouteLibraryLogs(t *testing.T) {
	rec := &recordingLogger{}
	RouteLibraryLogs(rec)
	defer func() {
		paho.CRITICAL = paho.NOOPLogger{}
		paho.ERROR = paho.NOOPLogger{}
		paho.WARN = paho.NOOPLogger{}
	}()

	paho.ERROR.Printf("boom %d", 1)
	paho.WARN.Println("careful")
	assert.Equal(t, []string{"boom 1"}, rec.errors)
	assert.Equal(t, []string{"careful"}, rec.warns)
}

type recordingLogger struct {
	log.NoopLogger
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...log.Field) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, _ ...log.Field)  { l.warns = append(l.warns, msg) }
