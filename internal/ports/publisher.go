package ports

import "context"

// Publisher publishes a single message and waits for it to be acknowledged
// according to the configured QoS.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
