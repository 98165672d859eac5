package ports

import (
	"context"
	"io"
)

// MessageSource yields raw message payloads in arrival order.
type MessageSource interface {
	// Next blocks until a payload is available.
	// Returns io.EOF once the stream has ended (broker disconnect or Close).
	// Returns ctx.Err() if the context is canceled first.
	Next(ctx context.Context) ([]byte, error)

	// Close ends the stream and releases the connection.
	Close() error
}

// ErrEndOfStream signals that no more messages will arrive.
var ErrEndOfStream = io.EOF
