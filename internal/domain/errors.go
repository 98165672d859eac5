package domain

import "errors"

// Domain errors represent error conditions in the wavecap domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("wavecap: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("wavecap: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("wavecap: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("wavecap: invalid configuration")

	// ErrMalformedPayload is returned by decoders for payloads that cannot be
	// turned into a Record. The message is dropped.
	ErrMalformedPayload = errors.New("wavecap: malformed payload")

	// ErrWaveformLengthMismatch is reported when an ascan length differs from
	// the latched length. Only the waveform contribution is discarded.
	ErrWaveformLengthMismatch = errors.New("wavecap: waveform length mismatch")

	// ErrEmptyWaveform is returned when a spectrum is requested for no samples.
	ErrEmptyWaveform = errors.New("wavecap: empty waveform")

	// ErrSinkUnavailable is returned when a sink cannot open its output.
	ErrSinkUnavailable = errors.New("wavecap: sink unavailable")
)
