package ports

import "github.com/wavecap/wavecap/internal/domain"

// RecordDecoder parses a raw payload into a Record.
// Malformed input returns an error wrapping domain.ErrMalformedPayload.
type RecordDecoder interface {
	Decode(payload []byte) (domain.Record, error)
}
