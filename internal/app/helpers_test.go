package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/pkg/log"
)

// mockLogger records warnings for assertions.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (*mockLogger) Debug(msg string, fields ...log.Field) {}
func (*mockLogger) Info(msg string, fields ...log.Field)  {}
func (*mockLogger) Error(msg string, fields ...log.Field) {}

func (m *mockLogger) Warn(msg string, fields ...log.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.warns...)
}

// sliceSource yields payloads in order, then err (io.EOF by default).
type sliceSource struct {
	payloads [][]byte
	err      error
	closed   bool
}

func newSliceSource(payloads ...string) *sliceSource {
	s := &sliceSource{}
	for _, p := range payloads {
		s.payloads = append(s.payloads, []byte(p))
	}
	return s
}

func (s *sliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.payloads) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	p := s.payloads[0]
	s.payloads = s.payloads[1:]
	return p, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// tableDecoder maps payload strings to records; unknown payloads are malformed.
type tableDecoder map[string]domain.Record

func (d tableDecoder) Decode(payload []byte) (domain.Record, error) {
	rec, ok := d[string(payload)]
	if !ok {
		return domain.Record{}, domain.ErrMalformedPayload
	}
	return rec, nil
}

// memorySink stores written records.
type memorySink struct {
	records []domain.AveragedRecord
	closed  bool
	err     error
}

func (s *memorySink) Write(_ context.Context, rec domain.AveragedRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

// mockPublisher records published messages and can fail on a topic.
type mockPublisher struct {
	published []domain.InstrumentMessage
	failOn    string
}

func (p *mockPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	if topic == p.failOn {
		return errors.New("broker refused")
	}
	p.published = append(p.published, domain.InstrumentMessage{Topic: topic, Payload: string(payload)})
	return nil
}

// memoryStatus stores the last saved status.
type memoryStatus struct {
	saved []domain.RunStatus
}

func (m *memoryStatus) Load(context.Context) (domain.RunStatus, error) {
	return domain.RunStatus{}, nil
}

func (m *memoryStatus) Save(_ context.Context, s domain.RunStatus) error {
	m.saved = append(m.saved, s)
	return nil
}

// countingEmitter counts events.
type countingEmitter struct {
	NoopEmitter
	received, decodeErrors, rejected, sinkErrors int
	emitted                                      []bool
}

func (c *countingEmitter) OnMessageReceived()        { c.received++ }
func (c *countingEmitter) OnDecodeError(error)       { c.decodeErrors++ }
func (c *countingEmitter) OnWaveformRejected(error)  { c.rejected++ }
func (c *countingEmitter) OnSinkError(string, error) { c.sinkErrors++ }

func (c *countingEmitter) OnRecordEmitted(_ domain.AveragedRecord, partial bool) {
	c.emitted = append(c.emitted, partial)
}

// scalar builds a record with a single named slot-1 value.
func scalar(name string, v float64) domain.Record {
	var r domain.Record
	r.SetScalar(1, name, v)
	return r
}
