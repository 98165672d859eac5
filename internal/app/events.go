package app

import "github.com/wavecap/wavecap/internal/domain"

// EventEmitter receives per-message events from the agent loop.
// Calls are made synchronously from the consuming goroutine.
type EventEmitter interface {
	OnMessageReceived()
	OnDecodeError(err error)
	OnWaveformRejected(err error)
	OnBatchProgress(pending, batchSize int)
	OnRecordEmitted(rec domain.AveragedRecord, partial bool)
	OnSinkError(sink string, err error)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

func (NoopEmitter) OnMessageReceived()                          {}
func (NoopEmitter) OnDecodeError(error)                         {}
func (NoopEmitter) OnWaveformRejected(error)                    {}
func (NoopEmitter) OnBatchProgress(int, int)                    {}
func (NoopEmitter) OnRecordEmitted(domain.AveragedRecord, bool) {}
func (NoopEmitter) OnSinkError(string, error)                   {}

// MultiEmitter fans events out to several emitters in order.
type MultiEmitter []EventEmitter

func (m MultiEmitter) OnMessageReceived() {
	for _, e := range m {
		e.OnMessageReceived()
	}
}

func (m MultiEmitter) OnDecodeError(err error) {
	for _, e := range m {
		e.OnDecodeError(err)
	}
}

func (m MultiEmitter) OnWaveformRejected(err error) {
	for _, e := range m {
		e.OnWaveformRejected(err)
	}
}

func (m MultiEmitter) OnBatchProgress(pending, batchSize int) {
	for _, e := range m {
		e.OnBatchProgress(pending, batchSize)
	}
}

func (m MultiEmitter) OnRecordEmitted(rec domain.AveragedRecord, partial bool) {
	for _, e := range m {
		e.OnRecordEmitted(rec, partial)
	}
}

func (m MultiEmitter) OnSinkError(sink string, err error) {
	for _, e := range m {
		e.OnSinkError(sink, err)
	}
}
