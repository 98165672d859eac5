package domain

import "time"

// RunStatus is the persisted progress of a run.
// It is saved after each emitted record when a status directory is configured.
type RunStatus struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`

	MessagesReceived uint64 `json:"messages_received"`
	DecodeErrors     uint64 `json:"decode_errors"`
	WaveformRejected uint64 `json:"waveform_rejected"`
	RecordsEmitted   uint64 `json:"records_emitted"`

	ScalarNames    []string  `json:"scalar_names,omitempty"`
	WaveformLength int       `json:"waveform_length,omitempty"`
	LastEmitAt     time.Time `json:"last_emit_at"`
}

// IsEmpty returns true if the status has not been initialized.
func (s RunStatus) IsEmpty() bool {
	return s.RunID == ""
}

// RecordEmitted updates the status after a record has been written.
func (s *RunStatus) RecordEmitted(rec AveragedRecord) {
	s.RecordsEmitted++
	s.ScalarNames = rec.Names()
	if rec.HasWaveform() {
		s.WaveformLength = len(rec.Waveform)
	}
	s.LastEmitAt = rec.EmittedAt
}
