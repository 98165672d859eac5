// Package domain contains the core entities and value objects for wavecap.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (MQTT, file system, logging) and holds only the
// data shapes that flow between the ports.
//
// # Entities
//
//   - [Record]: one decoded inspection message (up to four scalar slots and an optional ascan)
//   - [AveragedRecord]: the output of one averaging batch
//   - [Spectrum]: frequency/magnitude bins computed from an averaged ascan
//   - [InstrumentMessage]: a configuration message published before consumption
//   - [RunStatus]: persisted progress of a run
package domain
