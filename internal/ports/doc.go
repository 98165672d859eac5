// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [MessageSource]: yields raw inspection payloads until end of stream
//   - [RecordDecoder]: turns a payload into a domain.Record
//   - [RecordSink]: persists averaged records
//   - [Publisher]: publishes instrument configuration messages
//   - [SpectrumAnalyzer]: computes the magnitude spectrum of an averaged ascan
//   - [StatusRepository]: persists run status
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with MQTT,
// JSON, file system and parquet backends.
package ports
