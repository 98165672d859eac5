// Package wavecap provides an embeddable ultrasonic inspection recorder.
//
// wavecap subscribes to a probe's MQTT topic, averages consecutive
// inspection messages and writes each average to measurement, ascan and
// spectrum files. It can be used as the wavecap CLI or embedded as a library.
//
// # Basic Usage
//
//	cfg := wavecap.DefaultConfig()
//	cfg.Broker = "tcp://probe.local:1883"
//	cfg.AverageCount = 16
//	cfg.Record = true
//
//	rec, err := wavecap.New(cfg, wavecap.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rec.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	<-rec.Done()
//
// Start connects to the broker, publishes the instrument settings and
// returns; consumption runs in the background until the broker connection
// ends, the context is canceled or Stop is called. The partial batch is
// averaged and written in every case.
//
// # Lifecycle States
//
// An instance is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. A run that ends because the broker
// closed the stream moves through Stopping to Stopped.
//
// # Dependency Injection
//
// The broker and the file outputs can be replaced for tests or embedding:
//
//	rec, err := wavecap.New(cfg,
//	    wavecap.WithSource(src),
//	    wavecap.WithPublisher(pub),
//	    wavecap.WithSinks(wavecap.Sink{Name: "memory", Sink: mem}),
//	)
package wavecap
