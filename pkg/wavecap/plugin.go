package wavecap

import "context"

// Plugin extends a Recorder with optional behavior.
// Plugins are initialized in registration order when the recorder starts
// and shut down in reverse order when it stops.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin gets to work with.
type PluginConfig struct {
	RunID          string
	InstrumentFile string

	// OutputDir is where recorded files go. Empty means the working directory.
	OutputDir string

	// Publisher sends messages to the instrument. Nil when the recorder
	// runs without one.
	Publisher Publisher

	Logger Logger
}
