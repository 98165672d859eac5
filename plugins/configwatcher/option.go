package configwatcher

import "github.com/wavecap/wavecap/pkg/wavecap"

// WithConfigWatcher returns a wavecap Option that republishes the instrument
// configuration whenever the configured instrument file changes.
//
// Usage:
//
//	rec, err := wavecap.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        RetryInterval: 5 * time.Second,
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) wavecap.Option {
	return wavecap.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher enables config watching with default settings
// (retry every 5s, debounce 100ms).
func WithDefaultConfigWatcher() wavecap.Option {
	return WithConfigWatcher(DefaultConfig())
}
