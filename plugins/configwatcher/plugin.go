// Package configwatcher republishes the instrument configuration when the
// instrument file changes, so probe settings can be edited during a run.
package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wavecap/wavecap/internal/cliconfig"
	"github.com/wavecap/wavecap/pkg/log"
	"github.com/wavecap/wavecap/pkg/wavecap"
)

// Plugin watches the instrument file and republishes its messages.
type Plugin struct {
	mu sync.Mutex

	retryInterval time.Duration
	debounceDelay time.Duration

	path      string
	publisher wavecap.Publisher
	logger    wavecap.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	published int
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// RetryInterval is the delay between republish attempts on failure.
	// Default: 5 seconds
	RetryInterval time.Duration

	// DebounceDelay is the quiet period after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: 5 * time.Second,
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		retryInterval: cfg.RetryInterval,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching cfg.InstrumentFile. Without an instrument file
// or a publisher the plugin stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg wavecap.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.InstrumentFile
	p.publisher = cfg.Publisher
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.logger == nil {
		p.logger = log.NoopLogger{}
	}
	if p.path == "" || p.publisher == nil {
		p.logger.Warn("config watcher disabled: no instrument file or publisher")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher started", log.String("file", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and waits for an in-flight republish to end.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Published returns how many times the instrument list was republished.
func (p *Plugin) Published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(p.debounceDelay)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(p.debounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			p.reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

// reload reads the instrument file and republishes it, retrying publish
// failures until ctx ends. A file that does not parse is skipped until the
// next change.
func (p *Plugin) reload(ctx context.Context) {
	msgs, err := cliconfig.LoadInstrumentFile(p.path)
	if err != nil {
		p.logger.Error("config watcher: instrument file rejected", log.Err(err))
		return
	}

	for attempt := 1; ; attempt++ {
		err := p.publishAll(ctx, msgs)
		if err == nil {
			p.mu.Lock()
			p.published++
			p.mu.Unlock()
			p.logger.Info("config watcher: instrument configuration republished",
				log.Int("messages", len(msgs)),
				log.Int("attempts", attempt),
			)
			return
		}

		p.logger.Error("config watcher: republish failed", log.Err(err), log.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			p.logger.Info("config watcher: stopping retry due to context cancellation")
			return
		case <-time.After(p.retryInterval):
		}
	}
}

func (p *Plugin) publishAll(ctx context.Context, msgs []wavecap.InstrumentMessage) error {
	for _, m := range msgs {
		if err := p.publisher.Publish(ctx, m.Topic, []byte(m.Payload)); err != nil {
			return fmt.Errorf("publish %s: %w", m.Topic, err)
		}
	}
	return nil
}

var _ wavecap.Plugin = (*Plugin)(nil)
