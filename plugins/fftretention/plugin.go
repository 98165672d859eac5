// Package fftretention bounds the disk space taken by per-record FFT files.
// Every averaged ascan produces a new dataFFT file, so a long recording
// grows the output directory without limit. When enabled, the plugin
// periodically removes the oldest FFT files once their total size exceeds
// a high watermark.
package fftretention

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wavecap/wavecap/internal/adapters/fs"
	"github.com/wavecap/wavecap/pkg/log"
	"github.com/wavecap/wavecap/pkg/wavecap"
)

// Plugin removes old FFT files from the output directory.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	checkInterval time.Duration
	highWatermark int64
	lowWatermark  int64

	// Runtime state
	dir     string
	logger  wavecap.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	removed int
}

// Config holds configuration options for the FFT retention plugin.
type Config struct {
	// CheckInterval is how often to check the FFT files.
	// Default: 1 minute
	CheckInterval time.Duration

	// HighWatermark is the total size in bytes above which removal begins.
	HighWatermark int64

	// LowWatermark is the target size in bytes after removal.
	// Default: 3/4 of HighWatermark
	LowWatermark int64
}

const defaultCheckInterval = time.Minute

// New creates a retention plugin. A zero HighWatermark disables it.
func New(cfg Config) *Plugin {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark > cfg.HighWatermark {
		cfg.LowWatermark = cfg.HighWatermark / 4 * 3
	}

	return &Plugin{
		checkInterval: cfg.CheckInterval,
		highWatermark: cfg.HighWatermark,
		lowWatermark:  cfg.LowWatermark,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "fftretention"
}

// Initialize starts the retention loop over the recorder's output directory.
func (p *Plugin) Initialize(ctx context.Context, cfg wavecap.PluginConfig) error {
	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}

	p.mu.Lock()
	p.dir = dir
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.logger == nil {
		p.logger = log.NoopLogger{}
	}

	if p.highWatermark <= 0 {
		p.logger.Debug("fft retention disabled")
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("fft retention enabled",
		log.String("dir", dir),
		log.Int64("high_watermark", p.highWatermark),
		log.Int64("low_watermark", p.lowWatermark),
	)

	p.wg.Add(1)
	go p.loop(loopCtx)

	return nil
}

// Shutdown stops the retention loop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Removed returns the number of files removed so far.
func (p *Plugin) Removed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.removed
}

func (p *Plugin) loop(ctx context.Context) {
	defer p.wg.Done()

	p.enforce(ctx)

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.enforce(ctx)
		}
	}
}

// enforce performs a single check.
func (p *Plugin) enforce(ctx context.Context) {
	p.mu.RLock()
	dir := p.dir
	p.mu.RUnlock()

	files, total, err := fftFiles(dir)
	if err != nil {
		p.logger.Error("fft retention: list failed", log.Err(err))
		return
	}
	if total <= p.highWatermark {
		return
	}

	var count int
	var freed int64
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if total <= p.lowWatermark {
			break
		}
		if err := os.Remove(f.path); err != nil {
			p.logger.Error("fft retention: remove failed", log.String("path", f.path), log.Err(err))
			continue
		}
		total -= f.size
		freed += f.size
		count++
	}

	if count > 0 {
		p.mu.Lock()
		p.removed += count
		p.mu.Unlock()
		p.logger.Info("fft retention completed",
			log.Int("files_removed", count),
			log.Int64("bytes_freed", freed),
		)
	}
}

type fftFile struct {
	path    string
	size    int64
	modTime time.Time
}

// fftFiles lists dataFFT files in dir, oldest first, and their total size.
// A directory that does not exist yet holds no files.
func fftFiles(dir string) ([]fftFile, int64, error) {
	ents, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var files []fftFile
	var total int64
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, fs.PrefixFFT+"_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed concurrently.
			continue
		}
		files = append(files, fftFile{path: filepath.Join(dir, name), size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].path < files[j].path
	})
	return files, total, nil
}

var _ wavecap.Plugin = (*Plugin)(nil)
