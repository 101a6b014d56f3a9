// Package filecache keeps the latest content of a fixed set of artifact files
// in memory, reloading a file when its modification time advances.
package filecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tradepulse/internal/metrics"
)

var (
	// ErrStopTimeout is returned by Stop when the watcher did not exit in time.
	ErrStopTimeout = errors.New("filecache: watcher did not stop in time")
	ErrNotTracked  = errors.New("filecache: artifact not tracked")
)

// Version identifies one loaded revision of an artifact. Zero means nothing
// has been loaded yet.
type Version int64

// ReloadFunc is called after an artifact's version changed.
type ReloadFunc func(name string, version Version)

type Config struct {
	Dir          string
	Names        []string
	PollInterval time.Duration
	// FSNotify adds filesystem event hints on top of polling.
	FSNotify bool
}

type entry struct {
	content any
	modTime time.Time
	version Version
}

// ArtifactStatus describes one tracked artifact.
type ArtifactStatus struct {
	Name    string    `json:"name"`
	Loaded  bool      `json:"loaded"`
	Version Version   `json:"version"`
	ModTime time.Time `json:"mod_time"`
}

type Cache struct {
	cfg     Config
	tracked map[string]bool

	mu      sync.RWMutex
	entries map[string]*entry

	// reloadMu serializes reloads between the watcher loop and Invalidate.
	reloadMu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []ReloadFunc

	// pending holds the newest undelivered version per artifact, in
	// first-queued order; the dispatcher drains it.
	pendingMu    sync.Mutex
	pending      map[string]Version
	queue        []string
	wake         chan struct{}
	dispatchOnce sync.Once
	dispatching  atomic.Bool
	dispatchDone chan struct{}

	metrics *metrics.Cache
	logger  *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	started   bool
}

func New(cfg Config, m *metrics.Cache, logger *zap.Logger) *Cache {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	tracked := make(map[string]bool, len(cfg.Names))
	for _, n := range cfg.Names {
		tracked[n] = true
	}
	return &Cache{
		cfg:     cfg,
		tracked: tracked,
		entries: make(map[string]*entry),
		metrics: m,
		logger:  logger.Named("filecache"),
		pending:      make(map[string]Version),
		wake:         make(chan struct{}, 1),
		dispatchDone: make(chan struct{}),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// OnReload registers fn to run after version changes. Hooks run in order on
// a dispatcher goroutine, never on the watcher; a hook that falls behind sees
// only the newest version of each artifact.
func (c *Cache) OnReload(fn ReloadFunc) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Start launches the watcher. The first poll happens immediately.
func (c *Cache) Start() {
	c.startOnce.Do(func() {
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()

		events := c.watchEvents()
		go c.run(events)
	})
}

// Stop signals the watcher and the hook dispatcher and waits up to timeout
// for both to exit.
func (c *Cache) Stop(timeout time.Duration) error {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started && !c.dispatching.Load() {
		return nil
	}

	c.stopOnce.Do(func() { close(c.stop) })

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	if started {
		select {
		case <-c.done:
		case <-timer.C:
			return ErrStopTimeout
		}
	}
	if c.dispatching.Load() {
		select {
		case <-c.dispatchDone:
		case <-timer.C:
			return ErrStopTimeout
		}
	}
	return nil
}

func (c *Cache) run(events <-chan string) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	c.poll()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.poll()
		case name, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := c.Invalidate(name); err != nil && !errors.Is(err, os.ErrNotExist) {
				c.logger.Debug("event reload failed", zap.String("artifact", name), zap.Error(err))
			}
		}
	}
}

// poll reloads every artifact whose modification time moved forward.
func (c *Cache) poll() {
	for _, name := range c.cfg.Names {
		select {
		case <-c.stop:
			return
		default:
		}
		if _, err := c.reload(name, false); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("reload failed", zap.String("artifact", name), zap.Error(err))
		}
	}
}

// Invalidate reloads name immediately, even when its modification time has
// not changed since the last load.
func (c *Cache) Invalidate(name string) error {
	if !c.tracked[name] {
		return fmt.Errorf("%w: %s", ErrNotTracked, name)
	}
	_, err := c.reload(name, true)
	return err
}

func (c *Cache) reload(name string, force bool) (bool, error) {
	version, err := c.load(name, force)
	if err != nil || version == 0 {
		return false, err
	}
	c.notify(name, version)
	return true, nil
}

// load refreshes one entry and returns its new version, or 0 when nothing
// changed.
func (c *Cache) load(name string, force bool) (Version, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	path := filepath.Join(c.cfg.Dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	c.mu.RLock()
	prev := c.entries[name]
	c.mu.RUnlock()
	if !force && prev != nil && !info.ModTime().After(prev.modTime) {
		return 0, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		// vanished between stat and read; the next poll retries
		return 0, err
	}

	content := c.decode(name, raw)

	next := Version(info.ModTime().UnixMilli())
	if prev != nil && next <= prev.version {
		next = prev.version + 1
	}

	c.mu.Lock()
	c.entries[name] = &entry{content: content, modTime: info.ModTime(), version: next}
	c.mu.Unlock()

	c.metrics.Reloaded(name)
	c.logger.Debug("reloaded", zap.String("artifact", name), zap.Int64("version", int64(next)))
	return next, nil
}

// decode parses structured artifacts; text artifacts are kept as strings.
// Unparseable content is stored as absent.
func (c *Cache) decode(name string, raw []byte) any {
	if !strings.HasSuffix(name, ".json") {
		return string(raw)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		c.metrics.ParseFailed(name)
		c.logger.Warn("invalid content", zap.String("artifact", name), zap.Error(err))
		return nil
	}
	return v
}


// Get returns the latest content of name. Structured artifacts hold decoded
// JSON values; text artifacts hold a string.
func (c *Cache) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok || e.content == nil {
		return nil, false
	}
	return e.content, true
}

// GetVersioned returns content and version from the same reload.
func (c *Cache) GetVersioned(name string) (any, Version) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, 0
	}
	return e.content, e.version
}

// Clear drops all loaded content and modification times so the next poll
// reloads every artifact. Version tokens keep their last value as a floor.
func (c *Cache) Clear() {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, e := range c.entries {
		c.entries[name] = &entry{version: e.version}
	}
}

// Names lists the tracked artifacts.
func (c *Cache) Names() []string {
	return append([]string(nil), c.cfg.Names...)
}

func (c *Cache) Status() []ArtifactStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ArtifactStatus, 0, len(c.cfg.Names))
	for _, n := range c.cfg.Names {
		s := ArtifactStatus{Name: n}
		if e, ok := c.entries[n]; ok {
			s.Loaded = e.content != nil
			s.Version = e.version
			s.ModTime = e.modTime
		}
		out = append(out, s)
	}
	return out
}
