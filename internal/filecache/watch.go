package filecache

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchEvents forwards create, write and rename events on tracked artifacts.
// It returns nil when hints are disabled or the watcher cannot be set up, in
// which case polling alone keeps the cache current.
func (c *Cache) watchEvents() <-chan string {
	if !c.cfg.FSNotify {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Warn("fsnotify unavailable, polling only", zap.Error(err))
		return nil
	}
	if err := w.Add(c.cfg.Dir); err != nil {
		c.logger.Warn("fsnotify watch failed, polling only", zap.String("dir", c.cfg.Dir), zap.Error(err))
		_ = w.Close()
		return nil
	}

	out := make(chan string, len(c.cfg.Names))
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-c.stop:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				name := filepath.Base(ev.Name)
				if !c.tracked[name] {
					continue
				}
				select {
				case out <- name:
				case <-c.stop:
					return
				default:
					// a reload for this burst is already queued; the poll covers the rest
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.logger.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
	return out
}
