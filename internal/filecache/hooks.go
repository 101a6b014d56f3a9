package filecache

// notify queues a version change for the hooks and returns immediately.
func (c *Cache) notify(name string, v Version) {
	c.hooksMu.RLock()
	n := len(c.hooks)
	c.hooksMu.RUnlock()
	if n == 0 {
		return
	}

	c.pendingMu.Lock()
	if _, queued := c.pending[name]; !queued {
		c.queue = append(c.queue, name)
	}
	c.pending[name] = v
	c.pendingMu.Unlock()

	c.dispatchOnce.Do(func() {
		c.dispatching.Store(true)
		go c.dispatch()
	})
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Cache) dispatch() {
	defer close(c.dispatchDone)
	for {
		select {
		case <-c.stop:
			return
		case <-c.wake:
		}
		for {
			name, v, ok := c.next()
			if !ok {
				break
			}
			c.hooksMu.RLock()
			hooks := append([]ReloadFunc(nil), c.hooks...)
			c.hooksMu.RUnlock()
			for _, fn := range hooks {
				fn(name, v)
			}
			select {
			case <-c.stop:
				return
			default:
			}
		}
	}
}

func (c *Cache) next() (string, Version, bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if len(c.queue) == 0 {
		return "", 0, false
	}
	name := c.queue[0]
	c.queue = c.queue[1:]
	v := c.pending[name]
	delete(c.pending, name)
	return name, v, true
}
