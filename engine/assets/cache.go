package assets

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

type loadCall[T any] struct {
	done    chan struct{}
	waiters int32
	dropped bool
	handle  *Handle[T]
	err     error
}

/**
 * @brief Maps canonical paths to the handles loaded from them. Entries are
 * back-references only: a handle whose last reference was released is
 * removed the next time its path is looked up. Concurrent misses on the
 * same path share one load.
 */
type cache[T any] struct {
	name    string
	loader  Loader[T]
	metrics *core.CacheMetrics

	mu       sync.Mutex
	entries  map[string]*Handle[T]
	inflight map[string]*loadCall[T]
}

func newCache[T any](name string, loader Loader[T], metrics *core.CacheMetrics) *cache[T] {
	return &cache[T]{
		name:     name,
		loader:   loader,
		metrics:  metrics,
		entries:  make(map[string]*Handle[T]),
		inflight: make(map[string]*loadCall[T]),
	}
}

/**
 * @brief Returns a new reference to the resource at path, loading it with
 * load when no live handle exists. load runs without the cache lock held.
 */
func (c *cache[T]) get(path string, load func(path string) (T, error)) (*Handle[T], error) {
	c.mu.Lock()
	if h, ok := c.entries[path]; ok {
		if h.Acquire() {
			c.mu.Unlock()
			c.metrics.Hit()
			return h, nil
		}
		delete(c.entries, path)
		c.metrics.Expire()
	}
	if call, ok := c.inflight[path]; ok {
		// the reference is reserved now so the loader cannot drop the handle first
		call.waiters++
		c.mu.Unlock()
		<-call.done
		if call.err != nil {
			return nil, call.err
		}
		c.metrics.Hit()
		return call.handle, nil
	}
	call := &loadCall[T]{done: make(chan struct{})}
	c.inflight[path] = call
	c.mu.Unlock()

	c.metrics.Miss()
	value, err := c.load(path, load)

	c.mu.Lock()
	if c.inflight[path] == call {
		delete(c.inflight, path)
	}
	if err != nil {
		c.metrics.Fail()
		call.err = err
	} else {
		c.metrics.Load()
		call.handle = newHandle(path, value, 1+call.waiters, c.loader.Unload)
		if !call.dropped {
			c.entries[path] = call.handle
		}
	}
	c.mu.Unlock()
	close(call.done)

	if err != nil {
		return nil, err
	}
	core.LogDebug("%s '%s' loaded (%s)", c.name, path, call.handle.ID())
	return call.handle, nil
}

// load runs fn and turns a panic into an error so waiters are always released.
func (c *cache[T]) load(path string, fn func(path string) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("%s '%s' loader panicked: %v", c.name, path, r)
			core.LogError(err.Error())
		}
	}()
	return fn(path)
}

// lookup returns the live handle of path without adding a reference.
func (c *cache[T]) lookup(path string) (*Handle[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[path]
	if !ok || !h.Alive() {
		return nil, false
	}
	return h, true
}

// invalidate forgets path. A load of path still in flight is not cached.
func (c *cache[T]) invalidate(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, found := c.entries[path]
	delete(c.entries, path)
	if call, ok := c.inflight[path]; ok {
		call.dropped = true
		delete(c.inflight, path)
		found = true
	}
	return found
}

// clear forgets every entry. Handles already given out stay valid.
func (c *cache[T]) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	for _, call := range c.inflight {
		call.dropped = true
	}
	c.entries = make(map[string]*Handle[T])
	c.inflight = make(map[string]*loadCall[T])
	return n
}

// len counts the entries, dead ones included until they are looked up.
func (c *cache[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
