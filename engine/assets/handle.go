package assets

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

/**
 * @brief A reference-counted owner of a loaded resource.
 *
 * Every successful Get on the AssetManager hands out one reference, and
 * every reference must be given back with Release. The resource is
 * unloaded exactly once, by the Release that drops the count to zero.
 * A handle whose count reached zero can never be revived.
 */
type Handle[T any] struct {
	id    uuid.UUID
	path  string
	value T

	refs   atomic.Int32
	unload func(T) error
	once   sync.Once
}

func newHandle[T any](path string, value T, refs int32, unload func(T) error) *Handle[T] {
	h := &Handle[T]{
		id:     uuid.New(),
		path:   path,
		value:  value,
		unload: unload,
	}
	h.refs.Store(refs)
	return h
}

func (h *Handle[T]) ID() uuid.UUID {
	return h.id
}

// Path returns the canonical path the resource was loaded from.
func (h *Handle[T]) Path() string {
	return h.path
}

// Get returns the resource. It must not be used after the caller released its reference.
func (h *Handle[T]) Get() T {
	return h.value
}

func (h *Handle[T]) Refs() int32 {
	return h.refs.Load()
}

// Alive reports whether at least one reference is outstanding.
func (h *Handle[T]) Alive() bool {
	return h.refs.Load() > 0
}

// Acquire adds a reference, failing once the handle is dead.
func (h *Handle[T]) Acquire() bool {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return false
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

/**
 * @brief Gives back one reference. The last one unloads the resource.
 * @return ErrHandleReleased when no reference was outstanding, or the
 * unload error.
 */
func (h *Handle[T]) Release() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return core.ErrHandleReleased
		}
		if h.refs.CompareAndSwap(n, n-1) {
			if n > 1 {
				return nil
			}
			break
		}
	}
	var err error
	h.once.Do(func() {
		if h.unload == nil {
			return
		}
		if uerr := h.unload(h.value); uerr != nil {
			err = fmt.Errorf("failed to unload '%s' (%s): %w", h.path, h.id, uerr)
			core.LogError(err.Error())
			return
		}
		core.LogDebug("unloaded '%s' (%s)", h.path, h.id)
	})
	return err
}
