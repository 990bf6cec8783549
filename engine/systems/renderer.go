package systems

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

type RendererSystemConfig struct {
	ApplicationName string
	/** @brief The largest width or height a texture may have. 0 means unbounded. */
	MaxTextureSize uint32
}

/**
 * @brief Owns the graphics context. Every backend call runs on one goroutine
 * locked to its OS thread, in the order the calls were made. The methods
 * block until the call has run and are safe to use from any goroutine.
 */
type RendererSystem struct {
	Config  *RendererSystemConfig
	backend renderer.RendererBackend

	// guards stopped and sends on calls
	mu      sync.RWMutex
	stopped bool
	calls   chan func()
	done    chan struct{}
}

func NewRendererSystem(config *RendererSystemConfig, backend renderer.RendererBackend) (*RendererSystem, error) {
	if backend == nil {
		err := fmt.Errorf("func NewRendererSystem - backend cannot be nil")
		core.LogError(err.Error())
		return nil, err
	}
	r := &RendererSystem{
		Config:  config,
		backend: backend,
		calls:   make(chan func()),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

/**
 * @brief Initializes the backend on the render goroutine.
 */
func (r *RendererSystem) Initialize() error {
	return r.call(func() error {
		return r.backend.Initialize(&metadata.RendererBackendConfig{
			ApplicationName: r.Config.ApplicationName,
			MaxTextureSize:  r.Config.MaxTextureSize,
		})
	})
}

func (r *RendererSystem) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.done)

	for fn := range r.calls {
		fn()
	}
}

// call runs fn on the render goroutine and waits for it.
func (r *RendererSystem) call(fn func() error) error {
	r.mu.RLock()
	if r.stopped {
		r.mu.RUnlock()
		return core.ErrRendererStopped
	}
	result := make(chan error, 1)
	r.calls <- func() { result <- fn() }
	r.mu.RUnlock()
	return <-result
}

/**
 * @brief Shuts the backend down on the render goroutine and stops it.
 * Calls made afterwards return ErrRendererStopped.
 */
func (r *RendererSystem) Shutdown() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	result := make(chan error, 1)
	r.calls <- func() { result <- r.backend.Shutdown() }
	close(r.calls)
	r.mu.Unlock()

	err := <-result
	<-r.done
	if err != nil {
		core.LogError("renderer backend shutdown: %s", err)
	}
	return err
}

func (r *RendererSystem) Backend() renderer.RendererBackend {
	return r.backend
}

func (r *RendererSystem) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	return r.call(func() error { return r.backend.TextureCreate(pixels, texture) })
}

func (r *RendererSystem) TextureGenerateMipmaps(texture *metadata.Texture) error {
	return r.call(func() error { return r.backend.TextureGenerateMipmaps(texture) })
}

func (r *RendererSystem) TextureSetFilter(texture *metadata.Texture, filter metadata.TextureFilter) error {
	return r.call(func() error { return r.backend.TextureSetFilter(texture, filter) })
}

func (r *RendererSystem) TextureDestroy(texture *metadata.Texture) error {
	return r.call(func() error { return r.backend.TextureDestroy(texture) })
}

// TextureUpload runs the create, mipmap and filter steps as one call on the render goroutine.
func (r *RendererSystem) TextureUpload(pixels []uint8, texture *metadata.Texture, filter metadata.TextureFilter) error {
	return r.call(func() error {
		if err := r.backend.TextureCreate(pixels, texture); err != nil {
			return err
		}
		if err := r.backend.TextureGenerateMipmaps(texture); err != nil {
			r.backend.TextureDestroy(texture)
			return err
		}
		if err := r.backend.TextureSetFilter(texture, filter); err != nil {
			r.backend.TextureDestroy(texture)
			return err
		}
		return nil
	})
}

func (r *RendererSystem) GeometryCreate(config *metadata.GeometryConfig) (uint32, error) {
	id := metadata.InvalidID
	err := r.call(func() error {
		var err error
		id, err = r.backend.GeometryCreate(config)
		return err
	})
	return id, err
}

func (r *RendererSystem) GeometryDestroy(id uint32) error {
	return r.call(func() error { return r.backend.GeometryDestroy(id) })
}

func (r *RendererSystem) ShaderCreate(shader *metadata.Shader) error {
	return r.call(func() error { return r.backend.ShaderCreate(shader) })
}

func (r *RendererSystem) ShaderDestroy(shader *metadata.Shader) error {
	return r.call(func() error { return r.backend.ShaderDestroy(shader) })
}
