package engine

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/config"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every system
	EngineStageShutdown
)

/**
 * @brief Owns the systems and the asset manager built from one configuration.
 * Nothing is global: two engines in one process share no state but the logger.
 */
type Engine struct {
	mu           sync.Mutex
	currentStage Stage

	config        *config.Config
	backend       renderer.RendererBackend
	systemManager *systems.SystemManager
	assetManager  *assets.AssetManager
}

/**
 * @brief Creates the engine. backend may be nil, in which case the backend
 * named by the configuration is created.
 */
func New(cfg *config.Config, backend renderer.RendererBackend) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if cfg.Log.Prefix != "" {
		core.SetLogPrefix(cfg.Log.Prefix)
	}

	if backend == nil {
		t, err := renderer.ParseRendererType(cfg.Renderer.Type)
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		if backend, err = renderer.NewBackend(t); err != nil {
			return nil, err
		}
	}

	sm, err := systems.NewSystemManager(systemsConfig(cfg), backend)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	am, err := assets.NewAssetManager(assetsConfig(cfg), sm)
	if err != nil {
		sm.Shutdown()
		return nil, err
	}

	return &Engine{
		currentStage:  EngineStageUninitialized,
		config:        cfg,
		backend:       backend,
		systemManager: sm,
		assetManager:  am,
	}, nil
}

func systemsConfig(cfg *config.Config) *systems.SystemManagerConfig {
	return &systems.SystemManagerConfig{
		Jobs: systems.JobSystemConfig{
			WorkerCount: cfg.Jobs.Workers,
			QueueSize:   cfg.Jobs.QueueSize,
		},
		Renderer: systems.RendererSystemConfig{
			ApplicationName: cfg.Renderer.ApplicationName,
			MaxTextureSize:  cfg.Renderer.MaxTextureSize,
		},
		Textures: systems.TextureSystemConfig{MaxTextureCount: cfg.Textures.MaxTextureCount},
		Geometry: systems.GeometrySystemConfig{MaxGeometryCount: cfg.Geometry.MaxGeometryCount},
		Shaders: systems.ShaderSystemConfig{
			MaxShaderCount:   cfg.Renderer.MaxShaderCount,
			SharedShaderName: cfg.Renderer.SharedShader,
		},
		Fonts: systems.FontSystemConfig{MaxBitmapFontCount: cfg.Fonts.MaxBitmapFontCount},
	}
}

func assetsConfig(cfg *config.Config) *assets.AssetManagerConfig {
	return &assets.AssetManagerConfig{
		Root:              cfg.Assets.Root,
		ModelExtensions:   cfg.Assets.ModelExtensions,
		TextureExtensions: cfg.Assets.TextureExtensions,
		SoundExtensions:   cfg.Assets.SoundExtensions,
		FontExtensions:    cfg.Assets.FontExtensions,
		AutoPBR:           cfg.Assets.AutoPBR,
		Watch:             cfg.Assets.Watch,
	}
}

func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage != EngineStageUninitialized {
		return core.ErrAlreadyInitialized
	}
	e.currentStage = EngineStageInitializing

	if err := e.systemManager.Initialize(); err != nil {
		return err
	}
	if err := e.assetManager.Initialize(); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized: %d workers, assets root '%s'", e.systemManager.JobSystem.WorkerCount(), e.assetManager.Root())
	return nil
}

/**
 * @brief Shuts the asset manager down, then every system. Handles still held
 * by callers stay valid to release, but their backend resources are gone.
 */
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage == EngineStageShutdown || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageShutdown
	return nil
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) Systems() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) Backend() renderer.RendererBackend {
	return e.backend
}

/** @brief The outcome of preloading one model. */
type PreloadResult struct {
	Name   string
	Handle *assets.Handle[*metadata.Model]
	Err    error
}

/**
 * @brief Loads every named model concurrently through the asset cache.
 * Results come back in the order of names; the caller owns every handle.
 * progress is called from every loading goroutine and must be safe for
 * concurrent use.
 */
func (e *Engine) Preload(names []string, progress metadata.ProgressFunc) []PreloadResult {
	results := make([]PreloadResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := e.assetManager.GetModelWithProgress(name, progress)
			if err != nil {
				err = fmt.Errorf("failed to preload '%s': %w", name, err)
			}
			results[i] = PreloadResult{Name: name, Handle: h, Err: err}
		}()
	}
	wg.Wait()
	return results
}
