package systems

import "github.com/spaghettifunk/anima-assets/engine/renderer"

type SystemManagerConfig struct {
	Jobs     JobSystemConfig
	Renderer RendererSystemConfig
	Textures TextureSystemConfig
	Geometry GeometrySystemConfig
	Shaders  ShaderSystemConfig
	Fonts    FontSystemConfig
}

/**
 * @brief Creates the systems in dependency order and shuts them down in
 * reverse. Nothing here is global: every engine owns its own manager.
 */
type SystemManager struct {
	JobSystem         *JobSystem
	RendererSystem    *RendererSystem
	TextureSystem     *TextureSystem
	ShaderSystem      *ShaderSystem
	GeometrySystem    *GeometrySystem
	MaterialSystem    *MaterialSystem
	FontSystem        *FontSystem
	ModelLoaderSystem *ModelLoaderSystem
}

func NewSystemManager(config *SystemManagerConfig, backend renderer.RendererBackend) (*SystemManager, error) {
	js, err := NewJobSystem(&config.Jobs)
	if err != nil {
		return nil, err
	}
	rs, err := NewRendererSystem(&config.Renderer, backend)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	sm := &SystemManager{
		JobSystem:      js,
		RendererSystem: rs,
	}
	if err := sm.create(config); err != nil {
		sm.Shutdown()
		return nil, err
	}
	return sm, nil
}

func (sm *SystemManager) create(config *SystemManagerConfig) error {
	var err error
	if sm.TextureSystem, err = NewTextureSystem(&config.Textures, sm.JobSystem, sm.RendererSystem); err != nil {
		return err
	}
	if sm.ShaderSystem, err = NewShaderSystem(&config.Shaders, sm.RendererSystem); err != nil {
		return err
	}
	if sm.GeometrySystem, err = NewGeometrySystem(&config.Geometry, sm.RendererSystem); err != nil {
		return err
	}
	if sm.MaterialSystem, err = NewMaterialSystem(sm.TextureSystem); err != nil {
		return err
	}
	if sm.FontSystem, err = NewFontSystem(&config.Fonts, sm.TextureSystem); err != nil {
		return err
	}
	if sm.ModelLoaderSystem, err = NewModelLoaderSystem(sm.JobSystem, sm.TextureSystem, sm.MaterialSystem, sm.GeometrySystem, sm.ShaderSystem); err != nil {
		return err
	}
	return nil
}

/**
 * @brief Initializes the renderer, then the default textures and shaders.
 */
func (sm *SystemManager) Initialize() error {
	if err := sm.RendererSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.ShaderSystem.Initialize(); err != nil {
		return err
	}
	return nil
}

func (sm *SystemManager) Shutdown() error {
	// jobs first, so nothing decodes into a texture system that is going away
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if sm.ModelLoaderSystem != nil {
		if err := sm.ModelLoaderSystem.Shutdown(); err != nil {
			return err
		}
	}
	if sm.FontSystem != nil {
		if err := sm.FontSystem.Shutdown(); err != nil {
			return err
		}
	}
	if sm.GeometrySystem != nil {
		if err := sm.GeometrySystem.Shutdown(); err != nil {
			return err
		}
	}
	if sm.ShaderSystem != nil {
		if err := sm.ShaderSystem.Shutdown(); err != nil {
			return err
		}
	}
	if sm.TextureSystem != nil {
		if err := sm.TextureSystem.Shutdown(); err != nil {
			return err
		}
	}
	return sm.RendererSystem.Shutdown()
}
