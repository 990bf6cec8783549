package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief The maximum number of shaders held in the system. */
	MaxShaderCount uint16
	/** @brief The shader attached to every loaded material. Empty disables it. */
	SharedShaderName string
}

type ShaderSystem struct {
	// This system's configuration.
	Config *ShaderSystemConfig

	mu sync.Mutex
	// A lookup table for shader name->shader
	lookup map[string]*metadata.Shader
	shared *metadata.Shader

	renderer *RendererSystem
}

func NewShaderSystem(config *ShaderSystemConfig, r *RendererSystem) (*ShaderSystem, error) {
	if config.MaxShaderCount == 0 {
		err := fmt.Errorf("NewShaderSystem - config.MaxShaderCount must be greater than 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &ShaderSystem{
		Config:   config,
		lookup:   make(map[string]*metadata.Shader),
		renderer: r,
	}, nil
}

/**
 * @brief Creates the shared material shader, when one is configured.
 */
func (ss *ShaderSystem) Initialize() error {
	if ss.Config.SharedShaderName == "" {
		return nil
	}
	shader, err := ss.Create(ss.Config.SharedShaderName)
	if err != nil {
		return err
	}
	ss.mu.Lock()
	ss.shared = shader
	ss.mu.Unlock()
	return nil
}

/**
 * @brief Creates a shader with the given name, or returns the existing one.
 */
func (ss *ShaderSystem) Create(name string) (*metadata.Shader, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if s, ok := ss.lookup[name]; ok {
		return s, nil
	}
	if len(ss.lookup) >= int(ss.Config.MaxShaderCount) {
		err := fmt.Errorf("shader system is full (%d), cannot create '%s'", ss.Config.MaxShaderCount, name)
		core.LogError(err.Error())
		return nil, err
	}

	shader := &metadata.Shader{
		ID:    metadata.InvalidID,
		Name:  name,
		State: metadata.SHADER_STATE_NOT_CREATED,
	}
	if err := ss.renderer.ShaderCreate(shader); err != nil {
		err = fmt.Errorf("failed to create shader '%s': %w", name, err)
		core.LogError(err.Error())
		return nil, err
	}
	ss.lookup[name] = shader
	core.LogDebug("shader '%s' created with id %d", name, shader.ID)
	return shader, nil
}

func (ss *ShaderSystem) Get(name string) (*metadata.Shader, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.lookup[name]
	return s, ok
}

// Shared returns the shader every material is finalized with, or nil.
func (ss *ShaderSystem) Shared() *metadata.Shader {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.shared
}

/**
 * @brief Shuts down the shader system, destroying every shader.
 */
func (ss *ShaderSystem) Shutdown() error {
	ss.mu.Lock()
	shaders := ss.lookup
	ss.lookup = make(map[string]*metadata.Shader)
	ss.shared = nil
	ss.mu.Unlock()

	for _, s := range shaders {
		if err := ss.renderer.ShaderDestroy(s); err != nil {
			return err
		}
	}
	return nil
}
