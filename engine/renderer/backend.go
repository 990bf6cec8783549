package renderer

import "github.com/spaghettifunk/anima-assets/engine/renderer/metadata"

/**
 * @brief The graphics context. Implementations are not required to be safe
 * for concurrent use: every call is made from the goroutine that owns the
 * context (see systems.RendererSystem).
 */
type RendererBackend interface {
	Initialize(config *metadata.RendererBackendConfig) error
	Shutdown() error
	/** @brief Uploads pixels and assigns texture.ID. Width, Height and ChannelCount must be set. */
	TextureCreate(pixels []uint8, texture *metadata.Texture) error
	TextureGenerateMipmaps(texture *metadata.Texture) error
	TextureSetFilter(texture *metadata.Texture, filter metadata.TextureFilter) error
	TextureDestroy(texture *metadata.Texture) error
	/** @brief Uploads a geometry and returns its backend id. */
	GeometryCreate(config *metadata.GeometryConfig) (uint32, error)
	GeometryDestroy(id uint32) error
	/** @brief Creates the backend program of shader and assigns shader.ID. */
	ShaderCreate(shader *metadata.Shader) error
	ShaderDestroy(shader *metadata.Shader) error
	IsMultithreaded() bool
}
