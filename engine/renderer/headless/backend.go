package headless

import (
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

/**
 * @brief Internal texture data of the headless backend. Level 0 is the
 * uploaded image, every following level half the size of the previous one.
 */
type textureData struct {
	name   string
	levels []image.Image
	filter metadata.TextureFilter
}

type geometryData struct {
	name        string
	vertexCount uint32
	indexCount  uint32
}

/**
 * @brief A renderer backend that keeps every resource in process memory.
 * Used for tools, servers and tests that need the full asset pipeline
 * without a window or a GPU.
 */
type Backend struct {
	// guards the maps so counters can be read from any goroutine
	mu sync.Mutex

	config *metadata.RendererBackendConfig

	textureIDs  *core.IdentifierPool
	geometryIDs *core.IdentifierPool
	shaderIDs   *core.IdentifierPool

	textures   map[uint32]*textureData
	geometries map[uint32]*geometryData
	shaders    map[uint32]string

	initialized bool
}

func New() *Backend {
	return &Backend{
		config: &metadata.RendererBackendConfig{},
		// 0 and 1 are never handed out so they can't be mistaken for a default binding
		textureIDs:  core.NewIdentifierPool(2),
		geometryIDs: core.NewIdentifierPool(1),
		shaderIDs:   core.NewIdentifierPool(1),
		textures:    make(map[uint32]*textureData),
		geometries:  make(map[uint32]*geometryData),
		shaders:     make(map[uint32]string),
	}
}

func (b *Backend) Initialize(config *metadata.RendererBackendConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return core.ErrAlreadyInitialized
	}
	if config != nil {
		b.config = config
	}
	b.initialized = true
	core.LogDebug("headless renderer initialized for '%s' (max texture size %d)", b.config.ApplicationName, b.config.MaxTextureSize)
	return nil
}

func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.textures) > 0 || len(b.geometries) > 0 || len(b.shaders) > 0 {
		core.LogWarn("headless renderer shutting down with %d textures, %d geometries and %d shaders still alive",
			len(b.textures), len(b.geometries), len(b.shaders))
	}
	b.textures = make(map[uint32]*textureData)
	b.geometries = make(map[uint32]*geometryData)
	b.shaders = make(map[uint32]string)
	b.initialized = false
	return nil
}

func (b *Backend) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	if texture == nil {
		return fmt.Errorf("headless TextureCreate: nil texture")
	}
	if texture.Width == 0 || texture.Height == 0 {
		return fmt.Errorf("headless TextureCreate: '%s' has zero size", texture.Name)
	}
	if texture.ChannelCount != 4 {
		return fmt.Errorf("headless TextureCreate: '%s' has %d channels, only RGBA is supported: %w", texture.Name, texture.ChannelCount, core.ErrUnsupportedFormat)
	}
	expected := int(texture.Width) * int(texture.Height) * int(texture.ChannelCount)
	if len(pixels) != expected {
		return fmt.Errorf("headless TextureCreate: '%s' expects %d bytes, got %d", texture.Name, expected, len(pixels))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if limit := b.config.MaxTextureSize; limit > 0 && (texture.Width > limit || texture.Height > limit) {
		return fmt.Errorf("headless TextureCreate: '%s' is %dx%d, larger than the maximum of %d", texture.Name, texture.Width, texture.Height, limit)
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(texture.Width), int(texture.Height)))
	copy(img.Pix, pixels)

	id := b.textureIDs.Acquire(texture)
	b.textures[id] = &textureData{
		name:   texture.Name,
		levels: []image.Image{img},
		filter: metadata.TextureFilterModeLinear,
	}
	texture.ID = id
	texture.MipLevels = 1
	texture.Generation++
	return nil
}

func (b *Backend) TextureGenerateMipmaps(texture *metadata.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	td, ok := b.textures[texture.ID]
	if !ok {
		return fmt.Errorf("headless TextureGenerateMipmaps: unknown texture id %d", texture.ID)
	}
	base := td.levels[0]
	levels := []image.Image{base}
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	for w > 1 || h > 1 {
		w = max(w/2, 1)
		h = max(h/2, 1)
		levels = append(levels, transform.Resize(levels[len(levels)-1], w, h, transform.Linear))
	}
	td.levels = levels
	texture.MipLevels = uint32(len(levels))
	return nil
}

func (b *Backend) TextureSetFilter(texture *metadata.Texture, filter metadata.TextureFilter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	td, ok := b.textures[texture.ID]
	if !ok {
		return fmt.Errorf("headless TextureSetFilter: unknown texture id %d", texture.ID)
	}
	td.filter = filter
	texture.Filter = filter
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.textures[texture.ID]; !ok {
		return fmt.Errorf("headless TextureDestroy: unknown texture id %d", texture.ID)
	}
	delete(b.textures, texture.ID)
	if err := b.textureIDs.Release(texture.ID); err != nil {
		return err
	}
	texture.ID = metadata.InvalidID
	return nil
}

func (b *Backend) GeometryCreate(config *metadata.GeometryConfig) (uint32, error) {
	if config == nil || config.VertexCount == 0 {
		return metadata.InvalidID, fmt.Errorf("headless GeometryCreate: geometry has no vertices")
	}
	if config.IndexCount%3 != 0 {
		return metadata.InvalidID, fmt.Errorf("headless GeometryCreate: '%s' index count %d is not a multiple of 3", config.Name, config.IndexCount)
	}
	for _, idx := range config.Indices {
		if idx >= config.VertexCount {
			return metadata.InvalidID, fmt.Errorf("headless GeometryCreate: '%s' index %d out of range (%d vertices)", config.Name, idx, config.VertexCount)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.geometryIDs.Acquire(config)
	b.geometries[id] = &geometryData{
		name:        config.Name,
		vertexCount: config.VertexCount,
		indexCount:  config.IndexCount,
	}
	return id, nil
}

func (b *Backend) GeometryDestroy(id uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.geometries[id]; !ok {
		return fmt.Errorf("headless GeometryDestroy: unknown geometry id %d", id)
	}
	delete(b.geometries, id)
	return b.geometryIDs.Release(id)
}

func (b *Backend) ShaderCreate(shader *metadata.Shader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.shaderIDs.Acquire(shader)
	b.shaders[id] = shader.Name
	shader.ID = id
	shader.State = metadata.SHADER_STATE_INITIALIZED
	return nil
}

func (b *Backend) ShaderDestroy(shader *metadata.Shader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.shaders[shader.ID]; !ok {
		return fmt.Errorf("headless ShaderDestroy: unknown shader id %d", shader.ID)
	}
	delete(b.shaders, shader.ID)
	if err := b.shaderIDs.Release(shader.ID); err != nil {
		return err
	}
	shader.ID = metadata.InvalidID
	shader.State = metadata.SHADER_STATE_DESTROYED
	return nil
}

func (b *Backend) IsMultithreaded() bool {
	return false
}

func (b *Backend) LiveTextures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

func (b *Backend) LiveGeometries() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.geometries)
}

func (b *Backend) LiveShaders() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.shaders)
}

// TextureLevels returns the mip chain of id, or nil when id is unknown.
func (b *Backend) TextureLevels(id uint32) []image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()

	td, ok := b.textures[id]
	if !ok {
		return nil
	}
	return td.levels
}

// TextureFilter returns the filter set on id.
func (b *Backend) TextureFilter(id uint32) (metadata.TextureFilter, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	td, ok := b.textures[id]
	if !ok {
		return metadata.TextureFilterModeNearest, false
	}
	return td.filter, true
}
