package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

/**
 * @brief Turns decoded images into renderer textures and owns their lifetime.
 * Uploads always go through the RendererSystem, so Upload may be called from
 * any goroutine but never runs a backend call itself.
 */
type TextureSystem struct {
	Config *TextureSystemConfig
	// The 1x1 texture of every role, bound wherever nothing better is available.
	Defaults *metadata.DefaultTextures

	mu sync.Mutex
	// live textures created by Upload
	registered map[*metadata.Texture]struct{}
	// slots taken by uploads still in flight
	reserved uint32

	jobSystem *JobSystem
	renderer  *RendererSystem
}

func NewTextureSystem(config *TextureSystemConfig, js *JobSystem, r *RendererSystem) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	return &TextureSystem{
		Config:     config,
		Defaults:   metadata.CreateSkeletonTextures(),
		registered: make(map[*metadata.Texture]struct{}),
		jobSystem:  js,
		renderer:   r,
	}, nil
}

/**
 * @brief Creates the default texture of every role in the renderer.
 */
func (ts *TextureSystem) Initialize() error {
	for _, role := range metadata.TextureRoles() {
		tex := ts.Defaults.Get(role)
		if err := ts.renderer.TextureCreate(ts.Defaults.Pixels[role], tex); err != nil {
			err = fmt.Errorf("failed to create default %s texture: %w", role, err)
			core.LogError(err.Error())
			return err
		}
		// Manually set the texture generation to invalid since this is a default texture.
		tex.Generation = metadata.InvalidID
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	ts.mu.Lock()
	live := make([]*metadata.Texture, 0, len(ts.registered))
	for t := range ts.registered {
		live = append(live, t)
	}
	ts.registered = make(map[*metadata.Texture]struct{})
	ts.mu.Unlock()

	// Destroy all loaded textures.
	for _, t := range live {
		if err := ts.renderer.TextureDestroy(t); err != nil {
			core.LogWarn("failed to destroy texture '%s': %s", t.Name, err)
		}
	}
	for _, role := range metadata.TextureRoles() {
		tex := ts.Defaults.Get(role)
		if !tex.Valid() {
			continue
		}
		if err := ts.renderer.TextureDestroy(tex); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the 1x1 texture of role.
func (ts *TextureSystem) Default(role metadata.TextureRole) *metadata.Texture {
	return ts.Defaults.Get(role)
}

func (ts *TextureSystem) IsDefault(tex *metadata.Texture) bool {
	return ts.Defaults.Contains(tex)
}

// LiveCount returns the number of uploaded textures not yet released.
func (ts *TextureSystem) LiveCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.registered)
}

func invalidTexture(name string) *metadata.Texture {
	return &metadata.Texture{
		ID:         metadata.InvalidID,
		Generation: metadata.InvalidID,
		Name:       name,
	}
}

/**
 * @brief Uploads img, generates its mip chain and sets trilinear filtering.
 * The image is consumed: its pixel buffer is dropped whatever the outcome.
 * @return The texture. Its ID is InvalidID when the image was invalid or the
 * renderer rejected it; nothing was created in that case.
 */
func (ts *TextureSystem) Upload(img *metadata.DecodedImage) *metadata.Texture {
	if img == nil {
		return invalidTexture("")
	}
	defer img.Release()

	if !img.Valid || len(img.Pixels) == 0 {
		core.LogDebug("skipping upload of '%s': no pixel data", img.Source)
		return invalidTexture(img.Source)
	}

	ts.mu.Lock()
	if uint32(len(ts.registered))+ts.reserved >= ts.Config.MaxTextureCount {
		ts.mu.Unlock()
		core.LogError("failed to upload '%s': %s (max %d)", img.Source, core.ErrTextureLimit, ts.Config.MaxTextureCount)
		return invalidTexture(img.Source)
	}
	ts.reserved++
	ts.mu.Unlock()

	tex := &metadata.Texture{
		ID:           metadata.InvalidID,
		Name:         img.Source,
		Width:        img.Width,
		Height:       img.Height,
		ChannelCount: img.ChannelCount,
		Generation:   metadata.InvalidID,
	}
	err := ts.renderer.TextureUpload(img.Pixels, tex, metadata.TextureFilterModeTrilinear)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.reserved--
	if err != nil {
		core.LogWarn("failed to upload '%s': %s", img.Source, err)
		tex.ID = metadata.InvalidID
		return tex
	}
	ts.registered[tex] = struct{}{}
	return tex
}

// UploadBatch uploads every image in order. The result has one texture per image.
func (ts *TextureSystem) UploadBatch(images []*metadata.DecodedImage) []*metadata.Texture {
	out := make([]*metadata.Texture, len(images))
	for i, img := range images {
		out[i] = ts.Upload(img)
	}
	return out
}

/**
 * @brief Destroys a texture created by Upload. Default textures, invalid
 * textures and textures released before are ignored, so a texture is
 * destroyed at most once.
 */
func (ts *TextureSystem) Release(tex *metadata.Texture) error {
	if tex == nil || ts.IsDefault(tex) {
		return nil
	}
	ts.mu.Lock()
	if _, ok := ts.registered[tex]; !ok {
		ts.mu.Unlock()
		return nil
	}
	delete(ts.registered, tex)
	ts.mu.Unlock()

	if err := ts.renderer.TextureDestroy(tex); err != nil {
		core.LogWarn("failed to destroy texture '%s': %s", tex.Name, err)
		return err
	}
	core.LogDebug("texture '%s' released", tex.Name)
	return nil
}

/**
 * @brief Decodes path on the job system and uploads the result.
 * Blocks until both steps are done.
 */
func (ts *TextureSystem) LoadFile(path string) (*metadata.Texture, error) {
	img, err := ts.jobSystem.DecodeAsync(path).Get()
	if err != nil {
		return nil, err
	}
	if !img.Valid {
		err := fmt.Errorf("failed to load texture '%s': %w: %w", path, core.ErrInvalidImage, img.Err)
		core.LogError(err.Error())
		return nil, err
	}
	tex := ts.Upload(img)
	if !tex.Valid() {
		err := fmt.Errorf("failed to upload texture '%s'", path)
		core.LogError(err.Error())
		return nil, err
	}
	return tex, nil
}
