package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

type FontSystemConfig struct {
	/** @brief The maximum number of bitmap fonts loaded at once. */
	MaxBitmapFontCount uint16
}

/**
 * @brief Loads AngelCode bitmap fonts and uploads their atlas pages.
 */
type FontSystem struct {
	Config *FontSystemConfig

	mu       sync.Mutex
	loaded   map[*metadata.BitmapFont]struct{}
	reserved uint16

	loader        *loaders.BitmapFontLoader
	textureSystem *TextureSystem
}

func NewFontSystem(config *FontSystemConfig, ts *TextureSystem) (*FontSystem, error) {
	if config.MaxBitmapFontCount == 0 {
		err := fmt.Errorf("func NewFontSystem - config.MaxBitmapFontCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &FontSystem{
		Config:        config,
		loaded:        make(map[*metadata.BitmapFont]struct{}),
		loader:        &loaders.BitmapFontLoader{},
		textureSystem: ts,
	}, nil
}

/**
 * @brief Reads the font descriptor at path and uploads every atlas page.
 * Pages are decoded on the job system. A page that fails keeps a nil atlas
 * and fails the whole load.
 */
func (fs *FontSystem) LoadBitmapFont(path string) (*metadata.BitmapFont, error) {
	fs.mu.Lock()
	if len(fs.loaded)+int(fs.reserved) >= int(fs.Config.MaxBitmapFontCount) {
		fs.mu.Unlock()
		err := fmt.Errorf("failed to load bitmap font '%s': max bitmap font count %d reached", path, fs.Config.MaxBitmapFontCount)
		core.LogError(err.Error())
		return nil, err
	}
	fs.reserved++
	fs.mu.Unlock()

	font, err := fs.load(path)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.reserved--
	if err != nil {
		return nil, err
	}
	fs.loaded[font] = struct{}{}
	core.LogDebug("bitmap font '%s' (%s %d) loaded with %d pages", path, font.Face, font.Size, len(font.Pages))
	return font, nil
}

// load reads the descriptor and uploads its pages. The caller holds a reserved slot.
func (fs *FontSystem) load(path string) (*metadata.BitmapFont, error) {
	font, err := fs.loader.Load(path)
	if err != nil {
		return nil, err
	}

	// decode every page before uploading any
	futures := make([]*Future[*metadata.DecodedImage], len(font.Pages))
	for i, page := range font.Pages {
		futures[i] = fs.textureSystem.jobSystem.DecodeAsync(page.Name)
	}
	var failed error
	for i, f := range futures {
		img, err := f.Get()
		if err != nil || img == nil {
			img = metadata.NewInvalidImage(font.Pages[i].Name, err)
		}
		reason := img.Err
		tex := fs.textureSystem.Upload(img)
		if !tex.Valid() {
			if failed == nil {
				failed = fmt.Errorf("atlas page '%s': %v", font.Pages[i].Name, reason)
			}
			continue
		}
		font.Pages[i].Atlas = tex
	}
	if failed != nil {
		fs.releaseAtlases(font)
		fs.loader.Unload(font)
		err := fmt.Errorf("failed to load bitmap font '%s': %w", path, failed)
		core.LogError(err.Error())
		return nil, err
	}
	return font, nil
}

// LoadedCount returns the number of fonts loaded and not yet released.
func (fs *FontSystem) LoadedCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.loaded)
}

func (fs *FontSystem) releaseAtlases(font *metadata.BitmapFont) {
	for _, p := range font.Pages {
		fs.textureSystem.Release(p.Atlas)
		p.Atlas = nil
	}
}

// Release destroys the atlas textures of font. Fonts released before are ignored.
func (fs *FontSystem) Release(font *metadata.BitmapFont) error {
	fs.mu.Lock()
	if _, ok := fs.loaded[font]; !ok {
		fs.mu.Unlock()
		return nil
	}
	delete(fs.loaded, font)
	fs.mu.Unlock()

	fs.releaseAtlases(font)
	return fs.loader.Unload(font)
}

func (fs *FontSystem) Shutdown() error {
	fs.mu.Lock()
	fonts := make([]*metadata.BitmapFont, 0, len(fs.loaded))
	for f := range fs.loaded {
		fonts = append(fonts, f)
	}
	fs.mu.Unlock()

	for _, f := range fonts {
		if err := fs.Release(f); err != nil {
			return err
		}
	}
	return nil
}
