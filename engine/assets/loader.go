package assets

import (
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

/**
 * @brief Loads the resource at a canonical path and releases it again.
 * Unload is called exactly once, when the last handle reference is released.
 */
type Loader[T any] interface {
	Load(path string) (T, error)
	Unload(T) error
}

type modelLoader struct {
	mls *systems.ModelLoaderSystem
}

func (l *modelLoader) Load(path string) (*metadata.Model, error) {
	return l.mls.Load(path, nil)
}

func (l *modelLoader) Unload(model *metadata.Model) error {
	return l.mls.Unload(model)
}

type textureLoader struct {
	ts *systems.TextureSystem
}

func (l *textureLoader) Load(path string) (*metadata.Texture, error) {
	return l.ts.LoadFile(path)
}

func (l *textureLoader) Unload(tex *metadata.Texture) error {
	return l.ts.Release(tex)
}

type fontLoader struct {
	fs *systems.FontSystem
}

func (l *fontLoader) Load(path string) (*metadata.BitmapFont, error) {
	return l.fs.LoadBitmapFont(path)
}

func (l *fontLoader) Unload(font *metadata.BitmapFont) error {
	return l.fs.Release(font)
}
