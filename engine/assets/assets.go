package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

type AssetManagerConfig struct {
	/** @brief The assets root. Relative names resolve below <Root>/<models|textures|sounds|fonts>. */
	Root string
	/** @brief Extensions tried, in order, for model names without one. */
	ModelExtensions []string
	/** @brief Extensions tried for textures. Also used by the auto-PBR convention. */
	TextureExtensions []string
	SoundExtensions   []string
	FontExtensions    []string
	/** @brief Bind convention textures and the PBR shader after every fresh model load. */
	AutoPBR bool
	/** @brief Drop cache entries of files that change on disk. */
	Watch bool
}

var (
	DefaultModelExtensions   = []string{".gltf", ".glb", ".obj"}
	DefaultTextureExtensions = []string{".png", ".jpg", ".jpeg", ".tga", ".bmp"}
	DefaultSoundExtensions   = []string{".wav", ".ogg", ".mp3"}
	DefaultFontExtensions    = []string{".fnt"}
)

/** @brief Called once per fresh model load, never on a cache hit. */
type PostLoadModelHook func(model *metadata.Model, path string)

/**
 * @brief Resolves asset names to canonical paths and shares loaded assets.
 *
 * Each asset type has its own cache. A cache holds back-references only:
 * an asset lives while at least one handle reference is outstanding, and
 * the next lookup after the last release loads it again.
 */
type AssetManager struct {
	config  AssetManagerConfig
	root    string
	systems *systems.SystemManager

	metrics  core.CacheMetrics
	models   *cache[*metadata.Model]
	textures *cache[*metadata.Texture]
	sounds   *cache[*metadata.Sound]
	fonts    *cache[*metadata.BitmapFont]

	mu       sync.RWMutex
	postLoad PostLoadModelHook
	autoPBR  bool

	stopped  atomic.Bool
	watcher  *fsnotify.Watcher
	done     chan struct{}
	watching sync.WaitGroup
}

func NewAssetManager(config *AssetManagerConfig, sm *systems.SystemManager) (*AssetManager, error) {
	if sm == nil {
		err := fmt.Errorf("func NewAssetManager - a system manager is required")
		core.LogError(err.Error())
		return nil, err
	}
	root, err := filepath.Abs(config.Root)
	if err != nil {
		err = fmt.Errorf("func NewAssetManager - invalid assets root '%s': %w", config.Root, err)
		core.LogError(err.Error())
		return nil, err
	}
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}

	am := &AssetManager{
		config:  *config,
		root:    root,
		systems: sm,
		autoPBR: config.AutoPBR,
		done:    make(chan struct{}),
	}
	if len(am.config.ModelExtensions) == 0 {
		am.config.ModelExtensions = DefaultModelExtensions
	}
	if len(am.config.TextureExtensions) == 0 {
		am.config.TextureExtensions = DefaultTextureExtensions
	}
	if len(am.config.SoundExtensions) == 0 {
		am.config.SoundExtensions = DefaultSoundExtensions
	}
	if len(am.config.FontExtensions) == 0 {
		am.config.FontExtensions = DefaultFontExtensions
	}

	am.models = newCache[*metadata.Model]("model", &modelLoader{mls: sm.ModelLoaderSystem}, &am.metrics)
	am.textures = newCache[*metadata.Texture]("texture", &textureLoader{ts: sm.TextureSystem}, &am.metrics)
	am.sounds = newCache[*metadata.Sound]("sound", &loaders.SoundLoader{}, &am.metrics)
	am.fonts = newCache[*metadata.BitmapFont]("font", &fontLoader{fs: sm.FontSystem}, &am.metrics)
	return am, nil
}

/**
 * @brief Starts watching the assets root when configured to.
 */
func (am *AssetManager) Initialize() error {
	if !am.config.Watch {
		return nil
	}
	if am.watcher != nil {
		return core.ErrAlreadyInitialized
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	am.watcher = w
	if err := am.watchRecursive(am.root); err != nil {
		w.Close()
		am.watcher = nil
		err = fmt.Errorf("failed to watch assets root '%s': %w", am.root, err)
		core.LogError(err.Error())
		return err
	}
	am.watching.Add(1)
	go am.start()
	core.LogInfo("watching assets root '%s'", am.root)
	return nil
}

/**
 * @brief Stops the watcher and forgets every cache entry. Handles given
 * out before stay valid and must still be released.
 */
func (am *AssetManager) Shutdown() error {
	if !am.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if am.watcher != nil {
		close(am.done)
		am.watching.Wait()
	}
	am.ClearCache()
	return nil
}

func (am *AssetManager) Root() string {
	return am.root
}

func (am *AssetManager) extensions(t metadata.ResourceType) []string {
	switch t {
	case metadata.ResourceTypeModel:
		return am.config.ModelExtensions
	case metadata.ResourceTypeTexture:
		return am.config.TextureExtensions
	case metadata.ResourceTypeSound:
		return am.config.SoundExtensions
	case metadata.ResourceTypeBitmapFont:
		return am.config.FontExtensions
	}
	return nil
}

/**
 * @brief Resolves name to the canonical absolute path of an existing file.
 *
 * An absolute name is accepted as is when it exists. Anything else is
 * looked up below <root>/<type directory>: first the name itself when it
 * carries an extension, then the name with each configured extension.
 *
 * @return ErrAssetNotFound when nothing exists, ErrUnknownAssetType for an
 * unknown type.
 */
func (am *AssetManager) Resolve(t metadata.ResourceType, name string) (string, error) {
	exts := am.extensions(t)
	if exts == nil {
		return "", fmt.Errorf("cannot resolve '%s': %w %s", name, core.ErrUnknownAssetType, t)
	}
	if filepath.IsAbs(name) {
		if isFile(name) {
			return canonicalPath(name), nil
		}
		return "", fmt.Errorf("%s '%s': %w", t, name, core.ErrAssetNotFound)
	}

	base := filepath.Join(am.root, t.Directory(), filepath.FromSlash(name))
	if filepath.Ext(base) != "" && isFile(base) {
		return canonicalPath(base), nil
	}
	for _, ext := range exts {
		if p := base + ext; isFile(p) {
			return canonicalPath(p), nil
		}
	}
	return "", fmt.Errorf("%s '%s' (below %s): %w", t, name, filepath.Dir(base), core.ErrAssetNotFound)
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

func (am *AssetManager) resolve(t metadata.ResourceType, name string) (string, error) {
	if am.stopped.Load() {
		return "", core.ErrAssetsStopped
	}
	path, err := am.Resolve(t, name)
	if err != nil {
		core.LogWarn(err.Error())
		return "", err
	}
	return path, nil
}

func (am *AssetManager) GetModel(name string) (*Handle[*metadata.Model], error) {
	return am.GetModelWithProgress(name, nil)
}

/**
 * @brief Returns a reference to the model name resolves to, loading it when
 * no live handle exists. progress is only called when this call loads.
 */
func (am *AssetManager) GetModelWithProgress(name string, progress metadata.ProgressFunc) (*Handle[*metadata.Model], error) {
	path, err := am.resolve(metadata.ResourceTypeModel, name)
	if err != nil {
		return nil, err
	}
	return am.models.get(path, func(p string) (*metadata.Model, error) {
		model, err := am.systems.ModelLoaderSystem.Load(p, progress)
		if err != nil {
			return nil, err
		}
		am.afterModelLoad(model, p)
		return model, nil
	})
}

func (am *AssetManager) afterModelLoad(model *metadata.Model, path string) {
	am.mu.RLock()
	autoPBR, hook := am.autoPBR, am.postLoad
	am.mu.RUnlock()

	if autoPBR {
		am.applyAutoPBR(model, path)
	}
	if hook != nil {
		hook(model, path)
	}
}

func (am *AssetManager) GetTexture(name string) (*Handle[*metadata.Texture], error) {
	path, err := am.resolve(metadata.ResourceTypeTexture, name)
	if err != nil {
		return nil, err
	}
	return am.textures.get(path, am.textures.loader.Load)
}

func (am *AssetManager) GetSound(name string) (*Handle[*metadata.Sound], error) {
	path, err := am.resolve(metadata.ResourceTypeSound, name)
	if err != nil {
		return nil, err
	}
	return am.sounds.get(path, am.sounds.loader.Load)
}

func (am *AssetManager) GetFont(name string) (*Handle[*metadata.BitmapFont], error) {
	path, err := am.resolve(metadata.ResourceTypeBitmapFont, name)
	if err != nil {
		return nil, err
	}
	return am.fonts.get(path, am.fonts.loader.Load)
}

/**
 * @brief Sets the function run after every fresh model load, after the
 * auto-PBR pass. Pass nil to remove it.
 */
func (am *AssetManager) SetPostLoadModelHook(hook PostLoadModelHook) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.postLoad = hook
}

func (am *AssetManager) EnableAutoPBR(enable bool) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.autoPBR = enable
}

func (am *AssetManager) AutoPBREnabled() bool {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return am.autoPBR
}

/**
 * @brief Forgets every cache entry. Handles given out before stay valid;
 * the next lookup of any name loads it again.
 */
func (am *AssetManager) ClearCache() {
	n := am.models.clear() + am.textures.clear() + am.sounds.clear() + am.fonts.clear()
	core.LogDebug("asset cache cleared (%d entries)", n)
}

/**
 * @brief Forgets the cache entry of path in every cache.
 * @return true when an entry or an in-flight load was found.
 */
func (am *AssetManager) Invalidate(path string) bool {
	path = canonicalPath(path)
	found := am.models.invalidate(path)
	found = am.textures.invalidate(path) || found
	found = am.sounds.invalidate(path) || found
	found = am.fonts.invalidate(path) || found
	if found {
		core.LogDebug("asset '%s' invalidated", path)
	}
	return found
}

/**
 * @brief Reports whether a live handle for name is cached, without loading
 * or adding a reference.
 */
func (am *AssetManager) Cached(t metadata.ResourceType, name string) bool {
	path, err := am.Resolve(t, name)
	if err != nil {
		return false
	}
	switch t {
	case metadata.ResourceTypeModel:
		_, ok := am.models.lookup(path)
		return ok
	case metadata.ResourceTypeTexture:
		_, ok := am.textures.lookup(path)
		return ok
	case metadata.ResourceTypeSound:
		_, ok := am.sounds.lookup(path)
		return ok
	case metadata.ResourceTypeBitmapFont:
		_, ok := am.fonts.lookup(path)
		return ok
	}
	return false
}

func (am *AssetManager) Stats() core.CacheStats {
	return am.metrics.Snapshot()
}

func (am *AssetManager) start() {
	defer am.watching.Done()
	for {
		select {
		case e, ok := <-am.watcher.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err.Error())
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				am.handleFileEvent(e.Name)
			}

		case err, ok := <-am.watcher.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			if err := am.watcher.Close(); err != nil {
				core.LogWarn(err.Error())
			}
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// A file created before its directory is watched raises no event.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		// .git and friends churn without holding assets
		if walkPath != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return am.watcher.Add(walkPath)
	})
}

// Drops whatever was loaded from a changed, removed or renamed file.
func (am *AssetManager) handleFileEvent(path string) {
	if determineAssetType(path) == metadata.ResourceTypeNone {
		return
	}
	am.Invalidate(path)
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb", ".obj":
		return metadata.ResourceTypeModel
	case ".png", ".jpg", ".jpeg", ".tga", ".bmp", ".gif", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeTexture
	case ".wav", ".ogg", ".mp3":
		return metadata.ResourceTypeSound
	case ".fnt":
		return metadata.ResourceTypeBitmapFont
	default:
		return metadata.ResourceTypeNone
	}
}
