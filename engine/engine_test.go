package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/config"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/headless"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

func testEngine(t *testing.T) (*Engine, *headless.Backend, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Assets.Root = root
	cfg.Jobs.Workers = 2
	backend := headless.New()
	e, err := New(cfg, backend)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { e.Shutdown() })
	return e, backend, root
}

func TestEngineLifecycle(t *testing.T) {
	e, backend, _ := testEngine(t)
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.Same(t, backend, e.Backend())
	assert.Equal(t, 2, e.Systems().JobSystem.WorkerCount())
	assert.ErrorIs(t, e.Initialize(), core.ErrAlreadyInitialized)

	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShutdown, e.Stage())
	assert.Zero(t, backend.LiveTextures())
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Textures.MaxTextureCount = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestEngineDefaultBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Root = t.TempDir()
	e, err := New(cfg, nil)
	require.NoError(t, err)
	_, ok := e.Backend().(*headless.Backend)
	assert.True(t, ok)
	require.NoError(t, e.Shutdown())
}

func TestEnginePreload(t *testing.T) {
	e, backend, root := testEngine(t)
	models := filepath.Join(root, "models")
	require.NoError(t, os.MkdirAll(models, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(models, "tri.obj"), []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	var mu sync.Mutex
	done := 0
	results := e.Preload([]string{"tri", "tri.obj", "ghost"}, func(p metadata.LoadProgress) {
		mu.Lock()
		defer mu.Unlock()
		if p.Complete {
			done++
		}
	})
	require.Len(t, results, 3)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Same(t, results[0].Handle, results[1].Handle)
	assert.ErrorIs(t, results[2].Err, core.ErrAssetNotFound)
	assert.Equal(t, "ghost", results[2].Name)
	assert.Equal(t, 1, done, "one load served both names")
	assert.Equal(t, 1, backend.LiveGeometries())

	require.NoError(t, results[0].Handle.Release())
	require.NoError(t, results[1].Handle.Release())
	assert.Zero(t, backend.LiveGeometries())
}
