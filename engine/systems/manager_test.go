package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/renderer/headless"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

func testConfig() *SystemManagerConfig {
	return &SystemManagerConfig{
		Jobs:     JobSystemConfig{WorkerCount: 4},
		Renderer: RendererSystemConfig{ApplicationName: "systems test", MaxTextureSize: 4096},
		Textures: TextureSystemConfig{MaxTextureCount: 64},
		Geometry: GeometrySystemConfig{MaxGeometryCount: 64},
		Shaders:  ShaderSystemConfig{MaxShaderCount: 8, SharedShaderName: metadata.SHARED_PBR_SHADER_NAME},
		Fonts:    FontSystemConfig{MaxBitmapFontCount: 4},
	}
}

// newTestSystems returns initialized systems over a headless backend.
func newTestSystems(t *testing.T, config *SystemManagerConfig) (*SystemManager, *headless.Backend) {
	t.Helper()
	backend := headless.New()
	sm, err := NewSystemManager(config, backend)
	require.NoError(t, err)
	require.NoError(t, sm.Initialize())
	t.Cleanup(func() { sm.Shutdown() })
	return sm, backend
}

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSystemManagerLifecycle(t *testing.T) {
	backend := headless.New()
	sm, err := NewSystemManager(testConfig(), backend)
	require.NoError(t, err)
	require.NoError(t, sm.Initialize())

	assert.Equal(t, int(metadata.TextureRoleCount), backend.LiveTextures())
	assert.Equal(t, 1, backend.LiveShaders())
	require.NotNil(t, sm.ShaderSystem.Shared())
	assert.Equal(t, metadata.SHADER_STATE_INITIALIZED, sm.ShaderSystem.Shared().State)

	require.NoError(t, sm.Shutdown())
	assert.Zero(t, backend.LiveTextures())
	assert.Zero(t, backend.LiveShaders())
}

func TestSystemManagerRejectsBadConfig(t *testing.T) {
	config := testConfig()
	config.Textures.MaxTextureCount = 0
	_, err := NewSystemManager(config, headless.New())
	assert.Error(t, err)

	_, err = NewSystemManager(testConfig(), nil)
	assert.Error(t, err)
}
