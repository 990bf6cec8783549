package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

func rgba(w, h int) []uint8 {
	pixels := make([]uint8, w*h*4)
	for i := range pixels {
		pixels[i] = uint8(i)
	}
	return pixels
}

func TestTextureLifecycle(t *testing.T) {
	b := New()
	require.NoError(t, b.Initialize(&metadata.RendererBackendConfig{ApplicationName: "test"}))

	tex := &metadata.Texture{Name: "checker", Width: 8, Height: 4, ChannelCount: 4}
	require.NoError(t, b.TextureCreate(rgba(8, 4), tex))
	assert.NotEqual(t, metadata.InvalidID, tex.ID)
	assert.GreaterOrEqual(t, tex.ID, uint32(2))
	assert.Equal(t, 1, b.LiveTextures())

	require.NoError(t, b.TextureGenerateMipmaps(tex))
	// 8x4, 4x2, 2x1, 1x1
	assert.Equal(t, uint32(4), tex.MipLevels)
	levels := b.TextureLevels(tex.ID)
	require.Len(t, levels, 4)
	assert.Equal(t, 1, levels[3].Bounds().Dx())
	assert.Equal(t, 1, levels[3].Bounds().Dy())

	require.NoError(t, b.TextureSetFilter(tex, metadata.TextureFilterModeTrilinear))
	filter, ok := b.TextureFilter(tex.ID)
	require.True(t, ok)
	assert.Equal(t, metadata.TextureFilterModeTrilinear, filter)

	require.NoError(t, b.TextureDestroy(tex))
	assert.Equal(t, metadata.InvalidID, tex.ID)
	assert.Equal(t, 0, b.LiveTextures())
	assert.Error(t, b.TextureDestroy(tex))
}

func TestTextureCreateRejectsBadInput(t *testing.T) {
	b := New()
	require.NoError(t, b.Initialize(&metadata.RendererBackendConfig{MaxTextureSize: 4}))

	assert.Error(t, b.TextureCreate(rgba(2, 2), &metadata.Texture{Width: 2, Height: 2, ChannelCount: 3}))
	assert.Error(t, b.TextureCreate(rgba(2, 1), &metadata.Texture{Width: 2, Height: 2, ChannelCount: 4}))
	assert.Error(t, b.TextureCreate(rgba(8, 8), &metadata.Texture{Width: 8, Height: 8, ChannelCount: 4}))
	assert.Equal(t, 0, b.LiveTextures())
}

func TestGeometryLifecycle(t *testing.T) {
	b := New()
	require.NoError(t, b.Initialize(nil))

	_, err := b.GeometryCreate(&metadata.GeometryConfig{Name: "empty"})
	assert.Error(t, err)

	_, err = b.GeometryCreate(&metadata.GeometryConfig{Name: "bad", VertexCount: 3, IndexCount: 3, Indices: []uint32{0, 1, 5}})
	assert.Error(t, err)

	id, err := b.GeometryCreate(&metadata.GeometryConfig{Name: "tri", VertexCount: 3, IndexCount: 3, Indices: []uint32{0, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 1, b.LiveGeometries())

	require.NoError(t, b.GeometryDestroy(id))
	assert.Error(t, b.GeometryDestroy(id))
	assert.Equal(t, 0, b.LiveGeometries())
}

func TestShaderLifecycle(t *testing.T) {
	b := New()
	require.NoError(t, b.Initialize(nil))
	assert.ErrorIs(t, b.Initialize(nil), core.ErrAlreadyInitialized)

	s := &metadata.Shader{Name: metadata.SHARED_PBR_SHADER_NAME}
	require.NoError(t, b.ShaderCreate(s))
	assert.Equal(t, metadata.SHADER_STATE_INITIALIZED, s.State)
	assert.Equal(t, 1, b.LiveShaders())

	require.NoError(t, b.ShaderDestroy(s))
	assert.Equal(t, metadata.SHADER_STATE_DESTROYED, s.State)
	assert.Equal(t, 0, b.LiveShaders())
}
