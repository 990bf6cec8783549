package systems

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/scene"
)

func TestEnumerateTexturesPrefersBaseColor(t *testing.T) {
	sc := &scene.Scene{
		Materials: []*scene.Material{
			{Name: "m0", Textures: []scene.TextureReference{
				{Type: scene.TextureTypeDiffuse, Path: "diffuse.png"},
				{Type: scene.TextureTypeBaseColor, Path: "base.png"},
			}},
			{Name: "m1"},
		},
	}

	requests := EnumerateTextures(sc, "/models")
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, 0, req.MaterialIndex)
	assert.Equal(t, metadata.TextureRoleAlbedo, req.Role)
	assert.Equal(t, scene.TextureTypeBaseColor, req.Alias)
	assert.Equal(t, filepath.Join("/models", "base.png"), req.Path)
	assert.False(t, req.Embedded())
}

func TestEnumerateTexturesIsOrderIndependent(t *testing.T) {
	refs := []scene.TextureReference{
		{Type: scene.TextureTypeHeight, Path: "height.png"},
		{Type: scene.TextureTypeSpecular, Path: "spec.png"},
		{Type: scene.TextureTypeNormals, Path: "normal.png"},
		{Type: scene.TextureTypeLightmap, Path: "lightmap.png"},
		{Type: scene.TextureTypeMetalness, Path: "metal.png"},
		{Type: scene.TextureTypeNormalCamera, Path: "camera.png"},
		{Type: scene.TextureTypeEmissionColor, Path: "glow.png"},
		{Type: scene.TextureTypeDiffuseRoughness, Path: "rough.png"},
		{Type: scene.TextureTypeNormals, Path: "normal2.png"},
	}
	reversed := make([]scene.TextureReference, len(refs))
	for i, r := range refs {
		reversed[len(refs)-1-i] = r
	}

	expected := map[metadata.TextureRole]string{
		metadata.TextureRoleAlbedo:    "",
		metadata.TextureRoleNormal:    "normal",
		metadata.TextureRoleMetallic:  "metal.png",
		metadata.TextureRoleRoughness: "rough.png",
		metadata.TextureRoleOcclusion: "lightmap.png",
		metadata.TextureRoleEmissive:  "glow.png",
	}
	for _, order := range [][]scene.TextureReference{refs, reversed} {
		sc := &scene.Scene{Materials: []*scene.Material{{Textures: order}}}
		requests := EnumerateTextures(sc, "")
		require.Len(t, requests, 5)

		seen := make(map[metadata.TextureRole]bool)
		for i, req := range requests {
			assert.False(t, seen[req.Role], "one request per role")
			seen[req.Role] = true
			if i > 0 {
				assert.Greater(t, req.Role, requests[i-1].Role)
			}
			if req.Role == metadata.TextureRoleNormal {
				// the first declared Normals reference wins among equals
				assert.Equal(t, scene.TextureTypeNormals, req.Alias)
				continue
			}
			assert.Equal(t, expected[req.Role], req.Source)
		}
		assert.False(t, seen[metadata.TextureRoleAlbedo])
	}
}

func TestEnumerateTexturesIgnoresHeightMaps(t *testing.T) {
	sc := &scene.Scene{Materials: []*scene.Material{{Textures: []scene.TextureReference{
		{Type: scene.TextureTypeHeight, Path: "bump.png"},
		{Type: scene.TextureTypeDiffuse, Path: "diffuse.png"},
	}}}}

	requests := EnumerateTextures(sc, "/models")
	require.Len(t, requests, 1)
	assert.Equal(t, metadata.TextureRoleAlbedo, requests[0].Role)
	assert.Equal(t, "diffuse.png", requests[0].Source)
}

func TestEnumerateTexturesEmbedded(t *testing.T) {
	sc := &scene.Scene{
		Path: "model.glb",
		Textures: []*scene.EmbeddedTexture{
			{Data: []byte{1, 2, 3}, FormatHint: "image/png"},
			{Width: 1, Height: 1, Texels: []uint8{1, 2, 3, 4}},
		},
		Materials: []*scene.Material{{Textures: []scene.TextureReference{
			// out of range, the next alias takes over
			{Type: scene.TextureTypeBaseColor, Path: "*9"},
			{Type: scene.TextureTypeDiffuse, Path: "*0"},
			{Type: scene.TextureTypeNormals, Path: "*1"},
			{Type: scene.TextureTypeEmissive, Path: "  "},
			{Type: scene.TextureTypeAmbientOcclusion, Path: "/abs/ao.png"},
		}}},
	}

	requests := EnumerateTextures(sc, "/models")
	require.Len(t, requests, 3)

	albedo := requests[0]
	assert.Equal(t, metadata.TextureRoleAlbedo, albedo.Role)
	assert.True(t, albedo.Embedded())
	assert.False(t, albedo.Raw())
	assert.Equal(t, []byte{1, 2, 3}, albedo.Data)
	assert.Equal(t, "image/png", albedo.FormatHint)
	assert.Equal(t, "*0", albedo.Source)

	normal := requests[1]
	assert.True(t, normal.Raw())
	assert.Equal(t, uint32(1), normal.Width)

	ao := requests[2]
	assert.Equal(t, metadata.TextureRoleOcclusion, ao.Role)
	assert.Equal(t, filepath.FromSlash("/abs/ao.png"), ao.Path)
}
