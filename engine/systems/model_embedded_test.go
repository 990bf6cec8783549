package systems

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/scene"
)

const embeddedGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "tri", "mesh": 0}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 1}, "indices": 2, "material": 0}]}],
  "materials": [{"name": "painted", "pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
  "textures": [{"source": 0}],
  "images": [{"uri": "data:image/png;base64,%s"}],
  "buffers": [{"byteLength": 68, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 24},
    {"buffer": 0, "byteOffset": 60, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC2"},
    {"bufferView": 2, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ]
}`

func writeEmbeddedGLTF(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var geometry bytes.Buffer
	require.NoError(t, binary.Write(&geometry, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}))
	require.NoError(t, binary.Write(&geometry, binary.LittleEndian, []float32{0, 0, 1, 0, 0, 1}))
	require.NoError(t, binary.Write(&geometry, binary.LittleEndian, []uint16{0, 1, 2, 0}))

	doc := fmt.Sprintf(embeddedGLTF,
		base64.StdEncoding.EncodeToString(pngBuf.Bytes()),
		base64.StdEncoding.EncodeToString(geometry.Bytes()))
	path := filepath.Join(t.TempDir(), "embedded.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestModelLoadEmbeddedTexture(t *testing.T) {
	sm, _ := newTestSystems(t, testConfig())
	path := writeEmbeddedGLTF(t)

	var reports []metadata.LoadProgress
	model, err := sm.ModelLoaderSystem.Load(path, func(p metadata.LoadProgress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)

	require.Len(t, model.Materials, 1)
	albedo := model.Materials[0].Slot(metadata.TextureRoleAlbedo)
	assert.Equal(t, metadata.SlotStateBound, albedo.State)
	require.True(t, albedo.Texture.Valid())
	assert.False(t, albedo.Texture.Default)
	assert.Equal(t, path+scene.EmbeddedTag(0), albedo.Texture.Name)
	assert.Equal(t, uint32(4), albedo.Texture.Width)
	assert.Equal(t, metadata.LoadStats{Requested: 1, Loaded: 1}, model.Stats)
	assertProgress(t, reports, 1)

	require.NoError(t, sm.ModelLoaderSystem.Unload(model))
	assert.Zero(t, sm.TextureSystem.LiveCount())
}

// rawTexelImporter returns one triangle whose material points at raw embedded texels.
type rawTexelImporter struct {
	texels []uint8
}

func (ri *rawTexelImporter) Import(path string) (*scene.Scene, error) {
	mesh := &scene.Mesh{
		Name:      "tri",
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Faces:     [][]uint32{{0, 1, 2}},
	}
	root := scene.NewNode("root")
	root.Meshes = []int{0}
	return &scene.Scene{
		Meshes: []*scene.Mesh{mesh},
		Materials: []*scene.Material{{
			Name:      "raw",
			BaseColor: mgl32.Vec4{1, 1, 1, 1},
			Textures:  []scene.TextureReference{{Type: scene.TextureTypeBaseColor, Path: scene.EmbeddedTag(0)}},
		}},
		Textures: []*scene.EmbeddedTexture{{Width: 2, Height: 2, Texels: ri.texels}},
		Root:     root,
	}, nil
}

func TestModelLoadRawTexels(t *testing.T) {
	texels := make([]uint8, 2*2*4)
	for i := range texels {
		texels[i] = 0xff
	}
	scene.RegisterImporter(".rawtexels", &rawTexelImporter{texels: texels})

	sm, _ := newTestSystems(t, testConfig())
	path := filepath.Join(t.TempDir(), "model.rawtexels")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0o644))

	model, err := sm.ModelLoaderSystem.Load(path, nil)
	require.NoError(t, err)

	albedo := model.Materials[0].Slot(metadata.TextureRoleAlbedo)
	assert.Equal(t, metadata.SlotStateBound, albedo.State)
	require.True(t, albedo.Texture.Valid())
	assert.Equal(t, path+scene.EmbeddedTag(0), albedo.Texture.Name)
	assert.Equal(t, uint32(2), albedo.Texture.Width)
	assert.Equal(t, uint32(2), albedo.Texture.Height)
	assert.Equal(t, metadata.LoadStats{Requested: 1, Loaded: 1}, model.Stats)
	// the scene keeps its texels; the upload worked on a copy
	assert.Equal(t, uint8(0xff), texels[0])

	require.NoError(t, sm.ModelLoaderSystem.Unload(model))
}
