package systems

import (
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

const twoMaterialOBJ = `mtllib scene.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
o a
usemtl painted
f 1/1 2/2 3/3
o b
usemtl plain
f 1/1 3/3 4/4
`

const twoMaterialMTL = `newmtl painted
Kd 0.5 0.5 0.5
Pm 0.25
map_Kd albedo.png
map_Ks missing.png
newmtl plain
Kd 1 0 0
`

func writeModel(t *testing.T, obj, mtl string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.obj"), []byte(obj), 0o644))
	if mtl != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(mtl), 0o644))
	}
	return filepath.Join(dir, "scene.obj")
}

func TestModelLoad(t *testing.T) {
	sm, backend := newTestSystems(t, testConfig())
	path := writeModel(t, twoMaterialOBJ, twoMaterialMTL)
	writePNG(t, filepath.Join(filepath.Dir(path), "albedo.png"), 4, 4, color.NRGBA{G: 255, A: 255})

	var reports []metadata.LoadProgress
	model, err := sm.ModelLoaderSystem.Load(path, func(p metadata.LoadProgress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)
	require.NotNil(t, model)

	require.Len(t, model.Meshes, 2)
	for _, m := range model.Meshes {
		assert.True(t, m.Uploaded())
	}
	assert.Equal(t, 2, backend.LiveGeometries())

	require.Len(t, model.Materials, 2)
	painted, plain := model.Materials[0], model.Materials[1]
	assert.Equal(t, "painted", painted.Name)

	albedo := painted.Slot(metadata.TextureRoleAlbedo)
	assert.Equal(t, metadata.SlotStateBound, albedo.State)
	assert.False(t, albedo.Texture.Default)
	assert.Equal(t, uint32(3), albedo.Texture.MipLevels)
	// an albedo texture resets the base colour
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, painted.BaseColor)
	assert.InDelta(t, 0.25, painted.Metallic, 1e-6)

	metallic := painted.Slot(metadata.TextureRoleMetallic)
	assert.Equal(t, metadata.SlotStateFailed, metallic.State)
	assert.Same(t, sm.TextureSystem.Default(metadata.TextureRoleMetallic), metallic.Texture)

	for _, role := range metadata.TextureRoles() {
		slot := plain.Slot(role)
		assert.Equal(t, metadata.SlotStateEmpty, slot.State)
		assert.Same(t, sm.TextureSystem.Default(role), slot.Texture)
	}
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, plain.BaseColor)

	shared := sm.ShaderSystem.Shared()
	for _, m := range model.Materials {
		assert.Same(t, shared, m.Shader)
	}

	assert.Equal(t, metadata.LoadStats{Requested: 2, Loaded: 1, Failed: 1}, model.Stats)
	assertProgress(t, reports, 2)

	require.NoError(t, sm.ModelLoaderSystem.Unload(model))
	assert.ErrorIs(t, sm.ModelLoaderSystem.Unload(model), core.ErrHandleReleased)
	assert.Zero(t, backend.LiveGeometries())
	assert.Zero(t, sm.TextureSystem.LiveCount())
	assert.Equal(t, int(metadata.TextureRoleCount), backend.LiveTextures())
}

// assertProgress checks the counters never go down and complete exactly once.
func assertProgress(t *testing.T, reports []metadata.LoadProgress, total int) {
	t.Helper()
	require.NotEmpty(t, reports)
	completions := 0
	for i, p := range reports {
		assert.LessOrEqual(t, p.TotalImages, total)
		if i > 0 {
			prev := reports[i-1]
			assert.GreaterOrEqual(t, p.State, prev.State)
			assert.GreaterOrEqual(t, p.ImagesDecoded, prev.ImagesDecoded)
			assert.GreaterOrEqual(t, p.TexturesUploaded, prev.TexturesUploaded)
			assert.Equal(t, prev.LoadID, p.LoadID)
		}
		if p.Complete {
			completions++
		}
	}
	last := reports[len(reports)-1]
	assert.Equal(t, 1, completions)
	assert.Equal(t, metadata.LoadStateDone, last.State)
	assert.Equal(t, total, last.ImagesDecoded)
	assert.Equal(t, total, last.TexturesUploaded)
	assert.Equal(t, float32(1), last.UploadProgress())
	assert.Equal(t, metadata.LoadStateDiscovering, reports[0].State)
}

func TestModelLoadWithoutTextures(t *testing.T) {
	sm, _ := newTestSystems(t, testConfig())
	path := writeModel(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", "")

	var reports []metadata.LoadProgress
	model, err := sm.ModelLoaderSystem.Load(path, func(p metadata.LoadProgress) { reports = append(reports, p) })
	require.NoError(t, err)
	require.Len(t, model.Materials, 1)
	for _, role := range metadata.TextureRoles() {
		assert.Same(t, sm.TextureSystem.Default(role), model.Materials[0].Texture(role))
	}
	assertProgress(t, reports, 0)
}

func TestModelLoadFailures(t *testing.T) {
	sm, backend := newTestSystems(t, testConfig())

	_, err := sm.ModelLoaderSystem.Load(filepath.Join(t.TempDir(), "absent.obj"), nil)
	assert.ErrorIs(t, err, core.ErrSceneParse)

	path := writeModel(t, "v 0 0 0\nv 1 0 0\nl 1 2\n", "")
	var reports []metadata.LoadProgress
	_, err = sm.ModelLoaderSystem.Load(path, func(p metadata.LoadProgress) { reports = append(reports, p) })
	assert.ErrorIs(t, err, core.ErrNoMeshes)
	for _, p := range reports {
		assert.False(t, p.Complete)
	}
	assert.Zero(t, backend.LiveGeometries())
}

func TestModelLoadGeometryLimit(t *testing.T) {
	config := testConfig()
	config.Geometry.MaxGeometryCount = 1
	sm, backend := newTestSystems(t, config)
	path := writeModel(t, twoMaterialOBJ, twoMaterialMTL)

	_, err := sm.ModelLoaderSystem.Load(path, nil)
	require.Error(t, err)
	assert.Zero(t, backend.LiveGeometries())
	assert.Zero(t, sm.GeometrySystem.LiveCount())
}

func TestModelBindTextureFile(t *testing.T) {
	sm, _ := newTestSystems(t, testConfig())
	path := writeModel(t, twoMaterialOBJ, twoMaterialMTL)
	dir := filepath.Dir(path)
	writePNG(t, filepath.Join(dir, "albedo.png"), 2, 2, color.NRGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(dir, "other.png"), 2, 2, color.NRGBA{R: 255, A: 255})

	model, err := sm.ModelLoaderSystem.Load(path, nil)
	require.NoError(t, err)
	first := model.Materials[0].Texture(metadata.TextureRoleAlbedo)
	require.False(t, first.Default)
	assert.Equal(t, 1, sm.TextureSystem.LiveCount())

	require.NoError(t, sm.ModelLoaderSystem.BindTextureFile(model, 0, metadata.TextureRoleAlbedo, filepath.Join(dir, "other.png")))
	second := model.Materials[0].Texture(metadata.TextureRoleAlbedo)
	assert.NotSame(t, first, second)
	assert.False(t, first.Valid(), "the replaced texture was released")
	assert.Equal(t, 1, sm.TextureSystem.LiveCount())

	err = sm.ModelLoaderSystem.BindTextureFile(model, 0, metadata.TextureRoleAlbedo, filepath.Join(dir, "gone.png"))
	assert.Error(t, err)
	assert.Same(t, sm.TextureSystem.Default(metadata.TextureRoleAlbedo), model.Materials[0].Texture(metadata.TextureRoleAlbedo))
	assert.Equal(t, metadata.SlotStateFailed, model.Materials[0].Slot(metadata.TextureRoleAlbedo).State)
	assert.Zero(t, sm.TextureSystem.LiveCount())

	assert.Error(t, sm.ModelLoaderSystem.BindTextureFile(model, 5, metadata.TextureRoleAlbedo, "x.png"))
	require.NoError(t, sm.ModelLoaderSystem.Unload(model))
	assert.ErrorIs(t, sm.ModelLoaderSystem.BindTextureFile(model, 0, metadata.TextureRoleAlbedo, "x.png"), core.ErrHandleReleased)
}

func TestModelLoadConcurrently(t *testing.T) {
	sm, backend := newTestSystems(t, testConfig())
	path := writeModel(t, twoMaterialOBJ, twoMaterialMTL)
	writePNG(t, filepath.Join(filepath.Dir(path), "albedo.png"), 4, 4, color.NRGBA{A: 255})

	var wg sync.WaitGroup
	models := make([]*metadata.Model, 4)
	for i := range models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := sm.ModelLoaderSystem.Load(path, nil)
			assert.NoError(t, err)
			models[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, backend.LiveGeometries())
	for _, m := range models {
		require.NotNil(t, m)
		require.NoError(t, sm.ModelLoaderSystem.Unload(m))
	}
	assert.Zero(t, backend.LiveGeometries())
}
