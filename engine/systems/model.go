package systems

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/scene"
)

/**
 * @brief Loads model files into uploaded meshes and materials.
 *
 * A load runs on the calling goroutine. Textures are decoded on the job
 * system; everything that talks to the renderer (geometry and texture
 * uploads) is issued from the calling goroutine through the RendererSystem,
 * never from a job.
 */
type ModelLoaderSystem struct {
	jobSystem      *JobSystem
	textureSystem  *TextureSystem
	materialSystem *MaterialSystem
	geometrySystem *GeometrySystem
	shaderSystem   *ShaderSystem
}

func NewModelLoaderSystem(js *JobSystem, ts *TextureSystem, ms *MaterialSystem, gs *GeometrySystem, ss *ShaderSystem) (*ModelLoaderSystem, error) {
	if js == nil || ts == nil || ms == nil || gs == nil {
		err := fmt.Errorf("func NewModelLoaderSystem - job, texture, material and geometry systems are required")
		core.LogError(err.Error())
		return nil, err
	}
	return &ModelLoaderSystem{
		jobSystem:      js,
		textureSystem:  ts,
		materialSystem: ms,
		geometrySystem: gs,
		shaderSystem:   ss,
	}, nil
}

func (mls *ModelLoaderSystem) Shutdown() error {
	return nil
}

/**
 * @brief Loads the model at path.
 *
 * Meshes are uploaded before any texture is awaited. Texture futures are then
 * awaited in submission order and each result is uploaded and bound as it
 * arrives; a texture that fails to decode or upload leaves the role default
 * bound. progress, when not nil, is called after every state change and
 * every texture, always from this goroutine.
 *
 * @return ErrSceneParse or ErrNoMeshes when the file cannot be used, or the
 * geometry upload error. No model is produced in those cases.
 */
func (mls *ModelLoaderSystem) Load(path string, progress metadata.ProgressFunc) (*metadata.Model, error) {
	clock := core.NewClock()
	clock.Start()

	p := metadata.LoadProgress{
		LoadID: uuid.NewString(),
		Path:   path,
		State:  metadata.LoadStateDiscovering,
	}
	report := func(state metadata.LoadState) {
		p.State = state
		if progress != nil {
			progress(p)
		}
	}
	report(metadata.LoadStateDiscovering)
	core.LogDebug("load %s: model '%s'", p.LoadID, path)

	report(metadata.LoadStateParsingMeshes)
	sc, err := scene.Import(path, scene.DefaultImportFlags)
	if err != nil {
		return nil, err
	}
	meshes := meshRecords(sc)

	requests := EnumerateTextures(sc, filepath.Dir(path))
	p.TotalImages = len(requests)
	report(metadata.LoadStateEnumeratingTextures)

	futures := make([]*Future[*metadata.DecodedImage], len(requests))
	for i := range requests {
		futures[i] = mls.submit(&requests[i])
	}
	report(metadata.LoadStateDecoding)

	// Meshes never wait for textures.
	if err := mls.geometrySystem.UploadAll(meshes); err != nil {
		mls.drain(futures)
		err = fmt.Errorf("load %s: failed to upload meshes of '%s': %w", p.LoadID, path, err)
		core.LogError(err.Error())
		return nil, err
	}

	materials := mls.createMaterials(sc, meshes)
	for i := range requests {
		req := &requests[i]
		mls.materialSystem.MarkPending(materials[req.MaterialIndex], req.Role, req.Source)
	}

	report(metadata.LoadStateUploading)
	stats := metadata.LoadStats{Requested: len(requests)}
	for i, f := range futures {
		req := &requests[i]
		img, err := f.Get()
		if err != nil || img == nil {
			img = metadata.NewInvalidImage(req.Source, err)
		}
		if req.Embedded() {
			img.Source = path + req.Source
		}
		p.ImagesDecoded++
		if !img.Valid {
			core.LogWarn("load %s: %s: decode failed: %v", p.LoadID, req, img.Err)
		}

		tex := mls.textureSystem.Upload(img)
		if mls.materialSystem.Bind(materials[req.MaterialIndex], req.Role, tex, req.Source) {
			stats.Loaded++
		} else {
			stats.Failed++
		}
		p.TexturesUploaded++
		report(metadata.LoadStateUploading)
	}

	if shader := mls.sharedShader(); shader != nil {
		for _, m := range materials {
			mls.materialSystem.AttachShader(m, shader)
		}
	}
	report(metadata.LoadStateFinalizing)

	model := &metadata.Model{
		ID:        p.LoadID,
		Path:      path,
		Meshes:    meshes,
		Materials: materials,
		Stats:     stats,
	}

	clock.Stop()
	p.Complete = true
	report(metadata.LoadStateDone)
	core.LogInfo("load %s: '%s' done in %s: %d meshes, %d materials, %d/%d textures loaded, %d failed",
		p.LoadID, path, clock.Elapsed(), len(meshes), len(materials), stats.Loaded, stats.Requested, stats.Failed)
	return model, nil
}

func (mls *ModelLoaderSystem) sharedShader() *metadata.Shader {
	if mls.shaderSystem == nil {
		return nil
	}
	return mls.shaderSystem.Shared()
}

// submit starts the decode of req. Raw texels need no decoding and resolve at once.
func (mls *ModelLoaderSystem) submit(req *TextureRequest) *Future[*metadata.DecodedImage] {
	switch {
	case req.Raw():
		return Resolved(loaders.RawImage(req.Source, req.Width, req.Height, req.Texels), nil)
	case req.Embedded():
		return mls.jobSystem.DecodeFromMemoryAsync(req.Data, req.FormatHint)
	default:
		return mls.jobSystem.DecodeAsync(req.Path)
	}
}

// drain waits for every future and drops the decoded pixels.
func (mls *ModelLoaderSystem) drain(futures []*Future[*metadata.DecodedImage]) {
	for _, f := range futures {
		if img, _ := f.Get(); img != nil {
			img.Release()
		}
	}
}

func meshRecords(sc *scene.Scene) []*metadata.Mesh {
	meshes := make([]*metadata.Mesh, 0, len(sc.Meshes))
	for _, m := range sc.Meshes {
		meshes = append(meshes, &metadata.Mesh{
			Name:          m.Name,
			Positions:     m.Positions,
			Normals:       m.Normals,
			Tangents:      m.Tangents,
			UVs:           m.UVs,
			Colors:        m.Colors,
			Indices:       m.Indices,
			MaterialIndex: uint32(max(m.MaterialIndex, 0)),
			GeometryID:    metadata.InvalidID,
		})
	}
	return meshes
}

// createMaterials builds one material per source material, all slots on the defaults.
func (mls *ModelLoaderSystem) createMaterials(sc *scene.Scene, meshes []*metadata.Mesh) []*metadata.Material {
	materials := make([]*metadata.Material, 0, max(len(sc.Materials), 1))
	for _, m := range sc.Materials {
		materials = append(materials, mls.materialSystem.Create(metadata.MaterialConfig{
			Name:      m.Name,
			BaseColor: m.BaseColor,
			Metallic:  m.Metallic,
			Roughness: m.Roughness,
		}))
	}
	if len(materials) == 0 {
		materials = append(materials, mls.materialSystem.Create(metadata.DefaultMaterialConfig()))
	}
	for _, m := range meshes {
		if int(m.MaterialIndex) >= len(materials) {
			core.LogWarn("mesh '%s' references material %d of %d, using material 0", m.Name, m.MaterialIndex, len(materials))
			m.MaterialIndex = 0
		}
	}
	return materials
}

/**
 * @brief Releases the geometry and the non-default textures of model.
 * @return ErrHandleReleased if the model was unloaded before.
 */
func (mls *ModelLoaderSystem) Unload(model *metadata.Model) error {
	if model == nil {
		return nil
	}
	if !model.MarkReleased() {
		return core.ErrHandleReleased
	}
	var firstErr error
	for _, m := range model.Meshes {
		if err := mls.geometrySystem.Release(m); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, mat := range model.Materials {
		mls.materialSystem.ReleaseTextures(mat)
	}
	core.LogDebug("model '%s' (%s) unloaded", model.Path, model.ID)
	return firstErr
}

/**
 * @brief Decodes the image at path on the job system and binds it into the
 * role slot of material materialIndex, releasing what was bound before.
 * On failure the role default is bound.
 */
func (mls *ModelLoaderSystem) BindTextureFile(model *metadata.Model, materialIndex int, role metadata.TextureRole, path string) error {
	if model.Released() {
		return core.ErrHandleReleased
	}
	if materialIndex < 0 || materialIndex >= len(model.Materials) {
		return fmt.Errorf("model '%s' has no material %d", model.Path, materialIndex)
	}
	mat := model.Materials[materialIndex]
	mls.materialSystem.MarkPending(mat, role, path)

	img, err := mls.jobSystem.DecodeAsync(path).Get()
	if err != nil {
		img = metadata.NewInvalidImage(path, err)
	}
	reason := img.Err
	tex := mls.textureSystem.Upload(img)
	if !mls.materialSystem.Bind(mat, role, tex, path) {
		if reason == nil {
			reason = fmt.Errorf("upload failed")
		}
		return fmt.Errorf("failed to bind %s texture '%s': %w", role, path, reason)
	}
	return nil
}
