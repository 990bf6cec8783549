package systems

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

type GeometrySystemConfig struct {
	/**
	 * @brief Max number of geometries that can be loaded at once.
	 * NOTE: Should be significantly greater than the number of static meshes because
	 * the there can and will be more than one of these per mesh.
	 */
	MaxGeometryCount uint32
}

/**
 * @brief Uploads mesh data to the renderer. Must not be called from a job.
 */
type GeometrySystem struct {
	Config *GeometrySystemConfig
	live   atomic.Int64

	renderer *RendererSystem
}

func NewGeometrySystem(config *GeometrySystemConfig, r *RendererSystem) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &GeometrySystem{
		Config:   config,
		renderer: r,
	}, nil
}

/**
 * @brief Uploads mesh and records its geometry id and bounds on it.
 */
func (gs *GeometrySystem) Upload(mesh *metadata.Mesh) error {
	if gs.live.Add(1) > int64(gs.Config.MaxGeometryCount) {
		gs.live.Add(-1)
		err := fmt.Errorf("unable to upload geometry '%s': max geometry count %d reached", mesh.Name, gs.Config.MaxGeometryCount)
		core.LogError(err.Error())
		return err
	}

	config := metadata.NewGeometryConfig(mesh)
	id, err := gs.renderer.GeometryCreate(config)
	if err != nil {
		gs.live.Add(-1)
		err = fmt.Errorf("failed to create geometry '%s': %w", mesh.Name, err)
		core.LogError(err.Error())
		return err
	}
	mesh.GeometryID = id
	mesh.Center = config.Center
	mesh.MinExtents = config.MinExtents
	mesh.MaxExtents = config.MaxExtents
	return nil
}

/**
 * @brief Uploads every mesh. On failure the meshes uploaded by this call are
 * released again, so either all or none are live.
 */
func (gs *GeometrySystem) UploadAll(meshes []*metadata.Mesh) error {
	for i, m := range meshes {
		if err := gs.Upload(m); err != nil {
			for _, done := range meshes[:i] {
				gs.Release(done)
			}
			return err
		}
	}
	return nil
}

// Release destroys the geometry of mesh. Meshes that are not uploaded are ignored.
func (gs *GeometrySystem) Release(mesh *metadata.Mesh) error {
	if mesh == nil || !mesh.Uploaded() {
		return nil
	}
	id := mesh.GeometryID
	mesh.GeometryID = metadata.InvalidID
	gs.live.Add(-1)
	if err := gs.renderer.GeometryDestroy(id); err != nil {
		core.LogWarn("failed to destroy geometry '%s' (%d): %s", mesh.Name, id, err)
		return err
	}
	return nil
}

func (gs *GeometrySystem) LiveCount() int {
	return int(gs.live.Load())
}

func (gs *GeometrySystem) Shutdown() error {
	if n := gs.LiveCount(); n > 0 {
		core.LogWarn("geometry system shutting down with %d geometries still uploaded", n)
	}
	return nil
}
