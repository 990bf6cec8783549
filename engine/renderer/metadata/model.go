package metadata

import "sync/atomic"

/**
 * @brief A renderable model: uploaded meshes plus the materials they
 * reference. Owned through a reference-counted handle; its GPU resources
 * are released exactly once.
 */
type Model struct {
	/** @brief The load identifier, used to correlate log lines. */
	ID string
	/** @brief The canonical path the model was loaded from. */
	Path string
	/** @brief The uploaded meshes. */
	Meshes []*Mesh
	/** @brief The materials, indexed by Mesh.MaterialIndex. */
	Materials []*Material
	/** @brief Texture counters of the load that produced the model. */
	Stats LoadStats

	released atomic.Bool
}

/** @brief Per-load texture counters. */
type LoadStats struct {
	Requested int
	Loaded    int
	Failed    int
}

// MarkReleased flips the model to released and reports whether this call did it.
func (m *Model) MarkReleased() bool {
	return m.released.CompareAndSwap(false, true)
}

func (m *Model) Released() bool {
	return m.released.Load()
}

// Material returns the material of mesh, or nil when the index is out of range.
func (m *Model) Material(mesh *Mesh) *Material {
	if mesh == nil || int(mesh.MaterialIndex) >= len(m.Materials) {
		return nil
	}
	return m.Materials[mesh.MaterialIndex]
}
