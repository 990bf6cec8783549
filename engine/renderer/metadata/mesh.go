package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief A triangulated, indexed mesh ready for upload. Node transforms
 * are already baked into the vertex data. Immutable after upload.
 */
type Mesh struct {
	/** @brief The mesh name. */
	Name string
	/** @brief The vertex positions. */
	Positions []mgl32.Vec3
	/** @brief The vertex normals. Optional. */
	Normals []mgl32.Vec3
	/** @brief The vertex tangents, handedness in w. Optional. */
	Tangents []mgl32.Vec4
	/** @brief The first texture coordinate set. Optional. */
	UVs []mgl32.Vec2
	/** @brief The first vertex colour set. Optional. */
	Colors []mgl32.Vec4
	/** @brief Triangle indices, three per face. */
	Indices []uint32
	/** @brief Index into the owning model's materials. */
	MaterialIndex uint32

	/** @brief The backend geometry id. InvalidID until uploaded. */
	GeometryID uint32
	/** @brief The center of the geometry in model space. */
	Center mgl32.Vec3
	/** @brief The extents of the geometry in model space. */
	MinExtents mgl32.Vec3
	MaxExtents mgl32.Vec3
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Uploaded reports whether the mesh has a live backend geometry.
func (m *Mesh) Uploaded() bool {
	return m.GeometryID != InvalidID
}
