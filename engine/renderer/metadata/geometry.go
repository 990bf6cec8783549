package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Represents the configuration handed to the renderer backend
 * to create a geometry. Built from a mesh right before upload.
 */
type GeometryConfig struct {
	/** @brief The Name of the geometry. */
	Name string
	/** @brief The number of vertices. */
	VertexCount uint32
	/** @brief The number of indices. */
	IndexCount uint32
	/** @brief The vertex positions. */
	Positions []mgl32.Vec3
	/** @brief The vertex normals, if any. */
	Normals []mgl32.Vec3
	/** @brief The vertex tangents, if any. */
	Tangents []mgl32.Vec4
	/** @brief The texture coordinates, if any. */
	UVs []mgl32.Vec2
	/** @brief The vertex colours, if any. */
	Colors []mgl32.Vec4
	/** @brief The triangle indices. */
	Indices []uint32

	Center     mgl32.Vec3
	MinExtents mgl32.Vec3
	MaxExtents mgl32.Vec3
}

// NewGeometryConfig builds the upload configuration of mesh and computes its bounds.
func NewGeometryConfig(mesh *Mesh) *GeometryConfig {
	gc := &GeometryConfig{
		Name:        mesh.Name,
		VertexCount: uint32(len(mesh.Positions)),
		IndexCount:  uint32(len(mesh.Indices)),
		Positions:   mesh.Positions,
		Normals:     mesh.Normals,
		Tangents:    mesh.Tangents,
		UVs:         mesh.UVs,
		Colors:      mesh.Colors,
		Indices:     mesh.Indices,
	}
	if len(mesh.Positions) == 0 {
		return gc
	}
	gc.MinExtents = mesh.Positions[0]
	gc.MaxExtents = mesh.Positions[0]
	for _, p := range mesh.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < gc.MinExtents[i] {
				gc.MinExtents[i] = p[i]
			}
			if p[i] > gc.MaxExtents[i] {
				gc.MaxExtents[i] = p[i]
			}
		}
	}
	gc.Center = gc.MinExtents.Add(gc.MaxExtents).Mul(0.5)
	return gc
}
