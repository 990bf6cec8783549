package scene

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

const epsilon float32 = 1e-8

// postProcess runs the steps selected by flags in a fixed order.
func postProcess(sc *Scene, flags ImportFlags) {
	for _, m := range sc.Meshes {
		buildIndices(m, flags.Has(ImportTriangulate))
		truncateInvalidIndices(m)
	}
	if flags.Has(ImportPreTransformVertices) {
		preTransformVertices(sc)
	}
	for _, m := range sc.Meshes {
		if flags.Has(ImportGenSmoothNormals) && !m.HasNormals() {
			genSmoothNormals(m)
		}
		if flags.Has(ImportFlipUVs) {
			flipUVs(m)
		}
		if flags.Has(ImportCalcTangentSpace) && !m.HasTangents() && m.HasUVs() {
			calcTangentSpace(m)
		}
		if flags.Has(ImportJoinIdenticalVertices) {
			joinIdenticalVertices(m)
		}
	}

	// Points and lines never make it to a triangle list.
	meshes := sc.Meshes[:0]
	for _, m := range sc.Meshes {
		if len(m.Indices) == 0 {
			core.LogDebug("dropping mesh '%s' of '%s': no triangles", m.Name, sc.Path)
			continue
		}
		meshes = append(meshes, m)
	}
	sc.Meshes = meshes
}

/**
 * @brief Turns Faces into a triangle index list. With triangulate set,
 * polygons become fans (0, i-1, i); without it only triangles survive.
 */
func buildIndices(m *Mesh, triangulate bool) {
	if len(m.Faces) == 0 {
		return
	}
	indices := make([]uint32, 0, len(m.Faces)*3)
	skipped := 0
	for _, f := range m.Faces {
		switch {
		case len(f) < 3:
			skipped++
		case len(f) == 3:
			indices = append(indices, f[0], f[1], f[2])
		case triangulate:
			for i := 2; i < len(f); i++ {
				indices = append(indices, f[0], f[i-1], f[i])
			}
		default:
			skipped++
		}
	}
	if skipped > 0 {
		core.LogDebug("mesh '%s': skipped %d faces that are not triangles", m.Name, skipped)
	}
	m.Indices = append(m.Indices, indices...)
	m.Faces = nil
}

// truncateInvalidIndices cuts the triangle list before the first out of range index.
func truncateInvalidIndices(m *Mesh) {
	m.Indices = m.Indices[:len(m.Indices)-len(m.Indices)%3]
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			core.LogWarn("mesh '%s': index %d out of range, triangle list truncated", m.Name, idx)
			m.Indices = m.Indices[:i-i%3]
			return
		}
	}
}

/**
 * @brief Bakes the global transform of every node into copies of the
 * meshes it references. Meshes no node references are dropped, meshes
 * referenced more than once are duplicated.
 */
func preTransformVertices(sc *Scene) {
	if sc.Root == nil {
		return
	}
	var out []*Mesh
	var walk func(n *Node, parent mgl32.Mat4)
	walk = func(n *Node, parent mgl32.Mat4) {
		global := parent.Mul4(n.Transform)
		for _, mi := range n.Meshes {
			if mi < 0 || mi >= len(sc.Meshes) {
				core.LogWarn("node '%s' references mesh %d which does not exist", n.Name, mi)
				continue
			}
			out = append(out, transformMesh(sc.Meshes[mi], global))
		}
		for _, c := range n.Children {
			walk(c, global)
		}
	}
	walk(sc.Root, mgl32.Ident4())

	sc.Meshes = out
	root := NewNode(sc.Root.Name)
	for i := range out {
		root.Meshes = append(root.Meshes, i)
	}
	sc.Root = root
}

func transformMesh(src *Mesh, global mgl32.Mat4) *Mesh {
	dst := &Mesh{
		Name:          src.Name,
		MaterialIndex: src.MaterialIndex,
		Positions:     make([]mgl32.Vec3, len(src.Positions)),
		UVs:           append([]mgl32.Vec2(nil), src.UVs...),
		Colors:        append([]mgl32.Vec4(nil), src.Colors...),
		Indices:       append([]uint32(nil), src.Indices...),
	}
	for i, p := range src.Positions {
		dst.Positions[i] = mgl32.TransformCoordinate(p, global)
	}

	linear := global.Mat3()
	det := linear.Det()
	if len(src.Normals) > 0 {
		normalMatrix := linear.Inv().Transpose()
		dst.Normals = make([]mgl32.Vec3, len(src.Normals))
		for i, n := range src.Normals {
			dst.Normals[i] = safeNormalize(normalMatrix.Mul3x1(n))
		}
	}
	if len(src.Tangents) > 0 {
		dst.Tangents = make([]mgl32.Vec4, len(src.Tangents))
		for i, t := range src.Tangents {
			v := safeNormalize(linear.Mul3x1(t.Vec3()))
			w := t[3]
			if det < 0 {
				w = -w
			}
			dst.Tangents[i] = v.Vec4(w)
		}
	}
	// A mirroring transform flips the winding.
	if det < 0 {
		for i := 0; i+2 < len(dst.Indices); i += 3 {
			dst.Indices[i+1], dst.Indices[i+2] = dst.Indices[i+2], dst.Indices[i+1]
		}
	}
	return dst
}

/**
 * @brief Area-weighted vertex normals. Vertices sharing a position share
 * the accumulated normal, so seams from split UVs stay smooth.
 */
func genSmoothNormals(m *Mesh) {
	byPosition := make(map[mgl32.Vec3]mgl32.Vec3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		p0 := m.Positions[m.Indices[i]]
		p1 := m.Positions[m.Indices[i+1]]
		p2 := m.Positions[m.Indices[i+2]]
		// the cross product length is twice the triangle area
		fn := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, p := range []mgl32.Vec3{p0, p1, p2} {
			byPosition[p] = byPosition[p].Add(fn)
		}
	}
	m.Normals = make([]mgl32.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		n := byPosition[p]
		if n.Len() < epsilon {
			m.Normals[i] = mgl32.Vec3{0, 0, 1}
			continue
		}
		m.Normals[i] = n.Normalize()
	}
}

// flipUVs mirrors v. Tangents that came with the file change handedness.
func flipUVs(m *Mesh) {
	for i := range m.UVs {
		m.UVs[i][1] = 1 - m.UVs[i][1]
	}
	for i := range m.Tangents {
		m.Tangents[i][3] = -m.Tangents[i][3]
	}
}

/**
 * @brief Per-vertex tangents from positions, normals and UVs. The bitangent
 * is cross(normal, tangent.xyz) * tangent.w.
 */
func calcTangentSpace(m *Mesh) {
	if !m.HasNormals() {
		genSmoothNormals(m)
	}
	tan1 := make([]mgl32.Vec3, len(m.Positions))
	tan2 := make([]mgl32.Vec3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		e1 := m.Positions[i1].Sub(m.Positions[i0])
		e2 := m.Positions[i2].Sub(m.Positions[i0])
		d1 := m.UVs[i1].Sub(m.UVs[i0])
		d2 := m.UVs[i2].Sub(m.UVs[i0])

		det := d1[0]*d2[1] - d2[0]*d1[1]
		if math32.Abs(det) < epsilon {
			continue
		}
		r := 1 / det
		sdir := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		tdir := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, idx := range []uint32{i0, i1, i2} {
			tan1[idx] = tan1[idx].Add(sdir)
			tan2[idx] = tan2[idx].Add(tdir)
		}
	}

	m.Tangents = make([]mgl32.Vec4, len(m.Positions))
	for i, n := range m.Normals {
		// Gram-Schmidt orthogonalize
		t := tan1[i].Sub(n.Mul(n.Dot(tan1[i])))
		if t.Len() < epsilon {
			t = anyPerpendicular(n)
		} else {
			t = t.Normalize()
		}
		w := float32(1)
		if n.Cross(t).Dot(tan2[i]) < 0 {
			w = -1
		}
		m.Tangents[i] = t.Vec4(w)
	}
}

func anyPerpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return safeNormalize(axis.Sub(n.Mul(n.Dot(axis))))
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := math32.Sqrt(v.Dot(v))
	if l < epsilon {
		return v
	}
	return v.Mul(1 / l)
}

// 3 position + 3 normal + 4 tangent + 2 uv + 4 colour
type vertexKey [16]uint32

func keyOf(m *Mesh, i uint32) vertexKey {
	var k vertexKey
	put := func(at int, vs ...float32) {
		for j, v := range vs {
			k[at+j] = math.Float32bits(v)
		}
	}
	p := m.Positions[i]
	put(0, p[0], p[1], p[2])
	if m.HasNormals() {
		n := m.Normals[i]
		put(3, n[0], n[1], n[2])
	}
	if m.HasTangents() {
		t := m.Tangents[i]
		put(6, t[0], t[1], t[2], t[3])
	}
	if m.HasUVs() {
		uv := m.UVs[i]
		put(10, uv[0], uv[1])
	}
	if m.HasColors() {
		c := m.Colors[i]
		put(12, c[0], c[1], c[2], c[3])
	}
	return k
}

/**
 * @brief Welds vertices whose attributes are bit-identical and remaps the
 * indices. Vertices no triangle references are dropped as well.
 */
func joinIdenticalVertices(m *Mesh) {
	seen := make(map[vertexKey]uint32, len(m.Positions))
	remap := make(map[uint32]uint32, len(m.Positions))
	out := &Mesh{}
	for _, idx := range m.Indices {
		if _, ok := remap[idx]; ok {
			continue
		}
		k := keyOf(m, idx)
		if existing, ok := seen[k]; ok {
			remap[idx] = existing
			continue
		}
		next := uint32(len(out.Positions))
		seen[k] = next
		remap[idx] = next
		out.Positions = append(out.Positions, m.Positions[idx])
		if m.HasNormals() {
			out.Normals = append(out.Normals, m.Normals[idx])
		}
		if m.HasTangents() {
			out.Tangents = append(out.Tangents, m.Tangents[idx])
		}
		if m.HasUVs() {
			out.UVs = append(out.UVs, m.UVs[idx])
		}
		if m.HasColors() {
			out.Colors = append(out.Colors, m.Colors[idx])
		}
	}
	before := len(m.Positions)
	for i, idx := range m.Indices {
		m.Indices[i] = remap[idx]
	}
	m.Positions, m.Normals, m.Tangents, m.UVs, m.Colors = out.Positions, out.Normals, out.Tangents, out.UVs, out.Colors
	if before != len(m.Positions) {
		core.LogDebug("mesh '%s': welded %d vertices into %d", m.Name, before, len(m.Positions))
	}
}

func (m *Mesh) String() string {
	return fmt.Sprintf("%s (%d vertices, %d triangles)", m.Name, len(m.Positions), len(m.Indices)/3)
}
