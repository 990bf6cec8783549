package scene

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

const extSpecularGlossiness = "KHR_materials_pbrSpecularGlossiness"

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

/**
 * @brief Imports glTF 2.0 files, both .gltf (external or data URI buffers)
 * and binary .glb. Every primitive becomes a mesh.
 */
type GLTFImporter struct{}

func (gi *GLTFImporter) Import(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open '%s': %w", path, err)
	}

	sc := &Scene{}
	imageRefs := gi.images(doc, sc)
	gi.materials(doc, sc, imageRefs)

	// meshPrims[meshIdx] = scene mesh indices, one per primitive
	meshPrims := make([][]int, len(doc.Meshes))
	defaultMaterial := -1
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := gi.primitive(doc, gm.Name, mi, pi, prim)
			if err != nil {
				core.LogWarn("gltf '%s': mesh %d primitive %d: %s", path, mi, pi, err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(sc.Materials) {
				m.MaterialIndex = *prim.Material
			} else {
				if defaultMaterial < 0 {
					defaultMaterial = len(sc.Materials)
					sc.Materials = append(sc.Materials, defaultGLTFMaterial())
				}
				m.MaterialIndex = defaultMaterial
			}
			meshPrims[mi] = append(meshPrims[mi], len(sc.Meshes))
			sc.Meshes = append(sc.Meshes, m)
		}
	}

	sc.Root = gi.nodes(doc, filepath.Base(path), meshPrims, len(sc.Meshes))
	return sc, nil
}

// images registers embedded images on sc and returns the reference path of every image.
func (gi *GLTFImporter) images(doc *gltf.Document, sc *Scene) []string {
	refs := make([]string, len(doc.Images))
	for i, img := range doc.Images {
		switch {
		case img.BufferView != nil:
			if *img.BufferView >= len(doc.BufferViews) {
				core.LogWarn("gltf: image %d references missing buffer view %d", i, *img.BufferView)
				continue
			}
			raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
			if err != nil {
				core.LogWarn("gltf: image %d buffer view: %s", i, err)
				continue
			}
			refs[i] = EmbeddedTag(len(sc.Textures))
			sc.Textures = append(sc.Textures, &EmbeddedTexture{
				Data:       append([]byte(nil), raw...),
				FormatHint: img.MimeType,
			})
		case img.IsEmbeddedResource():
			data, err := img.MarshalData()
			if err != nil {
				core.LogWarn("gltf: image %d data uri: %s", i, err)
				continue
			}
			hint := img.MimeType
			if hint == "" {
				hint = dataURIMimeType(img.URI)
			}
			refs[i] = EmbeddedTag(len(sc.Textures))
			sc.Textures = append(sc.Textures, &EmbeddedTexture{Data: data, FormatHint: hint})
		case img.URI != "":
			uri, err := url.PathUnescape(img.URI)
			if err != nil {
				uri = img.URI
			}
			refs[i] = filepath.FromSlash(uri)
		}
	}
	return refs
}

// dataURIMimeType returns "image/png" for "data:image/png;base64,...".
func dataURIMimeType(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return rest[:i]
	}
	return ""
}

func defaultGLTFMaterial() *Material {
	return &Material{
		Name:      "DefaultMaterial",
		BaseColor: mgl32.Vec4{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
	}
}

type specularGlossiness struct {
	DiffuseFactor             *[4]float64          `json:"diffuseFactor"`
	DiffuseTexture            *struct{ Index int } `json:"diffuseTexture"`
	SpecularGlossinessTexture *struct{ Index int } `json:"specularGlossinessTexture"`
}

func (gi *GLTFImporter) materials(doc *gltf.Document, sc *Scene, imageRefs []string) {
	for i, gm := range doc.Materials {
		m := defaultGLTFMaterial()
		m.Name = gm.Name
		if m.Name == "" {
			m.Name = fmt.Sprintf("material_%d", i)
		}

		add := func(t TextureType, textureIndex int) {
			if textureIndex < 0 || textureIndex >= len(doc.Textures) {
				return
			}
			src := doc.Textures[textureIndex].Source
			if src == nil || *src >= len(imageRefs) || imageRefs[*src] == "" {
				return
			}
			m.Textures = append(m.Textures, TextureReference{Type: t, Path: imageRefs[*src]})
		}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			m.BaseColor = mgl32.Vec4{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])}
			m.Metallic = float32(pbr.MetallicFactorOrDefault())
			m.Roughness = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				add(TextureTypeBaseColor, pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				// one texture, metalness in blue and roughness in green
				add(TextureTypeMetalness, pbr.MetallicRoughnessTexture.Index)
				add(TextureTypeDiffuseRoughness, pbr.MetallicRoughnessTexture.Index)
			}
		}

		if ext, ok := gm.Extensions[extSpecularGlossiness]; ok {
			var sg specularGlossiness
			if raw, err := json.Marshal(ext); err == nil && json.Unmarshal(raw, &sg) == nil {
				if sg.DiffuseFactor != nil && gm.PBRMetallicRoughness == nil {
					df := *sg.DiffuseFactor
					m.BaseColor = mgl32.Vec4{float32(df[0]), float32(df[1]), float32(df[2]), float32(df[3])}
				}
				if sg.DiffuseTexture != nil {
					add(TextureTypeDiffuse, sg.DiffuseTexture.Index)
				}
				if sg.SpecularGlossinessTexture != nil {
					add(TextureTypeSpecular, sg.SpecularGlossinessTexture.Index)
				}
			} else {
				core.LogWarn("gltf: material '%s' has an unreadable %s extension", m.Name, extSpecularGlossiness)
			}
		}

		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			add(TextureTypeNormals, *gm.NormalTexture.Index)
		}
		if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
			add(TextureTypeAmbientOcclusion, *gm.OcclusionTexture.Index)
		}
		if gm.EmissiveTexture != nil {
			add(TextureTypeEmissive, gm.EmissiveTexture.Index)
		}
		sc.Materials = append(sc.Materials, m)
	}
}

func (gi *GLTFImporter) accessor(doc *gltf.Document, prim *gltf.Primitive, attr string) *gltf.Accessor {
	idx, ok := prim.Attributes[attr]
	if !ok || idx < 0 || idx >= len(doc.Accessors) {
		return nil
	}
	return doc.Accessors[idx]
}

func (gi *GLTFImporter) primitive(doc *gltf.Document, meshName string, mi, pi int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, pi)
	if meshName == "" {
		name = fmt.Sprintf("mesh_%d_p%d", mi, pi)
	}

	posAcc := gi.accessor(doc, prim, "POSITION")
	if posAcc == nil {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	m := &Mesh{Name: name, Positions: make([]mgl32.Vec3, len(positions))}
	for i, p := range positions {
		m.Positions[i] = mgl32.Vec3(p)
	}

	if acc := gi.accessor(doc, prim, "NORMAL"); acc != nil {
		if normals, err := modeler.ReadNormal(doc, acc, nil); err == nil {
			m.Normals = make([]mgl32.Vec3, len(normals))
			for i, n := range normals {
				m.Normals[i] = mgl32.Vec3(n)
			}
		}
	}
	if acc := gi.accessor(doc, prim, "TANGENT"); acc != nil {
		if tangents, err := modeler.ReadTangent(doc, acc, nil); err == nil {
			m.Tangents = make([]mgl32.Vec4, len(tangents))
			for i, t := range tangents {
				m.Tangents[i] = mgl32.Vec4(t)
			}
		}
	}
	if acc := gi.accessor(doc, prim, "TEXCOORD_0"); acc != nil {
		if uvs, err := modeler.ReadTextureCoord(doc, acc, nil); err == nil {
			m.UVs = make([]mgl32.Vec2, len(uvs))
			for i, uv := range uvs {
				m.UVs[i] = mgl32.Vec2(uv)
			}
		}
	}
	if acc := gi.accessor(doc, prim, "COLOR_0"); acc != nil {
		if data, err := modeler.ReadAccessor(doc, acc, nil); err == nil {
			m.Colors = colors(data)
		}
	}

	var indices []uint32
	if prim.Indices != nil && *prim.Indices < len(doc.Accessors) {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch prim.Mode {
	case gltf.PrimitiveTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1], indices[i+2]})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				m.Faces = append(m.Faces, []uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 2; i < len(indices); i++ {
			m.Faces = append(m.Faces, []uint32{indices[0], indices[i-1], indices[i]})
		}
	default:
		return nil, fmt.Errorf("primitive mode %d has no triangles", prim.Mode)
	}
	return m, nil
}

// colors converts any COLOR_0 accessor layout to float RGBA.
func colors(data any) []mgl32.Vec4 {
	var out []mgl32.Vec4
	switch c := data.(type) {
	case [][4]float32:
		for _, v := range c {
			out = append(out, mgl32.Vec4(v))
		}
	case [][3]float32:
		for _, v := range c {
			out = append(out, mgl32.Vec4{v[0], v[1], v[2], 1})
		}
	case [][4]uint8:
		for _, v := range c {
			out = append(out, mgl32.Vec4{float32(v[0]) / 255, float32(v[1]) / 255, float32(v[2]) / 255, float32(v[3]) / 255})
		}
	case [][3]uint8:
		for _, v := range c {
			out = append(out, mgl32.Vec4{float32(v[0]) / 255, float32(v[1]) / 255, float32(v[2]) / 255, 1})
		}
	case [][4]uint16:
		for _, v := range c {
			out = append(out, mgl32.Vec4{float32(v[0]) / 65535, float32(v[1]) / 65535, float32(v[2]) / 65535, float32(v[3]) / 65535})
		}
	case [][3]uint16:
		for _, v := range c {
			out = append(out, mgl32.Vec4{float32(v[0]) / 65535, float32(v[1]) / 65535, float32(v[2]) / 65535, 1})
		}
	}
	return out
}

func nodeTransform(n *gltf.Node) mgl32.Mat4 {
	if mat := n.MatrixOrDefault(); mat != identityMatrix {
		var out mgl32.Mat4
		// both are column-major
		for i, v := range mat {
			out[i] = float32(v)
		}
		return out
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rotation := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// nodes builds the node tree of the default scene under a synthetic root.
func (gi *GLTFImporter) nodes(doc *gltf.Document, name string, meshPrims [][]int, meshCount int) *Node {
	root := NewNode(name)
	if len(doc.Nodes) == 0 {
		// no graph at all: every mesh sits at the origin
		for i := 0; i < meshCount; i++ {
			root.Meshes = append(root.Meshes, i)
		}
		return root
	}

	visiting := make([]bool, len(doc.Nodes))
	var build func(idx int) *Node
	build = func(idx int) *Node {
		if idx < 0 || idx >= len(doc.Nodes) || visiting[idx] {
			return nil
		}
		visiting[idx] = true
		defer func() { visiting[idx] = false }()

		gn := doc.Nodes[idx]
		n := NewNode(gn.Name)
		if n.Name == "" {
			n.Name = fmt.Sprintf("node_%d", idx)
		}
		n.Transform = nodeTransform(gn)
		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			n.Meshes = append(n.Meshes, meshPrims[*gn.Mesh]...)
		}
		for _, c := range gn.Children {
			if child := build(c); child != nil {
				n.Children = append(n.Children, child)
			}
		}
		return n
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		// No default scene: collect all parentless nodes
		hasParent := make([]bool, len(doc.Nodes))
		for _, gn := range doc.Nodes {
			for _, c := range gn.Children {
				if c >= 0 && c < len(hasParent) {
					hasParent[c] = true
				}
			}
		}
		for i := range doc.Nodes {
			if !hasParent[i] {
				roots = append(roots, i)
			}
		}
	}
	for _, r := range roots {
		if n := build(r); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return root
}
