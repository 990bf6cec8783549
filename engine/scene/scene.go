package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief The texture kinds a source file can declare on a material.
 * Several kinds are aliases of the same logical role (e.g. BaseColor and Diffuse).
 */
type TextureType int

const (
	TextureTypeBaseColor TextureType = iota
	TextureTypeDiffuse
	TextureTypeNormals
	TextureTypeNormalCamera
	TextureTypeHeight
	TextureTypeMetalness
	TextureTypeSpecular
	TextureTypeDiffuseRoughness
	TextureTypeAmbientOcclusion
	TextureTypeLightmap
	TextureTypeEmissive
	TextureTypeEmissionColor
)

var textureTypeNames = []string{
	"base_color",
	"diffuse",
	"normals",
	"normal_camera",
	"height",
	"metalness",
	"specular",
	"diffuse_roughness",
	"ambient_occlusion",
	"lightmap",
	"emissive",
	"emission_color",
}

func (t TextureType) String() string {
	if t < 0 || int(t) >= len(textureTypeNames) {
		return fmt.Sprintf("texture_type(%d)", int(t))
	}
	return textureTypeNames[t]
}

/** @brief The prefix of texture paths that point into Scene.Textures. */
const EmbeddedTexturePrefix string = "*"

// EmbeddedTag returns the path used to reference embedded texture index.
func EmbeddedTag(index int) string {
	return EmbeddedTexturePrefix + strconv.Itoa(index)
}

/**
 * @brief Texture data stored inside the source file. Either compressed
 * bytes with a format hint, or raw RGBA8 texels with known dimensions.
 */
type EmbeddedTexture struct {
	/** @brief Compressed image bytes (png, jpeg, ...). */
	Data []byte
	/** @brief Mime type or extension describing Data. May be empty. */
	FormatHint string
	/** @brief Dimensions of Texels. Zero for compressed data. */
	Width  uint32
	Height uint32
	/** @brief Uncompressed RGBA8 texels. */
	Texels []uint8
}

// Raw reports whether the texture carries uncompressed texels.
func (et *EmbeddedTexture) Raw() bool {
	return len(et.Texels) > 0 && et.Width > 0 && et.Height > 0
}

/**
 * @brief A texture declared by a material. Path is relative to the source
 * file, absolute, or an embedded tag ("*N").
 */
type TextureReference struct {
	Type TextureType
	Path string
}

/**
 * @brief A material as declared by the source file.
 */
type Material struct {
	Name string
	/** @brief The base (diffuse) colour. */
	BaseColor mgl32.Vec4
	Metallic  float32
	Roughness float32
	/** @brief Declared textures, in file order. The same type may repeat. */
	Textures []TextureReference
}

// TexturesOfType returns the references of type t in declaration order.
func (m *Material) TexturesOfType(t TextureType) []TextureReference {
	var out []TextureReference
	for _, ref := range m.Textures {
		if ref.Type == t {
			out = append(out, ref)
		}
	}
	return out
}

/**
 * @brief A mesh as imported. Importers fill Faces (polygons of any size);
 * post-processing turns them into triangle Indices.
 */
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Tangents  []mgl32.Vec4
	UVs       []mgl32.Vec2
	Colors    []mgl32.Vec4
	Faces     [][]uint32
	Indices   []uint32
	/** @brief Index into Scene.Materials. */
	MaterialIndex int
}

func (m *Mesh) HasNormals() bool  { return len(m.Normals) == len(m.Positions) && len(m.Positions) > 0 }
func (m *Mesh) HasTangents() bool { return len(m.Tangents) == len(m.Positions) && len(m.Positions) > 0 }
func (m *Mesh) HasUVs() bool      { return len(m.UVs) == len(m.Positions) && len(m.Positions) > 0 }
func (m *Mesh) HasColors() bool   { return len(m.Colors) == len(m.Positions) && len(m.Positions) > 0 }

/**
 * @brief A node of the scene graph. Transform is relative to the parent.
 */
type Node struct {
	Name      string
	Transform mgl32.Mat4
	/** @brief Indices into Scene.Meshes. */
	Meshes   []int
	Children []*Node
}

func NewNode(name string) *Node {
	return &Node{Name: name, Transform: mgl32.Ident4()}
}

/**
 * @brief The result of importing a file: meshes, materials, embedded
 * textures and the node tree referencing the meshes.
 */
type Scene struct {
	/** @brief The path the scene was imported from. */
	Path      string
	Meshes    []*Mesh
	Materials []*Material
	/** @brief Embedded textures, addressed by "*N" paths. */
	Textures []*EmbeddedTexture
	Root     *Node
}

/**
 * @brief Looks up the embedded texture a reference path points to.
 * Returns nil for paths that are not embedded tags or out of range.
 */
func (s *Scene) EmbeddedTexture(path string) *EmbeddedTexture {
	rest, ok := strings.CutPrefix(path, EmbeddedTexturePrefix)
	if !ok {
		return nil
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 || idx >= len(s.Textures) {
		return nil
	}
	return s.Textures[idx]
}

func (s *Scene) HasMeshes() bool {
	return len(s.Meshes) > 0
}
