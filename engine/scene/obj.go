package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

/**
 * @brief Imports Wavefront OBJ files together with their MTL material
 * library. Polygons are kept as faces; triangulation is a post-process step.
 */
type OBJImporter struct{}

func (oi *OBJImporter) Import(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := newObjDecoder(filepath.Dir(path))
	if err := dec.parse(f, dec.parseObjLine); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	for _, lib := range dec.matlibs {
		dec.loadMatlib(lib)
	}
	for _, w := range dec.warnings {
		core.LogDebug("%s: %s", path, w)
	}
	return dec.scene(filepath.Base(path)), nil
}

type objFace struct {
	vertices []int
	uvs      []int
	normals  []int
}

// one run of faces of the same object sharing a material
type objGroup struct {
	name     string
	material string
	faces    []objFace
}

type objMaterial struct {
	name      string
	diffuse   mgl32.Vec3
	opacity   float32
	metallic  float32
	roughness float32
	textures  []TextureReference
}

func newObjMaterial(name string) *objMaterial {
	return &objMaterial{
		name:      name,
		diffuse:   mgl32.Vec3{1, 1, 1},
		opacity:   1,
		metallic:  0,
		roughness: 1,
	}
}

type objDecoder struct {
	dir       string
	positions []mgl32.Vec3
	colors    []mgl32.Vec4
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2
	groups    []*objGroup
	matlibs   []string
	materials map[string]*objMaterial
	// material names in first-use order
	materialOrder []string
	objCurrent    string
	matCurrent    string
	matParsing    *objMaterial
	warnings      []string
	line          uint
}

const (
	blanks   = "\r\n\t "
	invINDEX = -1
	objType  = "obj"
	mtlType  = "mtl"
	// assigned to faces that appear before any usemtl
	defaultMaterialName = "DefaultMaterial"
)

func newObjDecoder(dir string) *objDecoder {
	return &objDecoder{
		dir:        dir,
		materials:  make(map[string]*objMaterial),
		objCurrent: "default",
	}
}

// parse reads the lines from the specified reader and dispatch them
// to the specified line parser.
func (dec *objDecoder) parse(reader io.Reader, parseLine func(string) error) error {
	bufin := bufio.NewReader(reader)
	dec.line = 1
	for {
		// Reads next line and abort on errors (not EOF)
		line, err := bufin.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		line = strings.Trim(line, blanks)
		if perr := parseLine(line); perr != nil {
			return perr
		}
		if err == io.EOF {
			break
		}
		dec.line++
	}
	return nil
}

func (dec *objDecoder) parseObjLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch ltype := fields[0]; ltype {
	case "mtllib":
		if len(fields) < 2 {
			return dec.formatError("mtllib with no fields")
		}
		dec.matlibs = append(dec.matlibs, strings.Join(fields[1:], " "))
	// groups are treated the same as objects
	case "o", "g":
		if len(fields) > 1 {
			dec.objCurrent = fields[1]
		}
	case "v":
		return dec.parseVertex(fields[1:])
	case "vn":
		v, err := dec.parseFloats(fields[1:], 3, "vn")
		if err != nil {
			return err
		}
		dec.normals = append(dec.normals, mgl32.Vec3{v[0], v[1], v[2]})
	case "vt":
		v, err := dec.parseFloats(fields[1:], 2, "vt")
		if err != nil {
			return err
		}
		dec.uvs = append(dec.uvs, mgl32.Vec2{v[0], v[1]})
	case "f":
		return dec.parseFace(fields[1:])
	case "usemtl":
		if len(fields) < 2 {
			return dec.formatError("usemtl with no fields")
		}
		dec.matCurrent = fields[1]
		dec.useMaterial(dec.matCurrent)
	case "s", "l", "p":
		// smoothing groups are replaced by generated normals, lines and points have no triangles
	default:
		dec.appendWarn(objType, "field not supported: "+ltype)
	}
	return nil
}

func (dec *objDecoder) parseFloats(fields []string, n int, what string) ([]float32, error) {
	if len(fields) < n {
		return nil, dec.formatError(fmt.Sprintf("less than %d values in '%s' line", n, what))
	}
	out := make([]float32, n)
	for i, f := range fields[:n] {
		val, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, dec.formatError(fmt.Sprintf("'%s' parse float error: %s", what, err))
		}
		out[i] = float32(val)
	}
	return out, nil
}

// Parses a vertex position line, with the optional vertex colour extension:
// v <x> <y> <z> [<r> <g> <b>]
func (dec *objDecoder) parseVertex(fields []string) error {
	v, err := dec.parseFloats(fields, 3, "v")
	if err != nil {
		return err
	}
	dec.positions = append(dec.positions, mgl32.Vec3{v[0], v[1], v[2]})
	if len(fields) >= 6 {
		c, err := dec.parseFloats(fields[3:], 3, "v")
		if err != nil {
			return err
		}
		// back-fill so colours stay aligned with positions
		for len(dec.colors) < len(dec.positions)-1 {
			dec.colors = append(dec.colors, mgl32.Vec4{1, 1, 1, 1})
		}
		dec.colors = append(dec.colors, mgl32.Vec4{c[0], c[1], c[2], 1})
	}
	return nil
}

// resolveIndex turns a 1-based or negative (relative) OBJ index into a 0-based one.
func (dec *objDecoder) resolveIndex(s string, count int, what string) (int, error) {
	val, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, dec.formatError(fmt.Sprintf("face %s index '%s' is not a number", what, s))
	}
	var idx int
	switch {
	case val > 0:
		idx = int(val - 1)
	case val < 0:
		idx = count + int(val)
	default:
		return 0, dec.formatError(fmt.Sprintf("face %s index value equal to 0", what))
	}
	if idx < 0 || idx >= count {
		return 0, dec.formatError(fmt.Sprintf("face %s index %d out of range", what, val))
	}
	return idx, nil
}

// parseFace parses a face decription line:
// f v1[/vt1][/vn1] v2[/vt2][/vn2] v3[/vt3][/vn3] ...
func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		dec.appendWarn(objType, "face line with less than 3 fields")
		return nil
	}
	face := objFace{
		vertices: make([]int, len(fields)),
		uvs:      make([]int, len(fields)),
		normals:  make([]int, len(fields)),
	}
	for pos, f := range fields {
		vfields := strings.Split(f, "/")
		var err error
		if face.vertices[pos], err = dec.resolveIndex(vfields[0], len(dec.positions), "vertex"); err != nil {
			return err
		}
		face.uvs[pos] = invINDEX
		if len(vfields) > 1 && len(vfields[1]) > 0 {
			if face.uvs[pos], err = dec.resolveIndex(vfields[1], len(dec.uvs), "uv"); err != nil {
				return err
			}
		}
		face.normals[pos] = invINDEX
		if len(vfields) > 2 && len(vfields[2]) > 0 {
			if face.normals[pos], err = dec.resolveIndex(vfields[2], len(dec.normals), "normal"); err != nil {
				return err
			}
		}
	}

	material := dec.matCurrent
	if material == "" {
		material = defaultMaterialName
		dec.useMaterial(material)
	}
	var g *objGroup
	if n := len(dec.groups); n > 0 && dec.groups[n-1].name == dec.objCurrent && dec.groups[n-1].material == material {
		g = dec.groups[n-1]
	} else {
		g = &objGroup{name: dec.objCurrent, material: material}
		dec.groups = append(dec.groups, g)
	}
	g.faces = append(g.faces, face)
	return nil
}

func (dec *objDecoder) useMaterial(name string) {
	if _, ok := dec.materials[name]; ok {
		return
	}
	dec.materials[name] = newObjMaterial(name)
	dec.materialOrder = append(dec.materialOrder, name)
}

func (dec *objDecoder) loadMatlib(name string) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dec.dir, name)
	}
	f, err := os.Open(path)
	if err != nil {
		// a missing library leaves the materials at their defaults
		core.LogWarn("obj: material library '%s' could not be opened: %s", path, err)
		return
	}
	defer f.Close()
	if err := dec.parse(f, dec.parseMtlLine); err != nil {
		core.LogWarn("obj: material library '%s': %s", path, err)
	}
}

func (dec *objDecoder) parseMtlLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	ltype := fields[0]
	if ltype == "newmtl" {
		if len(fields) < 2 {
			return dec.formatError("newmtl with no fields")
		}
		name := fields[1]
		dec.useMaterial(name)
		dec.matParsing = dec.materials[name]
		return nil
	}
	mat := dec.matParsing
	if mat == nil {
		return dec.formatError(fmt.Sprintf("'%s' before newmtl", ltype))
	}
	switch ltype {
	case "Kd":
		v, err := dec.parseFloats(fields[1:], 3, "Kd")
		if err != nil {
			return err
		}
		mat.diffuse = mgl32.Vec3{v[0], v[1], v[2]}
	case "d":
		v, err := dec.parseFloats(fields[1:], 1, "d")
		if err != nil {
			return err
		}
		mat.opacity = v[0]
	case "Tr":
		v, err := dec.parseFloats(fields[1:], 1, "Tr")
		if err != nil {
			return err
		}
		mat.opacity = 1 - v[0]
	case "Pr":
		v, err := dec.parseFloats(fields[1:], 1, "Pr")
		if err != nil {
			return err
		}
		mat.roughness = v[0]
	case "Pm":
		v, err := dec.parseFloats(fields[1:], 1, "Pm")
		if err != nil {
			return err
		}
		mat.metallic = v[0]
	case "map_Kd":
		dec.addTexture(mat, TextureTypeDiffuse, fields[1:])
	case "map_Ks":
		dec.addTexture(mat, TextureTypeSpecular, fields[1:])
	case "map_Ke":
		dec.addTexture(mat, TextureTypeEmissive, fields[1:])
	case "map_Pr":
		dec.addTexture(mat, TextureTypeDiffuseRoughness, fields[1:])
	case "map_Pm":
		dec.addTexture(mat, TextureTypeMetalness, fields[1:])
	case "norm", "map_Kn":
		dec.addTexture(mat, TextureTypeNormals, fields[1:])
	case "map_Bump", "map_bump", "bump":
		dec.addTexture(mat, TextureTypeHeight, fields[1:])
	case "map_Ka":
		dec.addTexture(mat, TextureTypeLightmap, fields[1:])
	case "Ka", "Ks", "Ke", "Ni", "Ns", "illum", "map_d", "map_Ns", "Tf":
		// not used by the physically based materials
	default:
		dec.appendWarn(mtlType, "field not supported: "+ltype)
	}
	return nil
}

// numeric arguments taken by each texture option
var textureOptionArgs = map[string]int{
	"-blendu":  1,
	"-blendv":  1,
	"-bm":      1,
	"-boost":   1,
	"-cc":      1,
	"-clamp":   1,
	"-imfchan": 1,
	"-mm":      2,
	"-o":       3,
	"-s":       3,
	"-t":       3,
	"-texres":  1,
	"-type":    1,
}

// addTexture parses: map_xx [-options] <filename>
// Options are skipped. The filename may contain spaces.
func (dec *objDecoder) addTexture(mat *objMaterial, t TextureType, fields []string) {
	i := 0
	for i < len(fields) && strings.HasPrefix(fields[i], "-") {
		opt := fields[i]
		i++
		maxArgs, ok := textureOptionArgs[opt]
		if !ok {
			dec.appendWarn(mtlType, "texture option not supported: "+opt)
			continue
		}
		// optional trailing arguments are numeric, except the keyword ones
		for n := 0; n < maxArgs && i < len(fields); n++ {
			if n > 0 {
				if _, err := strconv.ParseFloat(fields[i], 32); err != nil {
					break
				}
			}
			i++
		}
	}
	if i >= len(fields) {
		dec.appendWarn(mtlType, fmt.Sprintf("%s texture with no file name", t))
		return
	}
	mat.textures = append(mat.textures, TextureReference{
		Type: t,
		Path: filepath.FromSlash(strings.ReplaceAll(strings.Join(fields[i:], " "), `\`, "/")),
	})
}

func (dec *objDecoder) formatError(msg string) error {
	return fmt.Errorf("%s in line:%d", msg, dec.line)
}

func (dec *objDecoder) appendWarn(ftype string, msg string) {
	dec.warnings = append(dec.warnings, fmt.Sprintf("%s(%d): %s", ftype, dec.line, msg))
}

// scene builds one mesh per object/material run. Vertices are shared
// inside a mesh when position, uv and normal indices all match.
func (dec *objDecoder) scene(name string) *Scene {
	sc := &Scene{Root: NewNode(name)}

	materialIndex := make(map[string]int, len(dec.materialOrder))
	for i, mn := range dec.materialOrder {
		m := dec.materials[mn]
		materialIndex[mn] = i
		sc.Materials = append(sc.Materials, &Material{
			Name:      m.name,
			BaseColor: m.diffuse.Vec4(m.opacity),
			Metallic:  m.metallic,
			Roughness: m.roughness,
			Textures:  m.textures,
		})
	}

	hasColors := len(dec.colors) > 0
	for len(dec.colors) < len(dec.positions) && hasColors {
		dec.colors = append(dec.colors, mgl32.Vec4{1, 1, 1, 1})
	}

	for gi, g := range dec.groups {
		mesh := &Mesh{
			Name:          fmt.Sprintf("%s_%d", g.name, gi),
			MaterialIndex: materialIndex[g.material],
		}
		type corner struct{ v, uv, n int }
		shared := make(map[corner]uint32)
		allUVs, allNormals := true, true
		for _, f := range g.faces {
			for i := range f.vertices {
				allUVs = allUVs && f.uvs[i] != invINDEX
				allNormals = allNormals && f.normals[i] != invINDEX
			}
		}
		for _, f := range g.faces {
			face := make([]uint32, len(f.vertices))
			for i := range f.vertices {
				c := corner{v: f.vertices[i], uv: f.uvs[i], n: f.normals[i]}
				if idx, ok := shared[c]; ok {
					face[i] = idx
					continue
				}
				idx := uint32(len(mesh.Positions))
				shared[c] = idx
				mesh.Positions = append(mesh.Positions, dec.positions[c.v])
				if hasColors {
					mesh.Colors = append(mesh.Colors, dec.colors[c.v])
				}
				if allUVs {
					mesh.UVs = append(mesh.UVs, dec.uvs[c.uv])
				}
				if allNormals {
					mesh.Normals = append(mesh.Normals, dec.normals[c.n])
				}
				face[i] = idx
			}
			mesh.Faces = append(mesh.Faces, face)
		}
		sc.Root.Meshes = append(sc.Root.Meshes, len(sc.Meshes))
		sc.Meshes = append(sc.Meshes, mesh)
	}
	return sc
}
