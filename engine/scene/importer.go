package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

/** @brief Post-processing steps applied after a file is parsed. */
type ImportFlags uint32

const (
	/** @brief Split polygons into triangle fans. */
	ImportTriangulate ImportFlags = 1 << iota
	/** @brief Generate area-weighted vertex normals for meshes without normals. */
	ImportGenSmoothNormals
	/** @brief Compute per-vertex tangents (handedness in w) for meshes with UVs. */
	ImportCalcTangentSpace
	/** @brief Weld vertices whose attributes are identical. */
	ImportJoinIdenticalVertices
	/** @brief v = 1 - v on every texture coordinate. */
	ImportFlipUVs
	/** @brief Bake every node transform into the vertex data. */
	ImportPreTransformVertices
)

/** @brief The fixed import options of the model loader. */
const DefaultImportFlags = ImportTriangulate | ImportGenSmoothNormals | ImportCalcTangentSpace |
	ImportJoinIdenticalVertices | ImportFlipUVs | ImportPreTransformVertices

func (f ImportFlags) Has(flag ImportFlags) bool {
	return f&flag == flag
}

/**
 * @brief Parses one file format into a scene. Implementations must not
 * post-process; Import does that.
 */
type Importer interface {
	Import(path string) (*Scene, error)
}

var (
	importersMu sync.RWMutex
	importers   = map[string]Importer{
		".gltf": &GLTFImporter{},
		".glb":  &GLTFImporter{},
		".obj":  &OBJImporter{},
	}
)

// RegisterImporter adds or replaces the importer of a file extension.
func RegisterImporter(ext string, importer Importer) {
	importersMu.Lock()
	defer importersMu.Unlock()
	importers[strings.ToLower(ext)] = importer
}

// SupportedExtensions lists the registered extensions.
func SupportedExtensions() []string {
	importersMu.RLock()
	defer importersMu.RUnlock()
	exts := make([]string, 0, len(importers))
	for ext := range importers {
		exts = append(exts, ext)
	}
	return exts
}

func importerFor(path string) (Importer, error) {
	importersMu.RLock()
	defer importersMu.RUnlock()
	ext := strings.ToLower(filepath.Ext(path))
	imp, ok := importers[ext]
	if !ok {
		return nil, fmt.Errorf("no importer for extension '%s': %w", ext, core.ErrUnsupportedFormat)
	}
	return imp, nil
}

/**
 * @brief Parses path with the importer registered for its extension and
 * runs the post-processing steps selected by flags.
 * @return ErrSceneParse when the file can't be read or parsed, ErrNoMeshes
 * when it parses but has no usable mesh.
 */
func Import(path string, flags ImportFlags) (*Scene, error) {
	if _, err := os.Stat(path); err != nil {
		err = fmt.Errorf("failed to import '%s': %w: %w", path, core.ErrSceneParse, err)
		core.LogError(err.Error())
		return nil, err
	}

	imp, err := importerFor(path)
	if err != nil {
		err = fmt.Errorf("failed to import '%s': %w: %w", path, core.ErrSceneParse, err)
		core.LogError(err.Error())
		return nil, err
	}

	sc, err := imp.Import(path)
	if err != nil {
		err = fmt.Errorf("failed to import '%s': %w: %w", path, core.ErrSceneParse, err)
		core.LogError(err.Error())
		return nil, err
	}
	sc.Path = path

	postProcess(sc, flags)

	if !sc.HasMeshes() {
		err := fmt.Errorf("failed to import '%s': %w", path, core.ErrNoMeshes)
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("imported '%s': %d meshes, %d materials, %d embedded textures", path, len(sc.Meshes), len(sc.Materials), len(sc.Textures))
	return sc, nil
}
