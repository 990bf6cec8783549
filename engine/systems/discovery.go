package systems

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-assets/engine/scene"
)

/**
 * @brief The source texture types that can fill each role, most preferred
 * first. Physically based names win over legacy ones. Height maps fill no
 * role.
 */
var rolePriorities = [metadata.TextureRoleCount][]scene.TextureType{
	metadata.TextureRoleAlbedo:    {scene.TextureTypeBaseColor, scene.TextureTypeDiffuse},
	metadata.TextureRoleNormal:    {scene.TextureTypeNormals, scene.TextureTypeNormalCamera},
	metadata.TextureRoleMetallic:  {scene.TextureTypeMetalness, scene.TextureTypeSpecular},
	metadata.TextureRoleRoughness: {scene.TextureTypeDiffuseRoughness},
	metadata.TextureRoleOcclusion: {scene.TextureTypeAmbientOcclusion, scene.TextureTypeLightmap},
	metadata.TextureRoleEmissive:  {scene.TextureTypeEmissive, scene.TextureTypeEmissionColor},
}

/**
 * @brief One texture to fetch for one (material, role) slot. Exactly one of
 * Path, Data or Texels is set.
 */
type TextureRequest struct {
	MaterialIndex int
	Role          metadata.TextureRole
	/** @brief The texture type the reference was declared as. */
	Alias scene.TextureType
	/** @brief The reference as written in the source file. */
	Source string
	/** @brief The resolved file path of an external texture. */
	Path string
	/** @brief Encoded bytes of an embedded texture, and their format hint. */
	Data       []byte
	FormatHint string
	/** @brief Raw RGBA8 texels of an embedded texture. */
	Texels        []uint8
	Width, Height uint32
}

func (r *TextureRequest) Embedded() bool {
	return r.Path == ""
}

// Raw reports whether the request carries texels that need no decoding.
func (r *TextureRequest) Raw() bool {
	return len(r.Texels) > 0
}

func (r *TextureRequest) String() string {
	return fmt.Sprintf("material %d %s <- %s '%s'", r.MaterialIndex, r.Role, r.Alias, r.Source)
}

/**
 * @brief Lists the textures to load for sc: at most one per (material, role),
 * picked by the role priority list, so the result does not depend on the
 * order the source declares its textures in. Requests come out ordered by
 * material, then role.
 * @param modelDir Relative texture paths are resolved against it.
 */
func EnumerateTextures(sc *scene.Scene, modelDir string) []TextureRequest {
	var requests []TextureRequest
	for mi, mat := range sc.Materials {
		filled := make(map[metadata.TextureRole]bool, metadata.TextureRoleCount)
		for _, role := range metadata.TextureRoles() {
			for _, alias := range rolePriorities[role] {
				if filled[role] {
					break
				}
				for _, ref := range mat.TexturesOfType(alias) {
					req, ok := newTextureRequest(sc, modelDir, mi, role, ref)
					if !ok {
						continue
					}
					requests = append(requests, req)
					filled[role] = true
					break
				}
			}
		}
	}
	return requests
}

func newTextureRequest(sc *scene.Scene, modelDir string, mi int, role metadata.TextureRole, ref scene.TextureReference) (TextureRequest, bool) {
	req := TextureRequest{
		MaterialIndex: mi,
		Role:          role,
		Alias:         ref.Type,
		Source:        ref.Path,
	}
	if strings.TrimSpace(ref.Path) == "" {
		return req, false
	}

	if strings.HasPrefix(ref.Path, scene.EmbeddedTexturePrefix) {
		emb := sc.EmbeddedTexture(ref.Path)
		if emb == nil {
			core.LogWarn("'%s': material %d references missing embedded texture '%s'", sc.Path, mi, ref.Path)
			return req, false
		}
		if emb.Raw() {
			req.Texels = emb.Texels
			req.Width = emb.Width
			req.Height = emb.Height
		} else {
			req.Data = emb.Data
			req.FormatHint = emb.FormatHint
		}
		return req, true
	}

	path := filepath.FromSlash(strings.ReplaceAll(ref.Path, "\\", "/"))
	if !filepath.IsAbs(path) {
		path = filepath.Join(modelDir, path)
	}
	req.Path = path
	return req, true
}
