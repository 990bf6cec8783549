package assets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

// File name suffixes probed per role, in priority order.
var conventionSuffixes = [metadata.TextureRoleCount][]string{
	metadata.TextureRoleAlbedo:    {"albedo", "diffuse", "basecolor", "base_color", "color"},
	metadata.TextureRoleNormal:    {"normal", "norm", "nrm", "normalmap"},
	metadata.TextureRoleMetallic:  {"metallic", "metal", "metalness"},
	metadata.TextureRoleRoughness: {"roughness", "rough"},
	metadata.TextureRoleOcclusion: {"ao", "occlusion", "ambient_occlusion", "ambientocclusion"},
	metadata.TextureRoleEmissive:  {"emissive", "emission"},
}

/**
 * @brief Finds the convention texture of role for the model at modelPath.
 * Candidates are <stem>_<suffix>, <stem>-<suffix> and <suffix> with every
 * extension, first next to the model, then in its textures/ folder.
 */
func findConventionTexture(modelPath string, role metadata.TextureRole, extensions []string) (string, bool) {
	dir := filepath.Dir(modelPath)
	stem := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	for _, d := range []string{dir, filepath.Join(dir, "textures")} {
		for _, suffix := range conventionSuffixes[role] {
			for _, prefix := range []string{stem + "_" + suffix, stem + "-" + suffix, suffix} {
				for _, ext := range extensions {
					candidate := filepath.Join(d, prefix+ext)
					if isFile(candidate) {
						return candidate, true
					}
				}
			}
		}
	}
	return "", false
}

/**
 * @brief Binds convention textures into the empty or failed slots of every
 * material of model and attaches the shared PBR shader.
 * Textures found this way are not counted in the model's load stats.
 */
func (am *AssetManager) applyAutoPBR(model *metadata.Model, path string) {
	bound := 0
	for i, mat := range model.Materials {
		for _, role := range metadata.TextureRoles() {
			slot := mat.Slot(role)
			if slot.State != metadata.SlotStateEmpty && slot.State != metadata.SlotStateFailed {
				continue
			}
			file, ok := findConventionTexture(path, role, am.config.TextureExtensions)
			if !ok {
				continue
			}
			if err := am.systems.ModelLoaderSystem.BindTextureFile(model, i, role, file); err != nil {
				core.LogWarn("auto-pbr: %s", err.Error())
				continue
			}
			bound++
		}
	}

	shader := am.systems.ShaderSystem.Shared()
	if shader == nil {
		s, err := am.systems.ShaderSystem.Create(metadata.SHARED_PBR_SHADER_NAME)
		if err != nil {
			core.LogWarn("auto-pbr: no shader attached to '%s': %s", path, err.Error())
		}
		shader = s
	}
	if shader != nil {
		for _, mat := range model.Materials {
			am.systems.MaterialSystem.AttachShader(mat, shader)
		}
	}
	core.LogDebug("auto-pbr: %d convention textures bound for '%s'", bound, path)
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
