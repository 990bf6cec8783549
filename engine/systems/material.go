package systems

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

/**
 * @brief Creates materials and binds textures into their slots. A slot
 * always holds a valid texture: the role default when nothing else is bound.
 */
type MaterialSystem struct {
	textureSystem *TextureSystem
}

func NewMaterialSystem(ts *TextureSystem) (*MaterialSystem, error) {
	return &MaterialSystem{textureSystem: ts}, nil
}

// Create returns a material with the scalars of config and every slot on its role default.
func (ms *MaterialSystem) Create(config metadata.MaterialConfig) *metadata.Material {
	return metadata.NewMaterial(config, ms.textureSystem.Defaults)
}

// MarkPending records that a texture for role is on its way.
func (ms *MaterialSystem) MarkPending(material *metadata.Material, role metadata.TextureRole, source string) {
	slot := material.Slot(role)
	if slot == nil {
		return
	}
	slot.State = metadata.SlotStatePending
	slot.Source = source
}

/**
 * @brief Binds tex into the role slot of material. The texture that was
 * bound before is released unless it is a default. An invalid tex puts the
 * role default back and marks the slot failed.
 * @return True when tex was bound.
 */
func (ms *MaterialSystem) Bind(material *metadata.Material, role metadata.TextureRole, tex *metadata.Texture, source string) bool {
	slot := material.Slot(role)
	if slot == nil {
		core.LogWarn("material '%s': invalid texture role %d", material.Name, role)
		return false
	}
	previous := slot.Texture

	if !tex.Valid() {
		slot.Texture = ms.textureSystem.Default(role)
		slot.State = metadata.SlotStateFailed
		slot.Source = source
		if previous != slot.Texture {
			ms.textureSystem.Release(previous)
		}
		material.Generation++
		core.LogWarn("material '%s': %s texture '%s' unavailable, using the default", material.Name, role, source)
		return false
	}

	slot.Texture = tex
	slot.State = metadata.SlotStateBound
	slot.Source = source
	if previous != tex {
		ms.textureSystem.Release(previous)
	}
	if role == metadata.TextureRoleAlbedo {
		// the texture carries the colour
		material.BaseColor = mgl32.Vec4{1, 1, 1, 1}
	}
	material.Generation++
	return true
}

// ReleaseTextures releases every non-default texture of material and puts the defaults back.
func (ms *MaterialSystem) ReleaseTextures(material *metadata.Material) {
	for _, role := range metadata.TextureRoles() {
		slot := material.Slot(role)
		ms.textureSystem.Release(slot.Texture)
		slot.Texture = ms.textureSystem.Default(role)
		slot.State = metadata.SlotStateEmpty
		slot.Source = ""
	}
	material.Shader = nil
}

func (ms *MaterialSystem) AttachShader(material *metadata.Material, shader *metadata.Shader) {
	material.Shader = shader
}
