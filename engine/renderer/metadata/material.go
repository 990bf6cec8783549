package metadata

import "github.com/go-gl/mathgl/mgl32"

/** @brief The state of one (material, role) texture slot. */
type SlotState int

const (
	/** @brief Nothing was requested for the slot. The role default is bound. */
	SlotStateEmpty SlotState = iota
	/** @brief A texture was requested and is still being decoded or uploaded. */
	SlotStatePending
	/** @brief A texture was uploaded and bound. */
	SlotStateBound
	/** @brief The request failed and the role default is bound instead. */
	SlotStateFailed
)

func (s SlotState) String() string {
	switch s {
	case SlotStateEmpty:
		return "empty"
	case SlotStatePending:
		return "pending"
	case SlotStateBound:
		return "bound"
	case SlotStateFailed:
		return "failed"
	}
	return "unknown"
}

/**
 * @brief A single texture binding of a material.
 */
type TextureSlot struct {
	/** @brief The bound texture. Never nil once the material is created. */
	Texture *Texture
	/** @brief The state of the slot. */
	State SlotState
	/** @brief The path or embedded tag the bound texture came from. */
	Source string
}

/**
 * @brief Material configuration read from the source scene,
 * used to create a material with its scalar defaults.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief The base (diffuse) colour of the material. */
	BaseColor mgl32.Vec4
	/** @brief The metallic factor. */
	Metallic float32
	/** @brief The roughness factor. */
	Roughness float32
}

/** @brief The name of the material used when the source declares none. */
const DEFAULT_MATERIAL_NAME string = "default"

// DefaultMaterialConfig is a white, non-metallic, fully rough material.
func DefaultMaterialConfig() MaterialConfig {
	return MaterialConfig{
		Name:      DEFAULT_MATERIAL_NAME,
		BaseColor: mgl32.Vec4{1, 1, 1, 1},
		Metallic:  0,
		Roughness: 1,
	}
}

/**
 * @brief A physically based material: one texture slot per role plus
 * the scalar factors and the shader it is rendered with.
 */
type Material struct {
	/** @brief The material name. */
	Name string
	/** @brief The material generation. Incremented every time a slot changes. */
	Generation uint32
	/** @brief The base colour. */
	BaseColor mgl32.Vec4
	/** @brief The metallic factor. */
	Metallic float32
	/** @brief The roughness factor. */
	Roughness float32
	/** @brief The texture slots, indexed by role. */
	Slots [TextureRoleCount]TextureSlot
	/** @brief The shader attached during finalization. Nil until then. */
	Shader *Shader
}

// NewMaterial creates a material from config with every slot bound to the role default.
func NewMaterial(config MaterialConfig, defaults *DefaultTextures) *Material {
	m := &Material{
		Name:      config.Name,
		BaseColor: config.BaseColor,
		Metallic:  config.Metallic,
		Roughness: config.Roughness,
	}
	for role := TextureRoleAlbedo; role < TextureRoleCount; role++ {
		m.Slots[role] = TextureSlot{
			Texture: defaults.Get(role),
			State:   SlotStateEmpty,
		}
	}
	return m
}

func (m *Material) Slot(role TextureRole) *TextureSlot {
	if role < 0 || role >= TextureRoleCount {
		return nil
	}
	return &m.Slots[role]
}

// Texture returns the texture bound to role.
func (m *Material) Texture(role TextureRole) *Texture {
	if s := m.Slot(role); s != nil {
		return s.Texture
	}
	return nil
}
