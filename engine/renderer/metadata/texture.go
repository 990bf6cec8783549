package metadata

import "fmt"

const (
	InvalidIDUint64 uint64 = 18446744073709551615
	InvalidID       uint32 = 4294967295
	InvalidIDUint16 uint16 = 65535
	InvalidIDUint8  uint8  = 255
)

const (
	/** @brief The default albedo texture name. */
	DEFAULT_ALBEDO_TEXTURE_NAME string = "default_ALBEDO"
	/** @brief The default normal texture name. */
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
	/** @brief The default metallic texture name. */
	DEFAULT_METALLIC_TEXTURE_NAME string = "default_METAL"
	/** @brief The default roughness texture name. */
	DEFAULT_ROUGHNESS_TEXTURE_NAME string = "default_ROUGH"
	/** @brief The default ambient occlusion texture name. */
	DEFAULT_OCCLUSION_TEXTURE_NAME string = "default_AO"
	/** @brief The default emissive texture name. */
	DEFAULT_EMISSIVE_TEXTURE_NAME string = "default_EMIS"
)

/**
 * @brief The logical purpose of a texture inside a material.
 * Every material holds exactly one slot per role.
 */
type TextureRole int

const (
	TextureRoleAlbedo TextureRole = iota
	TextureRoleNormal
	TextureRoleMetallic
	TextureRoleRoughness
	TextureRoleOcclusion
	TextureRoleEmissive
	/** @brief The number of roles. Not a valid role. */
	TextureRoleCount
)

var textureRoleNames = [TextureRoleCount]string{
	"albedo",
	"normal",
	"metallic",
	"roughness",
	"occlusion",
	"emissive",
}

func (r TextureRole) String() string {
	if r < 0 || r >= TextureRoleCount {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return textureRoleNames[r]
}

// TextureRoles lists every valid role in slot order.
func TextureRoles() []TextureRole {
	roles := make([]TextureRole, 0, TextureRoleCount)
	for r := TextureRoleAlbedo; r < TextureRoleCount; r++ {
		roles = append(roles, r)
	}
	return roles
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
	/** @brief Linear filtering between mip levels as well. */
	TextureFilterModeTrilinear TextureFilter = 0x2
)

/**
 * @brief Represents a texture.
 */
type Texture struct {
	/** @brief The unique texture identifier. InvalidID when the upload failed. */
	ID uint32
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief The number of mip levels generated for the texture. */
	MipLevels uint32
	/** @brief The filter mode requested for the texture. */
	Filter TextureFilter
	/** @brief The texture Generation. Default textures keep InvalidID. */
	Generation uint32
	/** @brief The texture Name, usually the source path or embedded tag. */
	Name string
	/** @brief Indicates that this is one of the 1x1 role defaults. */
	Default bool
}

// Valid reports whether the texture has a live backend id.
func (t *Texture) Valid() bool {
	return t != nil && t.ID != InvalidID
}

/**
 * @brief Holds the 1x1 placeholder texture of every role, together with
 * the pixels it was created from.
 */
type DefaultTextures struct {
	Textures [TextureRoleCount]*Texture
	Pixels   [TextureRoleCount][]uint8
}

// CreateSkeletonTextures builds the shells of the role defaults.
// The renderer call that gives them an id is made by the texture system.
func CreateSkeletonTextures() *DefaultTextures {
	// NOTE: Defaults are done in code to eliminate asset dependencies.
	colors := [TextureRoleCount][4]uint8{
		TextureRoleAlbedo:    {255, 255, 255, 255},
		TextureRoleNormal:    {128, 128, 255, 255},
		TextureRoleMetallic:  {0, 0, 0, 255},
		TextureRoleRoughness: {255, 255, 255, 255},
		TextureRoleOcclusion: {255, 255, 255, 255},
		TextureRoleEmissive:  {0, 0, 0, 255},
	}
	names := [TextureRoleCount]string{
		DEFAULT_ALBEDO_TEXTURE_NAME,
		DEFAULT_NORMAL_TEXTURE_NAME,
		DEFAULT_METALLIC_TEXTURE_NAME,
		DEFAULT_ROUGHNESS_TEXTURE_NAME,
		DEFAULT_OCCLUSION_TEXTURE_NAME,
		DEFAULT_EMISSIVE_TEXTURE_NAME,
	}

	dt := &DefaultTextures{}
	for role := TextureRoleAlbedo; role < TextureRoleCount; role++ {
		c := colors[role]
		dt.Pixels[role] = []uint8{c[0], c[1], c[2], c[3]}
		dt.Textures[role] = &Texture{
			ID:           InvalidID,
			Name:         names[role],
			Width:        1,
			Height:       1,
			ChannelCount: 4,
			MipLevels:    1,
			Filter:       TextureFilterModeNearest,
			// Manually set the texture generation to invalid since this is a default texture.
			Generation: InvalidID,
			Default:    true,
		}
	}
	return dt
}

func (dt *DefaultTextures) Get(role TextureRole) *Texture {
	if role < 0 || role >= TextureRoleCount {
		return nil
	}
	return dt.Textures[role]
}

// Contains reports whether tex is one of the role defaults.
func (dt *DefaultTextures) Contains(tex *Texture) bool {
	if tex == nil {
		return false
	}
	for _, d := range dt.Textures {
		if d == tex {
			return true
		}
	}
	return false
}
