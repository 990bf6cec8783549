package metadata

import "fmt"

type ResourceType int

/** @brief Resource types served by the asset cache. */
const (
	/** @brief Not an asset. */
	ResourceTypeNone ResourceType = iota - 1
	/** @brief Model resource type (meshes + materials). */
	ResourceTypeModel
	/** @brief Texture resource type. */
	ResourceTypeTexture
	/** @brief Sound resource type. */
	ResourceTypeSound
	/** @brief Bitmap font resource type. */
	ResourceTypeBitmapFont
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeNone:
		return "none"
	case ResourceTypeModel:
		return "model"
	case ResourceTypeTexture:
		return "texture"
	case ResourceTypeSound:
		return "sound"
	case ResourceTypeBitmapFont:
		return "font"
	}
	return fmt.Sprintf("resource(%d)", int(t))
}

/**
 * @brief The directory, below the assets root, that holds resources of type t.
 */
func (t ResourceType) Directory() string {
	switch t {
	case ResourceTypeModel:
		return "models"
	case ResourceTypeTexture:
		return "textures"
	case ResourceTypeSound:
		return "sounds"
	case ResourceTypeBitmapFont:
		return "fonts"
	}
	return ""
}
