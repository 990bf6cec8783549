package metadata

/**
 * @brief Represents the current state of a given shader.
 */
type ShaderState int

const (
	/** @brief The shader has not yet gone through the creation process, and is unusable.*/
	SHADER_STATE_NOT_CREATED ShaderState = iota
	/** @brief The shader is created and ready for use.*/
	SHADER_STATE_INITIALIZED
	/** @brief The shader was destroyed.*/
	SHADER_STATE_DESTROYED
)

/** @brief The name of the shared PBR shader attached to loaded materials. */
const SHARED_PBR_SHADER_NAME string = "Shader.Builtin.PBR"

/**
 * @brief Represents a shader on the frontend.
 */
type Shader struct {
	/** @brief The shader identifier */
	ID uint32
	/** @brief The shader name */
	Name string
	/** @brief The current state */
	State ShaderState
}
