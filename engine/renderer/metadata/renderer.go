package metadata

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief The largest width or height accepted for a texture. 0 means unbounded. */
	MaxTextureSize uint32
}
