package metadata

/**
 * @brief A CPU-side pixel buffer produced by the decode stage.
 * Pixels are always 8-bit RGBA. The image is exclusively owned until the
 * texture system consumes it or the owner calls Release.
 */
type DecodedImage struct {
	/** @brief The source path, or a synthetic tag for embedded data. */
	Source string
	/** @brief The number of channels. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image. Nil when Valid is false. */
	Pixels []uint8
	/** @brief Distinguishes a successful decode from a failed one. */
	Valid bool
	/** @brief The reason the decode failed, if it did. */
	Err error
}

// NewInvalidImage returns the failure result for source.
func NewInvalidImage(source string, err error) *DecodedImage {
	return &DecodedImage{
		Source: source,
		Valid:  false,
		Err:    err,
	}
}

// Release drops the CPU copy. The image is invalid afterwards.
func (img *DecodedImage) Release() {
	if img == nil {
		return
	}
	img.Pixels = nil
	img.Valid = false
}

// Size returns the byte size of the pixel buffer.
func (img *DecodedImage) Size() int {
	if img == nil {
		return 0
	}
	return len(img.Pixels)
}
