package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

/**
 * @brief Decodes the image at path on a worker. A failed decode resolves to
 * an image with Valid == false, never to an error. The only error is
 * ErrJobSystemStopped, with a nil image.
 */
func (js *JobSystem) DecodeAsync(path string) *Future[*metadata.DecodedImage] {
	return js.decode(path, func() *metadata.DecodedImage {
		return loaders.DecodeImageFile(path)
	})
}

/**
 * @brief Decodes an in-memory encoded image on a worker. hint is a file
 * extension, mime type or format name; content sniffing covers the rest.
 * data must not be modified until the future resolves.
 */
func (js *JobSystem) DecodeFromMemoryAsync(data []byte, hint string) *Future[*metadata.DecodedImage] {
	return js.decode(hint, func() *metadata.DecodedImage {
		return loaders.DecodeImageBytes(data, hint)
	})
}

func (js *JobSystem) decode(source string, fn func() *metadata.DecodedImage) *Future[*metadata.DecodedImage] {
	return Submit(js, func() (img *metadata.DecodedImage, err error) {
		defer func() {
			if r := recover(); r != nil {
				img = metadata.NewInvalidImage(source, fmt.Errorf("decoder panicked: %v", r))
			}
		}()
		return fn(), nil
	})
}
