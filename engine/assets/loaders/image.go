package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

type imageDecoder func(r io.Reader) (image.Image, error)

// Decoders are picked by format name and never through image.Decode:
// the tga package has no magic number and would claim any input.
var imageDecoders = map[string]imageDecoder{
	"png":  png.Decode,
	"jpeg": jpeg.Decode,
	"gif":  gif.Decode,
	"bmp":  bmp.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
	"tga":  tga.Decode,
}

var formatAliases = map[string]string{
	"png":      "png",
	"jpg":      "jpeg",
	"jpeg":     "jpeg",
	"gif":      "gif",
	"bmp":      "bmp",
	"x-ms-bmp": "bmp",
	"tga":      "tga",
	"x-tga":    "tga",
	"tif":      "tiff",
	"tiff":     "tiff",
	"webp":     "webp",
}

// checked in order when the hint is neither a path nor a mime type
var hintSubstrings = []string{".jpeg", ".jpg", ".png", ".tga", ".bmp", ".webp", ".tiff", ".tif", ".gif"}

/** @brief The format used when neither the hint nor the content tells. */
const DefaultImageFormat string = "png"

/**
 * @brief Maps a format hint to a decoder name. The hint may be a file
 * path, an extension, a mime type or any string containing an extension.
 * Returns an empty string when nothing matches.
 */
func FormatFromHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return ""
	}
	if f, ok := formatAliases[strings.TrimPrefix(h, ".")]; ok {
		return f
	}
	if ext := strings.TrimPrefix(filepath.Ext(h), "."); ext != "" {
		if f, ok := formatAliases[ext]; ok {
			return f
		}
	}
	if mime, ok := strings.CutPrefix(h, "image/"); ok {
		if f, ok := formatAliases[mime]; ok {
			return f
		}
	}
	for _, s := range hintSubstrings {
		if strings.Contains(h, s) {
			return formatAliases[strings.TrimPrefix(s, ".")]
		}
	}
	return ""
}

// sniffFormat looks at the magic bytes of data.
func sniffFormat(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return formatAliases[kind.Extension]
}

/**
 * @brief Decodes an image file into 8-bit RGBA pixels. Pure CPU work, safe
 * to call from any goroutine. Failures are reported through the Valid flag
 * and Err of the result, which is never nil.
 */
func DecodeImageFile(path string) *metadata.DecodedImage {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read image '%s': %w", path, err)
		core.LogWarn(err.Error())
		return metadata.NewInvalidImage(path, err)
	}
	return decode(path, data, path)
}

/**
 * @brief Decodes an in-memory image. hint selects the format; when it does
 * not, the content is sniffed, and PNG is assumed last. The hint doubles as
 * the source identifier of the result.
 */
func DecodeImageBytes(data []byte, hint string) *metadata.DecodedImage {
	return decode(hint, data, hint)
}

func decode(source string, data []byte, hint string) *metadata.DecodedImage {
	if len(data) == 0 {
		err := fmt.Errorf("image '%s' is empty: %w", source, core.ErrInvalidImage)
		core.LogWarn(err.Error())
		return metadata.NewInvalidImage(source, err)
	}

	format := FormatFromHint(hint)
	if format == "" {
		format = sniffFormat(data)
	}
	if format == "" {
		format = DefaultImageFormat
	}

	decoder, ok := imageDecoders[format]
	if !ok {
		err := fmt.Errorf("image '%s' has format '%s': %w", source, format, core.ErrUnsupportedFormat)
		core.LogWarn(err.Error())
		return metadata.NewInvalidImage(source, err)
	}

	img, err := decoder(bytes.NewReader(data))
	if err != nil {
		err = fmt.Errorf("failed to decode %s image '%s': %w", format, source, err)
		core.LogWarn(err.Error())
		return metadata.NewInvalidImage(source, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		err := fmt.Errorf("image '%s' has no pixels: %w", source, core.ErrInvalidImage)
		core.LogWarn(err.Error())
		return metadata.NewInvalidImage(source, err)
	}

	return &metadata.DecodedImage{
		Source:       source,
		Width:        uint32(b.Dx()),
		Height:       uint32(b.Dy()),
		ChannelCount: 4,
		Pixels:       toNRGBA(img).Pix,
		Valid:        true,
	}
}

// toNRGBA returns img as tightly packed non-premultiplied RGBA at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

/**
 * @brief Wraps texels that are already uncompressed RGBA8 (width x height x 4).
 * No decoding takes place.
 */
func RawImage(source string, width, height uint32, texels []uint8) *metadata.DecodedImage {
	if width == 0 || height == 0 || len(texels) != int(width)*int(height)*4 {
		err := fmt.Errorf("raw image '%s' (%dx%d) has %d bytes: %w", source, width, height, len(texels), core.ErrInvalidImage)
		core.LogWarn(err.Error())
		return metadata.NewInvalidImage(source, err)
	}
	pixels := make([]uint8, len(texels))
	copy(pixels, texels)
	return &metadata.DecodedImage{
		Source:       source,
		Width:        width,
		Height:       height,
		ChannelCount: 4,
		Pixels:       pixels,
		Valid:        true,
	}
}
