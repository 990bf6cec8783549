package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

/**
 * @brief Decodes whole sound files into memory. Supports wav, mp3 and ogg vorbis.
 */
type SoundLoader struct{}

func (sl *SoundLoader) Load(path string) (*metadata.Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		err = fmt.Errorf("sound '%s' has extension '%s': %w", path, ext, core.ErrUnsupportedFormat)
		core.LogError(err.Error())
		return nil, err
	}
	if err != nil {
		f.Close()
		err = fmt.Errorf("failed to decode sound '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	// closing the streamer closes f
	defer streamer.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		err = fmt.Errorf("failed to read sound '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	return &metadata.Sound{
		Name:   path,
		Format: format,
		Buffer: buffer,
	}, nil
}

func (sl *SoundLoader) Unload(sound *metadata.Sound) error {
	if sound == nil {
		return nil
	}
	sound.Buffer = nil
	return nil
}
