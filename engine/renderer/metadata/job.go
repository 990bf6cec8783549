package metadata

import "fmt"

/**
 * @brief The states a model load goes through. A load only moves forward
 * and cannot be restarted once Done.
 */
type LoadState int

const (
	LoadStateDiscovering LoadState = iota
	LoadStateParsingMeshes
	LoadStateEnumeratingTextures
	LoadStateDecoding
	LoadStateUploading
	LoadStateFinalizing
	LoadStateDone
)

var loadStateNames = []string{
	"discovering",
	"parsing_meshes",
	"enumerating_textures",
	"decoding",
	"uploading",
	"finalizing",
	"done",
}

func (s LoadState) String() string {
	if s < 0 || int(s) >= len(loadStateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return loadStateNames[s]
}

/**
 * @brief A read-only snapshot of a model load, handed to the progress callback.
 * Counters never decrease during a load.
 */
type LoadProgress struct {
	/** @brief The load identifier. */
	LoadID string
	/** @brief The model path. */
	Path string
	/** @brief The current state. */
	State LoadState
	/** @brief The number of decode futures resolved so far, valid or not. */
	ImagesDecoded int
	/** @brief The number of texture requests of this load. */
	TotalImages int
	/** @brief The number of requests whose upload step finished, bound or not. */
	TexturesUploaded int
	/** @brief Set once, together with State == LoadStateDone. */
	Complete bool
}

func (p LoadProgress) DecodeProgress() float32 {
	if p.TotalImages == 0 {
		return 1
	}
	return float32(p.ImagesDecoded) / float32(p.TotalImages)
}

func (p LoadProgress) UploadProgress() float32 {
	if p.TotalImages == 0 {
		return 1
	}
	return float32(p.TexturesUploaded) / float32(p.TotalImages)
}

/** @brief Called synchronously on the loading goroutine. Must not block. */
type ProgressFunc func(progress LoadProgress)
