package metadata

import "github.com/faiface/beep"

/**
 * @brief A fully decoded sound held in memory.
 */
type Sound struct {
	/** @brief The path the sound was decoded from. */
	Name string
	/** @brief The sample rate and channel layout. */
	Format beep.Format
	/** @brief The decoded samples. */
	Buffer *beep.Buffer
}

// Len returns the length of the sound in samples.
func (s *Sound) Len() int {
	if s == nil || s.Buffer == nil {
		return 0
	}
	return s.Buffer.Len()
}
