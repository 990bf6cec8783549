package metadata

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type BitmapFontPage struct {
	ID   int8
	Name string
	/** @brief The atlas texture of the page, uploaded by the texture system. */
	Atlas *Texture
}

/**
 * @brief A bitmap font read from an AngelCode .fnt descriptor.
 */
type BitmapFont struct {
	Face        string
	Size        uint32
	LineHeight  int32
	Baseline    int32
	AtlasSizeX  int32
	AtlasSizeY  int32
	Glyphs      []*FontGlyph
	Kernings    []*FontKerning
	Pages       []*BitmapFontPage
	TabXAdvance float32
}

// Glyph returns the glyph of codepoint, or nil.
func (f *BitmapFont) Glyph(codepoint int32) *FontGlyph {
	for _, g := range f.Glyphs {
		if g.Codepoint == codepoint {
			return g
		}
	}
	return nil
}
