package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

type BitmapFontFileType int

const (
	BITMAP_FONT_FILE_TYPE_NOT_FOUND BitmapFontFileType = iota
	BITMAP_FONT_FILE_TYPE_FNT
)

/**
 * @brief Reads AngelCode .fnt descriptors. The page images are not
 * decoded here; they are uploaded as textures by the asset manager.
 */
type BitmapFontLoader struct{}

func fileType(path string) BitmapFontFileType {
	if strings.EqualFold(filepath.Ext(path), ".fnt") {
		return BITMAP_FONT_FILE_TYPE_FNT
	}
	return BITMAP_FONT_FILE_TYPE_NOT_FOUND
}

func (fl *BitmapFontLoader) Load(path string) (*metadata.BitmapFont, error) {
	switch fileType(path) {
	case BITMAP_FONT_FILE_TYPE_FNT:
		return fl.importFNTFile(path)
	}
	err := fmt.Errorf("unable to load bitmap font '%s': %w", path, core.ErrUnsupportedFormat)
	core.LogError(err.Error())
	return nil, err
}

func (fl *BitmapFontLoader) Unload(font *metadata.BitmapFont) error {
	if font == nil {
		return nil
	}
	font.Glyphs = nil
	font.Kernings = nil
	font.Pages = nil
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*metadata.BitmapFont, error) {
	// bmfont.Load would decode the pages through image.Decode
	desc, err := bmfont.LoadDescriptor(fntFileName)
	if err != nil {
		err = fmt.Errorf("failed to import bitmap font '%s': %w", fntFileName, err)
		core.LogError(err.Error())
		return nil, err
	}

	out := &metadata.BitmapFont{
		Face:       desc.Info.Face,
		Size:       uint32(desc.Info.Size),
		LineHeight: int32(desc.Common.LineHeight),
		Baseline:   int32(desc.Common.Base),
		AtlasSizeX: int32(desc.Common.ScaleW),
		AtlasSizeY: int32(desc.Common.ScaleH),
		Glyphs:     make([]*metadata.FontGlyph, 0, len(desc.Chars)),
		Kernings:   make([]*metadata.FontKerning, 0, len(desc.Kerning)),
		Pages:      make([]*metadata.BitmapFontPage, 0, len(desc.Pages)),
	}

	dir := filepath.Dir(fntFileName)
	for _, p := range desc.Pages {
		out.Pages = append(out.Pages, &metadata.BitmapFontPage{
			ID:   int8(p.ID),
			Name: filepath.Join(dir, p.File),
		})
	}
	sort.Slice(out.Pages, func(i, j int) bool { return out.Pages[i].ID < out.Pages[j].ID })

	for _, g := range desc.Chars {
		out.Glyphs = append(out.Glyphs, &metadata.FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	sort.Slice(out.Glyphs, func(i, j int) bool { return out.Glyphs[i].Codepoint < out.Glyphs[j].Codepoint })

	for p, k := range desc.Kerning {
		out.Kernings = append(out.Kernings, &metadata.FontKerning{
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
			Amount:     int16(k.Amount),
		})
	}
	sort.Slice(out.Kernings, func(i, j int) bool {
		if out.Kernings[i].Codepoint0 != out.Kernings[j].Codepoint0 {
			return out.Kernings[i].Codepoint0 < out.Kernings[j].Codepoint0
		}
		return out.Kernings[i].Codepoint1 < out.Kernings[j].Codepoint1
	})

	// Tab is four spaces wide unless the font has a tab glyph.
	if tab := out.Glyph('\t'); tab != nil {
		out.TabXAdvance = float32(tab.XAdvance)
	} else if space := out.Glyph(' '); space != nil {
		out.TabXAdvance = float32(space.XAdvance) * 4
	}
	return out, nil
}
