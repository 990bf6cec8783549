package systems

import (
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

const testFont = `info face="Mono" size=12 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=14 base=11 scaleW=8 scaleH=8 pages=1 packed=0 alphaChnl=0 redChnl=4 greenChnl=4 blueChnl=4
page id=0 file="mono_0.png"
chars count=1
char id=65   x=0     y=0     width=6     height=7     xoffset=0     yoffset=3     xadvance=7     page=0  chnl=15
`

func TestFontSystemLoadBitmapFont(t *testing.T) {
	sm, _ := newTestSystems(t, testConfig())
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "mono_0.png"), 8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	path := filepath.Join(dir, "mono.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFont), 0o644))

	font, err := sm.FontSystem.LoadBitmapFont(path)
	require.NoError(t, err)
	require.Len(t, font.Pages, 1)
	atlas := font.Pages[0].Atlas
	require.True(t, atlas.Valid())
	assert.Equal(t, uint32(8), atlas.Width)
	assert.Equal(t, metadata.TextureFilterModeTrilinear, atlas.Filter)
	assert.Equal(t, 1, sm.TextureSystem.LiveCount())

	require.NoError(t, sm.FontSystem.Release(font))
	require.NoError(t, sm.FontSystem.Release(font))
	assert.False(t, atlas.Valid())
	assert.Zero(t, sm.TextureSystem.LiveCount())
}

func TestFontSystemMissingPage(t *testing.T) {
	sm, _ := newTestSystems(t, testConfig())
	dir := t.TempDir()
	path := filepath.Join(dir, "mono.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFont), 0o644))

	_, err := sm.FontSystem.LoadBitmapFont(path)
	assert.Error(t, err)
	assert.Zero(t, sm.TextureSystem.LiveCount())
}

func TestFontSystemLimitHoldsUnderConcurrentLoads(t *testing.T) {
	config := testConfig()
	config.Fonts.MaxBitmapFontCount = 2
	sm, _ := newTestSystems(t, config)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "mono_0.png"), 8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	path := filepath.Join(dir, "mono.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFont), 0o644))

	const loaders = 8
	fonts := make([]*metadata.BitmapFont, loaders)
	var wg sync.WaitGroup
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			font, err := sm.FontSystem.LoadBitmapFont(path)
			if err == nil {
				fonts[i] = font
			}
		}()
	}
	wg.Wait()

	loaded := 0
	for _, f := range fonts {
		if f != nil {
			loaded++
		}
	}
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 2, sm.FontSystem.LoadedCount())
	assert.Equal(t, 2, sm.TextureSystem.LiveCount())

	for _, f := range fonts {
		if f != nil {
			require.NoError(t, sm.FontSystem.Release(f))
		}
	}
	assert.Zero(t, sm.FontSystem.LoadedCount())
}
