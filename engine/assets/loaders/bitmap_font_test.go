package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFnt = `info face="Test" size=16 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=18 base=14 scaleW=16 scaleH=8 pages=1 packed=0 alphaChnl=0 redChnl=4 greenChnl=4 blueChnl=4
page id=0 file="test_0.png"
chars count=2
char id=32   x=0     y=0     width=0     height=0     xoffset=0     yoffset=14    xadvance=4     page=0  chnl=15
char id=65   x=1     y=1     width=8     height=6     xoffset=0     yoffset=4     xadvance=9     page=0  chnl=15
kernings count=1
kerning first=65  second=65  amount=-1
`

func TestBitmapFontLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_0.png"), encodePNG(t, testImage(16, 8)), 0o644))
	path := filepath.Join(dir, "test.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFnt), 0o644))

	fl := &BitmapFontLoader{}
	font, err := fl.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Test", font.Face)
	assert.Equal(t, uint32(16), font.Size)
	assert.Equal(t, int32(18), font.LineHeight)
	assert.Equal(t, int32(14), font.Baseline)
	require.Len(t, font.Pages, 1)
	assert.Equal(t, filepath.Join(dir, "test_0.png"), font.Pages[0].Name)
	require.Len(t, font.Glyphs, 2)
	assert.Equal(t, int32(32), font.Glyphs[0].Codepoint)
	a := font.Glyph('A')
	require.NotNil(t, a)
	assert.Equal(t, uint16(8), a.Width)
	assert.Equal(t, int16(9), a.XAdvance)
	require.Len(t, font.Kernings, 1)
	assert.Equal(t, int16(-1), font.Kernings[0].Amount)
	assert.Equal(t, float32(16), font.TabXAdvance)

	require.NoError(t, fl.Unload(font))
	assert.Nil(t, font.Glyphs)
}

func TestBitmapFontLoaderReadsOnlyTheDescriptor(t *testing.T) {
	dir := t.TempDir()
	// a page sheet that is not an image must not fail the descriptor read
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_0.png"), []byte("not an image"), 0o644))
	path := filepath.Join(dir, "test.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFnt), 0o644))

	font, err := (&BitmapFontLoader{}).Load(path)
	require.NoError(t, err)
	require.Len(t, font.Pages, 1)
	assert.Nil(t, font.Pages[0].Atlas)

	require.NoError(t, os.Remove(filepath.Join(dir, "test_0.png")))
	_, err = (&BitmapFontLoader{}).Load(path)
	assert.NoError(t, err)
}

func TestBitmapFontLoaderUnsupported(t *testing.T) {
	_, err := (&BitmapFontLoader{}).Load("font.kbf")
	assert.Error(t, err)
}
