package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "headless", c.Renderer.Type)
	assert.Equal(t, []string{".gltf", ".glb", ".obj"}, c.Assets.ModelExtensions)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"

[assets]
root = "/srv/assets"
texture_extensions = [".png", ".tga"]
auto_pbr = true
watch = true

[jobs]
workers = 3

[renderer]
max_texture_size = 100000
shared_shader = ""
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "/srv/assets", c.Assets.Root)
	assert.Equal(t, []string{".png", ".tga"}, c.Assets.TextureExtensions)
	assert.Equal(t, []string{".wav", ".ogg", ".mp3"}, c.Assets.SoundExtensions, "missing keys keep their default")
	assert.True(t, c.Assets.AutoPBR)
	assert.True(t, c.Assets.Watch)
	assert.Equal(t, 3, c.Jobs.Workers)
	assert.Equal(t, MaxTextureSize, c.Renderer.MaxTextureSize, "clamped")
	assert.Empty(t, c.Renderer.SharedShader)
	assert.Equal(t, uint32(65536), c.Textures.MaxTextureCount)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Parse([]byte("[assets\nroot = 1"))
	assert.Error(t, err)

	_, err = Parse([]byte("[assets]\nrooot = \"x\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rooot")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"log level":        func(c *Config) { c.Log.Level = "loud" },
		"empty root":       func(c *Config) { c.Assets.Root = "" },
		"extension dot":    func(c *Config) { c.Assets.ModelExtensions = []string{"obj"} },
		"negative jobs":    func(c *Config) { c.Jobs.Workers = -1 },
		"no textures":      func(c *Config) { c.Textures.MaxTextureCount = 0 },
		"no geometry":      func(c *Config) { c.Geometry.MaxGeometryCount = 0 },
		"no fonts":         func(c *Config) { c.Fonts.MaxBitmapFontCount = 0 },
		"no shaders":       func(c *Config) { c.Renderer.MaxShaderCount = 0 },
		"unknown renderer": func(c *Config) { c.Renderer.Type = "directx" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := Default()
	c.Jobs.Workers = 10000
	c.Jobs.QueueSize = 0
	c.Renderer.MaxTextureSize = 0
	require.NoError(t, c.Validate())
	assert.Equal(t, MaxWorkers, c.Jobs.Workers)
	assert.Equal(t, 1, c.Jobs.QueueSize)
	assert.Equal(t, MinTextureSize, c.Renderer.MaxTextureSize)
}
