package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/constraints"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer"
)

const (
	MinTextureSize uint32 = 1
	MaxTextureSize uint32 = 16384
	MaxWorkers     int    = 256
)

type LogConfig struct {
	/** @brief One of debug, info, warn, error, fatal. */
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

type AssetsConfig struct {
	/** @brief The assets root, holding models/, textures/, sounds/ and fonts/. */
	Root              string   `toml:"root"`
	ModelExtensions   []string `toml:"model_extensions"`
	TextureExtensions []string `toml:"texture_extensions"`
	SoundExtensions   []string `toml:"sound_extensions"`
	FontExtensions    []string `toml:"font_extensions"`
	AutoPBR           bool     `toml:"auto_pbr"`
	Watch             bool     `toml:"watch"`
}

type JobsConfig struct {
	/** @brief Number of decode workers. 0 picks one per CPU. */
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

type TexturesConfig struct {
	MaxTextureCount uint32 `toml:"max_texture_count"`
}

type GeometryConfig struct {
	MaxGeometryCount uint32 `toml:"max_geometry_count"`
}

type FontsConfig struct {
	MaxBitmapFontCount uint16 `toml:"max_bitmap_font_count"`
}

type RendererConfig struct {
	/** @brief headless, vulkan or opengl. Only headless is built in. */
	Type            string `toml:"type"`
	ApplicationName string `toml:"application_name"`
	MaxTextureSize  uint32 `toml:"max_texture_size"`
	MaxShaderCount  uint16 `toml:"max_shader_count"`
	/** @brief The shader attached to every loaded material. Empty disables it. */
	SharedShader string `toml:"shared_shader"`
}

/**
 * @brief The engine configuration, read from a TOML file over the defaults.
 */
type Config struct {
	Log      LogConfig      `toml:"log"`
	Assets   AssetsConfig   `toml:"assets"`
	Jobs     JobsConfig     `toml:"jobs"`
	Textures TexturesConfig `toml:"textures"`
	Geometry GeometryConfig `toml:"geometry"`
	Fonts    FontsConfig    `toml:"fonts"`
	Renderer RendererConfig `toml:"renderer"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Prefix: "Assets 📦 ",
		},
		Assets: AssetsConfig{
			Root:              "assets",
			ModelExtensions:   []string{".gltf", ".glb", ".obj"},
			TextureExtensions: []string{".png", ".jpg", ".jpeg", ".tga", ".bmp"},
			SoundExtensions:   []string{".wav", ".ogg", ".mp3"},
			FontExtensions:    []string{".fnt"},
		},
		Jobs: JobsConfig{
			Workers:   0,
			QueueSize: 64,
		},
		Textures: TexturesConfig{MaxTextureCount: 65536},
		Geometry: GeometryConfig{MaxGeometryCount: 4096},
		Fonts:    FontsConfig{MaxBitmapFontCount: 32},
		Renderer: RendererConfig{
			Type:            "headless",
			ApplicationName: "anima-assets",
			MaxTextureSize:  8192,
			MaxShaderCount:  1024,
			SharedShader:    "Shader.Builtin.PBR",
		},
	}
}

/**
 * @brief Reads the TOML file at path over the defaults and validates it.
 * Keys missing from the file keep their default value; unknown keys are an error.
 */
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			err = fmt.Errorf("unknown config keys:\n%s", strict.String())
		} else {
			err = fmt.Errorf("failed to parse config: %w", err)
		}
		core.LogError(err.Error())
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

/**
 * @brief Rejects values nothing can run with and clamps the ones that are
 * merely out of range.
 */
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return c.invalid("log.level", "%q is not a log level", c.Log.Level)
	}
	if c.Assets.Root == "" {
		return c.invalid("assets.root", "must not be empty")
	}
	for key, exts := range map[string][]string{
		"assets.model_extensions":   c.Assets.ModelExtensions,
		"assets.texture_extensions": c.Assets.TextureExtensions,
		"assets.sound_extensions":   c.Assets.SoundExtensions,
		"assets.font_extensions":    c.Assets.FontExtensions,
	} {
		for _, ext := range exts {
			if len(ext) < 2 || ext[0] != '.' {
				return c.invalid(key, "%q must start with a dot", ext)
			}
		}
	}
	if c.Jobs.Workers < 0 {
		return c.invalid("jobs.workers", "must not be negative")
	}
	if c.Textures.MaxTextureCount == 0 {
		return c.invalid("textures.max_texture_count", "must be > 0")
	}
	if c.Geometry.MaxGeometryCount == 0 {
		return c.invalid("geometry.max_geometry_count", "must be > 0")
	}
	if c.Fonts.MaxBitmapFontCount == 0 {
		return c.invalid("fonts.max_bitmap_font_count", "must be > 0")
	}
	if c.Renderer.MaxShaderCount == 0 {
		return c.invalid("renderer.max_shader_count", "must be > 0")
	}
	if _, err := renderer.ParseRendererType(c.Renderer.Type); err != nil {
		return c.invalid("renderer.type", "unsupported backend %q", c.Renderer.Type)
	}

	c.Jobs.Workers = clamp(c.Jobs.Workers, 0, MaxWorkers)
	c.Jobs.QueueSize = clamp(c.Jobs.QueueSize, 1, 1<<16)
	c.Renderer.MaxTextureSize = clamp(c.Renderer.MaxTextureSize, MinTextureSize, MaxTextureSize)
	return nil
}

func (c *Config) invalid(key, format string, args ...interface{}) error {
	err := fmt.Errorf("invalid config value for '%s': %s", key, fmt.Sprintf(format, args...))
	core.LogError(err.Error())
	return err
}

// clamp returns v clamped to [low, high].
func clamp[T constraints.Ordered](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
