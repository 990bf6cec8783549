package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/headless"
)

type RendererType uint8

const (
	Headless RendererType = iota
	Vulkan
	OpenGL
)

// ParseRendererType maps a configuration string to a renderer type.
func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(s) {
	case "", "headless":
		return Headless, nil
	case "vulkan":
		return Vulkan, nil
	case "opengl":
		return OpenGL, nil
	}
	return Headless, fmt.Errorf("unknown renderer type '%s': %w", s, core.ErrUnsupportedFormat)
}

func (t RendererType) String() string {
	switch t {
	case Headless:
		return "headless"
	case Vulkan:
		return "vulkan"
	case OpenGL:
		return "opengl"
	}
	return "unknown"
}

// NewBackend creates the backend of the given type. Only the headless
// backend ships with this module; windowed backends are supplied by the host.
func NewBackend(t RendererType) (RendererBackend, error) {
	switch t {
	case Headless:
		return headless.New(), nil
	}
	err := fmt.Errorf("renderer backend '%s' is not built in; pass one to the engine instead", t)
	core.LogError(err.Error())
	return nil, err
}
