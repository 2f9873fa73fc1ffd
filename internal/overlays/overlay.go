package overlays

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// Presets for light-leak colours
var (
	Warm   = "warm"
	Golden = "golden"
	Rose   = "rose"
	Amber  = "amber"
)

// DefaultColor is the warm orange used when nothing else is configured
var DefaultColor = color.RGBA{R: 255, G: 180, B: 100, A: 255}

// Registry manages named overlay colours
type Registry struct {
	colors map[string]color.RGBA
}

// NewRegistry creates a registry holding the built-in presets
func NewRegistry() *Registry {
	r := &Registry{
		colors: make(map[string]color.RGBA),
	}
	r.Register(Warm, DefaultColor)
	r.Register(Golden, color.RGBA{R: 255, G: 200, B: 80, A: 255})
	r.Register(Rose, color.RGBA{R: 255, G: 150, B: 160, A: 255})
	r.Register(Amber, color.RGBA{R: 255, G: 150, B: 40, A: 255})
	return r
}

// Register adds or replaces a colour
func (r *Registry) Register(name string, c color.RGBA) {
	r.colors[strings.ToLower(name)] = c
}

// RegisterHex adds a colour given as "#RRGGBB"
func (r *Registry) RegisterHex(name, hex string) error {
	c, err := ParseColor(hex)
	if err != nil {
		return fmt.Errorf("overlay preset %q: %w", name, err)
	}
	r.Register(name, c)
	return nil
}

// Get retrieves a colour by name
func (r *Registry) Get(name string) (color.RGBA, bool) {
	c, ok := r.colors[strings.ToLower(name)]
	return c, ok
}

// List returns all registered names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.colors))
	for name := range r.colors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the light-leak colour: an explicit hex wins over a named style,
// and an empty style means the default.
func (r *Registry) Resolve(style, hex string) (color.RGBA, error) {
	if hex != "" {
		return ParseColor(hex)
	}
	if style == "" {
		return DefaultColor, nil
	}
	c, ok := r.Get(style)
	if !ok {
		return color.RGBA{}, fmt.Errorf("unknown light leak style %q (have %s)", style, strings.Join(r.List(), ", "))
	}
	return c, nil
}

// ParseColor parses "#RRGGBB" or "RRGGBB"
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Hex formats a colour as "#RRGGBB"
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
