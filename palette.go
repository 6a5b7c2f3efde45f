package vidither

import "image/color"

// RGB is a single palette entry, one byte per channel.
type RGB [3]uint8

// Palette is an ordered set of allowed output colors. Order matters: ties in
// nearest-color searches resolve to the earliest entry.
type Palette []RGB

// DefaultPalette is the 8-color set used whenever color dithering is
// requested without an explicit palette.
var DefaultPalette = Palette{
	{0, 0, 0},       // black
	{255, 255, 255}, // white
	{255, 0, 0},     // red
	{0, 255, 0},     // green
	{0, 0, 255},     // blue
	{255, 255, 0},   // yellow
	{255, 0, 255},   // magenta
	{0, 255, 255},   // cyan
}

// Nearest returns the index of the entry closest to (r, g, b) by Euclidean
// distance in channel space. The inputs need not lie in [0,255]; diffusion
// pushes working values outside that range. The first of equally distant
// entries wins.
func (p Palette) Nearest(r, g, b float32) int {
	best := 0
	min := float32(-1)
	for i, e := range p {
		dr := r - float32(e[0])
		dg := g - float32(e[1])
		db := b - float32(e[2])
		d := dr*dr + dg*dg + db*db
		if min < 0 || d < min {
			min = d
			best = i
		}
	}
	return best
}

// ColorPalette converts p for use with the standard image packages.
func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, e := range p {
		cp[i] = color.NRGBA{R: e[0], G: e[1], B: e[2], A: 255}
	}
	return cp
}

// index maps exact palette values back to their position, first occurrence
// winning as in Nearest.
func (p Palette) index() map[RGB]uint8 {
	m := make(map[RGB]uint8, len(p))
	for i, e := range p {
		if _, ok := m[e]; !ok {
			m[e] = uint8(i)
		}
	}
	return m
}
