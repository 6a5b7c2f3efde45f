package vidither

import "image"

// accumulator holds the working values for one engine invocation: one float
// vector per pixel, 1 channel in grayscale mode and 3 in color mode. It is
// created from the input frame, mutated in place as error diffuses, and
// converted to the output image at the end. Never shared across invocations.
type accumulator struct {
	w, h, ch int
	pix      []float32
}

func (a *accumulator) at(x, y int) []float32 {
	i := (y*a.w + x) * a.ch
	return a.pix[i : i+a.ch : i+a.ch]
}

// Standard-ish luminance weighting for human eyes: 0.21 R + 0.72 G + 0.07 B.
func luminance(r, g, b uint32) float32 {
	return 0.21*float32(r>>8) + 0.72*float32(g>>8) + 0.07*float32(b>>8)
}

// grayAccumulator reduces any frame to single-channel working values.
// *image.Gray inputs are taken as-is; anything else goes through the
// luminance conversion.
func grayAccumulator(img image.Image) *accumulator {
	bounds := img.Bounds()
	acc := &accumulator{w: bounds.Dx(), h: bounds.Dy(), ch: 1}
	acc.pix = make([]float32, acc.w*acc.h)

	if gray, ok := img.(*image.Gray); ok {
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := gray.Pix[(y-bounds.Min.Y)*gray.Stride:]
			for x := 0; x < acc.w; x++ {
				acc.pix[i] = float32(row[x])
				i++
			}
		}
		return acc
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			acc.pix[i] = luminance(r, g, b)
			i++
		}
	}
	return acc
}

// colorAccumulator expands any frame to 3-channel working values.
func colorAccumulator(img image.Image) *accumulator {
	bounds := img.Bounds()
	acc := &accumulator{w: bounds.Dx(), h: bounds.Dy(), ch: 3}
	acc.pix = make([]float32, acc.w*acc.h*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			acc.pix[i] = float32(r >> 8)
			acc.pix[i+1] = float32(g >> 8)
			acc.pix[i+2] = float32(b >> 8)
			i += 3
		}
	}
	return acc
}

func clamp255(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// gray converts the accumulator to a grayscale image with the given bounds,
// clamping working values to [0,255].
func (a *accumulator) gray(bounds image.Rectangle) *image.Gray {
	out := image.NewGray(bounds)
	i := 0
	for y := 0; y < a.h; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < a.w; x++ {
			row[x] = clamp255(a.pix[i])
			i++
		}
	}
	return out
}

// paletted converts the accumulator, whose values must already be exact
// palette entries, to a paletted image carrying p.
func (a *accumulator) paletted(bounds image.Rectangle, p Palette) *image.Paletted {
	out := image.NewPaletted(bounds, p.ColorPalette())
	lookup := p.index()
	i := 0
	for y := 0; y < a.h; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < a.w; x++ {
			c := RGB{clamp255(a.pix[i]), clamp255(a.pix[i+1]), clamp255(a.pix[i+2])}
			row[x] = lookup[c]
			i += 3
		}
	}
	return out
}
