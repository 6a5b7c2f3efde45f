package vidither

// quantize reads one pixel's working values from in (possibly pushed outside
// [0,255] by earlier error) and writes the chosen palette value to out. Both
// slices have the accumulator's channel count.
type quantize func(in, out []float32)

// grayThreshold is the grayscale quantizer: 255 above the 128 midpoint, 0
// otherwise.
func grayThreshold(in, out []float32) {
	if in[0] > 128 {
		out[0] = 255
	} else {
		out[0] = 0
	}
}

// paletteQuantizer returns the color quantizer: nearest palette entry by
// Euclidean distance.
func paletteQuantizer(p Palette) quantize {
	return func(in, out []float32) {
		e := p[p.Nearest(in[0], in[1], in[2])]
		out[0] = float32(e[0])
		out[1] = float32(e[1])
		out[2] = float32(e[2])
	}
}

// diffuse runs the shared error-diffusion scan: row-major, top-to-bottom,
// left-to-right. Each pixel is quantized against its accumulated value, the
// quantized value becomes final, and (old − new) × strength spreads to the
// kernel's taps. Taps outside the frame are skipped, so their share of the
// error is lost rather than renormalized. Pixels ahead of the scan are the
// only ones ever written to, which is what makes the scan order a hard
// sequential dependency.
func diffuse(acc *accumulator, k Kernel, strength float32, q quantize) {
	old := make([]float32, acc.ch)
	next := make([]float32, acc.ch)
	for y := 0; y < acc.h; y++ {
		for x := 0; x < acc.w; x++ {
			px := acc.at(x, y)
			copy(old, px)
			q(old, next)
			copy(px, next)
			for _, t := range k {
				tx, ty := x+t.DX, y+t.DY
				if tx < 0 || tx >= acc.w || ty >= acc.h {
					continue
				}
				target := acc.at(tx, ty)
				for c := range target {
					target[c] += (old[c] - next[c]) * strength * t.Weight
				}
			}
		}
	}
}
