package vidither

import (
	"image"
	"math/rand"
	"time"
)

// uniform draws from U(−v, +v).
func uniform(rng *rand.Rand, v float64) float32 {
	return float32((rng.Float64()*2 - 1) * v)
}

// applyRandom quantizes every pixel against an independently perturbed
// threshold. Grayscale perturbs the 128 midpoint; color perturbs the pixel
// itself before the nearest-palette search. Each invocation draws from its
// own source, so concurrent frames never contend; pass WithRand with a fixed
// seed for reproducible output.
func applyRandom(img image.Image, variance float64, cfg config) image.Image {
	rng := cfg.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if !cfg.color {
		acc := grayAccumulator(img)
		for y := 0; y < acc.h; y++ {
			for x := 0; x < acc.w; x++ {
				px := acc.at(x, y)
				threshold := 128 + uniform(rng, variance)
				if px[0] > threshold {
					px[0] = 255
				} else {
					px[0] = 0
				}
			}
		}
		return acc.gray(img.Bounds())
	}

	acc := colorAccumulator(img)
	for y := 0; y < acc.h; y++ {
		for x := 0; x < acc.w; x++ {
			px := acc.at(x, y)
			var noisy [3]float32
			for c := range noisy {
				v := px[c] + uniform(rng, variance)
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				noisy[c] = v
			}
			e := cfg.palette[cfg.palette.Nearest(noisy[0], noisy[1], noisy[2])]
			px[0] = float32(e[0])
			px[1] = float32(e[1])
			px[2] = float32(e[2])
		}
	}
	return acc.paletted(img.Bounds(), cfg.palette)
}
