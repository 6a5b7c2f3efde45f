/*
Package vidither converts continuous-tone frames into images restricted to a
small fixed palette, preserving perceived tonal detail through error
diffusion, ordered (Bayer) thresholding, or randomized thresholding.

Every call to Apply is a pure function of its inputs plus, for the random
method, an injectable randomness source: one frame in, one quantized frame of
identical bounds out, no state shared between calls. Frames may therefore be
dithered concurrently by independent calls.
*/
package vidither

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
)

// Method selects a dithering algorithm.
type Method string

const (
	FloydSteinberg    Method = "floyd_steinberg"
	Atkinson          Method = "atkinson"
	JarvisJudiceNinke Method = "jarvis_judice_ninke"
	Ordered           Method = "ordered"
	Random            Method = "random"
)

var (
	ErrUnknownMethod = errors.New("vidither: unknown dithering method")
	ErrEmptyPalette  = errors.New("vidither: empty palette")
	ErrBadStrength   = errors.New("vidither: dither strength must be in [0,1]")
	ErrBadMatrixSize = errors.New("vidither: matrix size must be 2, 4 or 8")
	ErrBadVariance   = errors.New("vidither: threshold variance must be >= 0")
)

type config struct {
	color      bool
	palette    Palette
	strength   float64
	matrixSize int
	variance   float64
	rng        *rand.Rand
}

// Option configures a single Apply call.
type Option func(*config)

// WithStrength sets how much of the quantization error the diffusion methods
// redistribute, from 0 (plain thresholding) to 1 (full diffusion). Default 1.
func WithStrength(strength float64) Option {
	return func(cfg *config) {
		cfg.strength = strength
	}
}

// WithMatrixSize sets the Bayer matrix size for the ordered method: 2, 4
// or 8. Default 4.
func WithMatrixSize(size int) Option {
	return func(cfg *config) {
		cfg.matrixSize = size
	}
}

// WithVariance sets the threshold variance for the random method. Default 50.
func WithVariance(variance float64) Option {
	return func(cfg *config) {
		cfg.variance = variance
	}
}

// WithColor switches from grayscale to color quantization against
// DefaultPalette.
func WithColor() Option {
	return func(cfg *config) {
		cfg.color = true
	}
}

// WithPalette switches to color quantization against p.
func WithPalette(p Palette) Option {
	return func(cfg *config) {
		cfg.color = true
		cfg.palette = p
	}
}

// WithRand supplies the randomness source for the random method. Fixing the
// seed makes output reproducible; by default each call draws from a fresh
// time-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(cfg *config) {
		cfg.rng = rng
	}
}

// Apply dithers one frame and returns a new image with identical bounds whose
// pixels are restricted to the active palette: {0, 255} gray values by
// default, or the palette entries when WithColor/WithPalette is given.
// Grayscale output is *image.Gray; color output is *image.Paletted carrying
// the active palette.
//
// Any image.Image is accepted. Grayscale mode reduces color input via a
// luminance weighting; color mode reads the RGB channels of whatever it is
// handed.
func Apply(img image.Image, method Method, opts ...Option) (image.Image, error) {
	cfg := config{
		strength:   1.0,
		matrixSize: 4,
		variance:   50,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.color && cfg.palette == nil {
		cfg.palette = DefaultPalette
	}
	if cfg.color && len(cfg.palette) == 0 {
		return nil, ErrEmptyPalette
	}
	if cfg.color && len(cfg.palette) > 256 {
		return nil, fmt.Errorf("vidither: palette has %d entries, paletted output allows at most 256", len(cfg.palette))
	}

	switch method {
	case FloydSteinberg, Atkinson, JarvisJudiceNinke:
		if cfg.strength < 0 || cfg.strength > 1 {
			return nil, fmt.Errorf("%w: got %v", ErrBadStrength, cfg.strength)
		}
		return applyDiffusion(img, kernelFor(method), cfg), nil
	case Ordered:
		switch cfg.matrixSize {
		case 2, 4, 8:
		default:
			return nil, fmt.Errorf("%w: got %d", ErrBadMatrixSize, cfg.matrixSize)
		}
		return applyOrdered(img, cfg.matrixSize, cfg), nil
	case Random:
		if cfg.variance < 0 {
			return nil, fmt.Errorf("%w: got %v", ErrBadVariance, cfg.variance)
		}
		return applyRandom(img, cfg.variance, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func kernelFor(method Method) Kernel {
	switch method {
	case Atkinson:
		return KernelAtkinson
	case JarvisJudiceNinke:
		return KernelJarvisJudiceNinke
	default:
		return KernelFloydSteinberg
	}
}

func applyDiffusion(img image.Image, k Kernel, cfg config) image.Image {
	if cfg.color {
		acc := colorAccumulator(img)
		diffuse(acc, k, float32(cfg.strength), paletteQuantizer(cfg.palette))
		return acc.paletted(img.Bounds(), cfg.palette)
	}
	acc := grayAccumulator(img)
	diffuse(acc, k, float32(cfg.strength), grayThreshold)
	return acc.gray(img.Bounds())
}
