package vidither

// Tap is one target of an error-diffusion kernel: the quantization error of
// the current pixel, scaled by Weight, lands at (y+DY, x+DX). Positive DY is
// the row below.
type Tap struct {
	DY, DX int
	Weight float32
}

// Kernel is an immutable error-diffusion weight table. Taps that fall outside
// the frame are skipped; their share of the error is dropped, not
// redistributed.
type Kernel []Tap

// KernelFloydSteinberg spreads the full error over the four forward
// neighbors.
var KernelFloydSteinberg = Kernel{
	{0, 1, 7.0 / 16},
	{1, -1, 3.0 / 16},
	{1, 0, 5.0 / 16},
	{1, 1, 1.0 / 16},
}

// KernelAtkinson spreads only 6/8 of the error; the remaining quarter is
// discarded, which is what gives Atkinson output its extra contrast.
var KernelAtkinson = Kernel{
	{0, 1, 1.0 / 8},
	{0, 2, 1.0 / 8},
	{1, -1, 1.0 / 8},
	{1, 0, 1.0 / 8},
	{1, 1, 1.0 / 8},
	{2, 0, 1.0 / 8},
}

// KernelJarvisJudiceNinke spreads the full error over twelve neighbors in the
// current and next two rows.
var KernelJarvisJudiceNinke = Kernel{
	{0, 1, 7.0 / 48},
	{0, 2, 5.0 / 48},
	{1, -2, 3.0 / 48},
	{1, -1, 5.0 / 48},
	{1, 0, 7.0 / 48},
	{1, 1, 5.0 / 48},
	{1, 2, 3.0 / 48},
	{2, -2, 1.0 / 48},
	{2, -1, 3.0 / 48},
	{2, 0, 5.0 / 48},
	{2, 1, 3.0 / 48},
	{2, 2, 1.0 / 48},
}
