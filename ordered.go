package vidither

import "image"

// Canonical Bayer matrices. Cell values divided by size² give thresholds in
// [0,1); the matrix tiles across the frame by coordinate modulo size.
var (
	bayer2 = [][]int{
		{0, 2},
		{3, 1},
	}
	bayer4 = [][]int{
		{0, 8, 2, 10},
		{12, 4, 14, 6},
		{3, 11, 1, 9},
		{15, 7, 13, 5},
	}
	bayer8 = [][]int{
		{0, 32, 8, 40, 2, 34, 10, 42},
		{48, 16, 56, 24, 50, 18, 58, 26},
		{12, 44, 4, 36, 14, 46, 6, 38},
		{60, 28, 52, 20, 62, 30, 54, 22},
		{3, 35, 11, 43, 1, 33, 9, 41},
		{51, 19, 59, 27, 49, 17, 57, 25},
		{15, 47, 7, 39, 13, 45, 5, 37},
		{63, 31, 55, 23, 61, 29, 53, 21},
	}
)

func bayerMatrix(size int) [][]int {
	switch size {
	case 2:
		return bayer2
	case 4:
		return bayer4
	default:
		return bayer8
	}
}

// applyOrdered quantizes every pixel against a spatially fixed threshold from
// the tiled Bayer matrix. No error propagates, so pixels are independent.
//
// Color mode only realizes the Bayer pattern for 2-entry palettes, where the
// channel mean decides between the two entries. Larger palettes fall back to
// plain nearest-color quantization: the threshold is computed and discarded,
// matching the behavior this tool has always had for multi-color palettes.
func applyOrdered(img image.Image, size int, cfg config) image.Image {
	matrix := bayerMatrix(size)
	norm := float32(size * size)

	if !cfg.color {
		acc := grayAccumulator(img)
		for y := 0; y < acc.h; y++ {
			for x := 0; x < acc.w; x++ {
				threshold := float32(matrix[y%size][x%size]) / norm * 255
				px := acc.at(x, y)
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
	binary := len(cfg.palette) == 2
	for y := 0; y < acc.h; y++ {
		for x := 0; x < acc.w; x++ {
			px := acc.at(x, y)
			var e RGB
			if binary {
				threshold := float32(matrix[y%size][x%size]) / norm * 255
				mean := (px[0] + px[1] + px[2]) / 3
				if mean > threshold {
					e = cfg.palette[1]
				} else {
					e = cfg.palette[0]
				}
			} else {
				e = cfg.palette[cfg.palette.Nearest(px[0], px[1], px[2])]
			}
			px[0] = float32(e[0])
			px[1] = float32(e[1])
			px[2] = float32(e[2])
		}
	}
	return acc.paletted(img.Bounds(), cfg.palette)
}
