package vidither

import (
	"bufio"
	"image"
	"io"
)

// braille is a 2x4 block of monochrome pixels in x,y space:
//
//	+----------+
//	|(0,0)(1,0)|
//	|(0,1)(1,1)|
//	|(0,2)(1,2)|
//	|(0,3)(1,3)|
//	+----------+
//
// Any such block maps onto exactly one of unicode's 256 braille symbols,
// which is what makes braille a dense terminal rendering for dithered
// monochrome frames.
type braille [2][4]bool

// rune maps the block to its unicode symbol. Braille dot numbering fills the
// left column first:
//
//	+------+
//	|(1)(4)|
//	|(2)(5)|
//	|(3)(6)|
//	|(7)(8)|
//	+------+
//
// See https://en.wikipedia.org/wiki/Braille_Patterns#Identifying.2C_naming_and_ordering
func (b braille) rune() rune {
	dots := [8]bool{b[0][0], b[0][1], b[0][2], b[1][0], b[1][1], b[1][2], b[0][3], b[1][3]}
	var v int
	for i, on := range dots {
		if on {
			v |= 1 << i
		}
	}
	return rune(0x2800 + v)
}

// renderBraille writes img as lines of braille runes, one rune per 2x4 pixel
// block. Pixels darker than mid-gray are inked, so the {0,255} output of the
// grayscale engines renders exactly. Blocks hanging past the right or bottom
// edge leave their spare dots blank.
func renderBraille(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	bounds := img.Bounds()
	for py := bounds.Min.Y; py < bounds.Max.Y; py += 4 {
		for px := bounds.Min.X; px < bounds.Max.X; px += 2 {
			var b braille
			for y := 0; y < 4; y++ {
				for x := 0; x < 2; x++ {
					if px+x >= bounds.Max.X || py+y >= bounds.Max.Y {
						continue
					}
					if inked(img, px+x, py+y) {
						b[x][y] = true
					}
				}
			}
			if _, err := bw.WriteRune(b.rune()); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func inked(img image.Image, x, y int) bool {
	if gray, ok := img.(*image.Gray); ok {
		return gray.GrayAt(x, y).Y < 128
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return luminance(r, g, b) < 128
}

// brailleRows is how many terminal lines a frame occupies once rendered.
func brailleRows(img image.Image) int {
	return (img.Bounds().Dy() + 3) / 4
}
