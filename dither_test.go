package vidither_test

import (
	"image"
	"image/color"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/michail-semoglou/vidither"
)

func grayFrame(w, h int, pix ...uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img
}

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func colorFrame(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 37) ^ (y * 19)),
				G: uint8((x * 11) + (y * 53)),
				B: uint8((x * 3) ^ (y * 29)),
				A: 255,
			})
		}
	}
	return img
}

func uniformColor(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func rgbAt(img image.Image, x, y int) vidither.RGB {
	r, g, b, _ := img.At(x, y).RGBA()
	return vidither.RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

var allMethods = []vidither.Method{
	vidither.FloydSteinberg,
	vidither.Atkinson,
	vidither.JarvisJudiceNinke,
	vidither.Ordered,
	vidither.Random,
}

var _ = Describe("Apply", func() {
	It("rejects unknown methods", func() {
		_, err := vidither.Apply(uniformGray(2, 2, 128), "bayer")
		Expect(err).To(MatchError(vidither.ErrUnknownMethod))
	})

	It("rejects an explicitly empty palette", func() {
		_, err := vidither.Apply(colorFrame(2, 2), vidither.FloydSteinberg,
			vidither.WithPalette(vidither.Palette{}))
		Expect(err).To(MatchError(vidither.ErrEmptyPalette))
	})

	It("rejects out-of-range strength", func() {
		for _, s := range []float64{-0.1, 1.5} {
			_, err := vidither.Apply(uniformGray(2, 2, 128), vidither.FloydSteinberg,
				vidither.WithStrength(s))
			Expect(err).To(MatchError(vidither.ErrBadStrength))
		}
	})

	It("rejects matrix sizes other than 2, 4 and 8", func() {
		_, err := vidither.Apply(uniformGray(2, 2, 128), vidither.Ordered,
			vidither.WithMatrixSize(3))
		Expect(err).To(MatchError(vidither.ErrBadMatrixSize))
	})

	It("rejects negative variance", func() {
		_, err := vidither.Apply(uniformGray(2, 2, 128), vidither.Random,
			vidither.WithVariance(-1))
		Expect(err).To(MatchError(vidither.ErrBadVariance))
	})

	It("preserves bounds for every method in both modes", func() {
		in := colorFrame(13, 7)
		for _, m := range allMethods {
			out, err := vidither.Apply(in, m)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Bounds()).To(Equal(in.Bounds()), string(m))

			out, err = vidither.Apply(in, m, vidither.WithColor())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Bounds()).To(Equal(in.Bounds()), string(m))
		}
	})

	It("emits only 0 and 255 in grayscale mode", func() {
		in := colorFrame(16, 16)
		for _, m := range allMethods {
			out, err := vidither.Apply(in, m)
			Expect(err).NotTo(HaveOccurred())
			gray, ok := out.(*image.Gray)
			Expect(ok).To(BeTrue(), string(m))
			for _, v := range gray.Pix {
				Expect(v).To(Or(Equal(uint8(0)), Equal(uint8(255))), string(m))
			}
		}
	})

	It("emits only palette entries in color mode", func() {
		in := colorFrame(16, 16)
		palette := vidither.Palette{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 255, 0}}
		for _, m := range allMethods {
			out, err := vidither.Apply(in, m, vidither.WithPalette(palette))
			Expect(err).NotTo(HaveOccurred())
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					Expect(palette).To(ContainElement(rgbAt(out, x, y)), string(m))
				}
			}
		}
	})

	It("survives 1x1 and 2x2 frames for every method", func() {
		for _, m := range allMethods {
			for _, in := range []*image.Gray{uniformGray(1, 1, 128), uniformGray(2, 2, 200)} {
				out, err := vidither.Apply(in, m)
				Expect(err).NotTo(HaveOccurred())
				for _, v := range out.(*image.Gray).Pix {
					Expect(v).To(Or(Equal(uint8(0)), Equal(uint8(255))), string(m))
				}
			}
		}
	})

	It("converts between modes regardless of input type", func() {
		out, err := vidither.Apply(colorFrame(4, 4), vidither.FloydSteinberg)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeAssignableToTypeOf(&image.Gray{}))

		out, err = vidither.Apply(uniformGray(4, 4, 90), vidither.FloydSteinberg, vidither.WithColor())
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeAssignableToTypeOf(&image.Paletted{}))
	})
})

var _ = Describe("error diffusion", func() {
	It("reproduces the Floyd-Steinberg 2x2 baseline", func() {
		// (0,0)=100 quantizes to 0 and pushes 7/16, 5/16, 1/16 of the
		// error right, down and diagonally; the accumulated neighbors
		// then all land on the expected side of the threshold.
		in := grayFrame(2, 2, 100, 150, 200, 50)
		out, err := vidither.Apply(in, vidither.FloydSteinberg, vidither.WithStrength(1.0))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.(*image.Gray).Pix).To(Equal([]uint8{0, 255, 255, 0}))
	})

	It("degenerates to plain thresholding at strength zero", func() {
		in := colorFrame(9, 5)
		want, err := vidither.Apply(in, vidither.Random, vidither.WithVariance(0))
		Expect(err).NotTo(HaveOccurred())
		for _, m := range []vidither.Method{vidither.FloydSteinberg, vidither.Atkinson, vidither.JarvisJudiceNinke} {
			out, err := vidither.Apply(in, m, vidither.WithStrength(0))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.(*image.Gray).Pix).To(Equal(want.(*image.Gray).Pix), string(m))
		}
	})

	It("is deterministic", func() {
		in := colorFrame(12, 12)
		for _, m := range []vidither.Method{vidither.FloydSteinberg, vidither.Atkinson, vidither.JarvisJudiceNinke, vidither.Ordered} {
			a, err := vidither.Apply(in, m)
			Expect(err).NotTo(HaveOccurred())
			b, err := vidither.Apply(in, m)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.(*image.Gray).Pix).To(Equal(b.(*image.Gray).Pix), string(m))
		}
	})

	It("drops Atkinson's undistributed error share", func() {
		// 200 quantizes to 255; only the two same-row taps are in
		// bounds for a 1x3 frame, each receiving 1/8 of -55. Neither
		// neighbor climbs back over the threshold.
		in := grayFrame(3, 1, 200, 100, 100)
		out, err := vidither.Apply(in, vidither.Atkinson)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.(*image.Gray).Pix).To(Equal([]uint8{255, 0, 0}))
	})

	It("diffuses Jarvis-Judice-Ninke error two columns ahead", func() {
		in := grayFrame(3, 1, 200, 100, 100)
		out, err := vidither.Apply(in, vidither.JarvisJudiceNinke)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.(*image.Gray).Pix).To(Equal([]uint8{255, 0, 0}))
	})
})

// The 4x4 Bayer tile a uniform 128 frame must produce: white where the
// matrix cell is at most 8 (threshold below 128), black elsewhere.
var bayer4Tile = [4][4]uint8{
	{255, 255, 255, 0},
	{0, 255, 0, 255},
	{255, 0, 255, 0},
	{0, 255, 0, 255},
}

var _ = Describe("ordered dithering", func() {
	It("tiles the canonical 4x4 pattern over a uniform mid-gray frame", func() {
		in := uniformGray(50, 50, 128)
		out, err := vidither.Apply(in, vidither.Ordered, vidither.WithMatrixSize(4))
		Expect(err).NotTo(HaveOccurred())
		gray := out.(*image.Gray)
		for y := 0; y < 50; y++ {
			for x := 0; x < 50; x++ {
				Expect(gray.GrayAt(x, y).Y).To(Equal(bayer4Tile[y%4][x%4]))
			}
		}
	})

	It("thresholds the channel mean against two-entry palettes", func() {
		in := uniformColor(8, 8, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		palette := vidither.Palette{{0, 0, 0}, {255, 255, 255}}
		out, err := vidither.Apply(in, vidither.Ordered, vidither.WithMatrixSize(4),
			vidither.WithPalette(palette))
		Expect(err).NotTo(HaveOccurred())
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				want := palette[0]
				if bayer4Tile[y%4][x%4] == 255 {
					want = palette[1]
				}
				Expect(rgbAt(out, x, y)).To(Equal(want))
			}
		}
	})

	It("falls back to plain nearest-color for larger palettes", func() {
		// The Bayer threshold is ignored for palettes with more than
		// two entries, so a uniform frame stays uniform.
		in := uniformColor(8, 8, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
		out, err := vidither.Apply(in, vidither.Ordered, vidither.WithColor())
		Expect(err).NotTo(HaveOccurred())
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				Expect(rgbAt(out, x, y)).To(Equal(vidither.RGB{0, 255, 0}))
			}
		}
	})
})

var _ = Describe("random dithering", func() {
	It("is reproducible with a fixed seed", func() {
		in := colorFrame(10, 10)
		a, err := vidither.Apply(in, vidither.Random, vidither.WithRand(rand.New(rand.NewSource(42))))
		Expect(err).NotTo(HaveOccurred())
		b, err := vidither.Apply(in, vidither.Random, vidither.WithRand(rand.New(rand.NewSource(42))))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.(*image.Gray).Pix).To(Equal(b.(*image.Gray).Pix))
	})

	It("collapses to the fixed 128 threshold at zero variance", func() {
		in := grayFrame(4, 1, 0, 128, 129, 255)
		out, err := vidither.Apply(in, vidither.Random, vidither.WithVariance(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.(*image.Gray).Pix).To(Equal([]uint8{0, 0, 255, 255}))
	})
})
