package vidither

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
)

// GIFSource yields the frames of an animated GIF as full images, compositing
// each frame onto a shared canvas and honoring per-frame disposal methods, so
// downstream sees what a viewer would.
type GIFSource struct {
	g      *gif.GIF
	i      int
	screen *image.NRGBA
}

func NewGIFSource(r io.Reader) (*GIFSource, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, err
	}
	return &GIFSource{g: g}, nil
}

func (s *GIFSource) Next() (image.Image, error) {
	if s.i >= len(s.g.Image) {
		return nil, io.EOF
	}
	frame := s.g.Image[s.i]

	if s.screen == nil {
		w, h := s.g.Config.Width, s.g.Config.Height
		if w == 0 || h == 0 {
			w, h = frame.Bounds().Max.X, frame.Bounds().Max.Y
		}
		s.screen = image.NewNRGBA(image.Rect(0, 0, w, h))
	}

	var saved *image.NRGBA
	disposal := byte(gif.DisposalNone)
	if s.i < len(s.g.Disposal) {
		disposal = s.g.Disposal[s.i]
	}
	if disposal == gif.DisposalPrevious {
		saved = image.NewNRGBA(s.screen.Rect)
		copy(saved.Pix, s.screen.Pix)
	}

	draw.Draw(s.screen, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

	snap := image.NewNRGBA(s.screen.Rect)
	copy(snap.Pix, s.screen.Pix)

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(s.screen, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		s.screen = saved
	}

	s.i++
	return snap, nil
}

// GIFSink collects dithered frames and encodes them as a looping animated GIF
// on Close. Paletted frames from color dithering keep their palette;
// grayscale frames get a black/white one. Frames are equally spaced at the
// configured frame rate.
type GIFSink struct {
	w io.Writer
	g gif.GIF

	// Delay between frames in 100ths of a second.
	delay int
}

var monochrome = color.Palette{color.Gray{Y: 0}, color.Gray{Y: 255}}

func NewGIFSink(w io.Writer, fps int) *GIFSink {
	if fps <= 0 {
		fps = 30
	}
	delay := 100 / fps
	if delay < 2 {
		delay = 2 // many viewers clamp anything faster
	}
	return &GIFSink{w: w, delay: delay}
}

func (s *GIFSink) Write(img image.Image) error {
	p, ok := img.(*image.Paletted)
	if !ok {
		p = image.NewPaletted(img.Bounds(), monochrome)
		draw.Draw(p, p.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	s.g.Image = append(s.g.Image, p)
	s.g.Delay = append(s.g.Delay, s.delay)
	return nil
}

// Close encodes the accumulated frames. The sink is not reusable afterwards.
func (s *GIFSink) Close() error {
	if len(s.g.Image) == 0 {
		return nil
	}
	return gif.EncodeAll(s.w, &s.g)
}
