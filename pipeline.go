package vidither

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Source yields frames until it returns io.EOF. Implementations are not safe
// for concurrent use; run one pipeline per source.
type Source interface {
	Next() (image.Image, error)
}

// Sink accepts processed frames. Sinks that buffer (GIF assembly, archives)
// also implement io.Closer and must be closed to flush.
type Sink interface {
	Write(img image.Image) error
}

// Transform adjusts a frame before it is dithered, e.g. resizing or tonal
// correction.
type Transform func(image.Image) image.Image

// Frames returns a Source that replays the given images in order. Handy for
// still images and tests.
func Frames(imgs ...image.Image) Source {
	return &frameSlice{imgs: imgs}
}

type frameSlice struct {
	imgs []image.Image
	i    int
}

func (f *frameSlice) Next() (image.Image, error) {
	if f.i >= len(f.imgs) {
		return nil, io.EOF
	}
	img := f.imgs[f.i]
	f.i++
	return img, nil
}

// Pipeline pulls frames from a source, dithers each one, and pushes the
// results to a sink. Frames are processed one at a time; the engine itself
// holds no cross-frame state.
type Pipeline struct {
	Method    Method
	Options   []Option
	Transform Transform // optional, applied before dithering
	MaxFrames int       // 0 means no cap
}

// Run drains the source until EOF, the frame cap, or context cancellation,
// whichever comes first. It returns the number of frames written to the sink.
// Cancellation is only observed between frames; an in-flight frame always
// completes or fails whole.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) (int, error) {
	count := 0
	for p.MaxFrames <= 0 || count < p.MaxFrames {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		img, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read frame %d: %w", count, err)
		}
		if p.Transform != nil {
			img = p.Transform(img)
		}
		out, err := Apply(img, p.Method, p.Options...)
		if err != nil {
			return count, err
		}
		if err := sink.Write(out); err != nil {
			return count, fmt.Errorf("write frame %d: %w", count, err)
		}
		count++
	}
	return count, nil
}

// PNGDir writes frames as sequentially numbered PNG files
// (frame_0000.png, frame_0001.png, ...), the layout ffmpeg's image2 demuxer
// reassembles into video.
type PNGDir struct {
	dir string
	n   int
}

// NewPNGDir creates dir if needed and returns a sink writing into it.
func NewPNGDir(dir string) (*PNGDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PNGDir{dir: dir}, nil
}

func (s *PNGDir) Write(img image.Image) error {
	f, err := os.Create(filepath.Join(s.dir, fmt.Sprintf("frame_%04d.png", s.n)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	s.n++
	return f.Close()
}
