package vidither

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// MJPEGSource splits a concatenated JPEG stream into frames. This is the
// format `ffmpeg -f mjpeg -` emits, so any video ffmpeg can read can be piped
// in. Frames are delimited by the JPEG SOI (ff d8) and EOI (ff d9) markers;
// bytes between frames are skipped.
type MJPEGSource struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func NewMJPEGSource(r io.Reader) *MJPEGSource {
	return &MJPEGSource{r: bufio.NewReaderSize(r, 64<<10)}
}

func (s *MJPEGSource) Next() (image.Image, error) {
	if err := s.seekSOI(); err != nil {
		return nil, err
	}
	s.buf.Reset()
	s.buf.Write([]byte{0xff, 0xd8})
	prev := byte(0)
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			// Stream ended mid-frame.
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		s.buf.WriteByte(b)
		if prev == 0xff && b == 0xd9 {
			img, err := jpeg.Decode(bytes.NewReader(s.buf.Bytes()))
			if err != nil {
				return nil, fmt.Errorf("decode mjpeg frame: %w", err)
			}
			return img, nil
		}
		prev = b
	}
}

// seekSOI discards bytes until the start-of-image marker. io.EOF here means
// the stream ended cleanly between frames.
func (s *MJPEGSource) seekSOI() error {
	prev := byte(0)
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == 0xff && b == 0xd8 {
			return nil
		}
		prev = b
	}
}
