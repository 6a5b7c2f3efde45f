package vidither

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Frame archives store dithered frames as raw rasters inside one zstd
// stream. Quantized frames are mostly long runs of few values, so they
// compress far better than they would as individual PNGs, and replaying an
// archive skips all image decoding. Layout: a 5-byte header ("VDAR" plus a
// version byte), then per frame a channel count (1 = gray, 3 = RGB), width
// and height as big-endian uint32s, and width*height*channels payload bytes.

var archiveMagic = [5]byte{'V', 'D', 'A', 'R', 1}

// ArchiveSink writes frames to a zstd-compressed raw frame archive. Close
// flushes the compressor and must be called.
type ArchiveSink struct {
	zw     *zstd.Encoder
	header bool
}

func NewArchiveSink(w io.Writer) (*ArchiveSink, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &ArchiveSink{zw: zw}, nil
}

func (s *ArchiveSink) Write(img image.Image) error {
	if !s.header {
		if _, err := s.zw.Write(archiveMagic[:]); err != nil {
			return err
		}
		s.header = true
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	ch := byte(3)
	if _, ok := img.(*image.Gray); ok {
		ch = 1
	}
	hdr := make([]byte, 9)
	hdr[0] = ch
	binary.BigEndian.PutUint32(hdr[1:], uint32(w))
	binary.BigEndian.PutUint32(hdr[5:], uint32(h))
	if _, err := s.zw.Write(hdr); err != nil {
		return err
	}

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			if _, err := s.zw.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	row := make([]byte, w*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := 0
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			row[i] = uint8(r >> 8)
			row[i+1] = uint8(g >> 8)
			row[i+2] = uint8(b >> 8)
			i += 3
		}
		if _, err := s.zw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *ArchiveSink) Close() error {
	return s.zw.Close()
}

// ArchiveSource replays a frame archive written by ArchiveSink.
type ArchiveSource struct {
	zr     *zstd.Decoder
	header bool
}

func NewArchiveSource(r io.Reader) (*ArchiveSource, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &ArchiveSource{zr: zr}, nil
}

func (s *ArchiveSource) Next() (image.Image, error) {
	if !s.header {
		var magic [5]byte
		if _, err := io.ReadFull(s.zr, magic[:]); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		if magic != archiveMagic {
			return nil, fmt.Errorf("vidither: not a frame archive")
		}
		s.header = true
	}

	hdr := make([]byte, 9)
	if _, err := io.ReadFull(s.zr, hdr); err != nil {
		if err == io.EOF {
			return nil, io.EOF // clean end between frames
		}
		return nil, err
	}
	ch := int(hdr[0])
	w := int(binary.BigEndian.Uint32(hdr[1:]))
	h := int(binary.BigEndian.Uint32(hdr[5:]))
	if ch != 1 && ch != 3 {
		return nil, fmt.Errorf("vidither: corrupt archive: %d channels", ch)
	}

	payload := make([]byte, w*h*ch)
	if _, err := io.ReadFull(s.zr, payload); err != nil {
		return nil, fmt.Errorf("vidither: truncated archive frame: %w", err)
	}

	if ch == 1 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, payload)
		return img, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(payload); i, j = i+3, j+4 {
		img.Pix[j] = payload[i]
		img.Pix[j+1] = payload[i+1]
		img.Pix[j+2] = payload[i+2]
		img.Pix[j+3] = 255
	}
	return img, nil
}

// Close releases the decoder. Safe to call more than once.
func (s *ArchiveSource) Close() error {
	s.zr.Close()
	return nil
}
