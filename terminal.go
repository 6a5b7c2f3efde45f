package vidither

import (
	"fmt"
	"image"
	"io"
	"time"
)

// Terminal repositions the cursor so successive frames draw over each other.
type Terminal interface {
	ResetCursor(rows int)
	ShowCursor(show bool)
}

// Xterm drives any xterm-compatible terminal with ANSI escape codes.
type Xterm struct {
	Writer io.Writer
}

// ResetCursor moves to the beginning of the line and up rows lines.
func (t *Xterm) ResetCursor(rows int) {
	fmt.Fprintf(t.Writer, "\033[999D\033[%dA", rows)
}

func (t *Xterm) ShowCursor(show bool) {
	if show {
		t.Writer.Write([]byte("\033[?12l\033[?25h"))
	} else {
		t.Writer.Write([]byte("\033[?25l"))
	}
}

// Preview is a sink that animates dithered monochrome frames in the terminal
// as braille symbols, redrawing in place. The cursor is hidden for the
// duration of the animation and restored on Close.
type Preview struct {
	w    io.Writer
	term Terminal
	fps  int

	rows   int // height of the previous frame, for cursor resets
	hidden bool
}

// NewPreview returns a preview sink pacing frames at fps. A nil term defaults
// to Xterm on w.
func NewPreview(w io.Writer, term Terminal, fps int) *Preview {
	if term == nil {
		term = &Xterm{Writer: w}
	}
	if fps <= 0 {
		fps = 30
	}
	return &Preview{w: w, term: term, fps: fps}
}

func (p *Preview) Write(img image.Image) error {
	delay := time.After(time.Second / time.Duration(p.fps))

	if !p.hidden {
		p.term.ShowCursor(false)
		p.hidden = true
	}
	if p.rows > 0 {
		p.term.ResetCursor(p.rows)
	}
	if err := renderBraille(p.w, img); err != nil {
		return err
	}
	p.rows = brailleRows(img)

	<-delay
	return nil
}

// Close restores the cursor.
func (p *Preview) Close() error {
	if p.hidden {
		p.term.ShowCursor(true)
		p.hidden = false
	}
	return nil
}
