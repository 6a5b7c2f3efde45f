package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/tint"
	"github.com/nfnt/resize"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli"
	_ "golang.org/x/image/bmp"

	"github.com/michail-semoglou/vidither"
)

func main() {
	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "vidither"
	app.Usage = "A command-line tool for applying dithering effects to video frames, animated gifs and images."
	app.UsageText = "1) vidither [options] [file|url]\n" +
		/*      */ "   2) ffmpeg -i input.mp4 -f mjpeg - | vidither [options]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "method,m",
			Usage: "`METHOD`: floyd_steinberg, atkinson, jarvis_judice_ninke, ordered or random.",
			Value: "floyd_steinberg",
		},
		cli.StringFlag{
			Name:  "output,o",
			Usage: "`DIR` to export PNG frames into.",
			Value: "frames",
		},
		cli.IntFlag{
			Name:  "width,w",
			Usage: "Target `WIDTH` for frames. 0 keeps the source width.",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "Target `HEIGHT` for frames. 0 keeps the source height.",
		},
		cli.IntFlag{
			Name:  "frames,f",
			Usage: "Maximum `NUMBER` of frames to process.",
			Value: 720,
		},
		cli.BoolFlag{
			Name:  "color,c",
			Usage: "Process in color instead of grayscale.",
		},
		cli.StringFlag{
			Name:  "palette",
			Usage: "`FILE` with a JSON palette, e.g. {\"palette\":[[0,0,0],[255,255,255]]}. Implies --color.",
		},
		cli.Float64Flag{
			Name:  "dither-strength,d",
			Usage: "`STRENGTH` of error diffusion, 0.0 to 1.0.",
			Value: 1.0,
		},
		cli.IntFlag{
			Name:  "matrix-size",
			Usage: "Bayer matrix `SIZE` for ordered dithering: 2, 4 or 8.",
			Value: 4,
		},
		cli.Float64Flag{
			Name:  "threshold-variance",
			Usage: "Threshold `VARIANCE` for random dithering.",
			Value: 50,
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "Random `SEED` for reproducible random dithering.",
		},
		cli.IntFlag{
			Name:  "fps",
			Usage: "Frame `RATE` for --play and --gif output.",
			Value: 30,
		},
		cli.StringFlag{
			Name:  "gif",
			Usage: "Assemble output frames into an animated GIF at `PATH`.",
		},
		cli.StringFlag{
			Name:  "archive",
			Usage: "Write output frames to a zstd frame archive at `PATH`.",
		},
		cli.BoolFlag{
			Name:  "play,p",
			Usage: "Animate output in the terminal as braille symbols. CTRL-C to quit.",
		},
		cli.Float64Flag{
			Name:  "gamma,g",
			Usage: "`GAMMA` = 1.0 gives the original image. Less than 1.0 darkens, greater lightens.",
			Value: 1.0,
		},
		cli.Float64Flag{
			Name:  "brightness,b",
			Usage: "`BRIGHTNESS` = 0 gives the original image, -100 solid black, 100 solid white.",
			Value: 0.0,
		},
		cli.Float64Flag{
			Name:  "contrast",
			Usage: "`CONTRAST` = 0 gives the original image, -100 solid grey, 100 maximum contrast.",
			Value: 0.0,
		},
		cli.BoolFlag{
			Name:  "invert,i",
			Usage: "Inverts the image before dithering.",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging.",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	lvl := slog.LevelInfo
	if c.Bool("verbose") {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, closeInput, err := openInput(c.Args().First())
	if err != nil {
		return err
	}
	defer closeInput()

	src, kind, err := sniffSource(reader)
	if err != nil {
		return err
	}

	method := vidither.Method(c.String("method"))
	opts, err := methodOptions(c, method)
	if err != nil {
		return err
	}

	sink, closeSink, err := openSink(c)
	if err != nil {
		return err
	}

	pipeline := vidither.Pipeline{
		Method:    method,
		Options:   opts,
		Transform: transform(c),
		MaxFrames: c.Int("frames"),
	}

	slog.Info("processing", "input", kind, "method", method, "color", c.Bool("color") || c.IsSet("palette"))
	start := time.Now()
	n, err := pipeline.Run(ctx, src, sink)
	if cerr := closeSink(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	slog.Info("done", "frames", n, "elapsed", time.Since(start).Round(time.Millisecond))

	if !c.Bool("play") && !c.IsSet("gif") && !c.IsSet("archive") {
		fmt.Printf("You can now create a video from the frames using:\n"+
			"  ffmpeg -r %d -i %s/frame_%%04d.png -c:v libx264 -pix_fmt yuv420p output_dithered.mp4\n",
			c.Int("fps"), c.String("output"))
	}
	return nil
}

// openInput resolves the argument as a file, then a url, then falls back to
// stdin.
func openInput(input string) (io.Reader, func() error, error) {
	if input == "" {
		return os.Stdin, func() error { return nil }, nil
	}
	if file, err := os.Open(input); err == nil {
		return file, file.Close, nil
	}
	resp, err := http.Get(input)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", input, err)
	}
	return resp.Body, resp.Body.Close, nil
}

// sniffSource picks a frame source from the stream's magic bytes: animated
// GIF, MJPEG stream, or a single still image.
func sniffSource(r io.Reader) (vidither.Source, string, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	switch {
	case bytes.HasPrefix(magic, []byte("GIF8")):
		src, err := vidither.NewGIFSource(br)
		if err != nil {
			return nil, "", err
		}
		return src, "gif", nil
	case magic[0] == 0xff && magic[1] == 0xd8:
		return vidither.NewMJPEGSource(br), "mjpeg", nil
	default:
		img, _, err := image.Decode(br)
		if err != nil {
			return nil, "", fmt.Errorf("decode input: %w", err)
		}
		return vidither.Frames(img), "image", nil
	}
}

func methodOptions(c *cli.Context, method vidither.Method) ([]vidither.Option, error) {
	var opts []vidither.Option

	switch method {
	case vidither.FloydSteinberg, vidither.Atkinson, vidither.JarvisJudiceNinke:
		opts = append(opts, vidither.WithStrength(c.Float64("dither-strength")))
	case vidither.Ordered:
		opts = append(opts, vidither.WithMatrixSize(c.Int("matrix-size")))
	case vidither.Random:
		opts = append(opts, vidither.WithVariance(c.Float64("threshold-variance")))
		if c.IsSet("seed") {
			opts = append(opts, vidither.WithRand(rand.New(rand.NewSource(c.Int64("seed")))))
		}
	}

	if c.IsSet("palette") {
		p, err := loadPalette(c.String("palette"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, vidither.WithPalette(p))
	} else if c.Bool("color") {
		opts = append(opts, vidither.WithColor())
	}
	return opts, nil
}

// loadPalette reads a JSON palette file: either {"palette": [[r,g,b], ...]}
// or a bare [[r,g,b], ...] array.
func loadPalette(path string) (vidither.Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries := gjson.GetBytes(data, "palette")
	if !entries.Exists() {
		entries = gjson.ParseBytes(data)
	}
	if !entries.IsArray() {
		return nil, fmt.Errorf("palette file %s: expected a JSON array of [r,g,b] entries", path)
	}
	var p vidither.Palette
	for _, entry := range entries.Array() {
		ch := entry.Array()
		if len(ch) != 3 {
			return nil, fmt.Errorf("palette file %s: entry %s is not [r,g,b]", path, entry.Raw)
		}
		p = append(p, vidither.RGB{uint8(ch[0].Int()), uint8(ch[1].Int()), uint8(ch[2].Int())})
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("palette file %s: no entries", path)
	}
	return p, nil
}

// transform builds the pre-dither frame adjustments from the CLI flags.
func transform(c *cli.Context) vidither.Transform {
	width, height := c.Int("width"), c.Int("height")
	adjust := c.IsSet("gamma") || c.IsSet("brightness") || c.IsSet("contrast") || c.Bool("invert")
	if width == 0 && height == 0 && !adjust {
		return nil
	}
	return func(img image.Image) image.Image {
		if width > 0 || height > 0 {
			img = resize.Resize(uint(width), uint(height), img, resize.NearestNeighbor)
		}
		if c.IsSet("gamma") {
			img = imaging.AdjustGamma(img, c.Float64("gamma"))
		}
		if c.IsSet("brightness") {
			img = imaging.AdjustBrightness(img, c.Float64("brightness"))
		}
		if c.IsSet("contrast") {
			img = imaging.AdjustContrast(img, c.Float64("contrast"))
		}
		if c.Bool("invert") {
			img = imaging.Invert(img)
		}
		return img
	}
}

// openSink picks the output: terminal preview, animated GIF, frame archive,
// or a directory of PNG frames.
func openSink(c *cli.Context) (vidither.Sink, func() error, error) {
	switch {
	case c.Bool("play"):
		preview := vidither.NewPreview(os.Stdout, nil, c.Int("fps"))
		return preview, preview.Close, nil
	case c.IsSet("gif"):
		f, err := os.Create(c.String("gif"))
		if err != nil {
			return nil, nil, err
		}
		sink := vidither.NewGIFSink(f, c.Int("fps"))
		return sink, func() error {
			if err := sink.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}, nil
	case c.IsSet("archive"):
		f, err := os.Create(c.String("archive"))
		if err != nil {
			return nil, nil, err
		}
		sink, err := vidither.NewArchiveSink(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return sink, func() error {
			if err := sink.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}, nil
	default:
		sink, err := vidither.NewPNGDir(c.String("output"))
		if err != nil {
			return nil, nil, err
		}
		return sink, func() error { return nil }, nil
	}
}
