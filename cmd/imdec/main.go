// Command imdec decodes an image under resource limits and reports what it found.
//
// Usage:
//
//	imdec [flags] <file>
//
// With -o the decoded pixels are written to a file: PNG when the name ends in
// .png, raw interleaved samples otherwise.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/imdec"
	"github.com/gen2brain/imdec/formats"
	"github.com/gen2brain/imdec/jpeg"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "imdec:", err)
		os.Exit(1)
	}
}

// byteSize is a flag.Value accepting plain bytes or k, m, g suffixes.
type byteSize uint64

func (b *byteSize) String() string {
	return strconv.FormatUint(uint64(*b), 10)
}

func (b *byteSize) Set(s string) error {
	v, err := parseByteSize(s)
	if err != nil {
		return err
	}
	*b = byteSize(v)

	return nil
}

func parseByteSize(s string) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1<<10, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1<<20, strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "g"):
		mult, s = 1<<30, strings.TrimSuffix(s, "g")
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	if v > ^uint64(0)/mult {
		return 0, fmt.Errorf("size %q overflows", s)
	}

	return v * mult, nil
}

type config struct {
	limits        imdec.Limits
	defaultLimits bool
	orient        bool
	output        string
	verbose       bool
	path          string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("imdec", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfg       config
		maxWidth  uint
		maxHeight uint
		maxAlloc  byteSize
	)

	fs.UintVar(&maxWidth, "max-width", 0, "maximum image width in pixels (0 = unbounded)")
	fs.UintVar(&maxHeight, "max-height", 0, "maximum image height in pixels (0 = unbounded)")
	fs.Var(&maxAlloc, "max-alloc", "maximum output allocation in bytes, k/m/g suffixes allowed (0 = unbounded)")
	fs.BoolVar(&cfg.defaultLimits, "default-limits", false, "start from the default limits (512 MiB allocation)")
	fs.BoolVar(&cfg.orient, "orient", false, "apply the EXIF orientation of JPEG input")
	fs.StringVar(&cfg.output, "o", "", "write decoded pixels to `file` (.png or raw)")
	fs.BoolVar(&cfg.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() != 1 {
		fs.Usage()

		return nil, errors.New("expected exactly one input file")
	}
	cfg.path = fs.Arg(0)

	if maxWidth > 0xFFFFFFFF || maxHeight > 0xFFFFFFFF {
		return nil, errors.New("width and height bounds must fit in 32 bits")
	}

	if cfg.defaultLimits {
		cfg.limits = imdec.DefaultLimits()
	}

	if maxWidth != 0 {
		cfg.limits.MaxImageWidth = uint32(maxWidth)
	}

	if maxHeight != 0 {
		cfg.limits.MaxImageHeight = uint32(maxHeight)
	}

	if maxAlloc != 0 {
		cfg.limits.MaxAlloc = uint64(maxAlloc)
	}

	return &cfg, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	f, err := os.Open(cfg.path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, format, err := formats.Open(f)
	if err != nil {
		return err
	}

	w, h := dec.Dimensions()
	logger.Debug("header parsed",
		slog.String("format", format.String()),
		slog.Uint64("width", uint64(w)),
		slog.Uint64("height", uint64(h)),
		slog.String("color_type", dec.ColorType().String()),
		slog.Uint64("advertised_bytes", imdec.TotalBytes(dec)))

	logger.Debug("limits",
		slog.Uint64("max_width", uint64(cfg.limits.MaxImageWidth)),
		slog.Uint64("max_height", uint64(cfg.limits.MaxImageHeight)),
		slog.Uint64("max_alloc", cfg.limits.MaxAlloc))

	var orientation imdec.Orientation
	var hasOrientation bool
	if jd, ok := dec.(*jpeg.Decoder); ok {
		orientation, hasOrientation = jd.Orientation()
		if icc := jd.ICCProfile(); icc != nil {
			logger.Debug("icc profile", slog.Int("bytes", len(icc)))
		}
	}

	img, err := imdec.Decode(dec, cfg.limits)
	if err != nil {
		if errors.Is(err, imdec.ErrLimits) {
			logger.Warn("rejected by limits", slog.String("error", err.Error()))
		}

		return err
	}

	if cfg.orient && hasOrientation && orientation != imdec.NoTransforms {
		logger.Debug("applying orientation",
			slog.String("orientation", orientation.String()),
			slog.Bool("in_place", orientation.AppliesInPlace()))

		if err := orientation.Apply(img, cfg.limits); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "%s %dx%d %s %d bytes\n", format, img.Width, img.Height, img.ColorType, len(img.Pix))

	if cfg.output == "" {
		return nil
	}

	return writeOutput(cfg.output, img)
}

func writeOutput(path string, img *imdec.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		return png.Encode(out, img.ToImage())
	}

	_, err = out.Write(img.Pix)

	return err
}
