// Command gase inspects and converts layered .ase/.aseprite images from
// the command line.
//
// Usage:
//
//	gase info <input.ase>              Display document metadata
//	gase export [options] <input.ase>  Composite one frame to PNG (use "-" for stdin)
//	gase sheet [options] <input.ase>   Composite all frames into a sprite sheet PNG
//	gase gif [options] <input.ase>     Convert the animation to GIF
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepteams/ase"
	"github.com/deepteams/ase/animation"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "sheet":
		err = runSheet(os.Args[2:])
	case "gif":
		err = runGIF(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gase: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gase: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gase info <input.ase>              Display document metadata
  gase export [options] <input.ase>  Composite one frame to PNG
  gase sheet [options] <input.ase>   Composite all frames into a sprite sheet PNG
  gase gif [options] <input.ase>     Convert the animation to GIF

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "gase <command> -h" for command-specific options.
`)
}

// setupLogger installs the global zap logger. Verbose mode selects the
// development config, which surfaces the debug-level parse trace.
func setupLogger(verbose bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
	return l
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// loadDocument reads and parses the input file, routing the parser's
// trace through the global logger at debug level.
func loadDocument(path string) (*ase.Document, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	doc, err := ase.ParseWithOptions(data, &ase.ParseOptions{Trace: zap.S().Debugf})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("parsed document",
		zap.Int("width", doc.Width),
		zap.Int("height", doc.Height),
		zap.Int("depth", doc.Depth),
		zap.Int("layers", len(doc.Layers)),
		zap.Int("frames", len(doc.Frames)))
	return doc, nil
}

// defaultOutput derives an output path from the input path and the
// target extension.
func defaultOutput(inputPath, ext string) string {
	if inputPath == "-" {
		return "output" + ext
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return base + ext
}

// writeOutput writes the result of encode to path, or to stdout when
// path is "-". A partially written file is removed on failure.
func writeOutput(path string, encode func(io.Writer) error) error {
	if path == "-" {
		return encode(os.Stdout)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// scaleImage enlarges img by an integer factor using nearest-neighbor
// resampling, which keeps pixel-art edges hard.
func scaleImage(img *image.NRGBA, factor int) *image.NRGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// --- info ---

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose parse tracing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("info: missing input file\nUsage: gase info <input.ase>")
	}
	inputPath := fs.Arg(0)
	l := setupLogger(*verbose)
	defer l.Sync() //nolint:errcheck

	doc, err := loadDocument(inputPath)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:        %s\n", name)
	fmt.Printf("Dimensions:  %d x %d\n", doc.Width, doc.Height)
	fmt.Printf("Color depth: %s\n", depthString(doc.Depth))
	if doc.Depth == ase.DepthIndexed {
		fmt.Printf("Transparent: index %d\n", doc.TransparentIndex)
	}
	fmt.Printf("Palette:     %d colors\n", len(doc.Palette))
	fmt.Printf("Frames:      %d\n", len(doc.Frames))
	if len(doc.Frames) > 0 {
		if p, err := animation.NewPlayer(doc); err == nil {
			fmt.Printf("Duration:    %v\n", p.TotalDuration())
		}
	}
	fmt.Printf("Layers:      %d\n", len(doc.Layers))
	for i := range doc.Layers {
		layer := &doc.Layers[i]
		vis := "hidden"
		if layer.Visible() {
			vis = "visible"
		}
		extra := ""
		if layer.Background() {
			extra = " background"
		}
		fmt.Printf("  [%d] %-20q %-11s opacity %3d  %s%s\n",
			i, layer.Name, layer.BlendMode, layer.Opacity, vis, extra)
	}

	if inputPath != "-" {
		if fi, err := os.Stat(inputPath); err == nil {
			fmt.Printf("File size:   %d bytes\n", fi.Size())
		}
	}
	return nil
}

func depthString(d int) string {
	switch d {
	case ase.DepthRGBA:
		return "32-bit RGBA"
	case ase.DepthIndexed:
		return "8-bit indexed"
	}
	return fmt.Sprintf("%d-bit", d)
}

// --- export ---

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	frame := fs.Int("frame", 0, "frame index to composite")
	scale := fs.Int("scale", 1, "integer upscale factor")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	verbose := fs.Bool("v", false, "verbose parse tracing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("export: missing input file\nUsage: gase export [options] <input.ase>")
	}
	inputPath := fs.Arg(0)
	l := setupLogger(*verbose)
	defer l.Sync() //nolint:errcheck

	doc, err := loadDocument(inputPath)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	img, err := doc.FrameImage(*frame)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	img = scaleImage(img, *scale)

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, ".png")
	}
	if err := writeOutput(outputPath, func(w io.Writer) error {
		return png.Encode(w, img)
	}); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if outputPath != "-" {
		fmt.Fprintf(os.Stderr, "Exported %s frame %d → %s\n", inputPath, *frame, outputPath)
	}
	return nil
}

// --- sheet ---

func runSheet(args []string) error {
	fs := flag.NewFlagSet("sheet", flag.ContinueOnError)
	columns := fs.Int("columns", 0, "frames per row (0 = all in one row)")
	scale := fs.Int("scale", 1, "integer upscale factor")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	verbose := fs.Bool("v", false, "verbose parse tracing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("sheet: missing input file\nUsage: gase sheet [options] <input.ase>")
	}
	inputPath := fs.Arg(0)
	l := setupLogger(*verbose)
	defer l.Sync() //nolint:errcheck

	doc, err := loadDocument(inputPath)
	if err != nil {
		return fmt.Errorf("sheet: %w", err)
	}
	if len(doc.Frames) == 0 {
		return fmt.Errorf("sheet: document has no frames")
	}

	cols := *columns
	if cols <= 0 || cols > len(doc.Frames) {
		cols = len(doc.Frames)
	}
	rows := (len(doc.Frames) + cols - 1) / cols

	// Frames composite straight into the sheet at their cell offset.
	sheet := image.NewNRGBA(image.Rect(0, 0, cols*doc.Width, rows*doc.Height))
	for i := range doc.Frames {
		x := (i % cols) * doc.Width
		y := (i / cols) * doc.Height
		if err := doc.RenderFrame(i, sheet.Pix, sheet.Bounds().Dx(), sheet.Bounds().Dy(), x, y); err != nil {
			return fmt.Errorf("sheet: frame %d: %w", i, err)
		}
	}
	scaled := scaleImage(sheet, *scale)

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, ".png")
	}
	if err := writeOutput(outputPath, func(w io.Writer) error {
		return png.Encode(w, scaled)
	}); err != nil {
		return fmt.Errorf("sheet: %w", err)
	}

	if outputPath != "-" {
		fmt.Fprintf(os.Stderr, "Exported %s → %s (%d frames, %dx%d grid)\n",
			inputPath, outputPath, len(doc.Frames), cols, rows)
	}
	return nil
}

// --- gif ---

// gifPalette is Plan9 with the first entry replaced by full
// transparency so sprite backgrounds survive the conversion.
var gifPalette = append(color.Palette{color.NRGBA{}}, palette.Plan9[1:]...)

func runGIF(args []string) error {
	fs := flag.NewFlagSet("gif", flag.ContinueOnError)
	scale := fs.Int("scale", 1, "integer upscale factor")
	loop := fs.Int("loop", 0, "loop count (0 = forever)")
	output := fs.String("o", "", `output path (default: <input>.gif, "-" for stdout)`)
	verbose := fs.Bool("v", false, "verbose parse tracing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("gif: missing input file\nUsage: gase gif [options] <input.ase>")
	}
	inputPath := fs.Arg(0)
	l := setupLogger(*verbose)
	defer l.Sync() //nolint:errcheck

	doc, err := loadDocument(inputPath)
	if err != nil {
		return fmt.Errorf("gif: %w", err)
	}

	player, err := animation.NewPlayer(doc)
	if err != nil {
		return fmt.Errorf("gif: %w", err)
	}

	g := &gif.GIF{LoopCount: *loop}
	for player.HasNext() {
		frame, dur, err := player.NextFrame()
		if err != nil {
			return fmt.Errorf("gif: %w", err)
		}
		frame = scaleImage(frame, *scale)

		// Quantize with Floyd-Steinberg dithering.
		b := frame.Bounds()
		paletted := image.NewPaletted(b, gifPalette)
		xdraw.FloydSteinberg.Draw(paletted, b, frame, b.Min)

		g.Image = append(g.Image, paletted)
		// GIF delay is in 1/100th of a second.
		delay := int(dur / (10 * time.Millisecond))
		if delay < 1 {
			delay = 1
		}
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, ".gif")
	}
	if err := writeOutput(outputPath, func(w io.Writer) error {
		return gif.EncodeAll(w, g)
	}); err != nil {
		return fmt.Errorf("gif: %w", err)
	}

	if outputPath != "-" {
		fmt.Fprintf(os.Stderr, "Converted %s → %s (%d frames)\n", inputPath, outputPath, len(g.Image))
	}
	return nil
}
