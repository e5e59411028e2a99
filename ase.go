package ase

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/deepteams/ase/internal/cursor"
)

func init() {
	// The file magic 0xA5E0 sits at offset 4, after the little-endian
	// file size field.
	image.RegisterFormat("ase", "????\xe0\xa5", Decode, DecodeConfig)
}

// Errors returned by parsing and rendering. Parse errors usually wrap
// these sentinels with positional context; match them with errors.Is.
var (
	// ErrOutOfBounds reports a read past the end of the input buffer.
	ErrOutOfBounds = cursor.ErrOutOfBounds

	// ErrDecompression reports a compressed cel payload the inflater
	// rejected.
	ErrDecompression = errors.New("ase: cel decompression failed")

	// ErrColorDepth reports a color depth other than 8 or 32 bits.
	ErrColorDepth = errors.New("ase: unsupported color depth")

	// ErrFrameIndex reports a frame index outside the document.
	ErrFrameIndex = errors.New("ase: frame index out of range")

	// ErrMalformedChunk reports a chunk whose declared size is
	// inconsistent with the remaining input.
	ErrMalformedChunk = errors.New("ase: malformed chunk")

	// ErrBadMagic reports a wrong file or frame magic number.
	ErrBadMagic = errors.New("ase: bad magic number")

	// ErrShortBuffer reports a destination buffer smaller than the
	// requested render size.
	ErrShortBuffer = errors.New("ase: destination buffer too small")

	// ErrNoFrames reports a document with no frames to render.
	ErrNoFrames = errors.New("ase: no frames")
)

// ParseOptions adjusts parsing behavior.
type ParseOptions struct {
	// Trace receives progress messages while parsing, one formatted
	// message per structural element. Nil disables tracing; the
	// parser itself never logs.
	Trace func(format string, args ...any)
}

// Parse decodes a complete file from data and returns the document.
// The input buffer is not retained: every name, palette entry, and
// cel payload is copied during parsing.
func Parse(data []byte) (*Document, error) {
	return ParseWithOptions(data, nil)
}

// ParseWithOptions is Parse with explicit options.
func ParseWithOptions(data []byte, opts *ParseOptions) (*Document, error) {
	p := &parser{c: cursor.New(data)}
	if opts != nil {
		p.trace = opts.Trace
	}
	return p.parse()
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a file from r and returns its first frame composited
// as an *image.NRGBA. Multi-frame callers should Parse the document
// and render frames individually, or use the animation package.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("ase: reading data: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(doc.Frames) == 0 {
		return nil, ErrNoFrames
	}
	return doc.FrameImage(0)
}

// DecodeConfig returns the color model and dimensions of a file
// without decoding any frames. Rendering always produces NRGBA
// pixels, including for indexed files, so the color model is always
// color.NRGBAModel.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("ase: reading data: %w", err)
	}
	p := &parser{c: cursor.New(data)}
	if err := p.parseHeader(); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      p.doc.Width,
		Height:     p.doc.Height,
	}, nil
}
