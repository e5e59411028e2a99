package ase

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EncoderOptions controls document serialization.
type EncoderOptions struct {
	// CompressCels stores cel pixel data as zlib streams (cel type 2)
	// instead of raw bytes (cel type 0).
	CompressCels bool
}

// DefaultEncoderOptions returns the options used when Encode is
// called with nil opts: compressed cels.
func DefaultEncoderOptions() *EncoderOptions {
	return &EncoderOptions{CompressCels: true}
}

// Encode writes doc to w in the container format. If opts is nil,
// DefaultEncoderOptions() is used.
//
// Frame 0 carries the palette chunk (when the palette is non-empty)
// and one layer chunk per layer; every frame carries one cel chunk per
// cel that has pixels. Linked cels are skipped, since their targets
// cannot be re-resolved. The output parses back to an equivalent
// document.
func Encode(w io.Writer, doc *Document, opts *EncoderOptions) error {
	if opts == nil {
		opts = DefaultEncoderOptions()
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	frames := make([][]byte, len(doc.Frames))
	total := FileHeaderSize
	for i := range doc.Frames {
		fb, err := encodeFrame(doc, i, opts)
		if err != nil {
			return err
		}
		frames[i] = fb
		total += len(fb)
	}

	buf := make([]byte, 0, total)
	buf = appendFileHeader(buf, doc, total)
	for _, fb := range frames {
		buf = append(buf, fb...)
	}
	_, err := w.Write(buf)
	return err
}

// validateDocument checks every value that must fit a fixed-width
// header field before any bytes are produced.
func validateDocument(doc *Document) error {
	if doc.Depth != DepthIndexed && doc.Depth != DepthRGBA {
		return fmt.Errorf("%w: %d bits per pixel", ErrColorDepth, doc.Depth)
	}
	if doc.Width < 0 || doc.Width > MaxDimension || doc.Height < 0 || doc.Height > MaxDimension {
		return fmt.Errorf("ase: canvas %dx%d exceeds maximum %d", doc.Width, doc.Height, MaxDimension)
	}
	if len(doc.Frames) > math.MaxUint16 {
		return fmt.Errorf("ase: %d frames do not fit the frame count field", len(doc.Frames))
	}
	if doc.Speed < 0 || doc.Speed > math.MaxUint16 {
		return fmt.Errorf("ase: speed %dms does not fit the header field", doc.Speed)
	}
	if len(doc.Palette) > math.MaxUint16 {
		return fmt.Errorf("ase: %d palette entries do not fit the color count field", len(doc.Palette))
	}
	for i := range doc.Layers {
		if len(doc.Layers[i].Name) > math.MaxUint16 {
			return fmt.Errorf("ase: layer %d name does not fit the string length field", i)
		}
	}
	return nil
}

// encodeFrame serializes one frame: a 16-byte frame header followed by
// its chunks.
func encodeFrame(doc *Document, index int, opts *EncoderOptions) ([]byte, error) {
	f := &doc.Frames[index]
	if f.Duration < 0 || f.Duration > math.MaxUint16 {
		return nil, fmt.Errorf("ase: frame %d duration %dms does not fit the header field", index, f.Duration)
	}

	var chunks []byte
	count := 0

	if index == 0 {
		if len(doc.Palette) > 0 {
			chunks = appendPaletteChunk(chunks, doc.Palette)
			count++
		}
		for i := range doc.Layers {
			chunks = appendLayerChunk(chunks, &doc.Layers[i])
			count++
		}
	}

	for _, cel := range f.Cels {
		if cel == nil || cel.Pixels == nil {
			continue
		}
		var err error
		chunks, err = appendCelChunk(chunks, cel, opts.CompressCels)
		if err != nil {
			return nil, fmt.Errorf("ase: frame %d: %w", index, err)
		}
		count++
	}
	if count > math.MaxUint16 {
		return nil, fmt.Errorf("ase: frame %d has %d chunks, more than the count field holds", index, count)
	}

	out := make([]byte, 0, FrameHeaderSize+len(chunks))
	out = appendU32(out, uint32(FrameHeaderSize+len(chunks)))
	out = appendU16(out, FrameMagic)
	out = appendU16(out, uint16(count))
	out = appendU16(out, uint16(f.Duration))
	out = append(out, make([]byte, 6)...)
	return append(out, chunks...), nil
}

// appendFileHeader writes the 128-byte file header. size is the total
// file size including the header itself.
func appendFileHeader(b []byte, doc *Document, size int) []byte {
	b = appendU32(b, uint32(size))
	b = appendU16(b, FileMagic)
	b = appendU16(b, uint16(len(doc.Frames)))
	b = appendU16(b, uint16(doc.Width))
	b = appendU16(b, uint16(doc.Height))
	b = appendU16(b, uint16(doc.Depth))
	b = appendU32(b, doc.Flags)
	b = appendU16(b, uint16(doc.Speed))
	b = append(b, make([]byte, 8)...)
	b = append(b, doc.TransparentIndex)
	b = append(b, 0, 0, 0)
	b = appendU16(b, uint16(len(doc.Palette)))
	return append(b, make([]byte, 94)...)
}

// appendPaletteChunk writes the palette in the modern encoding,
// covering the full table in one [0, len-1] change range.
func appendPaletteChunk(b []byte, pal Palette) []byte {
	p := make([]byte, 0, paletteHeaderSize+len(pal)*6)
	p = appendU32(p, uint32(len(pal)))
	p = appendU32(p, 0)
	p = appendU32(p, uint32(len(pal)-1))
	p = append(p, make([]byte, 8)...)
	for _, c := range pal {
		p = appendU16(p, 0) // no per-entry name
		p = append(p, c.R8, c.G8, c.B8, c.A8)
	}
	return appendChunk(b, chunkPalette, p)
}

// appendLayerChunk writes one layer descriptor chunk.
func appendLayerChunk(b []byte, l *Layer) []byte {
	p := make([]byte, 0, 16+2+len(l.Name))
	p = appendU16(p, l.Flags)
	p = appendU16(p, uint16(l.Type))
	p = appendU16(p, uint16(l.ChildLevel))
	p = appendU16(p, 0) // default width, informational only
	p = appendU16(p, 0) // default height, informational only
	p = appendU16(p, uint16(l.BlendMode))
	p = append(p, l.Opacity, 0, 0, 0)
	p = appendString(p, l.Name)
	return appendChunk(b, chunkLayer, p)
}

// appendCelChunk writes one cel chunk, compressing the payload when
// asked to.
func appendCelChunk(b []byte, cel *Cel, compress bool) ([]byte, error) {
	if cel.Width < 0 || cel.Width > MaxDimension || cel.Height < 0 || cel.Height > MaxDimension {
		return nil, fmt.Errorf("cel %dx%d exceeds maximum %d", cel.Width, cel.Height, MaxDimension)
	}
	if cel.X < math.MinInt16 || cel.X > math.MaxInt16 || cel.Y < math.MinInt16 || cel.Y > math.MaxInt16 {
		return nil, fmt.Errorf("cel position (%d,%d) does not fit the signed 16-bit fields", cel.X, cel.Y)
	}
	if cel.LayerIndex < 0 || cel.LayerIndex > math.MaxUint16 {
		return nil, fmt.Errorf("cel layer index %d does not fit the header field", cel.LayerIndex)
	}

	data := cel.Pixels
	kind := CelRaw
	if compress {
		z, err := deflate(data)
		if err != nil {
			return nil, err
		}
		data = z
		kind = CelCompressed
	}

	p := make([]byte, 0, celHeaderSize+4+len(data))
	p = appendU16(p, uint16(cel.LayerIndex))
	p = appendU16(p, uint16(int16(cel.X)))
	p = appendU16(p, uint16(int16(cel.Y)))
	p = append(p, cel.Opacity)
	p = appendU16(p, uint16(kind))
	p = append(p, make([]byte, 7)...)
	p = appendU16(p, uint16(cel.Width))
	p = appendU16(p, uint16(cel.Height))
	p = append(p, data...)
	return appendChunk(b, chunkCel, p), nil
}

// appendChunk frames a payload with the 6-byte chunk header; the
// declared size includes the header itself.
func appendChunk(b []byte, kind uint16, payload []byte) []byte {
	b = appendU32(b, uint32(ChunkHeaderSize+len(payload)))
	b = appendU16(b, kind)
	return append(b, payload...)
}

// appendString writes a length-prefixed string: a 2-byte length, then
// the bytes, no terminator.
func appendString(b []byte, s string) []byte {
	b = appendU16(b, uint16(len(s)))
	return append(b, s...)
}

func appendU16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}
