package ase

import (
	"fmt"

	"github.com/deepteams/ase/internal/cursor"
)

// maxPaletteSize bounds the allocation made for a modern palette
// chunk. Indexed pixels are single bytes, but the chunk declares a
// 32-bit table size; capping it keeps an adversarial header from
// forcing a giant allocation.
const maxPaletteSize = 1 << 16

// parser builds a Document in a single pass over the input buffer.
// Everything the Document retains (names, palette entries, cel
// payloads) is copied out of the input, so the caller may release the
// buffer as soon as parsing returns.
type parser struct {
	c   *cursor.Cursor
	doc *Document

	// usesNewPalette flips when the first modern palette chunk is
	// seen; legacy palette chunks are ignored from then on.
	usesNewPalette bool

	trace func(format string, args ...any)
}

func (p *parser) tracef(format string, args ...any) {
	if p.trace != nil {
		p.trace(format, args...)
	}
}

// parse processes the complete file buffer.
func (p *parser) parse() (*Document, error) {
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	for i := range p.doc.Frames {
		if err := p.parseFrame(i); err != nil {
			return nil, err
		}
	}
	return p.doc, nil
}

// parseHeader reads the 128-byte file header and allocates the frame
// list.
func (p *parser) parseHeader() error {
	c := p.c
	_ = c.U32() // declared file size, not trusted
	magic := c.U16()
	frames := int(c.U16())
	width := int(c.U16())
	height := int(c.U16())
	depth := int(c.U16())
	flags := c.U32()
	speed := int(c.U16())
	c.Skip(8)
	transparent := c.U8()
	c.Skip(3)
	numColors := int(c.U16())
	c.Skip(94)
	if err := c.Err(); err != nil {
		return err
	}
	if magic != FileMagic {
		return fmt.Errorf("%w: file header 0x%04x", ErrBadMagic, magic)
	}
	if depth != DepthIndexed && depth != DepthRGBA {
		return fmt.Errorf("%w: %d bits per pixel", ErrColorDepth, depth)
	}

	p.doc = &Document{
		Width:            width,
		Height:           height,
		Depth:            depth,
		Flags:            flags,
		Speed:            speed,
		TransparentIndex: transparent,
		NumColors:        numColors,
		Frames:           make([]Frame, frames),
	}
	p.tracef("header: %dx%d depth=%d frames=%d transparent=%d", width, height, depth, frames, transparent)
	return nil
}

// parseFrame reads one 16-byte frame header and drives the chunk
// dispatcher for the declared number of chunks.
func (p *parser) parseFrame(index int) error {
	c := p.c
	_ = c.U32() // declared frame byte length, re-derived from chunk sizes
	magic := c.U16()
	chunks := int(c.U16())
	duration := int(c.U16())
	c.Skip(6)
	if err := c.Err(); err != nil {
		return err
	}
	if magic != FrameMagic {
		return fmt.Errorf("%w: frame %d header 0x%04x", ErrBadMagic, index, magic)
	}

	frame := &p.doc.Frames[index]
	frame.Duration = duration
	p.tracef("frame %d: %d chunks, %dms", index, chunks, duration)

	for i := 0; i < chunks; i++ {
		if err := p.parseChunk(frame); err != nil {
			return err
		}
	}
	return nil
}

// parseChunk reads one chunk header, routes the payload to its
// decoder, then repositions the cursor to the chunk's declared end no
// matter how much the decoder consumed. The repositioning is what
// tolerates unknown and partially understood chunk types.
func (p *parser) parseChunk(frame *Frame) error {
	c := p.c
	start := c.Pos()
	size := int(c.U32())
	kind := c.U16()
	if err := c.Err(); err != nil {
		return err
	}
	if size < ChunkHeaderSize || start+size > c.Len() {
		return fmt.Errorf("%w: type 0x%04x size %d at offset %d", ErrMalformedChunk, kind, size, start)
	}

	var err error
	switch kind {
	case chunkPaletteOld:
		if !p.usesNewPalette {
			err = p.parsePaletteOld()
		}
	case chunkLayer:
		err = p.parseLayer()
	case chunkCel:
		err = p.parseCel(frame, start+size)
	case chunkPalette:
		p.usesNewPalette = true
		err = p.parsePalette()
	default:
		// chunkPaletteOld2, chunkMask, chunkPath, chunkTags,
		// chunkUserData, and anything unknown.
		p.tracef("chunk 0x%04x: skipped (%d bytes)", kind, size)
	}
	if err != nil {
		return err
	}
	if err := c.Err(); err != nil {
		return err
	}

	c.SetPos(start + size)
	return nil
}

// parsePaletteOld decodes the legacy palette encoding: RGB triples in
// packets, alpha forced opaque, written into a 256-entry table.
// Multiple legacy chunks accumulate into the same table.
func (p *parser) parsePaletteOld() error {
	c := p.c
	if len(p.doc.Palette) < 256 {
		pal := make(Palette, 256)
		copy(pal, p.doc.Palette)
		p.doc.Palette = pal
	}

	packets := int(c.U16())
	for i := 0; i < packets; i++ {
		start := int(c.U8())
		count := int(c.U8())
		if count == 0 {
			count = 256
		}
		if start+count > len(p.doc.Palette) {
			return fmt.Errorf("%w: palette packet [%d, %d)", ErrMalformedChunk, start, start+count)
		}
		for j := start; j < start+count; j++ {
			r, g, b := c.U8(), c.U8(), c.U8()
			p.doc.Palette[j] = ColorFromBytes(r, g, b, 255)
		}
	}
	return c.Err()
}

// parsePalette decodes the modern palette encoding: an explicit table
// size, a [first, last] change range, and RGBA entries with optional
// names. Entries outside the change range keep their prior values.
func (p *parser) parsePalette() error {
	c := p.c
	size := int(c.U32())
	first := int(c.U32())
	last := int(c.U32())
	c.Skip(8)
	if err := c.Err(); err != nil {
		return err
	}
	if size > maxPaletteSize || first > last || last >= size {
		return fmt.Errorf("%w: palette size %d change range [%d, %d]", ErrMalformedChunk, size, first, last)
	}

	if size != len(p.doc.Palette) {
		pal := make(Palette, size)
		copy(pal, p.doc.Palette)
		p.doc.Palette = pal
	}
	for i := first; i <= last; i++ {
		flags := c.U16()
		r, g, b, a := c.U8(), c.U8(), c.U8(), c.U8()
		if flags&1 != 0 {
			_ = p.readString() // entry name, not kept
		}
		p.doc.Palette[i] = ColorFromBytes(r, g, b, a)
	}
	p.tracef("palette: %d entries, updated [%d, %d]", size, first, last)
	return c.Err()
}

// parseLayer appends one layer descriptor to the document's table.
func (p *parser) parseLayer() error {
	c := p.c
	flags := c.U16()
	typ := int(c.U16())
	child := int(c.U16())
	c.Skip(4) // default width/height, informational only
	blend := BlendMode(c.U16())
	opacity := c.U8()
	c.Skip(3)
	name := p.readString()
	if err := c.Err(); err != nil {
		return err
	}

	p.doc.Layers = append(p.doc.Layers, Layer{
		Flags:      flags,
		Type:       typ,
		ChildLevel: child,
		BlendMode:  blend,
		Opacity:    opacity,
		Name:       name,
	})
	p.tracef("layer %d %q: blend=%v opacity=%d flags=%#x", len(p.doc.Layers)-1, name, blend, opacity, flags)
	return nil
}

// parseCel decodes one cel chunk into the frame's cel table. end is
// the chunk's declared end offset; the pixel payload runs from the
// cursor position to there.
func (p *parser) parseCel(frame *Frame, end int) error {
	c := p.c
	layer := int(c.U16())
	x := int(c.S16())
	y := int(c.S16())
	opacity := c.U8()
	typ := CelType(c.U16())
	c.Skip(7)
	if err := c.Err(); err != nil {
		return err
	}

	// The frame's cel table is sized when its first cel arrives, to
	// the layer count declared so far. Layers declared after that
	// cannot hold cels in this frame (one-pass layout constraint).
	if frame.Cels == nil {
		frame.Cels = make([]*Cel, len(p.doc.Layers))
	}

	cel := &Cel{
		LayerIndex: layer,
		X:          x,
		Y:          y,
		Opacity:    opacity,
		Type:       typ,
		Link:       -1,
	}

	switch typ {
	case CelRaw, CelCompressed:
		cel.Width = int(c.U16())
		cel.Height = int(c.U16())
		n := end - c.Pos()
		if n < 0 {
			return fmt.Errorf("%w: cel chunk too small for its header", ErrMalformedChunk)
		}
		data := c.Bytes(n)
		if err := c.Err(); err != nil {
			return err
		}
		if typ == CelCompressed {
			out, err := inflate(data)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDecompression, err)
			}
			data = out
		}
		if len(data) < cel.Width*cel.Height*p.doc.bytesPerPixel() {
			return fmt.Errorf("%w: cel %dx%d with %d payload bytes",
				ErrMalformedChunk, cel.Width, cel.Height, len(data))
		}
		cel.Pixels = data

	case CelLinked:
		// The link target is recorded but never resolved; the cel
		// stays without pixels.
		if end-c.Pos() >= 2 {
			cel.Link = int(c.U16())
		}
	}

	if cel.LayerIndex < len(frame.Cels) {
		frame.Cels[cel.LayerIndex] = cel
		p.tracef("cel: layer=%d pos=(%d,%d) %dx%d type=%v", layer, x, y, cel.Width, cel.Height, typ)
	} else {
		p.tracef("cel for layer %d dropped: only %d layers declared at first cel", layer, len(frame.Cels))
	}
	return nil
}

// readString reads a length-prefixed string: a 2-byte length followed
// by that many bytes. Strings are not null-terminated in the stream.
func (p *parser) readString() string {
	n := int(p.c.U16())
	return string(p.c.Bytes(n))
}
