package ase

import "image"

// Document is the fully decoded in-memory form of a layered-image
// file. It owns every buffer it references; nothing points back into
// the input the parser consumed. Once built it is read-only, and
// concurrent RenderFrame calls against the same Document are safe.
type Document struct {
	// Width and Height are the canvas dimensions in pixels.
	Width  int
	Height int

	// Depth is the color depth in bits per pixel, DepthIndexed or
	// DepthRGBA.
	Depth int

	// Flags is the raw header flags field.
	Flags uint32

	// Speed is the legacy default frame duration in milliseconds,
	// used when a frame's own duration is zero.
	Speed int

	// TransparentIndex is the palette entry composited as fully
	// transparent in indexed mode, regardless of its palette color.
	TransparentIndex uint8

	// NumColors is the header's declared color count. The palette's
	// actual size is len(Palette).
	NumColors int

	// Palette maps pixel index to color.
	Palette Palette

	// Layers lists the layer descriptors bottom-to-top in declaration
	// order. A cel references its layer by position in this list.
	Layers []Layer

	// Frames holds the animation frames in playback order.
	Frames []Frame
}

// Bounds returns the canvas rectangle.
func (d *Document) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width, d.Height)
}

// bytesPerPixel returns the payload stride per pixel for the document's
// color depth.
func (d *Document) bytesPerPixel() int {
	if d.Depth == DepthRGBA {
		return 4
	}
	return 1
}

// Palette is an ordered color table indexed by pixel value.
type Palette []Color

// Color returns the entry at index i, or a fully transparent color
// when i falls outside the table.
func (p Palette) Color(i int) Color {
	if i < 0 || i >= len(p) {
		return Color{}
	}
	return p[i]
}

// Color carries each channel in both 8-bit and normalized float form.
// The two forms are kept consistent by construction and never mutated
// independently: parsing and compositing always go through the
// constructors. The zero value is fully transparent black.
type Color struct {
	R8, G8, B8, A8 uint8
	R, G, B, A     float32
}

// ColorFromBytes builds a Color from 8-bit channels, deriving the
// float forms.
func ColorFromBytes(r, g, b, a uint8) Color {
	return Color{
		R8: r, G8: g, B8: b, A8: a,
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}

// colorFromFloats builds a Color from normalized channels, clamping to
// [0, 1] and deriving the 8-bit forms by rounding.
func colorFromFloats(r, g, b, a float32) Color {
	r, g, b, a = clamp01(r), clamp01(g), clamp01(b), clamp01(a)
	return Color{
		R8: uint8(r*255 + 0.5),
		G8: uint8(g*255 + 0.5),
		B8: uint8(b*255 + 0.5),
		A8: uint8(a*255 + 0.5),
		R:  r, G: g, B: b, A: a,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Layer describes one compositing surface. Layers are shared across
// all frames; a frame contributes pixels to a layer through the cel at
// the same index.
type Layer struct {
	// Flags holds the LayerFlag bits.
	Flags uint16

	// Type is the raw layer type field (0 = image, 1 = group).
	Type int

	// ChildLevel is the nesting depth inside layer groups.
	ChildLevel int

	// BlendMode selects the per-channel function used when compositing
	// this layer over the ones below it.
	BlendMode BlendMode

	// Opacity scales the layer's alpha, 0 (invisible) to 255 (opaque).
	Opacity uint8

	// Name is the display name.
	Name string
}

// Visible reports whether the layer participates in compositing.
func (l *Layer) Visible() bool { return l.Flags&LayerFlagVisible != 0 }

// Editable reports the editable flag.
func (l *Layer) Editable() bool { return l.Flags&LayerFlagEditable != 0 }

// LockMovement reports the lock-movement flag.
func (l *Layer) LockMovement() bool { return l.Flags&LayerFlagLockMovement != 0 }

// Background reports whether this is the background layer.
func (l *Layer) Background() bool { return l.Flags&LayerFlagBackground != 0 }

// PreferLinkedCels reports the prefer-linked-cels flag.
func (l *Layer) PreferLinkedCels() bool { return l.Flags&LayerFlagPreferLinkedCels != 0 }

// Frame is one animation frame.
type Frame struct {
	// Duration is the display time in milliseconds. Zero means the
	// document's Speed applies.
	Duration int

	// Cels is indexed by layer position; a nil entry means the layer
	// has no content this frame. The slice is sized when the frame's
	// first cel chunk is decoded, to the layer count known at that
	// point, so cels of layers declared later in the stream are not
	// representable. That is a structural constraint of the format's
	// one-pass layout.
	Cels []*Cel
}

// Cel returns the cel for the given layer index, or nil when the layer
// has none in this frame.
func (f *Frame) Cel(layer int) *Cel {
	if layer < 0 || layer >= len(f.Cels) {
		return nil
	}
	return f.Cels[layer]
}

// Cel is the pixel content one layer contributes to one frame.
type Cel struct {
	// LayerIndex is the position of the owning layer in
	// Document.Layers.
	LayerIndex int

	// X and Y place the cel's top-left corner on the canvas. Either
	// may be negative, and the cel may extend past the canvas edge;
	// compositing clips to the overlap.
	X, Y int

	// Opacity is the cel's own opacity byte. It is carried from the
	// stream but not applied during compositing; only the layer
	// opacity is.
	Opacity uint8

	// Type records how the pixel data was stored.
	Type CelType

	// Width and Height are the payload dimensions in pixels.
	Width, Height int

	// Link is the frame a linked cel points at, -1 for other cel
	// types. The reference is kept but never resolved.
	Link int

	// Pixels is the decoded payload, row-major: one index byte per
	// pixel in indexed mode, four bytes R,G,B,A per pixel in 32-bit
	// mode. Nil for linked cels.
	Pixels []byte
}
