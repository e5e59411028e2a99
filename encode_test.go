package ase

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func encodeDoc(t *testing.T, doc *Document, opts *EncoderOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, doc, opts); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestEncode_RoundTripRGBA(t *testing.T) {
	doc := &Document{
		Width: 4, Height: 3,
		Depth: DepthRGBA,
		Speed: 150,
		Layers: []Layer{
			{Flags: LayerFlagVisible | LayerFlagBackground, BlendMode: BlendNormal, Opacity: 255, Name: "bg"},
			{Flags: LayerFlagVisible, BlendMode: BlendMultiply, Opacity: 180, Name: "shade"},
		},
		Frames: []Frame{
			{Duration: 90, Cels: []*Cel{
				{LayerIndex: 0, Width: 4, Height: 3, Link: -1, Pixels: solid(4, 3, [4]uint8{10, 20, 30, 255})},
				{LayerIndex: 1, X: 1, Y: -1, Opacity: 99, Width: 2, Height: 2, Link: -1, Pixels: rgba2x2()},
			}},
			{Duration: 40, Cels: []*Cel{
				{LayerIndex: 0, Width: 4, Height: 3, Link: -1, Pixels: solid(4, 3, [4]uint8{40, 50, 60, 200})},
			}},
		},
	}

	got := mustParse(t, encodeDoc(t, doc, nil))

	if got.Width != 4 || got.Height != 3 || got.Depth != DepthRGBA || got.Speed != 150 {
		t.Errorf("header = %dx%d depth %d speed %d, want 4x3 depth 32 speed 150", got.Width, got.Height, got.Depth, got.Speed)
	}
	if len(got.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(got.Layers))
	}
	for i, want := range doc.Layers {
		l := got.Layers[i]
		if l.Flags != want.Flags || l.BlendMode != want.BlendMode || l.Opacity != want.Opacity || l.Name != want.Name {
			t.Errorf("layer %d = %+v, want %+v", i, l, want)
		}
	}
	if len(got.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(got.Frames))
	}
	if got.Frames[0].Duration != 90 || got.Frames[1].Duration != 40 {
		t.Errorf("durations = %d, %d, want 90, 40", got.Frames[0].Duration, got.Frames[1].Duration)
	}
	shade := got.Frames[0].Cel(1)
	if shade == nil {
		t.Fatal("frame 0 lost the shade cel")
	}
	if shade.X != 1 || shade.Y != -1 || shade.Opacity != 99 || shade.Width != 2 || shade.Height != 2 {
		t.Errorf("shade cel = %+v, want x=1 y=-1 opacity=99 2x2", shade)
	}
	if !bytes.Equal(shade.Pixels, rgba2x2()) {
		t.Errorf("shade pixels = %v, want %v", shade.Pixels, rgba2x2())
	}
	if !bytes.Equal(got.Frames[1].Cel(0).Pixels, doc.Frames[1].Cels[0].Pixels) {
		t.Error("frame 1 cel pixels differ after round trip")
	}
}

func TestEncode_RoundTripIndexed(t *testing.T) {
	doc := &Document{
		Width: 2, Height: 2,
		Depth:            DepthIndexed,
		TransparentIndex: 3,
		Palette: Palette{
			ColorFromBytes(200, 0, 0, 255),
			ColorFromBytes(0, 200, 0, 255),
			ColorFromBytes(0, 0, 200, 128),
			ColorFromBytes(1, 1, 1, 1),
		},
		Layers: []Layer{{Flags: LayerFlagVisible, Opacity: 255, Name: "pix"}},
		Frames: []Frame{{Duration: 100, Cels: []*Cel{
			{LayerIndex: 0, Width: 2, Height: 2, Link: -1, Pixels: []byte{0, 1, 2, 3}},
		}}},
	}

	got := mustParse(t, encodeDoc(t, doc, nil))

	if got.Depth != DepthIndexed || got.TransparentIndex != 3 {
		t.Errorf("depth %d transparent %d, want 8 and 3", got.Depth, got.TransparentIndex)
	}
	if got.NumColors != 4 {
		t.Errorf("declared colors = %d, want 4", got.NumColors)
	}
	if len(got.Palette) != 4 {
		t.Fatalf("palette = %d entries, want 4", len(got.Palette))
	}
	for i, want := range doc.Palette {
		if got.Palette[i] != want {
			t.Errorf("palette[%d] = %+v, want %+v", i, got.Palette[i], want)
		}
	}
	if !bytes.Equal(got.Frames[0].Cel(0).Pixels, []byte{0, 1, 2, 3}) {
		t.Error("indexed pixels differ after round trip")
	}
}

func TestEncode_DefaultCompressesCels(t *testing.T) {
	doc := mustParse(t, buildSingleLayerFile(2, 2, DepthRGBA, rgba2x2()))
	got := mustParse(t, encodeDoc(t, doc, nil))
	if typ := got.Frames[0].Cel(0).Type; typ != CelCompressed {
		t.Errorf("cel type = %v, want compressed by default", typ)
	}
}

func TestEncode_RawCels(t *testing.T) {
	doc := mustParse(t, buildSingleLayerFile(2, 2, DepthRGBA, rgba2x2()))
	got := mustParse(t, encodeDoc(t, doc, &EncoderOptions{CompressCels: false}))
	cel := got.Frames[0].Cel(0)
	if cel.Type != CelRaw {
		t.Errorf("cel type = %v, want raw", cel.Type)
	}
	if !bytes.Equal(cel.Pixels, rgba2x2()) {
		t.Errorf("pixels = %v, want %v", cel.Pixels, rgba2x2())
	}
}

func TestEncode_SkipsLinkedAndMissingCels(t *testing.T) {
	doc := &Document{
		Width: 2, Height: 2,
		Depth:  DepthRGBA,
		Layers: []Layer{{Flags: LayerFlagVisible, Opacity: 255, Name: "a"}, {Flags: LayerFlagVisible, Opacity: 255, Name: "b"}},
		Frames: []Frame{{Duration: 100, Cels: []*Cel{
			nil,
			{LayerIndex: 1, Type: CelLinked, Link: 0},
		}}},
	}

	got := mustParse(t, encodeDoc(t, doc, nil))
	if len(got.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(got.Frames))
	}
	if got.Frames[0].Cel(0) != nil || got.Frames[0].Cel(1) != nil {
		t.Error("skipped cels reappeared after round trip")
	}
}

func TestEncode_HeaderBytes(t *testing.T) {
	doc := &Document{
		Width: 300, Height: 200,
		Depth:            DepthIndexed,
		Speed:            125,
		TransparentIndex: 9,
		Palette:          Palette{ColorFromBytes(1, 2, 3, 4), ColorFromBytes(5, 6, 7, 8)},
		Frames:           []Frame{{Duration: 100}},
	}
	out := encodeDoc(t, doc, nil)

	u16 := binary.LittleEndian.Uint16
	u32 := binary.LittleEndian.Uint32
	if got := u32(out[0:]); got != uint32(len(out)) {
		t.Errorf("size field = %d, want %d", got, len(out))
	}
	if got := u16(out[4:]); got != FileMagic {
		t.Errorf("magic = %#x, want %#x", got, FileMagic)
	}
	if got := u16(out[6:]); got != 1 {
		t.Errorf("frame count = %d, want 1", got)
	}
	if got := u16(out[8:]); got != 300 {
		t.Errorf("width = %d, want 300", got)
	}
	if got := u16(out[10:]); got != 200 {
		t.Errorf("height = %d, want 200", got)
	}
	if got := u16(out[12:]); got != DepthIndexed {
		t.Errorf("depth = %d, want %d", got, DepthIndexed)
	}
	if got := u16(out[18:]); got != 125 {
		t.Errorf("speed = %d, want 125", got)
	}
	if out[28] != 9 {
		t.Errorf("transparent index = %d, want 9", out[28])
	}
	if got := u16(out[32:]); got != 2 {
		t.Errorf("color count = %d, want len(palette) = 2", got)
	}
	if got := u16(out[FileHeaderSize+4:]); got != FrameMagic {
		t.Errorf("frame magic = %#x, want %#x", got, FrameMagic)
	}
}

func TestEncode_ValidationErrors(t *testing.T) {
	valid := func() *Document {
		return &Document{
			Width: 2, Height: 2, Depth: DepthRGBA,
			Layers: []Layer{{Flags: LayerFlagVisible, Opacity: 255, Name: "l"}},
			Frames: []Frame{{Duration: 100, Cels: []*Cel{
				{LayerIndex: 0, Width: 2, Height: 2, Link: -1, Pixels: rgba2x2()},
			}}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Document)
		want   error // nil means any error
	}{
		{"bad depth", func(d *Document) { d.Depth = 16 }, ErrColorDepth},
		{"negative width", func(d *Document) { d.Width = -1 }, nil},
		{"oversized height", func(d *Document) { d.Height = MaxDimension + 1 }, nil},
		{"negative speed", func(d *Document) { d.Speed = -1 }, nil},
		{"oversized speed", func(d *Document) { d.Speed = 1 << 16 }, nil},
		{"negative duration", func(d *Document) { d.Frames[0].Duration = -1 }, nil},
		{"oversized duration", func(d *Document) { d.Frames[0].Duration = 1 << 16 }, nil},
		{"layer name too long", func(d *Document) { d.Layers[0].Name = strings.Repeat("n", 1<<16) }, nil},
		{"cel position out of range", func(d *Document) { d.Frames[0].Cels[0].X = 40000 }, nil},
		{"cel too wide", func(d *Document) { d.Frames[0].Cels[0].Width = MaxDimension + 1 }, nil},
		{"negative cel layer", func(d *Document) { d.Frames[0].Cels[0].LayerIndex = -1 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(doc)
			err := Encode(&bytes.Buffer{}, doc, nil)
			if err == nil {
				t.Fatal("Encode succeeded, want error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Encode error = %v, want %v", err, tt.want)
			}
		})
	}
}

type errWriter struct{ err error }

func (w errWriter) Write([]byte) (int, error) { return 0, w.err }

func TestEncode_WriteError(t *testing.T) {
	doc := mustParse(t, buildSingleLayerFile(2, 2, DepthRGBA, rgba2x2()))
	wantErr := errors.New("disk full")
	if err := Encode(errWriter{wantErr}, doc, nil); !errors.Is(err, wantErr) {
		t.Errorf("Encode error = %v, want %v", err, wantErr)
	}
}

func TestEncode_RenderEquivalence(t *testing.T) {
	// A document and its encode/parse round trip must composite to
	// identical pixels.
	f := &testFile{width: 2, height: 2, depth: DepthRGBA}
	f.frames = []testFrame{{
		duration: 100,
		chunks: [][]byte{
			testLayerChunk(LayerFlagVisible, BlendNormal, 255, "base"),
			testLayerChunk(LayerFlagVisible, BlendMultiply, 200, "tint"),
			testRawCel(0, 0, 0, 2, 2, solid(2, 2, [4]uint8{100, 100, 100, 255})),
			testRawCel(1, 0, 0, 2, 2, solid(2, 2, [4]uint8{128, 64, 32, 255})),
		},
	}}
	doc := mustParse(t, f.build())
	redoc := mustParse(t, encodeDoc(t, doc, nil))

	want := make([]byte, 2*2*4)
	got := make([]byte, 2*2*4)
	if err := doc.RenderFrame(0, want, 2, 2, 0, 0); err != nil {
		t.Fatalf("RenderFrame original: %v", err)
	}
	if err := redoc.RenderFrame(0, got, 2, 2, 0, 0); err != nil {
		t.Fatalf("RenderFrame round trip: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("round trip render = %v, want %v", got, want)
	}
}
