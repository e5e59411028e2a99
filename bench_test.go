package ase

import (
	"io"
	"testing"
)

// benchFile builds a 64x64 four-frame, three-layer sprite with raw
// cels. compress swaps the cel payloads to zlib streams.
func benchFile(b *testing.B, compress bool) []byte {
	b.Helper()
	const w, h, frames = 64, 64, 4

	pixels := make([]byte, w*h*4)
	for i := range pixels {
		pixels[i] = byte(i * 7)
	}
	cel := func(layer int) []byte {
		p := testCelHeader(layer, 0, 0, 255, CelRaw)
		data := pixels
		if compress {
			z, err := deflate(pixels)
			if err != nil {
				b.Fatalf("compressing payload: %v", err)
			}
			p = testCelHeader(layer, 0, 0, 255, CelCompressed)
			data = z
		}
		p = appendU16(p, w)
		p = appendU16(p, h)
		p = append(p, data...)
		return testChunk(chunkCel, p)
	}

	f := &testFile{width: w, height: h, depth: DepthRGBA}
	for i := 0; i < frames; i++ {
		fr := testFrame{duration: 100}
		if i == 0 {
			fr.chunks = append(fr.chunks,
				testLayerChunk(LayerFlagVisible|LayerFlagBackground, BlendNormal, 255, "bg"),
				testLayerChunk(LayerFlagVisible, BlendMultiply, 200, "shade"),
				testLayerChunk(LayerFlagVisible, BlendNormal, 128, "glow"),
			)
		}
		for layer := 0; layer < 3; layer++ {
			fr.chunks = append(fr.chunks, cel(layer))
		}
		f.frames = append(f.frames, fr)
	}
	return f.build()
}

func BenchmarkParse(b *testing.B) {
	data := benchFile(b, false)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseCompressed(b *testing.B) {
	data := benchFile(b, true)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	doc, err := Parse(benchFile(b, false))
	if err != nil {
		b.Fatal(err)
	}
	dst := make([]byte, doc.Width*doc.Height*4)
	b.SetBytes(int64(len(dst)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := doc.RenderFrame(i%len(doc.Frames), dst, doc.Width, doc.Height, 0, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	doc, err := Parse(benchFile(b, false))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Encode(io.Discard, doc, nil); err != nil {
			b.Fatal(err)
		}
	}
}
