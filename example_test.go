package ase_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/deepteams/ase"
)

// spriteBytes builds a small two-layer sprite in the container format.
func spriteBytes() []byte {
	doc := &ase.Document{
		Width: 2, Height: 2,
		Depth: ase.DepthRGBA,
		Layers: []ase.Layer{
			{Flags: ase.LayerFlagVisible, BlendMode: ase.BlendNormal, Opacity: 255, Name: "body"},
			{Flags: ase.LayerFlagVisible, BlendMode: ase.BlendMultiply, Opacity: 255, Name: "shade"},
		},
		Frames: []ase.Frame{{
			Duration: 100,
			Cels: []*ase.Cel{
				{LayerIndex: 0, Width: 2, Height: 2, Link: -1, Pixels: []byte{
					200, 40, 40, 255, 200, 40, 40, 255,
					200, 40, 40, 255, 200, 40, 40, 255,
				}},
				{LayerIndex: 1, X: 1, Y: 1, Width: 1, Height: 1, Link: -1, Pixels: []byte{
					128, 128, 128, 255,
				}},
			},
		}},
	}
	var buf bytes.Buffer
	if err := ase.Encode(&buf, doc, nil); err != nil {
		log.Fatal(err)
	}
	return buf.Bytes()
}

func ExampleParse() {
	doc, err := ase.Parse(spriteBytes())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%dx%d canvas, %d frame(s)\n", doc.Width, doc.Height, len(doc.Frames))
	for _, l := range doc.Layers {
		fmt.Printf("layer %q: %v\n", l.Name, l.BlendMode)
	}
	// Output:
	// 2x2 canvas, 1 frame(s)
	// layer "body": normal
	// layer "shade": multiply
}

func ExampleDecode() {
	img, err := ase.Decode(bytes.NewReader(spriteBytes()))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(img.Bounds().Dx(), img.Bounds().Dy())
	// Output: 2 2
}

func ExampleDocument_FrameImage() {
	doc, err := ase.Parse(spriteBytes())
	if err != nil {
		log.Fatal(err)
	}
	img, err := doc.FrameImage(0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(img.NRGBAAt(0, 0))
	fmt.Println(img.NRGBAAt(1, 1))
	// Output:
	// {200 40 40 255}
	// {100 20 20 255}
}
