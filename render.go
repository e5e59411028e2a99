package ase

import (
	"fmt"
	"image"
)

// RenderFrame composites one frame into dst, an RGBA buffer of
// dstW by dstH pixels (4 bytes per pixel, row-major), placing the
// document canvas with its top-left corner at (dstX, dstY). Only
// pixels inside the cels, the canvas, and the destination are written;
// everything else in dst is left untouched, which lets callers pack
// several frames into one atlas buffer. Callers reusing a buffer
// should clear the target region first: compositing treats an all-zero
// destination pixel as empty.
//
// The document is not mutated. Concurrent RenderFrame calls against
// the same Document are safe.
func (d *Document) RenderFrame(frame int, dst []byte, dstW, dstH, dstX, dstY int) error {
	if frame < 0 || frame >= len(d.Frames) {
		return fmt.Errorf("%w: %d of %d", ErrFrameIndex, frame, len(d.Frames))
	}
	if dstW < 0 || dstH < 0 || len(dst) < dstW*dstH*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrShortBuffer, len(dst), dstW, dstH)
	}

	f := &d.Frames[frame]
	bpp := d.bytesPerPixel()

	// The canvas maps to [dstX, dstX+Width) x [dstY, dstY+Height) in
	// the destination, so the writable part of the canvas is the
	// destination rectangle translated back by (dstX, dstY).
	writable := d.Bounds().Intersect(image.Rect(-dstX, -dstY, dstW-dstX, dstH-dstY))

	bottom := true
	for i := range d.Layers {
		layer := &d.Layers[i]
		if layer.Opacity == 0 || !layer.Visible() {
			continue
		}
		cel := f.Cel(i)
		if cel == nil || cel.Pixels == nil {
			continue
		}

		// The bottommost layer that reaches compositing overwrites
		// wherever it has pixels; everything above it blends.
		isBottom := bottom
		bottom = false

		clip := image.Rect(cel.X, cel.Y, cel.X+cel.Width, cel.Y+cel.Height).Intersect(writable)
		if clip.Empty() {
			continue
		}

		src := cel.Pixels
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			srcRow := (y - cel.Y) * cel.Width * bpp
			dstRow := (dstY + y) * dstW * 4
			for x := clip.Min.X; x < clip.Max.X; x++ {
				so := srcRow + (x-cel.X)*bpp
				do := dstRow + (dstX+x)*4

				var sc Color
				if bpp == 1 {
					if idx := src[so]; idx != d.TransparentIndex {
						sc = d.Palette.Color(int(idx))
					}
				} else {
					sc = ColorFromBytes(src[so], src[so+1], src[so+2], src[so+3])
				}
				sc = sc.scaleAlpha(layer.Opacity)

				switch {
				case isBottom || destIsZero(dst[do:do+4]):
					dst[do+0] = sc.R8
					dst[do+1] = sc.G8
					dst[do+2] = sc.B8
					dst[do+3] = sc.A8
				case sc.A8 != 0:
					dc := ColorFromBytes(dst[do], dst[do+1], dst[do+2], dst[do+3])
					oc := combine(sc, dc, layer.BlendMode)
					dst[do+0] = oc.R8
					dst[do+1] = oc.G8
					dst[do+2] = oc.B8
					dst[do+3] = oc.A8
				}
			}
		}
	}
	return nil
}

// FrameImage renders one frame into a freshly allocated image the
// size of the canvas.
func (d *Document) FrameImage(frame int) (*image.NRGBA, error) {
	img := image.NewNRGBA(d.Bounds())
	if err := d.RenderFrame(frame, img.Pix, d.Width, d.Height, 0, 0); err != nil {
		return nil, err
	}
	return img, nil
}

// scaleAlpha returns c with its alpha scaled by opacity/255. The color
// channels are untouched, and full opacity returns c unchanged so raw
// pixels pass through byte-exact.
func (c Color) scaleAlpha(opacity uint8) Color {
	switch opacity {
	case 255:
		return c
	case 0:
		return Color{}
	}
	c.A *= float32(opacity) / 255
	c.A8 = uint8(c.A*255 + 0.5)
	return c
}

// destIsZero reports whether a destination pixel is fully transparent
// black, the "nothing composited here yet" state.
func destIsZero(px []byte) bool {
	return px[0] == 0 && px[1] == 0 && px[2] == 0 && px[3] == 0
}
