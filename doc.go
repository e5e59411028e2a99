// Package ase provides a pure Go decoder, frame compositor, and encoder
// for the Aseprite .ase/.aseprite layered image format.
//
// A file is a little-endian container: a fixed header followed by frames,
// each frame a sequence of tagged chunks carrying palettes, layer
// descriptors, and per-layer pixel blocks (cels). This package parses the
// container into a Document and flattens any frame's visible layers into
// RGBA pixels without any CGo dependencies, making it fully portable and
// easy to cross-compile.
//
// The package supports:
//   - Indexed (8-bit) and RGBA (32-bit) color depths
//   - Legacy and modern palette chunks
//   - Raw, zlib-compressed, and linked cels
//   - All twelve layer blend modes with layer opacity
//   - Frame compositing at an arbitrary offset into a caller buffer
//   - Animation timing via the animation package
//   - Writing documents back out
//
// Basic usage for decoding a single image:
//
//	img, err := ase.Decode(reader)
//
// Multi-frame usage:
//
//	doc, err := ase.Parse(data)
//	img, err := doc.FrameImage(2)
package ase
