package ase

// Magic numbers identifying the container and each frame record.
const (
	FileMagic  = 0xA5E0
	FrameMagic = 0xF1FA
)

// Structure sizes in bytes. A chunk's declared size includes its own
// 6-byte header.
const (
	FileHeaderSize  = 128
	FrameHeaderSize = 16
	ChunkHeaderSize = 6

	celHeaderSize     = 16 // after the chunk header, before per-type fields
	paletteHeaderSize = 20 // modern palette chunk header
)

// MaxDimension is the largest canvas width or height the container can
// describe: dimensions are stored as unsigned 16-bit fields.
const MaxDimension = 0xFFFF

// Color depths in bits per pixel. The format also defines a 16-bit
// grayscale depth, which this package does not support.
const (
	DepthIndexed = 8  // one palette index byte per pixel
	DepthRGBA    = 32 // four bytes R,G,B,A per pixel
)

// Chunk type codes. Types not routed to a decoder are skipped by
// advancing the cursor past their declared size.
const (
	chunkPaletteOld  = 0x0004 // legacy palette, RGB triples
	chunkPaletteOld2 = 0x0011 // second legacy palette encoding, recognized and skipped
	chunkLayer       = 0x2004
	chunkCel         = 0x2005
	chunkMask        = 0x2016 // skipped
	chunkPath        = 0x2017 // skipped
	chunkTags        = 0x2018 // skipped
	chunkPalette     = 0x2019 // modern palette, RGBA entries with optional names
	chunkUserData    = 0x2020 // skipped
)

// Layer flag bits.
const (
	LayerFlagVisible          = 1 << 0
	LayerFlagEditable         = 1 << 1
	LayerFlagLockMovement     = 1 << 2
	LayerFlagBackground       = 1 << 3
	LayerFlagPreferLinkedCels = 1 << 4
)

// CelType identifies how a cel's pixel data is stored in the stream.
type CelType uint16

const (
	// CelRaw stores uncompressed row-major pixels.
	CelRaw CelType = 0
	// CelLinked references a cel in another frame. The link target is
	// read but never resolved; a linked cel carries no pixel payload.
	CelLinked CelType = 1
	// CelCompressed stores pixels as a zlib stream.
	CelCompressed CelType = 2
)

// String returns a human-readable name for the cel type.
func (t CelType) String() string {
	switch t {
	case CelRaw:
		return "raw"
	case CelLinked:
		return "linked"
	case CelCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}
