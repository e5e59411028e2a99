package ase

// BlendMode selects the per-channel function used to combine a layer's
// source color with the composited result under it. The values match
// the container's layer-chunk blend mode field.
type BlendMode uint16

const (
	BlendNormal     BlendMode = iota // source channel unchanged
	BlendMultiply                    // s·d
	BlendScreen                      // 1 − (1−s)(1−d)
	BlendOverlay                     // hard light with operands swapped
	BlendDarken                      // min(s, d)
	BlendLighten                     // max(s, d)
	BlendColorDodge                  // d / (1−s), clamped
	BlendColorBurn                   // 1 − (1−d)/s, clamped
	BlendHardLight                   // multiply or screen by source
	BlendSoftLight                   // pegtop variant
	BlendDifference                  // |d − s|
	BlendExclusion                   // s + d − 2sd
	BlendHue                         // not implemented, behaves as normal
	BlendSaturation                  // not implemented, behaves as normal
	BlendColor                       // not implemented, behaves as normal
	BlendLuminosity                  // not implemented, behaves as normal
)

var blendNames = [...]string{
	"normal", "multiply", "screen", "overlay", "darken", "lighten",
	"color-dodge", "color-burn", "hard-light", "soft-light",
	"difference", "exclusion", "hue", "saturation", "color", "luminosity",
}

// String returns the mode's lowercase name.
func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return "unknown"
}

// blendFunc combines one normalized source channel with the matching
// destination channel.
type blendFunc func(s, d float32) float32

// blendFuncFor returns the channel function for m. The four HSL modes
// (hue, saturation, color, luminosity) have no channel-separable
// formula and deliberately degrade to normal, as do values outside the
// defined range.
func blendFuncFor(m BlendMode) blendFunc {
	switch m {
	case BlendMultiply:
		return blendMultiply
	case BlendScreen:
		return blendScreen
	case BlendOverlay:
		return blendOverlay
	case BlendDarken:
		return blendDarken
	case BlendLighten:
		return blendLighten
	case BlendColorDodge:
		return blendColorDodge
	case BlendColorBurn:
		return blendColorBurn
	case BlendHardLight:
		return blendHardLight
	case BlendSoftLight:
		return blendSoftLight
	case BlendDifference:
		return blendDifference
	case BlendExclusion:
		return blendExclusion
	default:
		return blendNormal
	}
}

// blendNormal leaves the source channel unchanged.
//
// Formula: s
func blendNormal(s, _ float32) float32 {
	return s
}

// blendMultiply darkens by multiplying the channels.
//
// Formula: s·d
func blendMultiply(s, d float32) float32 {
	return s * d
}

// blendScreen lightens by multiplying the inverted channels.
//
// Formula: 1 − (1−s)(1−d)
func blendScreen(s, d float32) float32 {
	return 1 - (1-s)*(1-d)
}

// blendOverlay multiplies or screens depending on the destination.
//
// Formula: d < 0.5 ? 2sd : 1 − 2(1−s)(1−d)
func blendOverlay(s, d float32) float32 {
	if d < 0.5 {
		return 2 * s * d
	}
	return 1 - 2*(1-s)*(1-d)
}

// blendDarken keeps the darker channel.
//
// Formula: min(s, d)
func blendDarken(s, d float32) float32 {
	if d < s {
		return d
	}
	return s
}

// blendLighten keeps the lighter channel.
//
// Formula: max(s, d)
func blendLighten(s, d float32) float32 {
	if d > s {
		return d
	}
	return s
}

// blendColorDodge brightens the destination by the source. A full
// source channel dodges to white; the quotient is clamped to 1.
//
// Formula: s == 1 ? 1 : min(d / (1−s), 1)
func blendColorDodge(s, d float32) float32 {
	if s == 1 {
		return 1
	}
	v := d / (1 - s)
	if v > 1 {
		return 1
	}
	return v
}

// blendColorBurn darkens the destination by the source. A zero source
// channel burns to black; the ratio is clamped to 1 before inversion.
//
// Formula: s == 0 ? 0 : 1 − min((1−d)/s, 1)
func blendColorBurn(s, d float32) float32 {
	if s == 0 {
		return 0
	}
	v := (1 - d) / s
	if v > 1 {
		v = 1
	}
	return 1 - v
}

// blendHardLight multiplies or screens depending on the source; it is
// overlay with the operands swapped.
//
// Formula: s < 0.5 ? 2sd : 1 − 2(1−s)(1−d)
func blendHardLight(s, d float32) float32 {
	if s < 0.5 {
		return 2 * s * d
	}
	return 1 - 2*(1-s)*(1-d)
}

// blendSoftLight darkens or lightens depending on the source, using
// the pegtop variant, which is continuous at s = 0.5.
//
// Formula: (1−2s)·d² + 2sd
func blendSoftLight(s, d float32) float32 {
	return (1-2*s)*d*d + 2*d*s
}

// blendDifference subtracts the darker channel from the lighter one.
//
// Formula: |d − s|
func blendDifference(s, d float32) float32 {
	if d > s {
		return d - s
	}
	return s - d
}

// blendExclusion is a lower-contrast difference.
//
// Formula: s + d − 2sd
func blendExclusion(s, d float32) float32 {
	return s + d - 2*s*d
}

// combine composites src over dst with the given blend mode, returning
// the new destination color.
//
// The result alpha is the standard source-over composite
// outA = sA + dA·(1−sA); a zero result alpha short-circuits to fully
// transparent. Each channel is the blended value weighted by the
// source alpha plus the destination contribution, normalized by the
// result alpha:
//
//	outC = (blend(sC, dC)·sA + dC·dA·(1−sA)) / outA
func combine(src, dst Color, mode BlendMode) Color {
	outA := src.A + dst.A*(1-src.A)
	if outA == 0 {
		return Color{}
	}
	f := blendFuncFor(mode)
	dstW := dst.A * (1 - src.A)
	r := (f(src.R, dst.R)*src.A + dst.R*dstW) / outA
	g := (f(src.G, dst.G)*src.A + dst.G*dstW) / outA
	b := (f(src.B, dst.B)*src.A + dst.B*dstW) / outA
	return colorFromFloats(r, g, b, outA)
}
