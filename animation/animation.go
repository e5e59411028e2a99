// Package animation provides frame-by-frame playback for layered image
// documents.
//
// A Player walks a parsed ase.Document in frame order, compositing each
// frame onto an internal canvas and handing out timed snapshots. Layer
// flattening itself is handled by the ase package; this package deals
// with playback sequencing and frame timing only.
package animation

import (
	"errors"
	"image"
	"time"

	"github.com/deepteams/ase"
)

var (
	ErrNoFrames   = errors.New("animation: no frames")
	ErrCanvasSize = errors.New("animation: invalid canvas dimensions")
)

// defaultDurationMS is the frame duration applied when both the frame's
// own duration and the document's legacy speed are zero.
const defaultDurationMS = 100

// Player steps through a document's frames, compositing each onto a
// reused canvas. It is not safe for concurrent use; create one Player
// per goroutine over the same shared Document.
type Player struct {
	doc    *ase.Document
	canvas *image.NRGBA
	pos    int
}

// NewPlayer creates a Player positioned before the first frame.
func NewPlayer(doc *ase.Document) (*Player, error) {
	if doc == nil || len(doc.Frames) == 0 {
		return nil, ErrNoFrames
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, ErrCanvasSize
	}
	return &Player{
		doc:    doc,
		canvas: image.NewNRGBA(doc.Bounds()),
	}, nil
}

// HasNext reports whether more frames are available.
func (p *Player) HasNext() bool {
	return p.pos < len(p.doc.Frames)
}

// NextFrame composites the next frame and returns a snapshot together
// with its display duration. The caller receives a copy of the canvas;
// subsequent calls do not mutate it.
func (p *Player) NextFrame() (*image.NRGBA, time.Duration, error) {
	if !p.HasNext() {
		return nil, 0, ErrNoFrames
	}
	clearCanvas(p.canvas)
	if err := p.doc.RenderFrame(p.pos, p.canvas.Pix, p.doc.Width, p.doc.Height, 0, 0); err != nil {
		return nil, 0, err
	}

	snap := image.NewNRGBA(p.canvas.Bounds())
	copy(snap.Pix, p.canvas.Pix)

	d := p.FrameDuration(p.pos)
	p.pos++
	return snap, d, nil
}

// Reset rewinds the player to the first frame and clears the canvas.
func (p *Player) Reset() {
	p.pos = 0
	clearCanvas(p.canvas)
}

// Canvas returns the current canvas state (not a copy).
func (p *Player) Canvas() *image.NRGBA {
	return p.canvas
}

// FrameCount returns the number of frames in the document.
func (p *Player) FrameCount() int {
	return len(p.doc.Frames)
}

// FrameDuration returns the display duration of frame i, falling back
// to the document's legacy speed and then to a 100ms default when the
// frame carries no duration of its own. Out-of-range indices return 0.
func (p *Player) FrameDuration(i int) time.Duration {
	if i < 0 || i >= len(p.doc.Frames) {
		return 0
	}
	ms := p.doc.Frames[i].Duration
	if ms == 0 {
		ms = p.doc.Speed
	}
	if ms == 0 {
		ms = defaultDurationMS
	}
	return time.Duration(ms) * time.Millisecond
}

// TotalDuration returns the sum of all frame durations, with the same
// fallbacks FrameDuration applies.
func (p *Player) TotalDuration() time.Duration {
	var total time.Duration
	for i := range p.doc.Frames {
		total += p.FrameDuration(i)
	}
	return total
}

// clearCanvas fills the entire canvas with transparent (0,0,0,0).
func clearCanvas(canvas *image.NRGBA) {
	for i := range canvas.Pix {
		canvas.Pix[i] = 0
	}
}
