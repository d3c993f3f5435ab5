package mosaic

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Compositor issues the single draw call that puts a tile's front buffer on
// screen. Invoked only from the draw path, never under a tile lock.
//
// The layer flag distinguishes tiles belonging to composited sub-layers
// from base-surface tiles; implementations typically select a different
// transform source (the layer's own matrix) for layer tiles.
type Compositor interface {
	DrawTile(tex *ebiten.Image, dst Rect, opacity float64, layer bool)
}

// ScreenCompositor draws tiles onto a target image with plain source-over
// blending. Layer tiles are additionally run through LayerTransform when
// one is set.
type ScreenCompositor struct {
	target *ebiten.Image

	// LayerTransform, when non-nil, is applied to layer tiles after the
	// tile's own fit-to-destination transform.
	LayerTransform *ebiten.GeoM

	// FilterLinear selects linear sampling, for surfaces drawn at
	// non-integer scales. Defaults to nearest.
	FilterLinear bool
}

// NewScreenCompositor creates a compositor drawing onto target.
func NewScreenCompositor(target *ebiten.Image) *ScreenCompositor {
	return &ScreenCompositor{target: target}
}

// SetTarget redirects subsequent draw calls, e.g. to the frame's screen
// image inside an ebiten Draw callback.
func (c *ScreenCompositor) SetTarget(target *ebiten.Image) {
	c.target = target
}

// DrawTile implements Compositor.
func (c *ScreenCompositor) DrawTile(tex *ebiten.Image, dst Rect, opacity float64, layer bool) {
	if c.target == nil || tex == nil || dst.Empty() {
		return
	}
	b := tex.Bounds()

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(dst.Width/float64(b.Dx()), dst.Height/float64(b.Dy()))
	op.GeoM.Translate(dst.X, dst.Y)
	if layer && c.LayerTransform != nil {
		op.GeoM.Concat(*c.LayerTransform)
	}
	op.ColorScale.ScaleAlpha(float32(opacity))
	if c.FilterLinear {
		op.Filter = ebiten.FilterLinear
	}
	c.target.DrawImage(tex, &op)
}
