package mosaic

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Painter produces tile content. Implementations rasterize whatever the
// surface displays (a document, a map layer, a canvas) into the clip
// rectangle of dst, which is given in tile-local pixel coordinates. The
// returned generation is the version of the content that was painted; the
// engine records it for observability and never branches on it.
//
// PaintTile runs on the repaint actor with no engine lock held. It may be
// arbitrarily slow.
type Painter interface {
	PaintTile(dst *ebiten.Image, coord TileCoord, scale float64, clip image.Rectangle) uint32
}

// RenderInfo carries everything a Renderer needs for one render call. It is
// assembled from a locked snapshot of tile state, so the fields stay
// coherent even if the tile changes mid-render.
type RenderInfo struct {
	Coord   TileCoord
	Scale   float64
	Buffer  *BufferInfo
	Target  *ebiten.Image
	Rect    image.Rectangle // tile-local pixels; full buffer for whole repaints
	Painter Painter
}

// Renderer executes render calls against a tile buffer. The engine decides
// full versus partial coverage; the renderer just fills Rect. Never invoked
// while a tile lock is held.
type Renderer interface {
	RenderRegion(info RenderInfo) uint32
}

// RasterRenderer renders tile content by delegating to the tile's Painter
// through a SubImage view, so partial repaints cannot scribble outside
// their rectangle.
type RasterRenderer struct{}

// RenderRegion implements Renderer.
func (RasterRenderer) RenderRegion(info RenderInfo) uint32 {
	if info.Target == nil || info.Painter == nil {
		return 0
	}
	rect := info.Rect.Intersect(info.Target.Bounds())
	if rect.Empty() {
		return 0
	}
	dst := info.Target.SubImage(rect).(*ebiten.Image)
	return info.Painter.PaintTile(dst, info.Coord, info.Scale, rect)
}
