package mosaic

import (
	"image"
	"math"
)

// paintRequest is the immutable snapshot a repaint works from. It is built
// under the tile lock, used for rendering with no lock held, and handed to
// commitPaint together with freshly observed state. Fields deliberately
// copy everything the render needs so a concurrent SetContents or steal
// cannot tear the pass; staleness is caught at commit, not prevented.
type paintRequest struct {
	texture *TileTexture
	buffer  *BufferInfo
	region  Region // clone of the current slot's pending area
	full    bool   // slot's fullRepaint flag at snapshot time
	slot    int
	coord   TileCoord
	scale   float64
	painter Painter
}

// PaintBitmap runs one repaint pass on the repaint actor.
//
// Phase one snapshots the tile's paint inputs under the lock and bails if
// there is nothing to do (not dirty, or no back buffer). Producer access to
// the buffer is then acquired and ownership re-validated, since the pool
// may have reassigned the lease between the snapshot and the lock, aborting
// silently on a mismatch.
//
// Rendering happens with no tile lock held: its latency is unbounded
// relative to lock-hold time, and holding the lock would serialize the draw
// and repaint actors.
//
// Phase two retakes the lock and conditionally commits: only if the buffer
// is still this tile's current back buffer and still owned does any state
// change. A discarded pass mutates nothing; the staleness that invalidated
// it is still recorded in the pending regions and will drive a later pass.
func (t *Tile) PaintBitmap() {
	t.mu.Lock()
	if !t.dirty || t.back == nil {
		t.mu.Unlock()
		return
	}
	req := paintRequest{
		texture: t.back,
		region:  t.dirtyArea[t.currentSlot].Clone(),
		full:    t.fullRepaint[t.currentSlot],
		slot:    t.currentSlot,
		coord:   t.coord,
		scale:   t.scale,
		painter: t.painter,
	}
	t.mu.Unlock()

	info := req.texture.ProducerLock()
	if info == nil {
		req.texture.ProducerRelease()
		return
	}
	defer req.texture.ProducerRelease()
	if req.texture.Owner() != t {
		return
	}
	req.buffer = info

	full, gen := t.renderPass(&req)

	t.mu.Lock()
	t.commitPaint(&req, full, gen)
	t.mu.Unlock()
}

// renderPass decides full-versus-partial coverage and issues the render
// calls. It returns whether the pass ended up covering the whole tile, and
// the generation reported by the last render call.
//
// A pass is forced full when the slot demanded it, when the locked buffer's
// pixel size differs from the configured tile size (a partial update into a
// mis-sized buffer would land at the wrong offsets), or when the backend
// only supports whole-buffer updates. Otherwise each pending rectangle is
// scaled into surface pixel space and intersected with the tile's bounds;
// an intersection whose rounded extent spans the tile's full width or
// height escalates the pass to full, since the partial would repaint nearly
// everything anyway.
func (t *Tile) renderPass(req *paintRequest) (bool, uint32) {
	cfg := t.pool.cfg
	tileW, tileH := cfg.TileWidth, cfg.TileHeight

	full := req.full ||
		req.buffer.Width != tileW ||
		req.buffer.Height != tileH ||
		req.buffer.Upload == UploadWhole

	var gen uint32
	if !full {
		for _, rc := range req.region.Rects() {
			local, ok := intersectTileRect(req.coord, tileW, tileH, req.scale, rc)
			if !ok {
				continue
			}
			if local.Dx() == tileW || local.Dy() == tileH {
				full = true
				break
			}
			gen = t.renderer.RenderRegion(RenderInfo{
				Coord:   req.coord,
				Scale:   req.scale,
				Buffer:  req.buffer,
				Target:  req.texture.Image(),
				Rect:    local,
				Painter: req.painter,
			})
		}
	}

	if full {
		gen = t.renderer.RenderRegion(RenderInfo{
			Coord:   req.coord,
			Scale:   req.scale,
			Buffer:  req.buffer,
			Target:  req.texture.Image(),
			Rect:    image.Rect(0, 0, tileW, tileH),
			Painter: req.painter,
		})
	}
	return full, gen
}

// intersectTileRect scales dirty (content pixels) by scale into surface
// pixel space, intersects it with the tile's pixel bounds, and rounds the
// result outward to whole pixels translated into tile-local coordinates.
// ok is false when the rectangle misses the tile entirely.
func intersectTileRect(coord TileCoord, tileW, tileH int, scale float64, dirty image.Rectangle) (image.Rectangle, bool) {
	tileLeft := float64(coord.X * tileW)
	tileTop := float64(coord.Y * tileH)

	left := math.Max(float64(dirty.Min.X)*scale, tileLeft)
	top := math.Max(float64(dirty.Min.Y)*scale, tileTop)
	right := math.Min(float64(dirty.Max.X)*scale, tileLeft+float64(tileW))
	bottom := math.Min(float64(dirty.Max.Y)*scale, tileTop+float64(tileH))
	if left >= right || top >= bottom {
		return image.Rectangle{}, false
	}

	// Round outward, then translate into tile space.
	iLeft := int(math.Floor(left))
	iTop := int(math.Floor(top))
	w := int(math.Ceil(right)) - iLeft
	h := int(math.Ceil(bottom)) - iTop
	localLeft := iLeft % tileW
	localTop := iTop % tileH
	return image.Rect(localLeft, localTop, localLeft+w, localTop+h), true
}

// commitPaint is phase two: a conditional commit of a finished render pass
// against freshly observed state. Caller holds the tile lock.
//
// The pass applies only if the buffer it rendered into is still this tile's
// back buffer and the lease is still held; both can change mid-render, and
// a pass that lost either race is discarded without touching any state.
//
// On apply: the buffer's content is marked committed, the slot's
// fullRepaint flag clears, and dirty is recomputed from scratch: scale
// divergence since the snapshot, the region remainder after subtracting
// what the pass covered (invalidations that arrived during rendering
// survive the subtraction), and the next slot's pending area after the slot
// index advances. Only a tile left completely clean arms the swap.
func (t *Tile) commitPaint(req *paintRequest, full bool, gen uint32) bool {
	if req.texture != t.back || req.texture.Owner() != t {
		return false
	}

	t.pool.markPainted(req.texture.id, t)
	t.painted = true
	t.lastPaintGen = gen
	t.fullRepaint[t.currentSlot] = false

	t.dirty = false
	if t.scale != req.scale {
		t.dirty = true
	}

	if full {
		t.dirtyArea[t.currentSlot].Clear()
	} else {
		t.dirtyArea[t.currentSlot].Subtract(&req.region)
	}
	if !t.dirtyArea[t.currentSlot].Empty() {
		t.dirty = true
	}

	t.currentSlot = (t.currentSlot + 1) % len(t.dirtyArea)
	if !t.dirtyArea[t.currentSlot].Empty() {
		t.dirty = true
	}

	if !t.dirty {
		t.swapNeeded = true
	}
	return true
}
