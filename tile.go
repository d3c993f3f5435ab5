package mosaic

import (
	"image"
	"sync"
	"sync/atomic"
)

// Tile caches one fixed-size cell of a larger surface as pooled GPU
// textures and coordinates three actors around it: a background repaint
// actor calling PaintBitmap, a foreground draw actor calling Draw and
// SwapTexturesIfNeeded, and the texture pool, which can reclaim either
// buffer at any moment via RemoveTexture.
//
// All bookkeeping is guarded by one per-tile mutex held only for
// O(region-complexity) work, never across rendering or GPU submission.
// Anything that can go stale mid-operation (the back buffer, ownership, the
// dirty region) is snapshotted under the lock, acted on outside it, and
// re-validated when the lock is retaken; a failed re-validation is a silent
// no-op resolved by a later repaint, not an error.
//
// Lock ordering across the engine: a texture's access lock may be held when
// taking the tile lock, and the tile lock may be held when calling into the
// pool. Neither reverse order occurs.
type Tile struct {
	pool       *TexturePool
	renderer   Renderer
	compositor Compositor
	isLayer    bool

	// drawCount is a monotonic snapshot of the pool's frame counter, read
	// lock-free by the pool to rank steal victims by recency.
	drawCount atomic.Uint64

	mu sync.Mutex // guards everything below

	painter Painter
	coord   TileCoord
	scale   float64

	front *TileTexture // displayed buffer
	back  *TileTexture // buffer being repainted

	// Per-slot pending invalidations. Slot count is fixed at construction
	// by the pool's buffering mode; the current slot advances once per
	// committed repaint.
	dirtyArea   []Region
	fullRepaint []bool
	currentSlot int

	dirty          bool // summary: something needs repainting before display is current
	painted        bool // a repaint has ever committed into a buffer of this tile
	swapNeeded     bool // back buffer committed and clean, awaiting promotion
	repaintPending bool // scheduler bookkeeping: a repaint is queued

	lastDirtyGen uint32 // content generation of the latest invalidation
	lastPaintGen uint32 // generation returned by the latest committed render
}

// NewTile creates a tile bound to a pool, content renderer, and compositor.
// The layer flag marks tiles belonging to composited sub-layers; it only
// affects the transform selection of the draw call.
//
// A new tile is unbound (InvalidCoord) and dirty: nothing is displayable
// until SetContents, ReserveTexture, and a committed PaintBitmap have run.
func NewTile(pool *TexturePool, renderer Renderer, compositor Compositor, layer bool) *Tile {
	slots := pool.cfg.Buffering.slots()
	t := &Tile{
		pool:        pool,
		renderer:    renderer,
		compositor:  compositor,
		isLayer:     layer,
		coord:       InvalidCoord,
		scale:       1,
		dirty:       true,
		dirtyArea:   make([]Region, slots),
		fullRepaint: make([]bool, slots),
	}
	for i := range t.fullRepaint {
		t.fullRepaint[i] = true
	}
	return t
}

// SetContents binds the tile to a grid cell, content painter, and scale.
// Any change to any of the three forces a full invalidation: previously
// cached pixels belong to different content. Also records the pool's frame
// counter as this tile's draw count. Painters are compared by identity, so
// implementations should be pointers.
func (t *Tile) SetContents(p Painter, coord TileCoord, scale float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.painter != p || t.coord != coord || t.scale != scale {
		t.fullInvalLocked()
	}
	t.painter = p
	t.coord = coord
	t.scale = scale
	t.drawCount.Store(t.pool.FrameCount())
}

// MarkDirty records that rect (in content pixels) no longer matches the
// displayed content. Empty rectangles are ignored. The rectangle is unioned
// into every slot's pending area, since every buffer is now stale there.
// gen identifies the content version that caused the invalidation; it is
// kept for observability only.
func (t *Tile) MarkDirty(gen uint32, rect image.Rectangle) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastDirtyGen = gen
	for i := range t.dirtyArea {
		t.dirtyArea[i].Union(rect)
	}
	t.dirty = true
}

// FullInval discards all pending regions and forces a whole-tile repaint of
// every slot.
func (t *Tile) FullInval() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fullInvalLocked()
}

func (t *Tile) fullInvalLocked() {
	for i := range t.dirtyArea {
		t.dirtyArea[i].Clear()
		t.fullRepaint[i] = true
	}
	t.dirty = true
}

// ReserveTexture requests a back-buffer lease from the pool. A granted
// texture that differs from the current back buffer replaces it and cancels
// any pending swap: the old back buffer is no longer what a swap should
// promote. If the tile has no front buffer, the tile is dirty by
// definition: nothing is displayable until a repaint lands in the new back
// buffer.
func (t *Tile) ReserveTexture() {
	tex := t.pool.Acquire(t)

	t.mu.Lock()
	defer t.mu.Unlock()
	if tex != nil && t.back != tex {
		t.swapNeeded = false
		t.back = tex
		if t.front == nil {
			t.dirty = true
		}
	}
}

// RemoveTexture is the pool's reclamation callback: the lease on tex has
// been reassigned away from this tile. Losing the front buffer is a visible
// regression, so it marks the tile dirty; losing the back buffer is silent,
// as its content was never shown.
func (t *Tile) RemoveTexture(tex *TileTexture) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.front == tex {
		t.front = nil
		t.dirty = true
	}
	if t.back == tex {
		t.back = nil
	}
}

// SwapTexturesIfNeeded promotes the back buffer to front if a repaint has
// committed and left the tile clean. The old front lease is released to the
// pool. Returns whether a swap occurred. Call from the draw actor between
// frames, never mid-draw.
func (t *Tile) SwapTexturesIfNeeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.swapNeeded {
		return false
	}
	if t.front != nil {
		t.front.Release(t)
	}
	t.front = t.back
	t.back = nil
	t.swapNeeded = false
	return true
}

// DiscardTextures releases both leases unconditionally and marks the tile
// dirty. Used on teardown and when the tile leaves the visible set.
func (t *Tile) DiscardTextures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.front != nil {
		t.front.Release(t)
		t.front = nil
	}
	if t.back != nil {
		t.back.Release(t)
		t.back = nil
	}
	t.dirty = true
}

// Draw issues at most one draw call for the tile's front buffer.
//
// It is a no-op when the tile is unbound, the requested scale differs from
// the tile's, no front buffer exists, or no repaint has ever committed.
// Consumer access to the buffer is acquired before the readiness check; if
// the buffer was reclaimed concurrently the access fails and the draw is
// skipped. A buffer that is accessible but not ready for this tile (the
// lease moved, or content belongs to a previous owner) marks the tile dirty
// so a future repaint repairs it.
func (t *Tile) Draw(opacity float64, dst Rect, scale float64) {
	t.mu.Lock()
	front := t.front
	eligible := t.coord.Valid() && t.scale == scale && front != nil && t.painted
	t.mu.Unlock()
	if !eligible {
		return
	}

	info := front.ConsumerLock()
	if info == nil {
		front.ConsumerRelease()
		return
	}
	ready := front.ReadyFor(t)
	if ready {
		t.compositor.DrawTile(front.Image(), dst, opacity, t.isLayer)
	}
	front.ConsumerRelease()

	if !ready {
		t.mu.Lock()
		t.dirty = true
		t.mu.Unlock()
	}
}

// IsTileReady reports whether the tile's most current buffer is displayable
// right now. The front buffer is checked normally; if a swap is pending and
// no front buffer exists yet, the committed back buffer counts. A buffer
// that fails its ownership or readiness probe marks the tile dirty so the
// scheduler requeues it.
func (t *Tile) IsTileReady() bool {
	t.mu.Lock()
	tex := t.front
	if t.swapNeeded && tex == nil {
		tex = t.back
	}
	dirty := t.dirty
	t.mu.Unlock()

	if tex == nil || dirty {
		return false
	}
	if tex.Owner() != t {
		t.markDirtyFlag()
		return false
	}

	info := tex.ConsumerLock()
	ready := info != nil && tex.ReadyFor(t)
	tex.ConsumerRelease()

	if ready {
		return true
	}
	t.markDirtyFlag()
	return false
}

func (t *Tile) markDirtyFlag() {
	t.mu.Lock()
	t.dirty = true
	t.mu.Unlock()
}

// IsDirty reports whether the tile needs a repaint before its display is
// current.
func (t *Tile) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// IsRepaintPending reports the scheduler's queued-repaint flag.
func (t *Tile) IsRepaintPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repaintPending
}

// SetRepaintPending records whether a repaint for this tile is queued.
// Maintained entirely by the upstream scheduler.
func (t *Tile) SetRepaintPending(pending bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repaintPending = pending
}

// DrawCount returns the frame counter recorded by the latest SetContents.
// The pool uses it to rank tiles by recency when stealing leases.
func (t *Tile) DrawCount() uint64 {
	return t.drawCount.Load()
}

// Coord returns the tile's grid coordinate.
func (t *Tile) Coord() TileCoord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coord
}

// Scale returns the tile's content scale factor.
func (t *Tile) Scale() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scale
}

// IsLayerTile reports whether the tile belongs to a composited sub-layer.
func (t *Tile) IsLayerTile() bool {
	return t.isLayer
}

// LastPaintGeneration returns the content generation reported by the most
// recently committed render call. Observability only.
func (t *Tile) LastPaintGeneration() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastPaintGen
}

// LastDirtyGeneration returns the content generation recorded by the most
// recent MarkDirty. Observability only.
func (t *Tile) LastDirtyGeneration() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastDirtyGen
}
