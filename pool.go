package mosaic

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// TexturePool owns a fixed set of tile-sized GPU buffers and the table
// saying which tile currently leases each one. Leases move: when every
// buffer is taken, Acquire reassigns the one belonging to the least
// recently drawn tile, which makes the pool the third actor that can mutate
// a tile's state at any moment from outside.
//
// Ownership is keyed by texture id in a table inside the pool rather than
// stored on the texture, so a handle can never dangle into a tile that no
// longer holds the lease; it can only report a stale answer, which callers
// re-validate under the texture's access lock.
//
// Lock ordering: a tile lock or a texture access lock may be held when
// calling into the pool; the pool never calls into a tile or texture while
// holding its own lock.
type TexturePool struct {
	cfg Config

	mu       sync.Mutex
	textures []*TileTexture
	owners   map[uint32]*Tile
	painted  map[uint32]bool
	capacity int
	nextID   uint32

	// frames counts draw passes. Tiles snapshot it in SetContents and the
	// pool ranks steal victims by it.
	frames atomic.Uint64
}

// NewTexturePool creates a pool that will allocate at most capacity
// tile-sized buffers on demand.
func NewTexturePool(cfg Config, capacity int) *TexturePool {
	if capacity < 1 {
		panic("mosaic: texture pool capacity must be at least 1")
	}
	return &TexturePool{
		cfg:      cfg.withDefaults(),
		owners:   make(map[uint32]*Tile),
		painted:  make(map[uint32]bool),
		capacity: capacity,
	}
}

// Config returns the surface parameters the pool was built with.
func (p *TexturePool) Config() Config {
	return p.cfg
}

// BeginFrame advances the draw-pass counter. Call once per composited
// frame, before tiles record their draw counts via SetContents.
func (p *TexturePool) BeginFrame() uint64 {
	return p.frames.Add(1)
}

// FrameCount returns the current draw-pass counter.
func (p *TexturePool) FrameCount() uint64 {
	return p.frames.Load()
}

// Acquire leases a buffer to tile. It returns a free buffer if one exists,
// allocates while under capacity, and otherwise steals the lease of the
// least recently drawn other tile. The previous owner is notified through
// RemoveTexture after the table has been updated, so an in-flight repaint
// on the stolen buffer fails its reconciliation instead of corrupting the
// new owner's content. Returns nil when every buffer belongs to a tile
// drawn at least as recently as tile itself.
func (p *TexturePool) Acquire(tile *Tile) *TileTexture {
	tex, victim := p.reassign(tile)
	if victim != nil {
		victim.RemoveTexture(tex)
	}
	return tex
}

// reassign picks and re-tables a buffer under the pool lock, returning the
// texture and the owner it was taken from (nil if it was free).
func (p *TexturePool) reassign(tile *Tile) (*TileTexture, *Tile) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A free buffer first.
	for _, t := range p.textures {
		if p.owners[t.id] == nil && !t.discarded.Load() {
			p.setOwnerLocked(t.id, tile)
			return t, nil
		}
	}

	// Allocate while under capacity.
	if len(p.textures) < p.capacity {
		img := ebiten.NewImageWithOptions(
			image.Rect(0, 0, p.cfg.TileWidth, p.cfg.TileHeight),
			&ebiten.NewImageOptions{Unmanaged: true},
		)
		p.nextID++
		t := newTileTexture(p.nextID, p, img)
		p.textures = append(p.textures, t)
		p.setOwnerLocked(t.id, tile)
		return t, nil
	}

	// Steal from the least recently drawn tile. Never steal the caller's
	// own leases, and never from a tile drawn as recently as the caller.
	var (
		tex    *TileTexture
		victim *Tile
		oldest uint64
	)
	for _, t := range p.textures {
		owner := p.owners[t.id]
		if owner == nil || owner == tile || t.discarded.Load() {
			continue
		}
		dc := owner.DrawCount()
		if dc >= tile.DrawCount() {
			continue
		}
		if tex == nil || dc < oldest {
			tex, victim, oldest = t, owner, dc
		}
	}
	if tex == nil {
		return nil, nil
	}
	p.setOwnerLocked(tex.id, tile)
	return tex, victim
}

// setOwnerLocked re-tables a lease. The painted bit drops with the old
// lease: content committed for the previous owner is never displayable for
// the new one.
func (p *TexturePool) setOwnerLocked(id uint32, tile *Tile) {
	if tile == nil {
		delete(p.owners, id)
	} else {
		p.owners[id] = tile
	}
	p.painted[id] = false
}

// release clears the lease if owner still holds it.
func (p *TexturePool) release(t *TileTexture, owner *Tile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owners[t.id] == owner {
		p.setOwnerLocked(t.id, nil)
	}
}

// ownerOf returns the current lease holder, or nil.
func (p *TexturePool) ownerOf(id uint32) *Tile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owners[id]
}

// markPainted records that a repaint committed content for tile. No-op if
// the lease moved while the repaint was in flight.
func (p *TexturePool) markPainted(id uint32, tile *Tile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owners[id] == tile {
		p.painted[id] = true
	}
}

// readyFor reports whether the buffer holds displayable content for tile.
func (p *TexturePool) readyFor(id uint32, tile *Tile) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owners[id] == tile && p.painted[id]
}

// Clear tears the pool down: every buffer is discarded and deallocated, and
// former owners are notified so they drop stale handles. Intended for
// surface teardown, after which the pool allocates fresh buffers on demand.
func (p *TexturePool) Clear() {
	p.mu.Lock()
	dropped := make([]*TileTexture, len(p.textures))
	copy(dropped, p.textures)
	victims := make([]*Tile, len(p.textures))
	for i, t := range p.textures {
		victims[i] = p.owners[t.id]
		t.discarded.Store(true)
		p.setOwnerLocked(t.id, nil)
	}
	p.textures = p.textures[:0]
	p.mu.Unlock()

	for i, t := range dropped {
		if victims[i] != nil {
			victims[i].RemoveTexture(t)
		}
		t.img.Deallocate()
	}
}
