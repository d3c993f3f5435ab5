package mosaic

import (
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// BufferInfo describes the pixel storage behind a TileTexture. It is
// returned by the producer/consumer lock calls so repaint decisions can be
// made against the buffer actually held, not the size the tile expects.
type BufferInfo struct {
	Width  int
	Height int
	Upload UploadMode
}

// TileTexture is a pooled GPU buffer leased to at most one tile at a time.
//
// The texture carries its own access mutex, separate from any tile lock:
// producers (repaint) and consumers (draw) lock the buffer itself before
// touching pixels. Ownership lives in the pool's table, not on the texture,
// and can be reassigned by the pool at any moment, so every user must
// re-validate ownership immediately after the lock call returns. A stale
// texture behaves like an empty one.
type TileTexture struct {
	id   uint32
	pool *TexturePool
	img  *ebiten.Image
	info BufferInfo

	// busy serializes pixel access between the repaint and draw actors.
	busy sync.Mutex

	// discarded is set when the pool drops the texture on teardown. Lock
	// calls on a discarded texture fail.
	discarded atomic.Bool
}

// newTileTexture wraps an image as a pool-managed texture.
func newTileTexture(id uint32, pool *TexturePool, img *ebiten.Image) *TileTexture {
	b := img.Bounds()
	return &TileTexture{
		id:   id,
		pool: pool,
		img:  img,
		info: BufferInfo{
			Width:  b.Dx(),
			Height: b.Dy(),
			Upload: pool.cfg.Upload,
		},
	}
}

// Image returns the backing GPU image. Only meaningful between a successful
// lock call and the matching release.
func (t *TileTexture) Image() *ebiten.Image {
	return t.img
}

// Size returns the pixel dimensions of the backing buffer.
func (t *TileTexture) Size() (w, h int) {
	return t.info.Width, t.info.Height
}

// ProducerLock acquires repaint access to the buffer. It returns nil if the
// texture has been discarded; the caller must still call ProducerRelease.
func (t *TileTexture) ProducerLock() *BufferInfo {
	t.busy.Lock()
	if t.discarded.Load() {
		return nil
	}
	return &t.info
}

// ProducerRelease ends repaint access.
func (t *TileTexture) ProducerRelease() {
	t.busy.Unlock()
}

// ConsumerLock acquires draw access to the buffer. It returns nil if the
// texture has been discarded; the caller must still call ConsumerRelease.
func (t *TileTexture) ConsumerLock() *BufferInfo {
	t.busy.Lock()
	if t.discarded.Load() {
		return nil
	}
	return &t.info
}

// ConsumerRelease ends draw access.
func (t *TileTexture) ConsumerRelease() {
	t.busy.Unlock()
}

// Owner returns the tile currently holding the lease, or nil. The answer
// can be stale by the time it is used; treat it as a hint unless the
// texture's access lock is held.
func (t *TileTexture) Owner() *Tile {
	return t.pool.ownerOf(t.id)
}

// ReadyFor reports whether the buffer may be displayed for tile: the lease
// is still tile's and a repaint has committed content since the lease was
// granted.
func (t *TileTexture) ReadyFor(tile *Tile) bool {
	return t.pool.readyFor(t.id, tile)
}

// Release returns the lease to the pool if owner still holds it.
func (t *TileTexture) Release(owner *Tile) {
	t.pool.release(t, owner)
}
