package mosaic

import (
	"testing"
)

func testConfig() Config {
	return Config{TileWidth: 256, TileHeight: 256, Buffering: SingleBuffered}
}

// --- Acquire / Release ---

func TestPoolAcquireAllocatesUpToCapacity(t *testing.T) {
	pool := NewTexturePool(testConfig(), 2)
	tile := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)

	t1 := pool.Acquire(tile)
	t2 := pool.Acquire(tile)
	if t1 == nil || t2 == nil {
		t.Fatal("expected two allocations under capacity")
	}
	if t1 == t2 {
		t.Error("expected distinct textures")
	}
}

func TestPoolAcquireReusesFreedTexture(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	tile := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)

	tex := pool.Acquire(tile)
	if tex == nil {
		t.Fatal("expected a texture")
	}
	tex.Release(tile)

	again := pool.Acquire(tile)
	if again != tex {
		t.Error("expected the freed texture to be reused")
	}
}

func TestPoolAcquireSizedToConfig(t *testing.T) {
	pool := NewTexturePool(Config{TileWidth: 64, TileHeight: 32}, 1)
	tile := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)
	tex := pool.Acquire(tile)
	if w, h := tex.Size(); w != 64 || h != 32 {
		t.Errorf("texture size = %dx%d, want 64x32", w, h)
	}
}

func TestPoolReleaseByNonOwnerIgnored(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	tileA := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)
	tileB := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)

	tex := pool.Acquire(tileA)
	tex.Release(tileB)
	if tex.Owner() != tileA {
		t.Error("release by a non-owner should not clear the lease")
	}
}

// --- Stealing ---

func TestPoolStealsFromLeastRecentlyDrawn(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	r := &recordingRenderer{}
	c := &recordingCompositor{}
	tileA := NewTile(pool, r, c, false)
	tileB := NewTile(pool, r, c, false)

	pool.BeginFrame()
	tileA.SetContents(&recordingPainter{}, TileCoord{0, 0}, 1)
	tileA.ReserveTexture()
	texA := tileA.back
	if texA == nil {
		t.Fatal("tileA should hold a back buffer")
	}

	pool.BeginFrame()
	tileB.SetContents(&recordingPainter{}, TileCoord{1, 0}, 1)
	stolen := pool.Acquire(tileB)

	if stolen != texA {
		t.Fatal("expected tileB to steal tileA's texture")
	}
	if stolen.Owner() != tileB {
		t.Error("ownership table should point at tileB")
	}
	if tileA.back != nil {
		t.Error("tileA should have been notified and dropped its back buffer")
	}
}

func TestPoolNeverStealsFromEqualOrNewerTiles(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	r := &recordingRenderer{}
	c := &recordingCompositor{}
	tileA := NewTile(pool, r, c, false)
	tileB := NewTile(pool, r, c, false)

	pool.BeginFrame()
	tileA.SetContents(&recordingPainter{}, TileCoord{0, 0}, 1)
	tileB.SetContents(&recordingPainter{}, TileCoord{1, 0}, 1)
	tileA.ReserveTexture()

	if got := pool.Acquire(tileB); got != nil {
		t.Error("equal recency should not permit a steal")
	}
}

func TestPoolNeverStealsOwnLease(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	tile := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)

	pool.BeginFrame()
	tex := pool.Acquire(tile)
	if tex == nil {
		t.Fatal("expected a texture")
	}
	pool.BeginFrame()
	tile.SetContents(&recordingPainter{}, TileCoord{0, 0}, 1)
	if got := pool.Acquire(tile); got != nil {
		t.Error("a tile should not steal its own lease")
	}
}

func TestPoolStealClearsFrontAndMarksDirty(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	r := &recordingRenderer{}
	c := &recordingCompositor{}
	tileA := NewTile(pool, r, c, false)
	tileB := NewTile(pool, r, c, false)

	pool.BeginFrame()
	tileA.SetContents(&recordingPainter{}, TileCoord{0, 0}, 1)
	tileA.ReserveTexture()
	tileA.PaintBitmap()
	tileA.SwapTexturesIfNeeded()
	if tileA.front == nil {
		t.Fatal("tileA should display a front buffer")
	}

	pool.BeginFrame()
	tileB.SetContents(&recordingPainter{}, TileCoord{1, 0}, 1)
	if pool.Acquire(tileB) == nil {
		t.Fatal("expected steal to succeed")
	}
	if tileA.front != nil {
		t.Error("losing the front lease should clear it")
	}
	if !tileA.IsDirty() {
		t.Error("losing the front lease should mark the tile dirty")
	}
}

// --- Ownership / readiness table ---

func TestPoolReadyForRequiresCommit(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	tile := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)

	tex := pool.Acquire(tile)
	if tex.ReadyFor(tile) {
		t.Error("freshly leased texture should not be ready")
	}
	pool.markPainted(tex.id, tile)
	if !tex.ReadyFor(tile) {
		t.Error("texture should be ready after a committed paint")
	}
}

func TestPoolReassignmentDropsPaintedBit(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	r := &recordingRenderer{}
	c := &recordingCompositor{}
	tileA := NewTile(pool, r, c, false)
	tileB := NewTile(pool, r, c, false)

	pool.BeginFrame()
	tileA.SetContents(&recordingPainter{}, TileCoord{0, 0}, 1)
	tex := pool.Acquire(tileA)
	pool.markPainted(tex.id, tileA)

	pool.BeginFrame()
	tileB.SetContents(&recordingPainter{}, TileCoord{1, 0}, 1)
	if pool.Acquire(tileB) != tex {
		t.Fatal("expected steal")
	}
	if tex.ReadyFor(tileB) {
		t.Error("content committed for the old owner must not be ready for the new one")
	}
	if tex.ReadyFor(tileA) {
		t.Error("old owner lost the lease and can never be ready")
	}
}

func TestPoolMarkPaintedIgnoresStaleOwner(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	r := &recordingRenderer{}
	c := &recordingCompositor{}
	tileA := NewTile(pool, r, c, false)
	tileB := NewTile(pool, r, c, false)

	tex := pool.Acquire(tileA)
	tex.Release(tileA)
	if pool.Acquire(tileB) != tex {
		t.Fatal("expected reuse")
	}
	pool.markPainted(tex.id, tileA) // stale commit attempt
	if tex.ReadyFor(tileB) {
		t.Error("a stale owner's commit must not mark the new lease ready")
	}
}

// --- Frame counter ---

func TestPoolFrameCounter(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	if pool.FrameCount() != 0 {
		t.Error("frame count should start at zero")
	}
	pool.BeginFrame()
	pool.BeginFrame()
	if got := pool.FrameCount(); got != 2 {
		t.Errorf("FrameCount() = %d, want 2", got)
	}
}

// --- Clear ---

func TestPoolClearDiscardsAndNotifies(t *testing.T) {
	pool := NewTexturePool(testConfig(), 1)
	tile := NewTile(pool, &recordingRenderer{}, &recordingCompositor{}, false)

	tile.ReserveTexture()
	tex := tile.back
	if tex == nil {
		t.Fatal("expected a back buffer")
	}
	pool.Clear()

	if tile.back != nil {
		t.Error("teardown should notify the owner")
	}
	if info := tex.ProducerLock(); info != nil {
		t.Error("locking a discarded texture should fail")
	}
	tex.ProducerRelease()
}

func TestPoolCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	NewTexturePool(testConfig(), 0)
}
