// Package mosaic is a per-tile texture cache and repaint/draw
// synchronization engine for tiled 2D compositors built on [Ebitengine].
//
// A [Tile] caches one fixed-size cell of a large scrollable or zoomable
// surface as GPU textures leased from a shared [TexturePool]. Each tile
// tracks which sub-region of its content is stale, owns up to two buffer
// leases (a displayed front buffer and a back buffer being repainted) and
// coordinates a background repaint actor with a foreground draw actor so
// that neither blocks on slow work while holding shared state.
//
// # Actors
//
// Three independently scheduled actors touch every tile:
//
//   - The repaint actor calls [Tile.PaintBitmap]. State is snapshotted
//     under the tile lock, content is rendered with no lock held, and the
//     result is conditionally committed against freshly observed state.
//   - The draw actor calls [Tile.SwapTexturesIfNeeded] and [Tile.Draw]
//     each frame, promoting committed back buffers and issuing one draw
//     call per displayable tile.
//   - The pool reclaims idle leases at any time, notifying the losing tile
//     through [Tile.RemoveTexture].
//
// Every cross-thread hazard resolves the same way: operations re-validate
// ownership after acquiring a buffer's access lock, and anything stale
// degrades to "not ready, mark dirty, retry later" rather than an error.
//
// # Typical loop
//
// An upstream grid decides which tiles are visible and drives them:
//
//	tile.SetContents(painter, mosaic.TileCoord{X: x, Y: y}, scale)
//	tile.ReserveTexture()
//	// on the repaint goroutine:
//	tile.PaintBitmap()
//	// on the draw goroutine, each frame:
//	pool.BeginFrame()
//	tile.SwapTexturesIfNeeded()
//	tile.Draw(1.0, dst, scale)
//
// Content rasterization and draw-call issuance stay outside the engine,
// behind the [Painter], [Renderer], and [Compositor] boundaries;
// [RasterRenderer] and [ScreenCompositor] are the stock Ebitengine
// implementations.
//
// [Ebitengine]: https://ebitengine.org
package mosaic
