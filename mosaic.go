package mosaic

// TileCoord identifies a tile by its grid position. Tiles on the same
// surface share a scale factor, so the coordinate pair is enough to key
// texture leases in the pool.
type TileCoord struct {
	X, Y int
}

// InvalidCoord marks a tile that has not been bound to grid content yet.
// A tile with this coordinate never draws.
var InvalidCoord = TileCoord{-1, -1}

// Valid reports whether the coordinate refers to a real grid cell.
func (c TileCoord) Valid() bool {
	return c.X >= 0 && c.Y >= 0
}

// Rect is an axis-aligned rectangle in screen space. The coordinate system
// has its origin at the top-left, with Y increasing downward. Used for draw
// destinations; dirty regions use integer image.Rectangle in content space.
type Rect struct {
	X, Y, Width, Height float64
}

// Empty reports whether the rectangle encloses no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// BufferMode selects how many repaint slots a tile cycles through.
type BufferMode uint8

const (
	// SingleBuffered tiles keep one dirty-area slot. Used when the texture
	// backend presents in place and a second staging slot buys nothing.
	SingleBuffered BufferMode = iota
	// DoubleBuffered tiles keep two dirty-area slots, one per in-flight
	// buffer, so a repaint can land while the previous one is still queued
	// for swap.
	DoubleBuffered
)

// slots returns the slot count for the mode.
func (m BufferMode) slots() int {
	if m == DoubleBuffered {
		return 2
	}
	return 1
}

// UploadMode describes what granularity of update the texture backend
// supports.
type UploadMode uint8

const (
	// UploadPartial backends accept sub-rectangle updates, so small dirty
	// regions repaint only the pixels they touch.
	UploadPartial UploadMode = iota
	// UploadWhole backends replace the entire buffer on every update. Any
	// dirty region, however small, escalates to a full-tile repaint.
	UploadWhole
)

// Config fixes the per-surface parameters shared by a pool and its tiles.
// All fields are construction-time; changing buffering or upload behavior
// at runtime is not supported.
type Config struct {
	// TileWidth and TileHeight are the pixel dimensions of every tile
	// texture the pool allocates.
	TileWidth  int
	TileHeight int

	// Buffering selects single or double dirty-slot cycling.
	Buffering BufferMode

	// Upload declares the backend's update granularity.
	Upload UploadMode
}

// withDefaults fills zero dimensions with the standard tile size.
func (c Config) withDefaults() Config {
	if c.TileWidth <= 0 {
		c.TileWidth = 256
	}
	if c.TileHeight <= 0 {
		c.TileHeight = 256
	}
	return c
}
