package mosaic

import "image"

// Region is a set of integer rectangles in content space, representing the
// area of a tile whose cached pixels are stale. Rectangles in the set may
// overlap; the region is their union. The zero value is an empty region.
//
// A Region is not safe for concurrent use on its own; tiles guard theirs
// with the per-tile lock.
type Region struct {
	rects []image.Rectangle
}

// Empty reports whether the region covers no area.
func (r *Region) Empty() bool {
	return len(r.rects) == 0
}

// Clear removes all rectangles, keeping capacity for reuse.
func (r *Region) Clear() {
	r.rects = r.rects[:0]
}

// Rects returns the rectangles making up the region. The slice aliases
// internal storage and must not be retained across mutations.
func (r *Region) Rects() []image.Rectangle {
	return r.rects
}

// Bounds returns the smallest rectangle containing the whole region.
func (r *Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, rc := range r.rects {
		b = b.Union(rc)
	}
	return b
}

// Clone returns an independent copy of the region.
func (r *Region) Clone() Region {
	var c Region
	if len(r.rects) > 0 {
		c.rects = append(make([]image.Rectangle, 0, len(r.rects)), r.rects...)
	}
	return c
}

// Union adds rect to the region. Degenerate rectangles are ignored.
// Rectangles already covered by a single existing member are dropped, and
// existing members swallowed by rect are removed, keeping the set from
// growing on repeated identical invalidations.
func (r *Region) Union(rect image.Rectangle) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	for _, rc := range r.rects {
		if rect.In(rc) {
			return
		}
	}
	keep := r.rects[:0]
	for _, rc := range r.rects {
		if !rc.In(rect) {
			keep = append(keep, rc)
		}
	}
	r.rects = append(keep, rect)
}

// Contains reports whether the point (x, y) lies inside the region.
func (r *Region) Contains(x, y int) bool {
	p := image.Pt(x, y)
	for _, rc := range r.rects {
		if p.In(rc) {
			return true
		}
	}
	return false
}

// Intersects reports whether the region overlaps rect.
func (r *Region) Intersects(rect image.Rectangle) bool {
	for _, rc := range r.rects {
		if rc.Overlaps(rect) {
			return true
		}
	}
	return false
}

// SubtractRect removes rect's area from the region. Each member rectangle
// that overlaps rect is split into at most four fragments covering the
// remainder.
func (r *Region) SubtractRect(rect image.Rectangle) {
	rect = rect.Canon()
	if rect.Empty() || len(r.rects) == 0 {
		return
	}
	out := make([]image.Rectangle, 0, len(r.rects))
	for _, rc := range r.rects {
		out = appendDifference(out, rc, rect)
	}
	r.rects = out
}

// Subtract removes every rectangle of other from the region.
func (r *Region) Subtract(other *Region) {
	for _, rc := range other.rects {
		r.SubtractRect(rc)
	}
}

// appendDifference appends the parts of a not covered by b to dst.
// The fragments are disjoint: top and bottom bands run the full width of a,
// left and right bands fill the middle.
func appendDifference(dst []image.Rectangle, a, b image.Rectangle) []image.Rectangle {
	in := a.Intersect(b)
	if in.Empty() {
		return append(dst, a)
	}
	if a.In(b) {
		return dst
	}
	if in.Min.Y > a.Min.Y { // top band
		dst = append(dst, image.Rect(a.Min.X, a.Min.Y, a.Max.X, in.Min.Y))
	}
	if in.Max.Y < a.Max.Y { // bottom band
		dst = append(dst, image.Rect(a.Min.X, in.Max.Y, a.Max.X, a.Max.Y))
	}
	if in.Min.X > a.Min.X { // left band
		dst = append(dst, image.Rect(a.Min.X, in.Min.Y, in.Min.X, in.Max.Y))
	}
	if in.Max.X < a.Max.X { // right band
		dst = append(dst, image.Rect(in.Max.X, in.Min.Y, a.Max.X, in.Max.Y))
	}
	return dst
}
