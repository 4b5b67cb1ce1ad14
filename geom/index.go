package geom

// PointIndex is a point-indexed multimap (K=GridCell -> V=element),
// inserting each element under the single cell containing its position.
// It backs radius queries such as the inset-order optimiser's search for
// nearby junctions of adjacent walls.
type PointIndex[V any] struct {
	grid  Grid
	cells map[GridCell][]pointEntry[V]
}

type pointEntry[V any] struct {
	pos   Point2D
	value V
}

// NewPointIndex returns an empty point index with the given cell size.
func NewPointIndex[V any](cellSize Micrometer) *PointIndex[V] {
	return &PointIndex[V]{grid: NewGrid(cellSize), cells: map[GridCell][]pointEntry[V]{}}
}

// Insert adds value at position pos. O(1) amortised.
func (idx *PointIndex[V]) Insert(pos Point2D, value V) {
	cell := idx.grid.CellOf(pos)
	idx.cells[cell] = append(idx.cells[cell], pointEntry[V]{pos: pos, value: value})
}

// GetNearby enumerates every element within radius of p, calling fn for
// each. Visits at most (ceil(2r/s)+1)^2 cells.
func (idx *PointIndex[V]) GetNearby(p Point2D, radius Micrometer, fn func(pos Point2D, value V) bool) {
	idx.grid.CellsNearby(p, radius, func(cell GridCell) bool {
		for _, e := range idx.cells[cell] {
			if e.pos.Dist2(p) <= int64(radius)*int64(radius) {
				if !fn(e.pos, e.value) {
					return false
				}
			}
		}
		return true
	})
}

// GetAnyWithin returns the first element found within radius of p, or
// false if none exists. Returns on first hit.
func (idx *PointIndex[V]) GetAnyWithin(p Point2D, radius Micrometer) (pos Point2D, value V, ok bool) {
	idx.GetNearby(p, radius, func(foundPos Point2D, foundVal V) bool {
		pos, value, ok = foundPos, foundVal, true
		return false
	})
	return
}

// GetNearest returns the closest element to p within radius, or false if
// none exists. O(k) in the number of candidates visited.
func (idx *PointIndex[V]) GetNearest(p Point2D, radius Micrometer) (pos Point2D, value V, ok bool) {
	best := int64(-1)
	idx.GetNearby(p, radius, func(foundPos Point2D, foundVal V) bool {
		d2 := foundPos.Dist2(p)
		if best < 0 || d2 < best {
			best = d2
			pos, value, ok = foundPos, foundVal, true
		}
		return true
	})
	return
}

// LineElement is one segment stored in a LineIndex: the segment's
// endpoints plus an opaque payload identifying its source (e.g. a
// polygon/edge index pair).
type LineElement[V any] struct {
	A, B  Point2D
	Value V
}

// LineIndex is a line-indexed multimap. An element representing a
// segment is inserted into every grid cell the segment visibly passes
// through (Grid.CellsOnLine), so "process along line" queries only need
// to look at cells actually touched by the query line.
type LineIndex[V any] struct {
	grid  Grid
	cells map[GridCell][]LineElement[V]
}

// NewLineIndex returns an empty line index with the given cell size.
func NewLineIndex[V any](cellSize Micrometer) *LineIndex[V] {
	return &LineIndex[V]{grid: NewGrid(cellSize), cells: map[GridCell][]LineElement[V]{}}
}

// Insert adds the segment [a, b] with the given payload into every cell
// it passes through.
func (idx *LineIndex[V]) Insert(a, b Point2D, value V) {
	elem := LineElement[V]{A: a, B: b, Value: value}
	idx.grid.CellsOnLine(a, b, func(cell GridCell) bool {
		idx.cells[cell] = append(idx.cells[cell], elem)
		return true
	})
}

// ProcessAlongLine visits every cell that the query segment [a, b]
// touches and calls fn with each element stored there. Elements may be
// revisited if they span multiple cells the query also touches; callers
// that need each element exactly once should deduplicate by Value.
func (idx *LineIndex[V]) ProcessAlongLine(a, b Point2D, fn func(LineElement[V]) bool) {
	idx.grid.CellsOnLine(a, b, func(cell GridCell) bool {
		for _, e := range idx.cells[cell] {
			if !fn(e) {
				return false
			}
		}
		return true
	})
}

// FirstCrossing walks every cell of segment [a, b] and returns the stored
// segment whose crossing has the smallest parameter t along [a, b], along
// with the crossing point. This is the polygon-crossing
// primitive of spec §4.2.1: "does AB cross any edge of P?"
func (idx *LineIndex[V]) FirstCrossing(a, b Point2D) (point Point2D, value V, ok bool) {
	bestT := 2.0 // > any valid t in [0,1]
	seen := map[*LineElement[V]]struct{}{}
	idx.grid.CellsOnLine(a, b, func(cell GridCell) bool {
		entries := idx.cells[cell]
		for i := range entries {
			e := &entries[i]
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			if cp, crosses := SegmentsIntersect(a, b, e.A, e.B); crosses {
				t := paramAlong(a, b, cp)
				if t < bestT {
					bestT = t
					point, value, ok = cp, e.Value, true
				}
			}
		}
		return true
	})
	return
}

func paramAlong(a, b, p Point2D) float64 {
	ab := b.Sub(a)
	ap := p.Sub(a)
	len2 := ab.Size2()
	if len2 == 0 {
		return 0
	}
	return float64(ap.Dot(ab)) / float64(len2)
}

// InclusivePointGrid stores (point, value) records. It is a PointIndex
// under another name: each record is keyed under the single cell that
// contains its point, and GetNearby filters candidates by distance. It
// is not used by the inset-order optimiser, which builds a PointIndex
// directly.
type InclusivePointGrid[V any] struct {
	*PointIndex[V]
}

// NewInclusivePointGrid returns an empty inclusive point grid with the
// given cell size; cellSize should be >= the largest radius queried, so
// a query only ever needs to inspect the point's own cell and its
// 8-neighbourhood.
func NewInclusivePointGrid[V any](cellSize Micrometer) *InclusivePointGrid[V] {
	return &InclusivePointGrid[V]{PointIndex: NewPointIndex[V](cellSize)}
}
