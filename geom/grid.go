package geom

// GridCell is an integer grid coordinate, as produced by Grid.CellOf.
type GridCell struct {
	X, Y int64
}

// Grid is the uniform square grid used by every spatial index variant in
// this package. It holds no data of its own, only cell geometry.
//
// Cells at coordinate zero span (-cellSize, cellSize) rather than
// [0, cellSize), because CellOf maps a coordinate to a cell by truncating
// integer division rather than a proper floor. This is a deliberate,
// preserved asymmetry (see spec §4.1 and §9): a correct floor-divide
// would need a branch on every hot-path lookup to handle negative
// coordinates, and the resulting extra work at the origin is not
// considered a correctness concern.
type Grid struct {
	cellSize Micrometer
}

// NewGrid returns a grid with the given cell size. cellSize must be > 0.
func NewGrid(cellSize Micrometer) Grid {
	if cellSize <= 0 {
		panic("geom: grid cell size must be positive")
	}
	return Grid{cellSize: cellSize}
}

// CellSize returns the configured cell size.
func (g Grid) CellSize() Micrometer {
	return g.cellSize
}

func (g Grid) toGridCoord(c Micrometer) int64 {
	return int64(c) / int64(g.cellSize)
}

func (g Grid) toLowerCoord(c int64) Micrometer {
	return Micrometer(c * int64(g.cellSize))
}

// CellOf returns the grid cell containing p.
func (g Grid) CellOf(p Point2D) GridCell {
	return GridCell{X: g.toGridCoord(p.X), Y: g.toGridCoord(p.Y)}
}

// LowerCorner returns the print-space coordinates of the corner of cell
// closest to the origin.
func (g Grid) LowerCorner(cell GridCell) Point2D {
	return Point2D{X: g.toLowerCoord(cell.X), Y: g.toLowerCoord(cell.Y)}
}

func nonzeroSign(z int64) int64 {
	if z >= 0 {
		return 1
	}
	return -1
}

// CellsNearby calls fn for every cell that might contain a point within
// radius of query. fn may be called for cells slightly further than
// radius (up to radius+cellSize); it is up to the caller to filter
// individual elements. Iteration stops early if fn returns false.
func (g Grid) CellsNearby(query Point2D, radius Micrometer, fn func(GridCell) bool) {
	min := g.CellOf(Point2D{X: query.X - radius, Y: query.Y - radius})
	max := g.CellOf(Point2D{X: query.X + radius, Y: query.Y + radius})
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			if !fn(GridCell{X: x, Y: y}) {
				return
			}
		}
	}
}

// CellsOnLine calls fn for every cell the segment [a, b] visibly passes
// through, using a Bresenham-style sweep that steps in y and advances x
// per row. Iteration stops early if fn returns false.
func (g Grid) CellsOnLine(a, b Point2D, fn func(GridCell) bool) {
	start, end := a, b
	if end.X < start.X {
		start, end = end, start
	}

	startCell := g.CellOf(start)
	endCell := g.CellOf(end)
	yDiff := int64(end.Y - start.Y)
	yDir := nonzeroSign(yDiff)

	xCellStart := startCell.X
	for cellY := startCell.Y; cellY*yDir <= endCell.Y*yDir; cellY += yDir {
		nextYCoord := cellY
		if nonzeroSign(cellY) == yDir || cellY == 0 {
			nextYCoord += yDir
		}
		nearestNextY := g.toLowerCoord(nextYCoord)

		var xCellEnd int64
		if yDiff == 0 {
			xCellEnd = endCell.X
		} else {
			area := int64(end.X-start.X) * int64(nearestNextY-start.Y)
			correspondingX := int64(start.X) + area/yDiff
			adjust := int64(0)
			if correspondingX < 0 && area%yDiff != 0 {
				adjust = 1
			}
			xCellEnd = g.toGridCoord(Micrometer(correspondingX + adjust))
			if xCellEnd < startCell.X {
				xCellEnd = xCellStart
			}
		}

		for cellX := xCellStart; cellX <= xCellEnd; cellX++ {
			cell := GridCell{X: cellX, Y: cellY}
			if !fn(cell) {
				return
			}
			if cell == endCell {
				return
			}
		}
		xCellStart = xCellEnd
	}
}
