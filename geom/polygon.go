package geom

// Polygon is an ordered sequence of points. It may be closed (an implicit
// edge from the last point back to the first) or open, depending on how
// the caller uses it; callers must track closedness out of band (see
// ExtrusionLine.Closed and pathorder.Path.Closed).
type Polygon []Point2D

// PolygonSet is an ordered sequence of polygons: either a multi-part
// region (outer polygon plus holes) or a set of independent polyline
// segments, depending on context.
type PolygonSet []Polygon

// Area2 returns twice the signed area of a closed polygon (shoelace
// formula). Positive for counter-clockwise winding.
func (p Polygon) Area2() int64 {
	if len(p) < 3 {
		return 0
	}
	var sum int64
	for i := range p {
		j := (i + 1) % len(p)
		sum += int64(p[i].X)*int64(p[j].Y) - int64(p[j].X)*int64(p[i].Y)
	}
	return sum
}

// CounterClockwise reports whether the closed polygon winds
// counter-clockwise (the convention used for outer walls; holes wind the
// opposite way).
func (p Polygon) CounterClockwise() bool {
	return p.Area2() > 0
}

// Length returns the total edge length of the polygon, treated as closed.
func (p Polygon) Length() Micrometer {
	return p.length(true)
}

// OpenLength returns the total edge length of the polygon, treated as an
// open polyline (no implicit closing edge).
func (p Polygon) OpenLength() Micrometer {
	return p.length(false)
}

func (p Polygon) length(closed bool) Micrometer {
	if len(p) < 2 {
		return 0
	}
	var total Micrometer
	for i := 1; i < len(p); i++ {
		total += p[i-1].Dist(p[i])
	}
	if closed {
		total += p[len(p)-1].Dist(p[0])
	}
	return total
}

// BoundingBox returns the min/max corners of the polygon's points.
func (p Polygon) BoundingBox() (min, max Point2D, ok bool) {
	if len(p) == 0 {
		return Point2D{}, Point2D{}, false
	}
	min, max = p[0], p[0]
	for _, pt := range p[1:] {
		if pt.X < min.X {
			min.X = pt.X
		}
		if pt.Y < min.Y {
			min.Y = pt.Y
		}
		if pt.X > max.X {
			max.X = pt.X
		}
		if pt.Y > max.Y {
			max.Y = pt.Y
		}
	}
	return min, max, true
}

// BoundingBox returns the bounding box across every polygon in the set.
func (ps PolygonSet) BoundingBox() (min, max Point2D, ok bool) {
	for _, poly := range ps {
		pmin, pmax, pok := poly.BoundingBox()
		if !pok {
			continue
		}
		if !ok {
			min, max, ok = pmin, pmax, true
			continue
		}
		if pmin.X < min.X {
			min.X = pmin.X
		}
		if pmin.Y < min.Y {
			min.Y = pmin.Y
		}
		if pmax.X > max.X {
			max.X = pmax.X
		}
		if pmax.Y > max.Y {
			max.Y = pmax.Y
		}
	}
	return min, max, ok
}

// PointInPolygon reports whether pt lies inside the closed polygon poly,
// using the standard even-odd ray-casting test. A point exactly on an
// edge may be reported either inside or outside, depending on the edge.
func PointInPolygon(pt Point2D, poly Polygon) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := range poly {
		pi, pj := poly[i], poly[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			xIntersect := float64(pj.X-pi.X)*float64(pt.Y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(pt.X) < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointInPolygonSet reports whether pt lies inside the region described
// by a part (outer polygon ps[0] plus holes ps[1:]), using even-odd
// semantics across all polygons in the set.
func PointInPolygonSet(pt Point2D, ps PolygonSet) bool {
	inside := false
	for _, poly := range ps {
		if PointInPolygon(pt, poly) {
			inside = !inside
		}
	}
	return inside
}

// ClosestPointOnPolygon returns the closest point to pt lying on the
// (closed) polygon's boundary, along with the index of the edge it was
// found on (the edge from poly[idx] to poly[(idx+1)%len(poly)]).
func ClosestPointOnPolygon(pt Point2D, poly Polygon) (closest Point2D, edgeIdx int, dist2 int64) {
	if len(poly) == 0 {
		return Point2D{}, -1, 0
	}
	best := int64(-1)
	bestIdx := 0
	var bestPt Point2D
	for i := range poly {
		j := (i + 1) % len(poly)
		c, d2 := ClosestPointOnSegment(pt, poly[i], poly[j])
		if best < 0 || d2 < best {
			best = d2
			bestPt = c
			bestIdx = i
		}
	}
	return bestPt, bestIdx, best
}
