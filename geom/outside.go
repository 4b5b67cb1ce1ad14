package geom

// OutsideBoundaryFunc returns the outside boundary described by §4.2 step 3:
// the convex hull of every part, expanded by margin into a closed
// rectangle, minus the parts themselves. It is meant to be passed as the
// comber's outsideFn, built lazily once per layer from whatever inside
// boundary the caller already has on hand.
func OutsideBoundaryFunc(parts PolygonSet, margin Micrometer) func() (PolygonSet, bool) {
	return func() (PolygonSet, bool) {
		hull := ConvexHull(parts)
		if len(hull) == 0 {
			return nil, false
		}
		min, max, ok := PolygonSet{hull}.BoundingBox()
		if !ok {
			return nil, false
		}
		min = Point2D{X: min.X - margin, Y: min.Y - margin}
		max = Point2D{X: max.X + margin, Y: max.Y + margin}
		bounds := PolygonSet{RectanglePolygon(min, max)}
		return BoundaryDifference(bounds, parts)
	}
}
