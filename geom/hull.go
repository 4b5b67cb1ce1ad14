package geom

import (
	convexhull "github.com/furstenheim/go-convex-hull-2d"
)

// ConvexHull returns the convex hull of every point across all polygons
// in ps, as a single closed counter-clockwise polygon. Used by
// OutsideBoundaryFunc to size the rectangle that bounds the comber's
// outside boundary.
func ConvexHull(ps PolygonSet) Polygon {
	var pts convexhull.Points
	for _, poly := range ps {
		for _, p := range poly {
			pts = append(pts, convexhull.Point{X: float64(p.X), Y: float64(p.Y)})
		}
	}
	if len(pts) == 0 {
		return nil
	}
	hull := convexhull.ConvexHull(pts)
	result := make(Polygon, 0, len(hull))
	for _, p := range hull {
		result = append(result, Point2D{X: Micrometer(p.X), Y: Micrometer(p.Y)})
	}
	return result
}
