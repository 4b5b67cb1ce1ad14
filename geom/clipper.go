package geom

import (
	clipper "github.com/aligator/go.clipper"
)

// clipperPoint converts a Point2D to the representation used by the
// external clipper library.
func clipperPoint(p Point2D) *clipper.IntPoint {
	return &clipper.IntPoint{X: clipper.CInt(p.X), Y: clipper.CInt(p.Y)}
}

func clipperPath(p Polygon) clipper.Path {
	path := make(clipper.Path, 0, len(p))
	for _, pt := range p {
		path = append(path, clipperPoint(pt))
	}
	return path
}

func clipperPaths(ps PolygonSet) clipper.Paths {
	paths := make(clipper.Paths, 0, len(ps))
	for _, p := range ps {
		paths = append(paths, clipperPath(p))
	}
	return paths
}

func microPoint(p *clipper.IntPoint) Point2D {
	return Point2D{X: Micrometer(p.X), Y: Micrometer(p.Y)}
}

func microPath(p clipper.Path) Polygon {
	poly := make(Polygon, 0, len(p))
	for _, pt := range p {
		poly = append(poly, microPoint(pt))
	}
	return poly
}

func polyTreeToPolygonSet(tree *clipper.PolyTree) PolygonSet {
	var result PolygonSet
	var walk func(nodes []*clipper.PolyNode)
	walk = func(nodes []*clipper.PolyNode) {
		for _, n := range nodes {
			result = append(result, microPath(n.Contour()))
			walk(n.Childs())
		}
	}
	walk(tree.Childs())
	return result
}

// BoundaryUnion returns the union of every polygon in ps as a new,
// possibly smaller, polygon set. OutsideBoundaryFunc does not call it:
// it subtracts the parts from the bounding rectangle directly with
// BoundaryDifference.
func BoundaryUnion(ps PolygonSet) (PolygonSet, bool) {
	if len(ps) == 0 {
		return nil, true
	}
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(clipperPaths(ps), clipper.PtSubject, true)
	tree, ok := c.Execute2(clipper.CtUnion, clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return nil, false
	}
	return polyTreeToPolygonSet(tree), true
}

// BoundaryDifference returns subject minus clip.
func BoundaryDifference(subject, clip PolygonSet) (PolygonSet, bool) {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(clipperPaths(subject), clipper.PtSubject, true)
	c.AddPaths(clipperPaths(clip), clipper.PtClip, true)
	tree, ok := c.Execute2(clipper.CtDifference, clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return nil, false
	}
	return polyTreeToPolygonSet(tree), true
}

// RectanglePolygon returns the axis-aligned rectangle [min, max] as a
// counter-clockwise closed polygon.
func RectanglePolygon(min, max Point2D) Polygon {
	return Polygon{
		{X: min.X, Y: min.Y},
		{X: max.X, Y: min.Y},
		{X: max.X, Y: max.Y},
		{X: min.X, Y: max.Y},
	}
}
