package comb

import "github.com/aligator/goslice-pathplan/geom"

// part is one outer polygon plus the holes nested directly inside it —
// the "part" of §4.2 and the glossary. A travel move combs within a
// single part; crossing from one part to another requires going via
// the outside boundary or through air.
type part struct {
	outer geom.Polygon
	holes []geom.Polygon
}

// polygons returns every polygon (outer plus holes) belonging to the
// part, in the order they should be consulted for crossing detection.
func (p part) polygons() geom.PolygonSet {
	out := make(geom.PolygonSet, 0, 1+len(p.holes))
	out = append(out, p.outer)
	out = append(out, p.holes...)
	return out
}

func (p part) contains(pt geom.Point2D) bool {
	if !geom.PointInPolygon(pt, p.outer) {
		return false
	}
	for _, h := range p.holes {
		if geom.PointInPolygon(pt, h) {
			return false
		}
	}
	return true
}

// splitParts groups a polygon set into parts: every counter-clockwise
// (outer) polygon starts a part, and every clockwise (hole) polygon is
// assigned to the smallest-area outer polygon that contains one of its
// vertices. Polygons with fewer than three vertices are skipped — they
// are degenerate and handled by the caller as GeometryDegenerate.
func splitParts(ps geom.PolygonSet) []part {
	var outers []geom.Polygon
	var holes []geom.Polygon
	for _, poly := range ps {
		if len(poly) < 3 {
			continue
		}
		if poly.CounterClockwise() {
			outers = append(outers, poly)
		} else {
			holes = append(holes, poly)
		}
	}

	parts := make([]part, len(outers))
	for i, o := range outers {
		parts[i] = part{outer: o}
	}

	for _, h := range holes {
		best := -1
		var bestArea int64 = -1
		for i, o := range outers {
			if !geom.PointInPolygon(h[0], o) {
				continue
			}
			area := o.Area2()
			if area < 0 {
				area = -area
			}
			if best == -1 || area < bestArea {
				best = i
				bestArea = area
			}
		}
		if best >= 0 {
			parts[best].holes = append(parts[best].holes, h)
		}
	}
	return parts
}

// partContaining returns the index of the part containing pt, or -1.
func partContaining(parts []part, pt geom.Point2D) int {
	for i, p := range parts {
		if p.contains(pt) {
			return i
		}
	}
	return -1
}
