package comb

import (
	"testing"

	"github.com/aligator/goslice-pathplan/geom"
)

func square(minX, minY, maxX, maxY geom.Micrometer) geom.Polygon {
	return geom.Polygon{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

func defaultPolicy() Policy {
	return Policy{
		MaxMoveInsideDistance:        200,
		RetractionCombingMaxDistance: 1_500_000,
		AllowAirWithoutRetract:       true,
		ZHop:                         ZHopAlways,
	}
}

// Scenario 2: combed travel inside a single square stays within it and
// does not retract.
func TestCalcCombedTravelInsideSquare(t *testing.T) {
	boundary := geom.PolygonSet{square(0, 0, 10000, 10000)}
	c := New(boundary, boundary, 100, nil)

	start := geom.Point2D{X: 1000, Y: 1000}
	end := geom.Point2D{X: 9000, Y: 9000}
	res := c.Calc(start, end, defaultPolicy())

	if res.Retract {
		t.Fatalf("expected no retraction combing inside one square, got Retract=true")
	}
	if len(res.Paths) == 0 {
		t.Fatalf("expected at least one comb path")
	}
	first := res.Paths[0].Points
	last := res.Paths[len(res.Paths)-1].Points
	if first[0] != start {
		t.Errorf("expected path to start at %v, got %v", start, first[0])
	}
	if last[len(last)-1] != end {
		t.Errorf("expected path to end at %v, got %v", end, last[len(last)-1])
	}
}

// Scenario 3: travel between two separated square parts retracts and,
// with an "always hop" policy, Z-hops.
func TestCalcTravelBetweenSeparatedParts(t *testing.T) {
	partA := square(0, 0, 1000, 1000)
	partB := square(5000, 0, 6000, 1000)
	boundary := geom.PolygonSet{partA, partB}
	c := New(boundary, boundary, 100, nil)

	start := geom.Point2D{X: 500, Y: 500}
	end := geom.Point2D{X: 5500, Y: 500}
	res := c.Calc(start, end, defaultPolicy())

	if len(res.Paths) < 3 {
		t.Fatalf("expected at least 3 paths for a cross-part travel, got %d", len(res.Paths))
	}
	if !res.Retract {
		t.Errorf("expected Retract=true for a different-part travel")
	}
	if !res.PerformZHop {
		t.Errorf("expected PerformZHop=true under an always-hop policy when retracting")
	}
}

// Scenario 1 (as adapted to this package): when there is no inside
// boundary at all, Calc falls back to a single straight segment marked
// as having gone via air.
func TestCalcNoBoundaryFallsBackToStraightSegment(t *testing.T) {
	c := New(nil, nil, 100, nil)
	start := geom.Point2D{X: 0, Y: 0}
	end := geom.Point2D{X: 100, Y: 0}
	res := c.Calc(start, end, defaultPolicy())

	if len(res.Paths) != 1 {
		t.Fatalf("expected exactly one path, got %d", len(res.Paths))
	}
	if !res.ViaAir {
		t.Errorf("expected ViaAir=true with no boundary at all")
	}
	pts := res.Paths[0].Points
	if pts[0] != start || pts[len(pts)-1] != end {
		t.Errorf("expected straight segment %v -> %v, got %v", start, end, pts)
	}
}

func TestSplitPartsAssignsHoleToEnclosingOuter(t *testing.T) {
	outer := square(0, 0, 10000, 10000)
	// A clockwise hole (reverse winding of a CCW square) nested inside.
	hole := geom.Polygon{
		{X: 4000, Y: 4000},
		{X: 4000, Y: 6000},
		{X: 6000, Y: 6000},
		{X: 6000, Y: 4000},
	}
	parts := splitParts(geom.PolygonSet{outer, hole})
	if len(parts) != 1 {
		t.Fatalf("expected exactly one part, got %d", len(parts))
	}
	if len(parts[0].holes) != 1 {
		t.Fatalf("expected the hole to be assigned to the outer polygon's part, got %d holes", len(parts[0].holes))
	}

	inHole := geom.Point2D{X: 5000, Y: 5000}
	if parts[0].contains(inHole) {
		t.Errorf("expected point inside the hole to be excluded from the part")
	}
}
