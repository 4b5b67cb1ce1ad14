package pathorder

import (
	"testing"

	"github.com/aligator/goslice-pathplan/geom"
)

// Scenario 4: seam placement at the sharpest concave corner.
func TestOrderSharpestCornerInner(t *testing.T) {
	poly := geom.Polygon{
		{X: 0, Y: 0},
		{X: 1000, Y: 0},
		{X: 1000, Y: 10},
		{X: 500, Y: 10},
		{X: 500, Y: 1000},
		{X: 0, Y: 1000},
	}
	o := &Optimizer{
		Paths: []Path{{Points: poly, Closed: true}},
		Start: geom.Point2D{X: 0, Y: 0},
		Seam:  SeamPolicy{Kind: SharpestCorner, Corner: CornerInner},
	}
	res := o.Order()
	if len(res.Order) != 1 {
		t.Fatalf("expected one path in the order, got %d", len(res.Order))
	}
	got := poly[res.StartIndex[0]]
	want := geom.Point2D{X: 500, Y: 10}
	if got != want {
		t.Errorf("expected seam at %v, got %v (index %d)", want, got, res.StartIndex[0])
	}
}

// Invariant 7: every (a, b) in the precedence relation is respected by
// the returned order.
func TestOrderRespectsPrecedence(t *testing.T) {
	paths := []Path{
		{Points: geom.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, Closed: true},
		{Points: geom.Polygon{{X: 100, Y: 0}, {X: 110, Y: 0}, {X: 110, Y: 10}}, Closed: true},
		{Points: geom.Polygon{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 15}}, Closed: true},
	}
	prec := NewPrecedence()
	prec.Add(1, 0) // path 1 must precede path 0
	prec.Add(0, 2) // path 0 must precede path 2

	o := &Optimizer{Paths: paths, Precedence: prec, Start: geom.Point2D{X: 100, Y: 0}}
	res := o.Order()

	indexOf := func(p int) int {
		for i, v := range res.Order {
			if v == p {
				return i
			}
		}
		return -1
	}
	if indexOf(1) >= indexOf(0) {
		t.Errorf("expected path 1 before path 0 in %v", res.Order)
	}
	if indexOf(0) >= indexOf(2) {
		t.Errorf("expected path 0 before path 2 in %v", res.Order)
	}
}

func TestOrderOpenPolylineStartsAtClosestEndpoint(t *testing.T) {
	line := geom.Polygon{{X: 1000, Y: 0}, {X: 0, Y: 0}}
	o := &Optimizer{
		Paths: []Path{{Points: line, Closed: false}},
		Start: geom.Point2D{X: 0, Y: 0},
	}
	res := o.Order()
	if res.StartEndpoint[0] != 1 {
		t.Errorf("expected the closer endpoint (index 1) to be chosen, got %d", res.StartEndpoint[0])
	}
	if !res.Reversed[0] {
		t.Errorf("expected Reversed=true when starting from the line's last point")
	}
}
