package insetorder

import (
	"testing"

	"github.com/aligator/goslice-pathplan/geom"
)

func wallAt(inset int, minXY, maxXY geom.Micrometer) geom.ExtrusionLine {
	w := geom.Micrometer(400)
	return geom.ExtrusionLine{
		InsetIndex: inset,
		Closed:     true,
		Junctions: []geom.ExtrusionJunction{
			{Point: geom.Point2D{X: minXY, Y: minXY}, Width: w, InsetIndex: inset},
			{Point: geom.Point2D{X: maxXY, Y: minXY}, Width: w, InsetIndex: inset},
			{Point: geom.Point2D{X: maxXY, Y: maxXY}, Width: w, InsetIndex: inset},
			{Point: geom.Point2D{X: minXY, Y: maxXY}, Width: w, InsetIndex: inset},
		},
	}
}

// Scenario 5: inset ordering, OutsideIn, by inset.
func TestByInsetOutsideInOrdersOutermostFirst(t *testing.T) {
	lines := []geom.ExtrusionLine{
		wallAt(0, 0, 10000),
		wallAt(1, 400, 9600),
		wallAt(2, 800, 9200),
	}
	prec := BuildPrecedence(lines, OutsideIn, true, false)
	if !prec.Closure(len(lines)).Before(0, 1) {
		t.Errorf("expected inset 0 to precede inset 1")
	}
	if !prec.Closure(len(lines)).Before(1, 2) {
		t.Errorf("expected inset 1 to precede inset 2")
	}
	if !prec.Closure(len(lines)).Before(0, 2) {
		t.Errorf("expected transitive closure: inset 0 precedes inset 2")
	}
}

func TestByInsetInsideOutReversesOrder(t *testing.T) {
	lines := []geom.ExtrusionLine{
		wallAt(0, 0, 10000),
		wallAt(1, 400, 9600),
	}
	prec := BuildPrecedence(lines, InsideOut, true, false)
	if !prec.Before(1, 0) {
		t.Errorf("expected inset 1 to precede inset 0 under InsideOut")
	}
}

func TestCenterLastOrdersOddLinesAfterWalls(t *testing.T) {
	wall := wallAt(0, 0, 10000)
	odd := geom.ExtrusionLine{
		InsetIndex: 1,
		Odd:        true,
		Junctions: []geom.ExtrusionJunction{
			{Point: geom.Point2D{X: 5000, Y: 0}, Width: 200},
			{Point: geom.Point2D{X: 5000, Y: 100}, Width: 200},
		},
	}
	lines := []geom.ExtrusionLine{wall, odd}
	prec := BuildPrecedence(lines, OutsideIn, true, true)
	if !prec.Before(0, 1) {
		t.Errorf("expected the wall to precede the odd line under center-last")
	}
}
