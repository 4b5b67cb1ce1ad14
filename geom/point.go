// Package geom provides the integer micrometre geometry types and the
// spatial indices that the comber and path-order optimiser build on.
package geom

import "math"

// Micrometer is a signed integer coordinate in micrometres. All geometry
// in the core is integer; floating point is only used for transient
// angle and length computation.
type Micrometer int64

// Point2D is a pair of signed integer micrometre coordinates.
type Point2D struct {
	X, Y Micrometer
}

// NewPoint2D returns the point (x, y).
func NewPoint2D(x, y Micrometer) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns p + o.
func (p Point2D) Add(o Point2D) Point2D {
	return Point2D{p.X + o.X, p.Y + o.Y}
}

// Sub returns p - o.
func (p Point2D) Sub(o Point2D) Point2D {
	return Point2D{p.X - o.X, p.Y - o.Y}
}

// Scale returns p scaled by f.
func (p Point2D) Scale(f float64) Point2D {
	return Point2D{
		X: Micrometer(math.Round(float64(p.X) * f)),
		Y: Micrometer(math.Round(float64(p.Y) * f)),
	}
}

// Size returns the Euclidean length of p interpreted as a vector, rounded
// to the nearest micrometre.
func (p Point2D) Size() Micrometer {
	return Micrometer(math.Round(math.Sqrt(float64(p.X)*float64(p.X) + float64(p.Y)*float64(p.Y))))
}

// Size2 returns the squared length, avoiding the sqrt. Prefer this for
// radius/threshold comparisons.
func (p Point2D) Size2() int64 {
	return int64(p.X)*int64(p.X) + int64(p.Y)*int64(p.Y)
}

// ShorterThan reports whether p, as a vector, is strictly shorter than d.
func (p Point2D) ShorterThan(d Micrometer) bool {
	return p.Size2() < int64(d)*int64(d)
}

// ShorterThanOrEqual reports whether p, as a vector, has length <= d.
func (p Point2D) ShorterThanOrEqual(d Micrometer) bool {
	return p.Size2() <= int64(d)*int64(d)
}

// Dist2 returns the squared distance between p and o.
func (p Point2D) Dist2(o Point2D) int64 {
	return p.Sub(o).Size2()
}

// Dist returns the distance between p and o, rounded to the nearest
// micrometre.
func (p Point2D) Dist(o Point2D) Micrometer {
	return p.Sub(o).Size()
}

// Dot returns the dot product of p and o treated as vectors.
func (p Point2D) Dot(o Point2D) int64 {
	return int64(p.X)*int64(o.X) + int64(p.Y)*int64(o.Y)
}

// Cross returns the 2D cross product (z-component) of p and o.
func (p Point2D) Cross(o Point2D) int64 {
	return int64(p.X)*int64(o.Y) - int64(p.Y)*int64(o.X)
}

// AngleTo returns the angle in radians of the vector from p to o.
func (p Point2D) AngleTo(o Point2D) float64 {
	d := o.Sub(p)
	return math.Atan2(float64(d.Y), float64(d.X))
}

// ToFloat returns the point as a pair of float64, for transient
// trigonometric computation.
func (p Point2D) ToFloat() (x, y float64) {
	return float64(p.X), float64(p.Y)
}

// ClosestPointOnSegment returns the closest point to p on the closed
// segment [a, b] and the squared distance to it.
func ClosestPointOnSegment(p, a, b Point2D) (Point2D, int64) {
	ab := b.Sub(a)
	abLen2 := ab.Size2()
	if abLen2 == 0 {
		return a, p.Dist2(a)
	}
	ap := p.Sub(a)
	t := float64(ap.Dot(ab)) / float64(abLen2)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return closest, p.Dist2(closest)
}

// SegmentsIntersect reports whether closed segments [a,b] and [c,d]
// intersect (touching at an endpoint counts), and if so at which point.
// Parallel and collinear segments, overlapping or not, are reported as
// not intersecting.
func SegmentsIntersect(a, b, c, d Point2D) (Point2D, bool) {
	d1 := b.Sub(a)
	d2 := d.Sub(c)
	denom := d1.Cross(d2)
	if denom == 0 {
		return Point2D{}, false // parallel or collinear; treated as non-crossing for combing purposes
	}
	ac := c.Sub(a)
	tNum := ac.Cross(d2)
	uNum := ac.Cross(d1)
	t := float64(tNum) / float64(denom)
	u := float64(uNum) / float64(denom)
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point2D{}, false
	}
	return a.Add(d1.Scale(t)), true
}
