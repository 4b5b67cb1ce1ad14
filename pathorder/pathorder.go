// Package pathorder implements the precedence-constrained path-order
// optimiser (spec §4.3): given a set of closed polygons and/or open
// polylines, a precedence relation, a start position and a seam policy,
// it produces a visiting order, a start vertex/endpoint per path, and a
// reversed flag per path.
package pathorder

import (
	"math"
	"math/rand"

	"github.com/aligator/goslice-pathplan/comb"
	"github.com/aligator/goslice-pathplan/geom"
)

// SeamKind selects how a closed path's starting vertex is chosen.
type SeamKind int

const (
	ShortestTravel SeamKind = iota
	UserSpecifiedPoint
	Random
	SharpestCorner
)

// CornerPreference further refines SharpestCorner.
type CornerPreference int

const (
	CornerInner CornerPreference = iota
	CornerOuter
	CornerAny
	CornerWeighted
	CornerNone
)

// SeamPolicy bundles the seam-selection knobs of §4.3.
type SeamPolicy struct {
	Kind   SeamKind
	Point  geom.Point2D      // used by UserSpecifiedPoint
	Seed   int64             // used by Random, for deterministic choice
	Corner CornerPreference // used by SharpestCorner
}

// Path is one candidate path: a closed polygon or an open polyline.
type Path struct {
	Points geom.Polygon
	Closed bool
	// SkipAggressiveMerge and other per-path metadata belong to the
	// caller (layerplan); the optimiser only needs geometry and
	// closedness.
}

// Precedence is a set of ordered pairs (a, b) meaning "a must precede
// b", closed transitively before use (§4.3).
type Precedence struct {
	pairs map[[2]int]bool
}

// NewPrecedence returns an empty precedence relation.
func NewPrecedence() *Precedence {
	return &Precedence{pairs: map[[2]int]bool{}}
}

// Add records that path a must precede path b.
func (p *Precedence) Add(a, b int) {
	if p.pairs == nil {
		p.pairs = map[[2]int]bool{}
	}
	p.pairs[[2]int{a, b}] = true
}

// Before reports whether a precedes b in the relation as currently
// recorded (no implicit closure - call Closure first if needed).
func (p *Precedence) Before(a, b int) bool {
	return p.pairs[[2]int{a, b}]
}

// Closure returns the transitive closure of p over n items: {(a,b),
// (b,c)} implies (a,c). n must exceed the highest index referenced;
// pairs naming an index >= n are dropped.
func (p *Precedence) Closure(n int) *Precedence {
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
	}
	for k := range p.pairs {
		if k[0] < n && k[1] < n {
			reach[k[0]][k[1]] = true
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !reach[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if reach[k][j] {
					reach[i][j] = true
				}
			}
		}
	}
	closed := NewPrecedence()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if reach[i][j] {
				closed.pairs[[2]int{i, j}] = true
			}
		}
	}
	return closed
}

func (p *Precedence) hasUnresolvedPredecessor(i int, picked []bool) bool {
	for k, v := range p.pairs {
		if v && k[1] == i && !picked[k[0]] {
			return true
		}
	}
	return false
}

// Result is the permutation and per-path decisions Order produces.
type Result struct {
	// Order lists path indices in visiting order.
	Order []int
	// StartIndex[i] is the start vertex index for a closed path i.
	StartIndex []int
	// StartEndpoint[i] is 0 or 1, the start endpoint for an open path i.
	StartEndpoint []int
	// Reversed[i] reports whether path i is traversed back-to-front.
	Reversed []bool
}

// tieEpsilon2 is the squared-distance slack within which two candidate
// scores are considered tied (§4.3 tie-breaking), mirroring the
// original design's 5uM-scale tolerance.
const tieEpsilon2 = 25.0

// combingPenaltyFactor is applied to the straight-line distance when a
// candidate's travel crosses the combing boundary but computing the
// actual combed distance would be too expensive (§4.3).
const combingPenaltyFactor = 5.0

// Optimizer runs the path-order algorithm of §4.3 once, via Order.
type Optimizer struct {
	Paths      []Path
	Precedence *Precedence // nil means no constraints
	Start      geom.Point2D
	Seam       SeamPolicy

	// CombBoundary, if non-nil, enables combing-aware scoring: a
	// straight-line candidate distance that crosses this boundary is
	// penalised or replaced by the actual combed distance.
	CombBoundary geom.PolygonSet
	// CombedBelow is the remaining-candidate-count threshold below
	// which the actual combed distance is computed instead of applying
	// the flat penalty (§4.3). Zero selects a sensible default.
	CombedBelow int

	comber *comb.Comber
}

func (o *Optimizer) combedThreshold() int {
	if o.CombedBelow > 0 {
		return o.CombedBelow
	}
	return 50
}

// Order runs the optimiser and returns the visiting plan.
func (o *Optimizer) Order() Result {
	n := len(o.Paths)
	result := Result{
		Order:         make([]int, 0, n),
		StartIndex:    make([]int, n),
		StartEndpoint: make([]int, n),
		Reversed:      make([]bool, n),
	}
	if n == 0 {
		return result
	}

	var prec *Precedence
	if o.Precedence != nil {
		prec = o.Precedence.Closure(n)
	}

	picked := make([]bool, n)
	prevPoint := o.Start
	if o.Seam.Kind == UserSpecifiedPoint {
		// The original point also seeds the tie-break direction below.
	}

	for step := 0; step < n; step++ {
		remaining := n - step
		type candidate struct {
			idx       int
			point     geom.Point2D
			startIdx  int
			endpoint  int
			reversed  bool
			score     float64
		}
		var candidates []candidate

		for i, path := range o.Paths {
			if picked[i] {
				continue
			}
			if prec != nil && prec.hasUnresolvedPredecessor(i, picked) {
				continue
			}
			if len(path.Points) == 0 {
				continue
			}

			var c candidate
			c.idx = i
			if path.Closed {
				c.startIdx = o.seamStartIndex(path, prevPoint)
				c.point = path.Points[c.startIdx]
			} else {
				target := prevPoint
				if o.Seam.Kind == UserSpecifiedPoint {
					target = o.Seam.Point
				}
				last := path.Points[len(path.Points)-1]
				if last.Dist2(target) < path.Points[0].Dist2(target) {
					c.endpoint = 1
					c.reversed = true
					c.point = last
				} else {
					c.point = path.Points[0]
				}
			}

			dist2 := float64(c.point.Dist2(prevPoint))
			c.score = dist2
			if len(o.CombBoundary) > 0 && o.crosses(prevPoint, c.point) {
				if remaining <= o.combedThreshold() {
					d := float64(o.combedDistance(prevPoint, c.point))
					c.score = d * d
				} else {
					// Scores are squared distances, so the factor is squared.
					c.score = dist2 * combingPenaltyFactor * combingPenaltyFactor
				}
			}
			candidates = append(candidates, c)
		}

		if len(candidates) == 0 {
			break // every remaining path is blocked; should not happen with an acyclic relation
		}

		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.score < best.score {
				best = c
			}
		}

		dir := tieBreakDirection(o.Seam)
		for _, c := range candidates {
			if c.idx == best.idx {
				continue
			}
			if math.Abs(c.score-best.score) <= tieEpsilon2 {
				if extremity(c.point, dir) > extremity(best.point, dir) {
					best = c
				}
			}
		}

		picked[best.idx] = true
		result.Order = append(result.Order, best.idx)
		result.StartIndex[best.idx] = best.startIdx
		result.StartEndpoint[best.idx] = best.endpoint
		result.Reversed[best.idx] = best.reversed

		path := o.Paths[best.idx]
		if path.Closed {
			prevPoint = best.point
		} else if best.reversed {
			prevPoint = path.Points[0]
		} else {
			prevPoint = path.Points[len(path.Points)-1]
		}
	}

	return result
}

// tieBreakDirection returns the fixed direction used to break near-ties
// (§4.3): the user's seam point direction when one is configured,
// otherwise straight up, (0, +inf).
func tieBreakDirection(seam SeamPolicy) geom.Point2D {
	if seam.Kind == UserSpecifiedPoint {
		return seam.Point
	}
	return geom.Point2D{X: 0, Y: math.MaxInt64}
}

func extremity(p, dir geom.Point2D) float64 {
	dx, dy := dir.ToFloat()
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return 0
	}
	px, py := p.ToFloat()
	return (px*dx + py*dy) / norm
}

// seamStartIndex picks the start vertex of a closed path per the
// configured seam policy (§4.3).
func (o *Optimizer) seamStartIndex(path Path, prevPoint geom.Point2D) int {
	switch o.Seam.Kind {
	case UserSpecifiedPoint:
		return closestVertex(path.Points, o.Seam.Point)
	case Random:
		r := rand.New(rand.NewSource(o.Seam.Seed + int64(len(path.Points))))
		return r.Intn(len(path.Points))
	case SharpestCorner:
		return o.sharpestCornerIndex(path.Points, prevPoint)
	case ShortestTravel:
		fallthrough
	default:
		return closestVertex(path.Points, prevPoint)
	}
}

func closestVertex(poly geom.Polygon, target geom.Point2D) int {
	best := 0
	bestDist2 := poly[0].Dist2(target)
	for i := 1; i < len(poly); i++ {
		d2 := poly[i].Dist2(target)
		if d2 < bestDist2 {
			bestDist2 = d2
			best = i
		}
	}
	return best
}

// cornerBonusScale weighs the angle bonus against the raw squared
// distance score; both are in squared-micrometre-ish units.
const cornerBonusScale = 1e8

func (o *Optimizer) sharpestCornerIndex(poly geom.Polygon, prevPoint geom.Point2D) int {
	n := len(poly)
	best := 0
	bestScore := math.Inf(1)
	for i := 0; i < n; i++ {
		p0 := poly[(i-1+n)%n]
		p1 := poly[i]
		p2 := poly[(i+1)%n]
		in := p1.Sub(p0)
		out := p2.Sub(p1)
		inLen := in.Size()
		outLen := out.Size()
		var concavity float64
		if inLen != 0 && outLen != 0 {
			cross := float64(in.Cross(out))
			concavity = -cross / (float64(inLen) * float64(outLen))
		}

		score := float64(p1.Dist2(prevPoint))
		switch o.Seam.Corner {
		case CornerInner:
			if concavity > 0 {
				score -= concavity * cornerBonusScale
			}
		case CornerOuter:
			if concavity < 0 {
				score -= (-concavity) * cornerBonusScale
			}
		case CornerAny:
			score -= math.Abs(concavity) * cornerBonusScale
		case CornerWeighted:
			bonus := math.Abs(concavity) * cornerBonusScale
			if concavity > 0 {
				bonus *= 2
			}
			score -= bonus
		case CornerNone:
			// distance only
		}

		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func (o *Optimizer) crosses(a, b geom.Point2D) bool {
	for _, poly := range o.CombBoundary {
		n := len(poly)
		for i := 0; i < n; i++ {
			if _, ok := geom.SegmentsIntersect(a, b, poly[i], poly[(i+1)%n]); ok {
				return true
			}
		}
	}
	return false
}

func (o *Optimizer) combedDistance(a, b geom.Point2D) geom.Micrometer {
	if o.comber == nil {
		o.comber = comb.New(o.CombBoundary, o.CombBoundary, 0, geom.OutsideBoundaryFunc(o.CombBoundary, 0))
	}
	res := o.comber.Calc(a, b, comb.Policy{AllowAirWithoutRetract: true})
	var total geom.Micrometer
	for _, p := range res.Paths {
		for i := 1; i < len(p.Points); i++ {
			total += p.Points[i-1].Dist(p.Points[i])
		}
	}
	return total
}
