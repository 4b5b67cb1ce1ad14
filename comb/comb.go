// Package comb implements the collision-free travel router (spec §4.2):
// given a previous position, a target position, and "is inside" hints
// for each, it produces a CombPaths alternating inside/outside segments
// plus a retract/Z-hop decision.
package comb

import (
	"log"

	"github.com/aligator/goslice-pathplan/geom"
)

// ZHopPolicy selects when a Z-hop accompanies a retraction.
type ZHopPolicy int

const (
	ZHopNever ZHopPolicy = iota
	ZHopAlways
	ZHopWhenCollides
)

// Policy bundles the settings-derived knobs §4.2 consults.
type Policy struct {
	// MaxMoveInsideDistance bounds how far an endpoint may be nudged to
	// land inside the preferred boundary (§4.2 step 1).
	MaxMoveInsideDistance geom.Micrometer
	// RetractionCombingMaxDistance: travels longer than this retract
	// even when fully combed.
	RetractionCombingMaxDistance geom.Micrometer
	// AllowAirWithoutRetract: if false, any "via air" segment forces a
	// retraction even when no wall was crossed.
	AllowAirWithoutRetract bool
	ZHop                   ZHopPolicy
}

// CombPath is one contiguous inside- or outside-respecting segment of a
// combed travel move.
type CombPath struct {
	Points []geom.Point2D
	// Inside reports whether this segment is constrained to stay
	// inside a part (true) or crosses open air outside every part
	// (false).
	Inside bool
}

// CombPaths is the full alternating inside/outside/inside... sequence
// produced by one call to Calc.
type CombPaths []CombPath

// Result is everything Calc decides about one travel move.
type Result struct {
	Paths CombPaths
	// Retract reports whether the travel requires a retraction.
	Retract bool
	// PerformZHop reports whether the travel requires a Z-hop.
	PerformZHop bool
	// ViaAir reports whether any segment of the travel left every
	// inside boundary (crossed open air between parts).
	ViaAir bool
	// UnretractBeforeLastTravel: the unretract must be scheduled on the
	// travel segment approaching the final inside entry point, not at
	// the point itself (§4.2 step 6).
	UnretractBeforeLastTravel bool
}

// Comber holds the two inside boundaries (preferred/optimal and
// minimum) for one layer and lazily builds the outside boundary the
// first time a travel needs to cross between parts.
type Comber struct {
	optimalParts []part
	minimumParts []part

	moveInsideDistance geom.Micrometer

	outsideFn   func() (geom.PolygonSet, bool)
	outsideBuilt bool
	outside     geom.PolygonSet
	outsideOK   bool

	logger *log.Logger
}

// SetLogger attaches a logger used to report combing fallbacks (e.g. a
// travel with no inside boundary to route through, or a missing outside
// boundary) as warnings. A nil logger, the zero value, disables logging.
func (c *Comber) SetLogger(l *log.Logger) {
	c.logger = l
}

func (c *Comber) warnf(format string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Printf(format, args...)
}

// New builds a Comber from the preferred ("optimal") and minimum inside
// boundaries. outsideFn, if non-nil, lazily computes the outside
// boundary (e.g. as the union of every mesh's outline, offset outward)
// the first time a different-part travel needs it; it returns ok=false
// when no outside boundary can be constructed.
func New(minimum, optimal geom.PolygonSet, moveInsideDistance geom.Micrometer, outsideFn func() (geom.PolygonSet, bool)) *Comber {
	return &Comber{
		optimalParts:       splitParts(optimal),
		minimumParts:       splitParts(minimum),
		moveInsideDistance: moveInsideDistance,
		outsideFn:          outsideFn,
	}
}

func (c *Comber) getOutside() (geom.PolygonSet, bool) {
	if c.outsideBuilt {
		return c.outside, c.outsideOK
	}
	c.outsideBuilt = true
	if c.outsideFn != nil {
		c.outside, c.outsideOK = c.outsideFn()
	}
	return c.outside, c.outsideOK
}

// endpoint is the resolved state of one side of the travel.
type endpoint struct {
	point   geom.Point2D
	partIdx int // -1 if not resolved inside any part
}

func (e endpoint) ok() bool { return e.partIdx >= 0 }

// resolve implements §4.2 step 1 for one endpoint against one set of
// parts: if pt already lies in a part, it resolves there outright;
// otherwise the closest boundary point within maxDist2 is used as the
// resolved (moved-inside) position.
func resolve(parts []part, pt geom.Point2D, maxDist geom.Micrometer) endpoint {
	if idx := partContaining(parts, pt); idx >= 0 {
		return endpoint{point: pt, partIdx: idx}
	}
	maxDist2 := int64(maxDist) * int64(maxDist)
	best := endpoint{partIdx: -1}
	bestDist2 := int64(-1)
	for i, p := range parts {
		for _, poly := range p.polygons() {
			closest, _, dist2 := geom.ClosestPointOnPolygon(pt, poly)
			if dist2 > maxDist2 {
				continue
			}
			if bestDist2 == -1 || dist2 < bestDist2 {
				bestDist2 = dist2
				best = endpoint{point: nudgeInside(closest, pt, p), partIdx: i}
			}
		}
	}
	return best
}

// nudgeInside pushes a boundary point found by resolve a little further
// into the part it was resolved against, so it reads unambiguously as
// "inside" to the crossing/point-in-polygon tests downstream rather
// than sitting exactly on the edge. from is the original (outside)
// point the boundary point was resolved from.
func nudgeInside(onBoundary, from geom.Point2D, p part) geom.Point2D {
	dir := onBoundary.Sub(from)
	length := dir.Size()
	if length == 0 {
		return onBoundary
	}
	nudge := offsetDistToGetFromOnThePolygonToOutside + offsetExtraStartEnd
	candidate := onBoundary.Add(dir.Scale(float64(nudge) / float64(length)))
	if p.contains(candidate) {
		return candidate
	}
	return onBoundary
}

// crossesBoundary reports whether the straight segment a-b crosses any
// edge of any polygon belonging to part p.
func crossesBoundary(p part, a, b geom.Point2D) bool {
	for _, poly := range p.polygons() {
		n := len(poly)
		for i := 0; i < n; i++ {
			edgeA := poly[i]
			edgeB := poly[(i+1)%n]
			if _, ok := geom.SegmentsIntersect(a, b, edgeA, edgeB); ok {
				return true
			}
		}
	}
	return false
}

// sameBoundaryPath is the §4.2 step 2 fast path: a here is already
// resolved inside p. If the straight line to b doesn't cross p's
// boundary, it's returned directly; otherwise the path hugs the polygon
// of p that lies nearest to a.
func sameBoundaryPath(p part, a, b geom.Point2D) []geom.Point2D {
	if !crossesBoundary(p, a, b) {
		return []geom.Point2D{a, b}
	}
	// Hug the boundary of the part's polygon nearest to a: walk from the
	// first vertex of the edge nearest a to the first vertex of the edge
	// nearest b, choosing the shorter of the two directions around the
	// ring.
	var target geom.Polygon
	bestDist2 := int64(-1)
	for _, poly := range p.polygons() {
		_, _, d2 := geom.ClosestPointOnPolygon(a, poly)
		if bestDist2 == -1 || d2 < bestDist2 {
			bestDist2 = d2
			target = poly
		}
	}
	if len(target) == 0 {
		return []geom.Point2D{a, b}
	}
	_, ia, _ := geom.ClosestPointOnPolygon(a, target)
	_, ib, _ := geom.ClosestPointOnPolygon(b, target)

	n := len(target)
	forward := ringWalk(target, ia, ib, n)
	backward := ringWalk(target, ia, ib, -n)
	path := forward
	if pathLength(backward) < pathLength(forward) {
		path = backward
	}

	out := make([]geom.Point2D, 0, len(path)+2)
	out = append(out, a)
	out = append(out, path...)
	out = append(out, b)
	return out
}

func ringWalk(poly geom.Polygon, from, to, dirN int) []geom.Point2D {
	n := len(poly)
	step := 1
	if dirN < 0 {
		step = -1
	}
	var out []geom.Point2D
	for i := from; ; i += step {
		idx := ((i % n) + n) % n
		out = append(out, poly[idx])
		if idx == to {
			break
		}
		if len(out) > n+1 {
			break // safety: never walk more than one full ring
		}
	}
	return out
}

func pathLength(pts []geom.Point2D) geom.Micrometer {
	var total geom.Micrometer
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	return total
}

// tryFastPath attempts the same-part fast path of §4.2 steps 1-2 against
// one boundary (optimal, then minimum on retry per §4.2.2).
func tryFastPath(parts []part, start, end geom.Point2D, maxMoveInside geom.Micrometer) (CombPaths, bool) {
	sp := resolve(parts, start, maxMoveInside)
	ep := resolve(parts, end, maxMoveInside)
	if !sp.ok() || !ep.ok() || sp.partIdx != ep.partIdx {
		return nil, false
	}
	pts := sameBoundaryPath(parts[sp.partIdx], sp.point, ep.point)
	return CombPaths{{Points: pts, Inside: true}}, true
}

// Calc implements §4.2: the full endpoint-resolution, fast-path,
// different-part, and failure-mode algorithm.
func (c *Comber) Calc(start, end geom.Point2D, policy Policy) Result {
	if paths, ok := tryFastPath(c.optimalParts, start, end, policy.MaxMoveInsideDistance); ok {
		return c.finish(paths, start, end, false, false, policy)
	}
	if paths, ok := tryFastPath(c.minimumParts, start, end, policy.MaxMoveInsideDistance); ok {
		return c.finish(paths, start, end, false, false, policy)
	}

	// §4.2 step 3: different parts (or one/both endpoints never
	// resolved inside anything).
	sp := resolve(c.optimalParts, start, policy.MaxMoveInsideDistance)
	ep := resolve(c.optimalParts, end, policy.MaxMoveInsideDistance)

	if !sp.ok() && !ep.ok() {
		// §4.2.2: no inside boundary exists for either endpoint.
		c.warnf("combing: no inside boundary resolved for travel %v -> %v, falling back to a straight via-air move", start, end)
		return c.finish(CombPaths{{Points: []geom.Point2D{start, end}, Inside: false}}, start, end, true, false, policy)
	}

	var paths CombPaths
	exitStart := start
	if sp.ok() {
		exit, _, _ := geom.ClosestPointOnPolygon(end, c.optimalParts[sp.partIdx].outer)
		paths = append(paths, CombPath{Points: sameBoundaryPath(c.optimalParts[sp.partIdx], sp.point, exit), Inside: true})
		exitStart = exit
	}
	entryEnd := end
	if ep.ok() {
		entry, _, _ := geom.ClosestPointOnPolygon(start, c.optimalParts[ep.partIdx].outer)
		entryEnd = entry
	}

	middle := []geom.Point2D{exitStart, entryEnd}
	routedViaBoundary := false
	if outside, ok := c.getOutside(); ok {
		outerParts := splitParts(outside)
		if outIdx := partContaining(outerParts, exitStart); outIdx >= 0 {
			middle = sameBoundaryPath(outerParts[outIdx], exitStart, entryEnd)
			routedViaBoundary = true
		}
	} else if c.outsideFn != nil {
		c.warnf("combing: outside boundary unavailable for travel %v -> %v, crossing parts in a straight line", exitStart, entryEnd)
	}
	paths = append(paths, CombPath{Points: middle, Inside: false})

	if ep.ok() {
		paths = append(paths, CombPath{Points: sameBoundaryPath(c.optimalParts[ep.partIdx], entryEnd, ep.point), Inside: true})
	}

	return c.finish(paths, start, end, true, routedViaBoundary, policy)
}

// finish derives the retract/Z-hop decision for one resolved travel.
// routedViaBoundary distinguishes the two different-parts outcomes of
// §4.2 step 3: a middle segment actually routed along a known outside
// boundary carries no extra collision risk over the inside-to-inside
// crossings it replaces, while a blind straight line across open air
// (no outside boundary available) is exactly the case the "wall
// crossing" retract/Z-hop decision exists to catch.
func (c *Comber) finish(paths CombPaths, start, end geom.Point2D, viaAir, routedViaBoundary bool, policy Policy) Result {
	crossedWall := viaAir && !routedViaBoundary

	travelDist := start.Dist(end)
	retract := crossedWall ||
		(policy.RetractionCombingMaxDistance > 0 && travelDist > policy.RetractionCombingMaxDistance) ||
		(viaAir && !policy.AllowAirWithoutRetract)

	hop := false
	switch policy.ZHop {
	case ZHopAlways:
		hop = retract
	case ZHopWhenCollides:
		hop = retract && viaAir
	}

	unretractBeforeLast := retract && len(paths) > 0 && paths[len(paths)-1].Inside

	return Result{
		Paths:                     paths,
		Retract:                   retract,
		PerformZHop:               hop,
		ViaAir:                    viaAir,
		UnretractBeforeLastTravel: unretractBeforeLast,
	}
}
