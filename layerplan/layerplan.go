package layerplan

import (
	"log"

	pathplan "github.com/aligator/goslice-pathplan"
	"github.com/aligator/goslice-pathplan/comb"
	"github.com/aligator/goslice-pathplan/geom"
	"github.com/aligator/goslice-pathplan/pathorder"
)

// ExtruderPlan is the run of paths printed by a single extruder without
// interruption (spec §4.5, invariant 1: adjacent extruder plans never
// share an extruder number).
type ExtruderPlan struct {
	Extruder int
	Paths    []*GCodePath

	// ExtrudeSpeedFactor is the cooling slowdown factor applied to every
	// extrusion path in this plan (§4.6 step 2).
	ExtrudeSpeedFactor float64
	// ExtraTime is additional dwell time recorded by the cooling
	// adjuster when slowing down alone cannot reach the minimum layer
	// time (§4.6 step 2).
	ExtraTime float64
	// FanSpeed is this plan's resolved fan speed percentage, or -1
	// before the cooling adjuster has run.
	FanSpeed float64

	Estimate TimeEstimate
}

// LayerPlan accumulates one layer's travels and extrusions (spec §4.5).
type LayerPlan struct {
	LayerIndex      int
	StartPosition   geom.Point2D
	CurrentPosition geom.Point2D

	ExtruderPlans []*ExtruderPlan

	currentMesh    string
	isInside       bool
	bridgeWallMask geom.PolygonSet
	overhangMask   geom.PolygonSet

	comber              *comb.Comber
	combPolicy          comb.Policy
	nozzleOuterDiameter geom.Micrometer
	travelSpeed         float64
}

// New starts an empty layer plan at start, with the given first
// extruder already selected.
func New(layerIndex int, start geom.Point2D, firstExtruder int, comber *comb.Comber, policy comb.Policy, nozzleOuterDiameter geom.Micrometer, travelSpeed float64) *LayerPlan {
	lp := &LayerPlan{
		LayerIndex:          layerIndex,
		StartPosition:       start,
		CurrentPosition:     start,
		comber:              comber,
		combPolicy:          policy,
		nozzleOuterDiameter: nozzleOuterDiameter,
		travelSpeed:         travelSpeed,
	}
	lp.SetExtruder(firstExtruder)
	return lp
}

// SetLogger attaches the logger that reports non-fatal recoveries (e.g.
// combing fallbacks) encountered while building this plan. It is passed
// straight through to the underlying comber, matching how a pathplan.Context
// owns one logger shared by every component it drives.
func (lp *LayerPlan) SetLogger(l *log.Logger) {
	if lp.comber != nil {
		lp.comber.SetLogger(l)
	}
}

// current returns the active extruder plan, creating one with extruder
// 0 if SetExtruder was never called.
func (lp *LayerPlan) current() *ExtruderPlan {
	if len(lp.ExtruderPlans) == 0 {
		lp.ExtruderPlans = append(lp.ExtruderPlans, &ExtruderPlan{FanSpeed: -1, ExtrudeSpeedFactor: 1})
	}
	return lp.ExtruderPlans[len(lp.ExtruderPlans)-1]
}

func (lp *LayerPlan) lastPath() *GCodePath {
	ep := lp.current()
	if len(ep.Paths) == 0 {
		return nil
	}
	return ep.Paths[len(ep.Paths)-1]
}

// SetExtruder switches the active extruder, opening a new ExtruderPlan
// only if n differs from the currently active one (invariant 1).
func (lp *LayerPlan) SetExtruder(n int) {
	if len(lp.ExtruderPlans) > 0 && lp.ExtruderPlans[len(lp.ExtruderPlans)-1].Extruder == n {
		return
	}
	lp.ExtruderPlans = append(lp.ExtruderPlans, &ExtruderPlan{Extruder: n, ExtrudeSpeedFactor: 1, FanSpeed: -1})
}

// SetMesh records the mesh identifier tagged onto subsequent paths.
func (lp *LayerPlan) SetMesh(id string) { lp.currentMesh = id }

// SetIsInside records whether subsequent travel starts "inside" a part,
// consulted by retraction-combing policy in the caller.
func (lp *LayerPlan) SetIsInside(b bool) { lp.isInside = b }

// SetBridgeWallMask installs the region within which wall extrusion
// should use the bridge configuration (§4.5 table).
func (lp *LayerPlan) SetBridgeWallMask(m geom.PolygonSet) { lp.bridgeWallMask = m }

// SetOverhangMask installs the region within which wall extrusion
// should use reduced speed.
func (lp *LayerPlan) SetOverhangMask(m geom.PolygonSet) { lp.overhangMask = m }

// ForceNewPathStart closes off the current path so the next Add* call
// starts a fresh one even if its config would otherwise match.
func (lp *LayerPlan) ForceNewPathStart() {
	if p := lp.lastPath(); p != nil {
		p.Done = true
	}
}

// AddTravelSimple appends a travel move without combing: it either
// extends the current travel path or opens a new one.
func (lp *LayerPlan) AddTravelSimple(to geom.Point2D) *GCodePath {
	ep := lp.current()
	last := lp.lastPath()
	if last != nil && !last.Done && last.IsTravelPath() && !last.Retract {
		last.Points = append(last.Points, to)
		lp.CurrentPosition = to
		return last
	}
	gp := &GCodePath{
		Config:             TravelConfig(lp.travelSpeed),
		Points:             []geom.Point2D{lp.CurrentPosition, to},
		SpeedFactor:        1,
		BackPressureFactor: 1,
	}
	ep.Paths = append(ep.Paths, gp)
	lp.CurrentPosition = to
	return gp
}

// AddTravel appends a travel move, combed around part boundaries when
// the comber is configured and the move is longer than the nozzle's
// outer diameter (§4.2 step 1, §4.5). forceRetract always requests a
// retraction regardless of what combing finds.
func (lp *LayerPlan) AddTravel(to geom.Point2D, forceRetract bool) *GCodePath {
	if !forceRetract && lp.CurrentPosition.Dist(to) <= lp.nozzleOuterDiameter {
		return lp.AddTravelSimple(to)
	}
	lp.ForceNewPathStart()

	var res comb.Result
	if lp.comber != nil {
		res = lp.comber.Calc(lp.CurrentPosition, to, lp.combPolicy)
	} else {
		res = comb.Result{Paths: comb.CombPaths{{Points: []geom.Point2D{lp.CurrentPosition, to}}}}
	}
	if forceRetract {
		res.Retract = true
	}

	ep := lp.current()
	var last *GCodePath
	for _, cp := range res.Paths {
		if len(cp.Points) < 2 {
			continue
		}
		gp := &GCodePath{
			Config:             TravelConfig(lp.travelSpeed),
			Points:             cp.Points,
			SpeedFactor:        1,
			BackPressureFactor: 1,
			Retract:            res.Retract,
			PerformZHop:        res.PerformZHop,
		}
		ep.Paths = append(ep.Paths, gp)
		last = gp
	}
	if last != nil {
		last.UnretractBeforeLastTravelMove = res.UnretractBeforeLastTravel
	}
	lp.CurrentPosition = to
	return last
}

// AddExtrusionMove appends one extrusion segment from the current
// position to p, merging into the current path when its config, flow
// and speed factor match (so consecutive collinear-or-not segments of
// one feature form a single path).
func (lp *LayerPlan) AddExtrusionMove(p geom.Point2D, config *GCodePathConfig, feature PrintFeatureType, flow float64, spiralize bool, speedFactor float64, fanSpeed float64) *GCodePath {
	ep := lp.current()
	last := lp.lastPath()
	if last != nil && !last.Done && last.Config == config && last.Flow == flow && last.SpeedFactor == speedFactor && last.Spiralize == spiralize {
		last.Points = append(last.Points, p)
		lp.CurrentPosition = p
		return last
	}
	gp := &GCodePath{
		Config:             config,
		MeshID:             lp.currentMesh,
		Feature:            feature,
		Flow:               flow,
		Spiralize:          spiralize,
		SpeedFactor:        speedFactor,
		BackPressureFactor: 1,
		FanSpeed:           fanSpeed,
		Points:             []geom.Point2D{lp.CurrentPosition, p},
	}
	ep.Paths = append(ep.Paths, gp)
	lp.CurrentPosition = p
	return gp
}

// AddPolygon travels to poly[startIdx] (retracting if alwaysRetract or
// if combing decides to), then extrudes the closed loop in the given
// direction, optionally wiping forward along the seam for wipeDist
// afterwards (spec §4.5 table, §GLOSSARY "wipe distance").
func (lp *LayerPlan) AddPolygon(poly geom.Polygon, startIdx int, reversed bool, config *GCodePathConfig, feature PrintFeatureType, wipeDist geom.Micrometer, spiralize bool, flow float64, alwaysRetract bool) (*GCodePath, error) {
	n := len(poly)
	if n < 3 {
		return nil, pathplan.NewError(pathplan.GeometryDegenerate, "AddPolygon requires at least 3 points")
	}
	step := 1
	if reversed {
		step = -1
	}

	first := poly[startIdx]
	lp.AddTravel(first, alwaysRetract)

	idx := startIdx
	var last *GCodePath
	for i := 0; i < n; i++ {
		idx = ((idx + step) % n + n) % n
		last = lp.AddExtrusionMove(poly[idx], config, feature, flow, spiralize, 1, -1)
	}

	if wipeDist > 0 {
		lp.wipeAlongPolygon(poly, idx, step, wipeDist)
	}
	return last, nil
}

// wipeAlongPolygon continues travelling (without extrusion) along the
// polygon boundary starting from vertex idx in direction step, for a
// total of dist, to fuse the seam (spec §GLOSSARY "wipe distance").
func (lp *LayerPlan) wipeAlongPolygon(poly geom.Polygon, idx, step int, dist geom.Micrometer) {
	n := len(poly)
	remaining := dist
	cur := poly[idx]
	for remaining > 0 {
		next := poly[((idx+step)%n+n)%n]
		seg := cur.Dist(next)
		if seg == 0 {
			idx = ((idx + step) % n + n) % n
			continue
		}
		if seg >= remaining {
			t := float64(remaining) / float64(seg)
			point := cur.Add(next.Sub(cur).Scale(t))
			lp.AddTravelSimple(point)
			return
		}
		lp.AddTravelSimple(next)
		remaining -= seg
		cur = next
		idx = ((idx + step) % n + n) % n
	}
}

// AddPolygonsByOptimiser orders polys with a pathorder.Optimizer (using
// the given precedence and seam policy) and emits each as AddPolygon in
// turn (spec §4.5 table).
func (lp *LayerPlan) AddPolygonsByOptimiser(polys []geom.Polygon, config *GCodePathConfig, feature PrintFeatureType, seam pathorder.SeamPolicy, prec *pathorder.Precedence, combBoundary geom.PolygonSet, wipeDist geom.Micrometer, flow float64, alwaysRetract bool) ([]*GCodePath, error) {
	paths := make([]pathorder.Path, len(polys))
	for i, p := range polys {
		paths[i] = pathorder.Path{Points: p, Closed: true}
	}
	opt := &pathorder.Optimizer{Paths: paths, Precedence: prec, Start: lp.CurrentPosition, Seam: seam, CombBoundary: combBoundary}
	order := opt.Order()

	results := make([]*GCodePath, 0, len(order.Order))
	for _, idx := range order.Order {
		gp, err := lp.AddPolygon(polys[idx], order.StartIndex[idx], order.Reversed[idx], config, feature, wipeDist, false, flow, alwaysRetract)
		if err != nil {
			return results, err
		}
		results = append(results, gp)
	}
	return results, nil
}

// AddWall emits a variable-width wall, switching per-segment between
// nonBridge and bridge configs depending on whether the segment's
// midpoint falls in the bridge wall mask (spec §4.5 table, §GLOSSARY
// "bridge wall mask"). Segments whose midpoint falls in the overhang
// mask are slowed to overhangSpeedFactor (a cooling-dependent ratio the
// caller derives, e.g. from the current cooling.Settings.MinSpeed). A
// running non-bridge line volume tracks how much has been extruded at
// normal speed since the last bridge segment: a bridge exit ramps back
// up to full speed over minNonBridgeLineVolume mm^3 rather than
// snapping back immediately, the same "smoothed or accelerated"
// decision LayerPlan.h's addWallLine ties to non_bridge_line_volume.
func (lp *LayerPlan) AddWall(wall geom.ExtrusionLine, startIdx int, nonBridge, bridge *GCodePathConfig, feature PrintFeatureType, wipeDist geom.Micrometer, flow float64, alwaysRetract bool, overhangSpeedFactor float64, minNonBridgeLineVolume float64) (*GCodePath, error) {
	n := len(wall.Junctions)
	if n < 2 {
		return nil, pathplan.NewError(pathplan.GeometryDegenerate, "AddWall requires at least 2 junctions")
	}

	lp.AddTravel(wall.Junctions[startIdx].Point, alwaysRetract)

	segments := n - 1
	if wall.Closed {
		segments = n
	}
	// bridgeExitFloor is the speed factor a non-bridge segment starts
	// ramping from right after leaving a bridge: the bridge's own speed
	// ratio to the non-bridge speed, so the transition doesn't jerk from
	// bridge speed straight to full speed. Absent a bridge config there
	// is nothing to exit from, so the ramp never engages.
	bridgeExitFloor := 1.0
	if bridge != nil && nonBridge != nil && nonBridge.Speed > 0 {
		if ratio := bridge.Speed / nonBridge.Speed; ratio > 0 && ratio < 1 {
			bridgeExitFloor = ratio
		}
	}

	idx := startIdx
	var last *GCodePath
	var nonBridgeLineVolume float64
	var sawBridge bool
	for i := 0; i < segments; i++ {
		next := (idx + 1) % n
		from := wall.Junctions[idx]
		to := wall.Junctions[next]
		mid := from.Point.Add(to.Point.Sub(from.Point).Scale(0.5))

		inBridge := bridge != nil && len(lp.bridgeWallMask) > 0 && geom.PointInPolygonSet(mid, lp.bridgeWallMask)
		cfg := nonBridge
		widthRatio := 1.0
		if nonBridge != nil && nonBridge.LineWidth > 0 {
			avgWidth := (from.Width + to.Width) / 2
			widthRatio = float64(avgWidth) / float64(nonBridge.LineWidth)
		}

		speedFactor := 1.0
		if inBridge {
			cfg = bridge
			sawBridge = true
			// Re-entering open air resets the ramp: the next non-bridge
			// segment starts the smoothing from zero again.
			nonBridgeLineVolume = 0
		} else {
			if sawBridge && minNonBridgeLineVolume > 0 && nonBridgeLineVolume < minNonBridgeLineVolume {
				t := nonBridgeLineVolume / minNonBridgeLineVolume
				speedFactor = bridgeExitFloor + t*(1-bridgeExitFloor)
			}
			if overhangSpeedFactor > 0 && overhangSpeedFactor < 1 && len(lp.overhangMask) > 0 && geom.PointInPolygonSet(mid, lp.overhangMask) {
				if overhangSpeedFactor < speedFactor {
					speedFactor = overhangSpeedFactor
				}
			}
			segLen := from.Point.Dist(to.Point)
			nonBridgeLineVolume += float64(segLen) / 1000 * widthRatio * nonBridge.ExtrusionMM3PerMM() * flow
		}

		last = lp.AddExtrusionMove(to.Point, cfg, feature, flow*widthRatio, false, speedFactor, -1)
		idx = next
	}

	if wipeDist > 0 {
		lp.wipeAlongPolygon(wall.Polygon(), idx, 1, wipeDist)
	}
	return last, nil
}


// AddLinesByOptimiser orders a set of open polylines (infill, support
// lines) with a pathorder.Optimizer and emits them in that order (spec
// §4.5 table). combBoundary only feeds the optimiser's combing-aware
// scoring; the travels between lines go through AddTravel, which combs
// with the plan's own comber when one is configured.
func (lp *LayerPlan) AddLinesByOptimiser(lines []geom.Polygon, config *GCodePathConfig, feature PrintFeatureType, combBoundary geom.PolygonSet, flow float64) []*GCodePath {
	paths := make([]pathorder.Path, len(lines))
	for i, l := range lines {
		paths[i] = pathorder.Path{Points: l, Closed: false}
	}
	opt := &pathorder.Optimizer{Paths: paths, Start: lp.CurrentPosition, CombBoundary: combBoundary}
	order := opt.Order()

	results := make([]*GCodePath, 0, len(order.Order))
	for _, idx := range order.Order {
		line := lines[idx]
		if order.Reversed[idx] {
			line = reversePolygon(line)
		}
		if len(line) == 0 {
			continue
		}
		lp.AddTravel(line[0], false)
		var last *GCodePath
		for _, p := range line[1:] {
			last = lp.AddExtrusionMove(p, config, feature, flow, false, 1, -1)
		}
		results = append(results, last)
	}
	return results
}

func reversePolygon(p geom.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// AddLinesMonotonic emits infill lines sorted by the projection of each
// line's first point onto direction, so every pair of lines is visited
// in non-decreasing projected order (spec §4.5 table, "monotonic"
// ordering). There is no adjacency-distance parameter: the sort covers
// all lines, not only neighbouring ones.
func (lp *LayerPlan) AddLinesMonotonic(lines []geom.Polygon, config *GCodePathConfig, feature PrintFeatureType, direction geom.Point2D, flow float64) []*GCodePath {
	type scored struct {
		line  geom.Polygon
		proj  float64
	}
	dx, dy := direction.ToFloat()
	norm := (dx*dx + dy*dy)
	items := make([]scored, len(lines))
	for i, l := range lines {
		if len(l) == 0 {
			items[i] = scored{line: l}
			continue
		}
		mx, my := l[0].ToFloat()
		proj := 0.0
		if norm > 0 {
			proj = (mx*dx + my*dy) / norm
		}
		items[i] = scored{line: l, proj: proj}
	}
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].proj < items[j-1].proj; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}

	results := make([]*GCodePath, 0, len(items))
	for _, it := range items {
		if len(it.line) == 0 {
			continue
		}
		start := it.line[0]
		if it.line[len(it.line)-1].Dist2(lp.CurrentPosition) < start.Dist2(lp.CurrentPosition) {
			it.line = reversePolygon(it.line)
			start = it.line[0]
		}
		lp.AddTravel(start, false)
		var last *GCodePath
		for _, p := range it.line[1:] {
			last = lp.AddExtrusionMove(p, config, feature, flow, false, 1, -1)
		}
		results = append(results, last)
	}
	return results
}
