package layerplan

import "github.com/aligator/goslice-pathplan/geom"

// mergeCollinearTolerance is the fraction of line-width-cubed volume
// error a merge across a short travel gap may introduce (spec §4.5.2,
// invariant 5: "within a tolerance of 1% of the line width cubed").
const mergeCollinearTolerance = 0.01

// mergeCollinearAngleCos is the minimum cosine of the angle between the
// incoming and outgoing extrusion directions for a gap to be considered
// collinear enough to bridge.
const mergeCollinearAngleCos = 0.999

// MergeCollinearLines removes short travels sandwiched between two
// extrusions of identical config/flow that are nearly collinear with
// the gap, joining them into one continuous extrusion (spec §4.5.2).
// Candidates marked SkipAggressiveMergeHint are left untouched. Only
// gaps small enough to keep the introduced volume error within
// mergeCollinearTolerance of line-width-cubed are merged, so the total
// extruded volume is preserved within that tolerance (invariant 5).
func (lp *LayerPlan) MergeCollinearLines() {
	for _, ep := range lp.ExtruderPlans {
		ep.Paths = mergeExtruderPaths(ep.Paths)
	}
}

func mergeExtruderPaths(paths []*GCodePath) []*GCodePath {
	if len(paths) < 3 {
		return paths
	}
	out := make([]*GCodePath, 0, len(paths))
	i := 0
	for i < len(paths) {
		if i+2 < len(paths) && canMergeAcrossGap(paths[i], paths[i+1], paths[i+2]) {
			merged := &GCodePath{
				Config:             paths[i].Config,
				MeshID:             paths[i].MeshID,
				Feature:            paths[i].Feature,
				Flow:               paths[i].Flow,
				SpeedFactor:        paths[i].SpeedFactor,
				BackPressureFactor: paths[i].BackPressureFactor,
				FanSpeed:           paths[i].FanSpeed,
				Points:             append(append([]geom.Point2D{}, paths[i].Points...), paths[i+2].Points[1:]...),
			}
			out = append(out, merged)
			i += 3
			continue
		}
		out = append(out, paths[i])
		i++
	}
	return out
}

// canMergeAcrossGap reports whether a (extrusion), t (travel), b
// (extrusion) form a mergeable collinear run.
func canMergeAcrossGap(a, t, b *GCodePath) bool {
	if !t.IsTravelPath() || t.Retract || len(t.Points) != 2 {
		return false
	}
	if a.IsTravelPath() || b.IsTravelPath() {
		return false
	}
	if a.SkipAggressiveMergeHint || b.SkipAggressiveMergeHint {
		return false
	}
	if a.Config != b.Config || a.Flow != b.Flow || a.SpeedFactor != b.SpeedFactor {
		return false
	}
	if len(a.Points) < 2 || len(b.Points) < 2 {
		return false
	}

	aLast2, aLast1 := a.Points[len(a.Points)-2], a.Points[len(a.Points)-1]
	bFirst1, bFirst2 := b.Points[0], b.Points[1]
	if aLast1 != t.Points[0] || bFirst1 != t.Points[1] {
		return false
	}

	inDir := aLast1.Sub(aLast2)
	gapDir := bFirst1.Sub(aLast1)
	outDir := bFirst2.Sub(bFirst1)
	if !nearlyCollinear(inDir, gapDir) || !nearlyCollinear(gapDir, outDir) {
		return false
	}

	width := a.Config.LineWidth
	if width <= 0 {
		return false
	}
	gap := aLast1.Dist(bFirst1)
	// volume added by bridging the gap: gap * width * layerHeight * flow.
	// Limiting gap to tolerance * width keeps that under tolerance *
	// width^3 whenever layerHeight * flow <= width.
	maxGap := geom.Micrometer(mergeCollinearTolerance * float64(width))
	return gap <= maxGap
}

func nearlyCollinear(u, v geom.Point2D) bool {
	uLen, vLen := u.Size(), v.Size()
	if uLen == 0 || vLen == 0 {
		return true
	}
	cos := float64(u.Dot(v)) / (float64(uLen) * float64(vLen))
	return cos >= mergeCollinearAngleCos
}
