package layerplan

import (
	"testing"

	"github.com/aligator/goslice-pathplan/comb"
	"github.com/aligator/goslice-pathplan/geom"
)

func wallConfig() *GCodePathConfig {
	return &GCodePathConfig{Feature: FeatureOuterWall, LineWidth: 400, LayerHeight: 200, Speed: 50}
}

func newTestPlan() *LayerPlan {
	return New(0, geom.Point2D{}, 0, nil, comb.Policy{}, 1000, 150)
}

// Scenario 1 (short travel, no retraction): a travel shorter than the
// nozzle's outer diameter is a plain move with no retraction or Z-hop.
func TestAddTravelShortMoveNoRetraction(t *testing.T) {
	lp := newTestPlan()
	gp := lp.AddTravel(geom.Point2D{X: 500, Y: 0}, false)
	if gp.Retract {
		t.Errorf("expected no retraction for a short travel")
	}
	if gp.PerformZHop {
		t.Errorf("expected no Z-hop for a short travel")
	}
}

// Invariant 1: adjacent extruder plans never share an extruder number.
func TestSetExtruderAlternatesOnlyOnChange(t *testing.T) {
	lp := newTestPlan()
	lp.SetExtruder(0)
	lp.SetExtruder(0)
	lp.SetExtruder(1)
	lp.SetExtruder(1)
	lp.SetExtruder(0)
	if len(lp.ExtruderPlans) != 3 {
		t.Fatalf("expected 3 extruder plans, got %d", len(lp.ExtruderPlans))
	}
	for i := 1; i < len(lp.ExtruderPlans); i++ {
		if lp.ExtruderPlans[i].Extruder == lp.ExtruderPlans[i-1].Extruder {
			t.Errorf("adjacent extruder plans %d/%d share extruder %d", i-1, i, lp.ExtruderPlans[i].Extruder)
		}
	}
}

// Invariant 2: travel implies non-extrusion.
func TestTravelPathsExtrudeNoVolume(t *testing.T) {
	lp := newTestPlan()
	lp.AddTravel(geom.Point2D{X: 10000, Y: 0}, false)
	for _, ep := range lp.ExtruderPlans {
		for _, p := range ep.Paths {
			if p.IsTravelPath() && p.ExtrudedVolume() != 0 {
				t.Errorf("travel path extruded non-zero volume: %v", p.ExtrudedVolume())
			}
		}
	}
}

// Invariant 4: retract implies travel.
func TestForceRetractOnlyAppliesToTravelPaths(t *testing.T) {
	lp := newTestPlan()
	gp := lp.AddTravel(geom.Point2D{X: 10000, Y: 0}, true)
	if !gp.IsTravelPath() {
		t.Fatalf("expected the forced-retract path to be a travel path")
	}
	if !gp.Retract {
		t.Errorf("expected Retract=true when forceRetract is set")
	}
}

// Invariant 6: back-pressure compensation at k=0 is a no-op.
func TestBackPressureCompensationNeutralAtZero(t *testing.T) {
	lp := newTestPlan()
	cfg := wallConfig()
	lp.AddExtrusionMove(geom.Point2D{X: 1000, Y: 0}, cfg, FeatureOuterWall, 1, false, 1, -1)
	lp.AddExtrusionMove(geom.Point2D{X: 2000, Y: 0}, cfg, FeatureOuterWall, 1, false, 2, -1)
	lp.ApplyBackPressureCompensation(0, 10)
	for _, ep := range lp.ExtruderPlans {
		for _, p := range ep.Paths {
			if p.BackPressureFactor != 1 {
				t.Errorf("expected BackPressureFactor=1 at k=0, got %v", p.BackPressureFactor)
			}
		}
	}
}

// Invariant 5: merging collinear lines preserves the extruded volume
// within tolerance.
func TestMergeCollinearLinesPreservesVolume(t *testing.T) {
	lp := newTestPlan()
	cfg := wallConfig()
	lp.AddExtrusionMove(geom.Point2D{X: 1000, Y: 0}, cfg, FeatureInfill, 1, false, 1, -1)
	lp.AddTravelSimple(geom.Point2D{X: 1002, Y: 0}) // 2um gap, well under 1% of 400um width
	lp.AddExtrusionMove(geom.Point2D{X: 2000, Y: 0}, cfg, FeatureInfill, 1, false, 1, -1)

	var before float64
	for _, ep := range lp.ExtruderPlans {
		for _, p := range ep.Paths {
			before += p.ExtrudedVolume()
		}
	}

	lp.MergeCollinearLines()

	var after float64
	pathCount := 0
	for _, ep := range lp.ExtruderPlans {
		for _, p := range ep.Paths {
			pathCount++
			after += p.ExtrudedVolume()
		}
	}
	if pathCount != 1 {
		t.Fatalf("expected the gap to be merged into a single path, got %d paths", pathCount)
	}
	tolerance := mergeCollinearTolerance * float64(cfg.LineWidth) / 1000 * float64(cfg.LineWidth) / 1000 * float64(cfg.LayerHeight) / 1000
	if diff := after - before; diff < 0 || diff > tolerance {
		t.Errorf("merged volume %v differs from original %v by more than tolerance %v", after, before, tolerance)
	}
}

// AddWall must slow segments whose midpoint falls in the overhang mask
// to the supplied cooling-dependent factor, and leave supported
// segments at full speed (spec.md:182).
func TestAddWallSlowsOverhangSegments(t *testing.T) {
	lp := newTestPlan()
	cfg := wallConfig()
	wall := geom.ExtrusionLine{
		Closed: true,
		Junctions: []geom.ExtrusionJunction{
			{Point: geom.Point2D{X: 0, Y: 0}, Width: 400},
			{Point: geom.Point2D{X: 10000, Y: 0}, Width: 400},
			{Point: geom.Point2D{X: 10000, Y: 10000}, Width: 400},
			{Point: geom.Point2D{X: 0, Y: 10000}, Width: 400},
		},
	}
	// Covers only the first edge's midpoint (5000, 0).
	lp.SetOverhangMask(geom.PolygonSet{{
		{X: 0, Y: -100}, {X: 10000, Y: -100}, {X: 10000, Y: 100}, {X: 0, Y: 100},
	}})

	if _, err := lp.AddWall(wall, 0, cfg, nil, FeatureOuterWall, 0, 1, false, 0.5, 0); err != nil {
		t.Fatalf("AddWall returned an error: %v", err)
	}

	ep := lp.ExtruderPlans[0]
	var extrusionPaths []*GCodePath
	for _, p := range ep.Paths {
		if !p.IsTravelPath() {
			extrusionPaths = append(extrusionPaths, p)
		}
	}
	if len(extrusionPaths) != 2 {
		t.Fatalf("expected the overhang edge to split into its own path (2 extrusion paths), got %d", len(extrusionPaths))
	}
	if extrusionPaths[0].SpeedFactor != 0.5 {
		t.Errorf("expected the overhang edge at full speed factor 0.5, got %v", extrusionPaths[0].SpeedFactor)
	}
	if extrusionPaths[1].SpeedFactor != 1 {
		t.Errorf("expected the remaining supported edges at speed factor 1, got %v", extrusionPaths[1].SpeedFactor)
	}
}

// A bridge exit must ramp non-bridge speed back up gradually rather
// than snapping straight to full speed (spec.md:182, LayerPlan.h's
// non_bridge_line_volume).
func TestAddWallRampsSpeedAfterBridgeExit(t *testing.T) {
	lp := newTestPlan()
	nonBridge := wallConfig()
	bridge := &GCodePathConfig{Feature: FeatureOuterWall, LineWidth: 400, LayerHeight: 200, Speed: 20, IsBridge: true}
	wall := geom.ExtrusionLine{
		Closed: true,
		Junctions: []geom.ExtrusionJunction{
			{Point: geom.Point2D{X: 0, Y: 0}, Width: 400},
			{Point: geom.Point2D{X: 10000, Y: 0}, Width: 400},
			{Point: geom.Point2D{X: 10000, Y: 10000}, Width: 400},
			{Point: geom.Point2D{X: 0, Y: 10000}, Width: 400},
		},
	}
	// Covers only the first edge's midpoint: that edge bridges, the rest don't.
	lp.SetBridgeWallMask(geom.PolygonSet{{
		{X: 0, Y: -100}, {X: 10000, Y: -100}, {X: 10000, Y: 100}, {X: 0, Y: 100},
	}})

	// A large minNonBridgeLineVolume keeps every post-bridge segment
	// still ramping, so each successive one gets its own path (volume
	// accumulates per segment, changing the speed factor each time).
	if _, err := lp.AddWall(wall, 0, nonBridge, bridge, FeatureOuterWall, 0, 1, false, 0, 1_000_000); err != nil {
		t.Fatalf("AddWall returned an error: %v", err)
	}

	ep := lp.ExtruderPlans[0]
	var extrusionPaths []*GCodePath
	for _, p := range ep.Paths {
		if !p.IsTravelPath() {
			extrusionPaths = append(extrusionPaths, p)
		}
	}
	if len(extrusionPaths) != 4 {
		t.Fatalf("expected one path per edge (bridge + 3 ramping segments), got %d", len(extrusionPaths))
	}
	if extrusionPaths[0].Config != bridge {
		t.Fatalf("expected the first edge to use the bridge config")
	}
	if extrusionPaths[1].SpeedFactor <= 0 || extrusionPaths[1].SpeedFactor >= 1 {
		t.Errorf("expected the first post-bridge edge to ramp below full speed, got %v", extrusionPaths[1].SpeedFactor)
	}
	if extrusionPaths[3].SpeedFactor <= extrusionPaths[1].SpeedFactor {
		t.Errorf("expected the speed ramp to increase further from the bridge exit: %v -> %v", extrusionPaths[1].SpeedFactor, extrusionPaths[3].SpeedFactor)
	}
}

func TestMergeCollinearLinesSkipsNonCollinearGap(t *testing.T) {
	lp := newTestPlan()
	cfg := wallConfig()
	lp.AddExtrusionMove(geom.Point2D{X: 1000, Y: 0}, cfg, FeatureInfill, 1, false, 1, -1)
	lp.AddTravelSimple(geom.Point2D{X: 1000, Y: 1000}) // perpendicular jog, not collinear
	lp.AddExtrusionMove(geom.Point2D{X: 2000, Y: 1000}, cfg, FeatureInfill, 1, false, 1, -1)

	lp.MergeCollinearLines()

	pathCount := 0
	for _, ep := range lp.ExtruderPlans {
		pathCount += len(ep.Paths)
	}
	if pathCount != 3 {
		t.Errorf("expected the non-collinear gap to remain unmerged (3 paths), got %d", pathCount)
	}
}
