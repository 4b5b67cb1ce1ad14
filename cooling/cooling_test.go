package cooling

import (
	"math"
	"testing"

	"github.com/aligator/goslice-pathplan/comb"
	"github.com/aligator/goslice-pathplan/geom"
	"github.com/aligator/goslice-pathplan/layerplan"
	"github.com/google/go-cmp/cmp"
)

func wallConfig(speed float64) *layerplan.GCodePathConfig {
	return &layerplan.GCodePathConfig{Feature: layerplan.FeatureOuterWall, LineWidth: 400, LayerHeight: 200, Speed: speed}
}

func shortExtruderPlan(speed float64) *layerplan.ExtruderPlan {
	lp := layerplan.New(0, geom.Point2D{}, 0, nil, comb.Policy{}, 1000, 150)
	lp.AddExtrusionMove(geom.Point2D{X: 1000, Y: 0}, wallConfig(speed), layerplan.FeatureOuterWall, 1, false, 1, -1)
	return lp.ExtruderPlans[0]
}

// Scenario 6: minimum layer time slowdown - a short layer is slowed
// down so its total time reaches cool_min_layer_time.
func TestAdjustSlowsDownShortLayer(t *testing.T) {
	ep := shortExtruderPlan(50) // 1mm at 50mm/s = 0.02s, far under any reasonable min layer time
	s := Settings{
		MinLayerTime:            5,
		MinLayerTimeFanSpeedMax: 10,
		FanSpeedMin:             50,
		FanSpeedMax:             100,
		TravelSpeed:             150,
	}
	Adjust(ep, s, 5)

	if ep.ExtrudeSpeedFactor >= 1 {
		t.Fatalf("expected a slowdown factor < 1, got %v", ep.ExtrudeSpeedFactor)
	}
	if total := ep.Estimate.Total(); math.Abs(total-s.MinLayerTime) > 1e-6 {
		t.Errorf("expected adjusted total time to reach min layer time %v, got %v", s.MinLayerTime, total)
	}
	if ep.ExtraTime != 0 {
		t.Errorf("expected no dwell time when the speed floor is not hit, got %v", ep.ExtraTime)
	}
}

func TestAdjustRecordsDwellWhenFloorHit(t *testing.T) {
	ep := shortExtruderPlan(50)
	s := Settings{
		MinLayerTime: 5,
		MinSpeed:     40, // close to nominal speed, severely limiting the slowdown
		TravelSpeed:  150,
	}
	Adjust(ep, s, 5)

	wantFactor := 40.0 / 50.0
	if math.Abs(ep.ExtrudeSpeedFactor-wantFactor) > 1e-9 {
		t.Errorf("expected factor clamped to the speed floor %v, got %v", wantFactor, ep.ExtrudeSpeedFactor)
	}
	if ep.ExtraTime <= 0 {
		t.Errorf("expected positive dwell time when the speed floor blocks full slowdown, got %v", ep.ExtraTime)
	}
}

// Invariant 8: cooling idempotence.
func TestAdjustIsIdempotent(t *testing.T) {
	ep := shortExtruderPlan(50)
	s := Settings{
		MinLayerTime:            5,
		MinLayerTimeFanSpeedMax: 10,
		FanSpeedMin:             50,
		FanSpeedMax:             100,
		MinSpeed:                10,
		TravelSpeed:             150,
	}
	Adjust(ep, s, 5)
	firstFactor, firstEstimate, firstFan, firstExtra := ep.ExtrudeSpeedFactor, ep.Estimate, ep.FanSpeed, ep.ExtraTime

	Adjust(ep, s, 5)
	if ep.ExtrudeSpeedFactor != firstFactor {
		t.Errorf("ExtrudeSpeedFactor changed on repeat: %v -> %v", firstFactor, ep.ExtrudeSpeedFactor)
	}
	if diff := cmp.Diff(firstEstimate, ep.Estimate); diff != "" {
		t.Errorf("Estimate changed on repeat (-first +second):\n%s", diff)
	}
	if ep.FanSpeed != firstFan {
		t.Errorf("FanSpeed changed on repeat: %v -> %v", firstFan, ep.FanSpeed)
	}
	if ep.ExtraTime != firstExtra {
		t.Errorf("ExtraTime changed on repeat: %v -> %v", firstExtra, ep.ExtraTime)
	}
}

func TestResolveFanSpeedPiecewise(t *testing.T) {
	s := Settings{MinLayerTime: 5, MinLayerTimeFanSpeedMax: 10, FanSpeedMin: 50, FanSpeedMax: 100}
	if got := resolveFanSpeed(s, 20); got != 50 {
		t.Errorf("expected min fan speed above the threshold, got %v", got)
	}
	if got := resolveFanSpeed(s, 2); got != 100 {
		t.Errorf("expected max fan speed below min layer time, got %v", got)
	}
	if got := resolveFanSpeed(s, 7.5); got != 75 {
		t.Errorf("expected the midpoint interpolation to be 75, got %v", got)
	}
}
