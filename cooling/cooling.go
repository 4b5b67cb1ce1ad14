// Package cooling implements the per-layer cooling and minimum-layer-time
// adjuster (spec §4.6): it estimates how long an ExtruderPlan's paths
// will take to print, slows extrusion down when the layer would
// otherwise cool too little, and resolves the fan speed for the layer.
package cooling

import (
	"log"

	"github.com/aligator/goslice-pathplan/layerplan"
)

// Settings bundles the cool_* keys consulted by Adjust, named after
// FanSpeedLayerTimeSettings.
type Settings struct {
	MinLayerTime            float64 // seconds
	MinLayerTimeFanSpeedMax float64 // seconds
	FanSpeed0               float64 // percent, layer 0
	FanSpeedMin             float64 // percent
	FanSpeedMax             float64 // percent
	MinSpeed                float64 // mm/s, extrusion speed floor
	FanFullLayer            int     // layer index the ramp completes at

	TravelSpeed          float64 // mm/s, used for naive travel time
	RetractUnretractTime float64 // seconds, split half/half per §4.6 step 1

	// Logger reports when the speed floor blocks reaching MinLayerTime
	// and dwell time is recorded instead. Nil disables logging.
	Logger *log.Logger
}

func (s Settings) warnf(format string, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Printf(format, args...)
}

// Adjust runs §4.6 over one ExtruderPlan in place: it computes naive
// time estimates from each path's nominal (pre-cooling) speed, applies a
// slowdown factor bounded by MinSpeed if the plan would otherwise finish
// before MinLayerTime, and resolves the fan speed for layerIndex.
//
// The naive estimate always starts from nominal per-path speeds
// (config.Speed * path.SpeedFactor * path.BackPressureFactor) rather
// than from ep.ExtrudeSpeedFactor, so the computed factor and resulting
// Estimate depend only on the plan's geometry and per-path settings,
// never on a previous Adjust call's output. That makes the adjuster
// idempotent (invariant 8): a second call with the same plan recomputes
// the identical factor and leaves it unchanged.
func Adjust(ep *layerplan.ExtruderPlan, s Settings, layerIndex int) {
	nominal := naiveEstimate(ep, s)

	total := nominal.Total()
	if total < s.MinLayerTime {
		applySlowdown(ep, s, nominal)
	} else {
		ep.ExtrudeSpeedFactor = 1
		ep.ExtraTime = 0
		ep.Estimate = nominal
	}

	fanSpeed := resolveFanSpeed(s, total)
	ep.FanSpeed = rampEarlyLayerFan(s, layerIndex, fanSpeed)
}

// naiveEstimate computes §4.6 step 1 from nominal per-path speeds:
// Δt = |p_i − p_{i−1}| / speed_i for every segment of every path,
// travels split half retracted/half unretracted when the path retracts.
func naiveEstimate(ep *layerplan.ExtruderPlan, s Settings) layerplan.TimeEstimate {
	var total layerplan.TimeEstimate
	for _, p := range ep.Paths {
		for i := 1; i < len(p.Points); i++ {
			dist := p.Points[i-1].Dist(p.Points[i])
			mm := float64(dist) / 1000
			if p.IsTravelPath() {
				speed := s.TravelSpeed * p.SpeedFactor
				if speed <= 0 {
					continue
				}
				t := mm / speed
				if p.Retract {
					total.RetractedTravelTime += t
				} else {
					total.UnretractedTravelTime += t
				}
			} else {
				speed := p.Config.Speed * p.SpeedFactor * p.BackPressureFactor
				if speed <= 0 {
					continue
				}
				total.ExtrudeTime += mm / speed
				total.Material += mm * p.Config.ExtrusionMM3PerMM() * p.Flow
			}
		}
		if p.Retract {
			total.RetractedTravelTime += s.RetractUnretractTime / 2
			total.UnretractedTravelTime += s.RetractUnretractTime / 2
		}
	}
	return total
}

// applySlowdown implements §4.6 step 3: pick a factor f <= 1 that
// stretches nominal extrude time to fill the time available after
// travel, floored so no extrusion speed falls below MinSpeed; any
// shortfall remaining after hitting the floor becomes dwell time.
func applySlowdown(ep *layerplan.ExtruderPlan, s Settings, nominal layerplan.TimeEstimate) {
	travelTime := nominal.TravelTime()
	available := s.MinLayerTime - travelTime
	if available <= 0 || nominal.ExtrudeTime <= 0 {
		ep.ExtrudeSpeedFactor = 1
		ep.Estimate = nominal
		ep.ExtraTime = s.MinLayerTime - nominal.Total()
		if ep.ExtraTime < 0 {
			ep.ExtraTime = 0
		}
		return
	}

	f := nominal.ExtrudeTime / available
	if f > 1 {
		f = 1 // never speed extrusion up here
	}

	floor := minAllowedFactor(ep, s)
	adjusted := nominal
	if f < floor {
		f = floor
		adjusted.ExtrudeTime = nominal.ExtrudeTime / f
		achieved := travelTime + adjusted.ExtrudeTime
		ep.ExtraTime = s.MinLayerTime - achieved
		if ep.ExtraTime < 0 {
			ep.ExtraTime = 0
		}
		if ep.ExtraTime > 0 {
			s.warnf("cooling: extruder %d hit the minimum speed floor, adding %.3fs of dwell time to reach the minimum layer time", ep.Extruder, ep.ExtraTime)
		}
	} else {
		adjusted.ExtrudeTime = nominal.ExtrudeTime / f
		ep.ExtraTime = 0
	}

	ep.ExtrudeSpeedFactor = f
	ep.Estimate = adjusted
}

// minAllowedFactor returns the smallest speed factor that keeps every
// extrusion path's nominal speed at or above MinSpeed.
func minAllowedFactor(ep *layerplan.ExtruderPlan, s Settings) float64 {
	if s.MinSpeed <= 0 {
		return 0
	}
	var floor float64
	for _, p := range ep.Paths {
		if p.IsTravelPath() || p.Config.Speed <= 0 {
			continue
		}
		nominalSpeed := p.Config.Speed * p.SpeedFactor
		f := s.MinSpeed / nominalSpeed
		if f > floor {
			floor = f
		}
	}
	return floor
}

// resolveFanSpeed implements §4.6 step 4: a piecewise/linear function
// of total_layer_time.
func resolveFanSpeed(s Settings, totalLayerTime float64) float64 {
	switch {
	case totalLayerTime >= s.MinLayerTimeFanSpeedMax:
		return s.FanSpeedMin
	case totalLayerTime <= s.MinLayerTime:
		return s.FanSpeedMax
	default:
		span := s.MinLayerTimeFanSpeedMax - s.MinLayerTime
		if span <= 0 {
			return s.FanSpeedMax
		}
		t := (totalLayerTime - s.MinLayerTime) / span
		return s.FanSpeedMax + t*(s.FanSpeedMin-s.FanSpeedMax)
	}
}

// rampEarlyLayerFan implements §4.6 step 5: linear ramp from
// FanSpeed0 at layer 0 to resolved at layer FanFullLayer.
func rampEarlyLayerFan(s Settings, layerIndex int, resolved float64) float64 {
	if s.FanFullLayer <= 0 || layerIndex >= s.FanFullLayer {
		return resolved
	}
	if layerIndex <= 0 {
		return s.FanSpeed0
	}
	t := float64(layerIndex) / float64(s.FanFullLayer)
	return s.FanSpeed0 + t*(resolved-s.FanSpeed0)
}
