package layerplan

// ApplyBackPressureCompensation scales every extrusion path's
// BackPressureFactor by how far its nominal flow rate (mm^3/s) departs
// from referenceFlowRate, damped by k (spec §4.5.1). k=0 is a no-op
// (invariant 6); k=1 applies the full compensation.
//
// factor = 1 + k * (flowRate/referenceFlowRate - 1)
//
// referenceFlowRate is typically the flow rate of the slowest wall on
// the layer; since the factor multiplies the emission speed, flowRate
// below it yields factor < 1 (a slower path) and flowRate above it
// yields factor > 1 (a faster path).
func (lp *LayerPlan) ApplyBackPressureCompensation(k float64, referenceFlowRate float64) {
	if referenceFlowRate <= 0 {
		return
	}
	for _, ep := range lp.ExtruderPlans {
		for _, p := range ep.Paths {
			if p.IsTravelPath() {
				p.BackPressureFactor = 1
				continue
			}
			flowRate := p.Config.ExtrusionMM3PerMM() * p.Config.Speed * p.SpeedFactor * p.Flow
			p.BackPressureFactor = 1 + k*(flowRate/referenceFlowRate-1)
		}
	}
}
