// Package layerplan owns the per-layer mutable state (spec §4.5): the
// GCodePathConfig/GCodePath/ExtruderPlan/LayerPlan data model and the
// operations that build up a plan one move at a time.
package layerplan

import "github.com/aligator/goslice-pathplan/geom"

// PrintFeatureType classifies what a path is printing, for layer-view
// colouring and for feature-specific speed/fan rules.
type PrintFeatureType int

const (
	FeatureNone PrintFeatureType = iota
	FeatureOuterWall
	FeatureInnerWall
	FeatureSkin
	FeatureSupport
	FeatureSupportInfill
	FeatureSupportInterface
	FeaturePrimeTower
	FeatureSkirtBrim
	FeatureInfill
	FeatureMoveCombing
	FeatureMoveRetraction
)

// GCodePathConfig is the immutable, per-(mesh, feature) printing
// configuration shared by borrow across every path that uses it (spec
// §5 "Shared resources", §9 "Borrowed pointers to GCodePathConfig").
type GCodePathConfig struct {
	Feature     PrintFeatureType
	LineWidth   geom.Micrometer
	LayerHeight geom.Micrometer
	Speed       float64 // mm/s
	IsTravel    bool
	IsBridge    bool
}

// ExtrusionMM3PerMM returns the material volume per millimetre travelled
// at full flow, 0 for travel configs.
func (c *GCodePathConfig) ExtrusionMM3PerMM() float64 {
	if c == nil || c.IsTravel {
		return 0
	}
	return float64(c.LineWidth) / 1000 * float64(c.LayerHeight) / 1000
}

// TravelConfig returns a new travel configuration on every call: zero
// line width, zero layer height, the given travel speed.
func TravelConfig(speed float64) *GCodePathConfig {
	return &GCodePathConfig{Feature: FeatureMoveCombing, IsTravel: true, Speed: speed}
}

// GCodePath is one contiguous run of same-configuration moves (spec
// §3/§4.5).
type GCodePath struct {
	Config *GCodePathConfig
	MeshID string
	Feature PrintFeatureType

	// Flow is the type-independent flow ratio (1.0 = nominal).
	Flow float64
	// SpeedFactor multiplies the config speed.
	SpeedFactor float64
	// BackPressureFactor multiplies the emission speed further, per
	// §4.5.1. Always 1 for travel paths.
	BackPressureFactor float64

	Retract                      bool
	UnretractBeforeLastTravelMove bool
	PerformZHop                  bool
	PerformPrime                 bool
	SkipAggressiveMergeHint      bool

	Points []geom.Point2D
	Done   bool

	Spiralize bool

	// FanSpeed overrides the plan's fan speed for this path when >= 0.
	FanSpeed float64

	Estimate TimeEstimate
}

// IsTravelPath reports whether this path's config is a travel config.
func (p *GCodePath) IsTravelPath() bool {
	return p.Config != nil && p.Config.IsTravel
}

// ExtrudedVolume returns the total material volume (mm^3) this path
// extrudes: 0 for travel paths, by invariant.
func (p *GCodePath) ExtrudedVolume() float64 {
	if p.IsTravelPath() || len(p.Points) < 2 {
		return 0
	}
	var length geom.Micrometer
	for i := 1; i < len(p.Points); i++ {
		length += p.Points[i-1].Dist(p.Points[i])
	}
	return float64(length) / 1000 * p.Config.ExtrusionMM3PerMM() * p.Flow
}

// TimeEstimate is the naive time/material estimate for a path,
// extruder plan, or layer plan (spec §4.6 step 1, supplementing
// TimeMaterialEstimates).
type TimeEstimate struct {
	ExtrudeTime             float64 // seconds
	UnretractedTravelTime   float64
	RetractedTravelTime     float64
	Material                float64 // mm^3
}

func (e TimeEstimate) Total() float64 {
	return e.ExtrudeTime + e.UnretractedTravelTime + e.RetractedTravelTime
}

func (e TimeEstimate) TotalUnretracted() float64 {
	return e.ExtrudeTime + e.UnretractedTravelTime
}

func (e TimeEstimate) TravelTime() float64 {
	return e.UnretractedTravelTime + e.RetractedTravelTime
}

func (e *TimeEstimate) Add(o TimeEstimate) {
	e.ExtrudeTime += o.ExtrudeTime
	e.UnretractedTravelTime += o.UnretractedTravelTime
	e.RetractedTravelTime += o.RetractedTravelTime
	e.Material += o.Material
}
