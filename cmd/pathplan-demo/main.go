// Command pathplan-demo drives the path-planning core over one
// synthetic layer, the way cmd/goslice drove the full teacher pipeline:
// parse flags into a settings map, build a pipeline of stages, run it,
// and report what happened.
package main

import (
	"fmt"
	"os"
	"time"

	pathplan "github.com/aligator/goslice-pathplan"
	"github.com/aligator/goslice-pathplan/comb"
	"github.com/aligator/goslice-pathplan/cooling"
	"github.com/aligator/goslice-pathplan/geom"
	"github.com/aligator/goslice-pathplan/insetorder"
	"github.com/aligator/goslice-pathplan/layerplan"
	"github.com/aligator/goslice-pathplan/settings"
	"github.com/spf13/pflag"
)

// PathPlanDemo bundles the one layer's worth of state the way GoSlice
// bundled reader/optimizer/slicer/modifiers/generator/writer.
type PathPlanDemo struct {
	ctx      *pathplan.Context
	settings settings.Settings
	comber   *comb.Comber
	plan     *layerplan.LayerPlan

	wallWidth   geom.Micrometer
	layerHeight geom.Micrometer
	wallSpeed   float64
}

// NewPathPlanDemo builds a demo layer: a single square outer wall
// boundary, one gap-filling odd line down its center, and the comber
// that routes travel around it.
func NewPathPlanDemo(s settings.Settings) (*PathPlanDemo, error) {
	wallWidth, err := s.Micrometers("wall_line_width")
	if err != nil {
		return nil, err
	}
	if wallWidth == 0 {
		wallWidth = 400
	}
	layerHeight, err := s.Micrometers("layer_height")
	if err != nil {
		return nil, err
	}
	if layerHeight == 0 {
		layerHeight = 200
	}
	speed, err := s.Velocity("speed_wall")
	if err != nil {
		return nil, err
	}
	if speed == 0 {
		speed = 50
	}
	travelSpeed, err := s.Velocity("speed_travel")
	if err != nil {
		return nil, err
	}
	if travelSpeed == 0 {
		travelSpeed = 150
	}

	boundary := geom.PolygonSet{{
		{X: 0, Y: 0}, {X: 10000, Y: 0}, {X: 10000, Y: 10000}, {X: 0, Y: 10000},
	}}

	ctx := pathplan.NewContext()

	comber := comb.New(boundary, boundary, wallWidth/2, geom.OutsideBoundaryFunc(boundary, wallWidth*4))
	plan := layerplan.New(0, geom.Point2D{}, 0, comber, comb.Policy{
		MaxMoveInsideDistance:        wallWidth,
		RetractionCombingMaxDistance: 0,
		AllowAirWithoutRetract:       true,
		ZHop:                         comb.ZHopWhenCollides,
	}, wallWidth*2, travelSpeed)
	plan.SetLogger(ctx.Logger)

	return &PathPlanDemo{
		ctx:         ctx,
		settings:    s,
		comber:      comber,
		plan:        plan,
		wallWidth:   wallWidth,
		layerHeight: layerHeight,
		wallSpeed:   speed,
	}, nil
}

// Process runs inset precedence, extrusion, the collinear merge pass,
// back-pressure compensation, and the cooling adjuster over the demo
// layer, mirroring GoSlice.Process's stage list. The precedence is
// computed but not consulted: the wall is always emitted first and the
// gap filler second.
func (d *PathPlanDemo) Process() error {
	wall := geom.ExtrusionLine{
		InsetIndex: 0,
		Closed:     true,
		Junctions: []geom.ExtrusionJunction{
			{Point: geom.Point2D{X: 0, Y: 0}, Width: 400, InsetIndex: 0},
			{Point: geom.Point2D{X: 10000, Y: 0}, Width: 400, InsetIndex: 0},
			{Point: geom.Point2D{X: 10000, Y: 10000}, Width: 400, InsetIndex: 0},
			{Point: geom.Point2D{X: 0, Y: 10000}, Width: 400, InsetIndex: 0},
		},
	}
	odd := geom.ExtrusionLine{
		InsetIndex: 1,
		Odd:        true,
		Junctions: []geom.ExtrusionJunction{
			{Point: geom.Point2D{X: 5000, Y: 2000}, Width: 200, InsetIndex: 1},
			{Point: geom.Point2D{X: 5000, Y: 8000}, Width: 200, InsetIndex: 1},
		},
	}
	lines := []geom.ExtrusionLine{wall, odd}

	direction, err := d.settings.Enum("inset_direction", "outside_in", "inside_out")
	if err != nil {
		return err
	}
	dir := insetorder.OutsideIn
	if direction == "inside_out" {
		dir = insetorder.InsideOut
	}
	centerLast, err := d.settings.Bool("wall_order_center_last")
	if err != nil {
		return err
	}
	insetorder.BuildPrecedence(lines, dir, true, centerLast)

	cfg := &layerplan.GCodePathConfig{Feature: layerplan.FeatureOuterWall, LineWidth: d.wallWidth, LayerHeight: d.layerHeight, Speed: d.wallSpeed}
	if _, err := d.plan.AddWall(wall, 0, cfg, nil, layerplan.FeatureOuterWall, d.wallWidth/2, 1, false, 0.6, 2); err != nil {
		pe, ok := err.(*pathplan.Error)
		if !ok || d.ctx.Report(d.plan.LayerIndex, pe) {
			return err
		}
	}

	oddCfg := &layerplan.GCodePathConfig{Feature: layerplan.FeatureInfill, LineWidth: d.wallWidth / 2, LayerHeight: d.layerHeight, Speed: d.wallSpeed * 1.6}
	d.plan.AddLinesByOptimiser([]geom.Polygon{odd.Polygon()}, oddCfg, layerplan.FeatureInfill, nil, 1)

	d.plan.MergeCollinearLines()
	d.plan.ApplyBackPressureCompensation(0.5, cfg.Speed*cfg.ExtrusionMM3PerMM())

	minLayerTime, err := d.settings.Duration("cool_min_layer_time")
	if err != nil {
		return err
	}
	for _, ep := range d.plan.ExtruderPlans {
		cooling.Adjust(ep, cooling.Settings{
			MinLayerTime:            minLayerTime,
			MinLayerTimeFanSpeedMax: minLayerTime * 2,
			FanSpeedMin:             50,
			FanSpeedMax:             100,
			TravelSpeed:             150,
			Logger:                  d.ctx.Logger,
		}, d.plan.LayerIndex)
	}

	return nil
}

func main() {
	wallLineWidth := pflag.String("wall-line-width", "400", "wall line width in micrometres")
	layerHeight := pflag.String("layer-height", "200", "layer height in micrometres")
	speedWall := pflag.String("speed-wall", "50", "wall print speed in mm/s")
	speedTravel := pflag.String("speed-travel", "150", "travel speed in mm/s")
	insetDirection := pflag.String("inset-direction", "outside_in", "outside_in or inside_out")
	centerLast := pflag.Bool("wall-order-center-last", false, "print gap-filler lines after every wall")
	minLayerTime := pflag.String("cool-min-layer-time", "5", "minimum time a layer must take to print, in seconds")
	verbose := pflag.Bool("verbose", false, "log recovered errors and cooling/combing fallbacks to stderr")
	pflag.Parse()

	s := settings.Settings{
		"wall_line_width":        *wallLineWidth,
		"layer_height":           *layerHeight,
		"speed_wall":             *speedWall,
		"speed_travel":           *speedTravel,
		"inset_direction":        *insetDirection,
		"wall_order_center_last": fmt.Sprintf("%v", *centerLast),
		"cool_min_layer_time":    *minLayerTime,
	}

	demo, err := NewPathPlanDemo(s)
	if err != nil {
		fail(err)
	}
	if *verbose {
		demo.ctx.Logger.SetOutput(os.Stderr)
	}

	start := time.Now()
	if err := demo.Process(); err != nil {
		fail(err)
	}

	for i, ep := range demo.plan.ExtruderPlans {
		fmt.Printf("extruder plan %d: extruder=%d paths=%d fan=%.1f%% extra_time=%.3fs\n",
			i, ep.Extruder, len(ep.Paths), ep.FanSpeed, ep.ExtraTime)
	}
	fmt.Println("total processing time:", time.Since(start))
}

func fail(err error) {
	if pe, ok := err.(*pathplan.Error); ok {
		fmt.Fprintln(os.Stderr, pathplan.FailureRecord{LayerNr: 0, Reason: pe})
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
