package comb

import "github.com/aligator/goslice-pathplan/geom"

// Fixed offsets from the original combing design (§4.2), kept as named
// constants rather than inlined magic numbers so their rationale stays
// attached to one place. Both feed nudgeInside, which pushes a resolved
// boundary point further into its part so later point-in-polygon checks
// don't land exactly on an edge.
const (
	// offsetDistToGetFromOnThePolygonToOutside nudges a point that sits
	// exactly on a boundary edge a little further into its part, so a
	// subsequent inside/outside test isn't ambiguous about which side it's
	// on.
	offsetDistToGetFromOnThePolygonToOutside geom.Micrometer = 40

	// offsetExtraStartEnd moves the resolved start/end crossings a
	// little further apart from the boundary they cross, as extra
	// insurance against the nozzle grazing the wall.
	offsetExtraStartEnd geom.Micrometer = 100
)
