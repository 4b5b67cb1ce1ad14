package geom

// ExtrusionJunction is one vertex of a variable-width wall toolpath: a
// position, the extrusion width at that point, and the inset index it
// belongs to (0 is the outermost wall).
type ExtrusionJunction struct {
	Point     Point2D
	Width     Micrometer
	InsetIndex int
}

// ExtrusionLine is an ordered sequence of junctions representing one
// variable-width wall toolpath. Width can vary per junction; Closed
// marks whether there is an implicit edge from the last junction back to
// the first.
type ExtrusionLine struct {
	Junctions  []ExtrusionJunction
	Closed     bool
	InsetIndex int
	// Odd marks a gap-filler / single-extrusion trace: a short line
	// inserted between walls to cover a sub-nozzle-width gap, always
	// printed after the walls that enclose it (spec §4.4, §GLOSSARY).
	Odd bool
}

// Polygon returns the junction positions as a plain polygon, discarding
// width/inset information.
func (l ExtrusionLine) Polygon() Polygon {
	poly := make(Polygon, len(l.Junctions))
	for i, j := range l.Junctions {
		poly[i] = j.Point
	}
	return poly
}

// Length returns the total length of the line, honouring Closed.
func (l ExtrusionLine) Length() Micrometer {
	return l.Polygon().length(l.Closed)
}

// MinWidth returns the smallest junction width on the line, or 0 if
// empty.
func (l ExtrusionLine) MinWidth() Micrometer {
	if len(l.Junctions) == 0 {
		return 0
	}
	min := l.Junctions[0].Width
	for _, j := range l.Junctions[1:] {
		if j.Width < min {
			min = j.Width
		}
	}
	return min
}

// MaxWidth returns the largest junction width on the line, or 0 if
// empty.
func (l ExtrusionLine) MaxWidth() Micrometer {
	var max Micrometer
	for _, j := range l.Junctions {
		if j.Width > max {
			max = j.Width
		}
	}
	return max
}
