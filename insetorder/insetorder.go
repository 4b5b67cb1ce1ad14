// Package insetorder implements the inset-order optimiser (spec §4.4):
// it converts an InsetDirection plus pack/center-last flags into a
// precedence relation over extrusion lines, for the path-order
// optimiser to honour.
package insetorder

import (
	"github.com/aligator/goslice-pathplan/geom"
	"github.com/aligator/goslice-pathplan/pathorder"
)

// Direction selects whether outer or inner insets print first.
type Direction int

const (
	OutsideIn Direction = iota
	InsideOut
	CenterLast
)

// diagonalExtension is how much farther two junctions may be apart
// (relative to their average line width) and still be considered
// adjacent, to tolerate corners (§4.4).
const diagonalExtension = 1.9

// BuildPrecedence is the top-level entry point: given the walls of one
// region (indexed 0..len(lines)-1, matching the order the caller will
// hand to pathorder.Optimizer.Paths), it returns the precedence
// relation implied by direction and the pack/center-last flags.
//
// There is no material_alternate_walls input: wall direction is not
// alternated. The layer plan traverses each wall as
// pathorder.Result.Reversed says, and the optimiser sets Reversed only
// for open polylines, never for closed walls.
func BuildPrecedence(lines []geom.ExtrusionLine, direction Direction, packByInset, centerLast bool) *pathorder.Precedence {
	outerToInner := direction == OutsideIn || direction == CenterLast

	var prec *pathorder.Precedence
	if packByInset {
		prec = byInset(lines, outerToInner)
	} else {
		prec = byRegion(lines, outerToInner)
	}
	if centerLast {
		applyCenterLast(lines, prec)
	}
	return prec
}

// byInset implements the pack_by_inset=true strategy: every line at
// inset k precedes every line at inset k+1 (or the reverse), and every
// gap-filler ("odd") line at inset k is preceded by every enclosing
// wall at inset k-1.
func byInset(lines []geom.ExtrusionLine, outerToInner bool) *pathorder.Precedence {
	prec := pathorder.NewPrecedence()

	var wallsByInset [][]int
	var fillersByInset [][]int
	grow := func(s *[][]int, idx int) {
		for len(*s) <= idx {
			*s = append(*s, nil)
		}
	}
	for i, line := range lines {
		if line.InsetIndex < 0 {
			continue
		}
		if line.Odd {
			grow(&fillersByInset, line.InsetIndex)
			fillersByInset[line.InsetIndex] = append(fillersByInset[line.InsetIndex], i)
		} else {
			grow(&wallsByInset, line.InsetIndex)
			wallsByInset[line.InsetIndex] = append(wallsByInset[line.InsetIndex], i)
		}
	}

	for k := 0; k+1 < len(wallsByInset); k++ {
		for _, outer := range wallsByInset[k] {
			for _, inner := range wallsByInset[k+1] {
				before, after := inner, outer
				if outerToInner {
					before, after = outer, inner
				}
				prec.Add(before, after)
			}
		}
	}

	for k := 1; k < len(fillersByInset); k++ {
		if k-1 >= len(wallsByInset) {
			continue
		}
		for _, filler := range fillersByInset[k] {
			for _, wall := range wallsByInset[k-1] {
				prec.Add(wall, filler)
			}
		}
	}
	return prec
}

// byRegion implements the pack_by_inset=false strategy (§4.4): two
// walls whose inset indices differ by exactly one and which share a
// junction within diagonalExtension * average-line-width of each other
// are considered adjacent, and ordered per outerToInner (or, for a
// gap-filler next to a wall, the wall always precedes the filler).
func byRegion(lines []geom.ExtrusionLine, outerToInner bool) *pathorder.Precedence {
	prec := pathorder.NewPrecedence()

	var maxWidth geom.Micrometer
	for _, line := range lines {
		for _, j := range line.Junctions {
			if j.Width > maxWidth {
				maxWidth = j.Width
			}
		}
	}
	if maxWidth == 0 {
		return prec
	}

	type junctionRef struct {
		lineIdx int
		width   geom.Micrometer
	}
	searchRadius := geom.Micrometer(float64(maxWidth) * diagonalExtension)
	grid := geom.NewPointIndex[junctionRef](searchRadius)
	for i, line := range lines {
		for _, j := range line.Junctions {
			grid.Insert(j.Point, junctionRef{lineIdx: i, width: j.Width})
		}
	}

	seen := map[[2]int]bool{}
	for hereIdx, here := range lines {
		for _, j := range here.Junctions {
			grid.GetNearby(j.Point, searchRadius, func(pos geom.Point2D, other junctionRef) bool {
				if other.lineIdx == hereIdx {
					return true
				}
				otherLine := lines[other.lineIdx]
				diff := here.InsetIndex - otherLine.InsetIndex
				if diff != 1 && diff != -1 {
					return true
				}
				threshold := geom.Micrometer(float64(j.Width+other.width) / 2 * diagonalExtension)
				if j.Point.Dist(pos) > threshold {
					return true
				}

				pairKey := [2]int{hereIdx, other.lineIdx}
				if pairKey[0] > pairKey[1] {
					pairKey = [2]int{other.lineIdx, pairKey[0]}
				}
				if seen[pairKey] {
					return true
				}
				seen[pairKey] = true

				switch {
				case here.Odd && !otherLine.Odd && otherLine.InsetIndex < here.InsetIndex:
					prec.Add(other.lineIdx, hereIdx)
				case otherLine.Odd && !here.Odd && here.InsetIndex < otherLine.InsetIndex:
					prec.Add(hereIdx, other.lineIdx)
				case !here.Odd && !otherLine.Odd:
					if (otherLine.InsetIndex < here.InsetIndex) == outerToInner {
						prec.Add(other.lineIdx, hereIdx)
					} else {
						prec.Add(hereIdx, other.lineIdx)
					}
				}
				return true
			})
		}
	}
	return prec
}

// applyCenterLast adds a precedence pair from every non-odd line to
// every odd line, so every gap-filler is printed after every wall.
func applyCenterLast(lines []geom.ExtrusionLine, prec *pathorder.Precedence) {
	for i, line := range lines {
		if !line.Odd {
			continue
		}
		for j, other := range lines {
			if other.Odd {
				continue
			}
			prec.Add(j, i)
		}
	}
}
