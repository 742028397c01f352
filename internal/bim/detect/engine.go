// Package detect implements BIM clash detection over axis-aligned bounding
// boxes: a uniform-grid broad phase narrows the candidate set, then each
// candidate pair is tested for overlap (hard clash) or for a gap below the
// category-pair clearance (clearance clash).
package detect

import (
	"fmt"
	"math"
	"sort"

	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
)

// Result is one detected clash before persistence.
type Result struct {
	ElementA string
	ElementB string
	Kind     string
	Distance float64
	Severity string
	Location [3]float64
}

// Engine runs clash detection with a fixed tolerance table.
type Engine struct {
	tolerances Tolerances
}

func NewEngine(t Tolerances) *Engine {
	if t == nil {
		t = DefaultTolerances()
	}
	return &Engine{tolerances: t}
}

// Run detects clashes among the given elements. Elements within the same
// category are not tested against each other (a duct run touching itself is
// routing, not a clash). Output is deterministic: ElementA < ElementB within
// a pair, pairs sorted.
func (e *Engine) Run(elements []domain.Element) ([]Result, error) {
	for _, el := range elements {
		if !el.BBox.Valid() {
			return nil, fmt.Errorf("element %s: %w", el.ID, domain.ErrInvalidBBox)
		}
	}

	inflate := e.tolerances.Max()
	g := newGrid(elements, inflate)

	var out []Result
	for _, pair := range g.candidatePairs() {
		a, b := elements[pair[0]], elements[pair[1]]
		if a.Category == b.Category {
			continue
		}
		res, ok := e.test(a, b)
		if ok {
			out = append(out, res)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ElementA != out[j].ElementA {
			return out[i].ElementA < out[j].ElementA
		}
		return out[i].ElementB < out[j].ElementB
	})
	return out, nil
}

// test runs the narrow phase for one pair.
func (e *Engine) test(a, b domain.Element) (Result, bool) {
	if b.ID < a.ID {
		a, b = b, a
	}

	gap, penetration := boxDistance(a.BBox, b.BBox)
	clearance := e.tolerances.Clearance(a.Category, b.Category)

	switch {
	case penetration > 0:
		return Result{
			ElementA: a.ID,
			ElementB: b.ID,
			Kind:     domain.ClashHard,
			Distance: penetration,
			Severity: hardSeverity(penetration),
			Location: overlapCenter(a.BBox, b.BBox),
		}, true
	case gap < clearance:
		severity := domain.SeverityMinor
		if gap < clearance/2 {
			severity = domain.SeverityMajor
		}
		return Result{
			ElementA: a.ID,
			ElementB: b.ID,
			Kind:     domain.ClashClearance,
			Distance: gap,
			Severity: severity,
			Location: midpoint(a.BBox, b.BBox),
		}, true
	default:
		return Result{}, false
	}
}

// boxDistance returns the separating gap between two boxes (0 when they
// touch or overlap) and the penetration depth (0 when they do not overlap).
// Penetration is the smallest axis overlap, i.e. the minimum translation
// that would separate the boxes.
func boxDistance(a, b domain.BBox) (gap, penetration float64) {
	var sq float64
	minOverlap := math.Inf(1)
	overlapping := true

	for i := 0; i < 3; i++ {
		d := math.Max(a.Min[i]-b.Max[i], b.Min[i]-a.Max[i])
		if d > 0 {
			overlapping = false
			sq += d * d
			continue
		}
		// -d is the overlap extent on this axis
		if -d < minOverlap {
			minOverlap = -d
		}
	}

	if overlapping {
		return 0, minOverlap
	}
	return math.Sqrt(sq), 0
}

func hardSeverity(penetration float64) string {
	switch {
	case penetration >= 0.100:
		return domain.SeverityCritical
	case penetration >= 0.025:
		return domain.SeverityMajor
	default:
		return domain.SeverityMinor
	}
}

// overlapCenter is the midpoint of the intersection box.
func overlapCenter(a, b domain.BBox) [3]float64 {
	var c [3]float64
	for i := 0; i < 3; i++ {
		lo := math.Max(a.Min[i], b.Min[i])
		hi := math.Min(a.Max[i], b.Max[i])
		c[i] = (lo + hi) / 2
	}
	return c
}

// midpoint is halfway between the two box centers, used for clearance
// clashes where there is no intersection volume.
func midpoint(a, b domain.BBox) [3]float64 {
	ca, cb := a.Center(), b.Center()
	return [3]float64{(ca[0] + cb[0]) / 2, (ca[1] + cb[1]) / 2, (ca[2] + cb[2]) / 2}
}
