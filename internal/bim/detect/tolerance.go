package detect

import "github.com/gcpanel/gcpanel-backend/internal/bim/domain"

// DefaultClearance applies to category pairs without a specific entry.
const DefaultClearance = 0.025 // meters

// Tolerances maps a category pair to its required clearance in meters.
// Keys are canonical: the two categories sorted and joined with "|".
type Tolerances map[string]float64

// DefaultTolerances reflect common coordination practice: ducts and pipes
// need working room around structure, and electrical needs separation from
// wet systems.
func DefaultTolerances() Tolerances {
	t := Tolerances{}
	t.Set(domain.CategoryMechanical, domain.CategoryStructural, 0.050)
	t.Set(domain.CategoryPlumbing, domain.CategoryStructural, 0.050)
	t.Set(domain.CategoryElectrical, domain.CategoryMechanical, 0.075)
	t.Set(domain.CategoryElectrical, domain.CategoryPlumbing, 0.075)
	t.Set(domain.CategoryMechanical, domain.CategoryPlumbing, 0.050)
	return t
}

func (t Tolerances) Set(catA, catB string, clearance float64) {
	t[pairKey(catA, catB)] = clearance
}

// Clearance returns the required gap between two categories.
func (t Tolerances) Clearance(catA, catB string) float64 {
	if v, ok := t[pairKey(catA, catB)]; ok {
		return v
	}
	return DefaultClearance
}

// Max returns the largest configured clearance, used to size grid cells.
func (t Tolerances) Max() float64 {
	max := DefaultClearance
	for _, v := range t {
		if v > max {
			max = v
		}
	}
	return max
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
