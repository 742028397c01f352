package detect

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
)

func box(minX, minY, minZ, maxX, maxY, maxZ float64) domain.BBox {
	return domain.BBox{
		Min: [3]float64{minX, minY, minZ},
		Max: [3]float64{maxX, maxY, maxZ},
	}
}

func elem(id, category string, b domain.BBox) domain.Element {
	return domain.Element{ID: id, ModelID: id, Name: id, Category: category, BBox: b}
}

func TestEngine_Run(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("detects hard clash on overlap", func(t *testing.T) {
		results, err := engine.Run([]domain.Element{
			elem("a", domain.CategoryStructural, box(0, 0, 0, 1, 1, 1)),
			elem("b", domain.CategoryMechanical, box(0.8, 0, 0, 1.8, 1, 1)),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, "a", r.ElementA)
		assert.Equal(t, "b", r.ElementB)
		assert.Equal(t, domain.ClashHard, r.Kind)
		assert.InDelta(t, 0.2, r.Distance, 1e-9)
		assert.Equal(t, domain.SeverityCritical, r.Severity)
	})

	t.Run("hard clash severity tracks penetration depth", func(t *testing.T) {
		cases := []struct {
			name     string
			overlap  float64
			severity string
		}{
			{"deep overlap is critical", 0.150, domain.SeverityCritical},
			{"moderate overlap is major", 0.050, domain.SeverityMajor},
			{"grazing overlap is minor", 0.010, domain.SeverityMinor},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				results, err := engine.Run([]domain.Element{
					elem("beam", domain.CategoryStructural, box(0, 0, 0, 1, 1, 1)),
					elem("duct", domain.CategoryMechanical, box(1-tc.overlap, 0, 0, 2, 1, 1)),
				})
				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.Equal(t, tc.severity, results[0].Severity)
				assert.InDelta(t, tc.overlap, results[0].Distance, 1e-9)
			})
		}
	})

	t.Run("detects clearance clash within tolerance", func(t *testing.T) {
		// mechanical vs structural requires 50mm; these are 30mm apart.
		results, err := engine.Run([]domain.Element{
			elem("beam", domain.CategoryStructural, box(0, 0, 0, 1, 1, 1)),
			elem("duct", domain.CategoryMechanical, box(1.03, 0, 0, 2, 1, 1)),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, domain.ClashClearance, results[0].Kind)
		assert.InDelta(t, 0.03, results[0].Distance, 1e-9)
		assert.Equal(t, domain.SeverityMinor, results[0].Severity)
	})

	t.Run("clearance clash below half tolerance is major", func(t *testing.T) {
		// 20mm gap against a 50mm requirement.
		results, err := engine.Run([]domain.Element{
			elem("beam", domain.CategoryStructural, box(0, 0, 0, 1, 1, 1)),
			elem("pipe", domain.CategoryPlumbing, box(1.02, 0, 0, 2, 1, 1)),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, domain.SeverityMajor, results[0].Severity)
	})

	t.Run("no clash beyond clearance", func(t *testing.T) {
		results, err := engine.Run([]domain.Element{
			elem("beam", domain.CategoryStructural, box(0, 0, 0, 1, 1, 1)),
			elem("duct", domain.CategoryMechanical, box(1.2, 0, 0, 2, 1, 1)),
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("same category pairs are skipped", func(t *testing.T) {
		results, err := engine.Run([]domain.Element{
			elem("duct-1", domain.CategoryMechanical, box(0, 0, 0, 1, 1, 1)),
			elem("duct-2", domain.CategoryMechanical, box(0.5, 0, 0, 1.5, 1, 1)),
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("tolerance varies by category pair", func(t *testing.T) {
		// 60mm gap: inside the 75mm electrical/plumbing clearance but
		// outside the 50mm mechanical/structural one.
		results, err := engine.Run([]domain.Element{
			elem("conduit", domain.CategoryElectrical, box(0, 0, 0, 1, 1, 1)),
			elem("pipe", domain.CategoryPlumbing, box(1.06, 0, 0, 2, 1, 1)),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)

		results, err = engine.Run([]domain.Element{
			elem("beam", domain.CategoryStructural, box(0, 0, 0, 1, 1, 1)),
			elem("duct", domain.CategoryMechanical, box(1.06, 0, 0, 2, 1, 1)),
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("rejects invalid bounding box", func(t *testing.T) {
		_, err := engine.Run([]domain.Element{
			elem("bad", domain.CategoryStructural, box(1, 0, 0, 0, 1, 1)),
		})
		require.ErrorIs(t, err, domain.ErrInvalidBBox)
	})

	t.Run("pair ordering is canonical", func(t *testing.T) {
		results, err := engine.Run([]domain.Element{
			elem("z-duct", domain.CategoryMechanical, box(0, 0, 0, 1, 1, 1)),
			elem("a-beam", domain.CategoryStructural, box(0.5, 0, 0, 1.5, 1, 1)),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a-beam", results[0].ElementA)
		assert.Equal(t, "z-duct", results[0].ElementB)
	})
}

// TestEngine_GridMatchesBruteForce cross-checks the broad phase: the grid
// must never prune a pair the all-pairs scan would have flagged.
func TestEngine_GridMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{
		domain.CategoryStructural, domain.CategoryArchitectural,
		domain.CategoryMechanical, domain.CategoryElectrical, domain.CategoryPlumbing,
	}

	elements := make([]domain.Element, 0, 200)
	for i := 0; i < 200; i++ {
		x := rng.Float64() * 30
		y := rng.Float64() * 30
		z := rng.Float64() * 12
		w := 0.1 + rng.Float64()*2
		d := 0.1 + rng.Float64()*2
		h := 0.1 + rng.Float64()*2
		elements = append(elements, elem(
			fmt.Sprintf("el-%03d", i),
			categories[i%len(categories)],
			box(x, y, z, x+w, y+d, z+h),
		))
	}

	engine := NewEngine(nil)
	gridResults, err := engine.Run(elements)
	require.NoError(t, err)

	brute := bruteForce(engine, elements)
	require.Equal(t, len(brute), len(gridResults))
	for i := range brute {
		assert.Equal(t, brute[i], gridResults[i])
	}
}

// TestEngine_Deterministic runs the same input twice and in shuffled order;
// the output must be identical.
func TestEngine_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var elements []domain.Element
	for i := 0; i < 50; i++ {
		x := rng.Float64() * 10
		y := rng.Float64() * 10
		z := rng.Float64() * 4
		elements = append(elements, elem(
			fmt.Sprintf("el-%02d", i),
			[]string{domain.CategoryStructural, domain.CategoryMechanical, domain.CategoryPlumbing}[i%3],
			box(x, y, z, x+1, y+1, z+1),
		))
	}

	engine := NewEngine(nil)
	first, err := engine.Run(elements)
	require.NoError(t, err)

	shuffled := make([]domain.Element, len(elements))
	copy(shuffled, elements)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	second, err := engine.Run(shuffled)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// bruteForce is the quadratic reference implementation.
func bruteForce(e *Engine, elements []domain.Element) []Result {
	var out []Result
	for i := 0; i < len(elements); i++ {
		for j := i + 1; j < len(elements); j++ {
			if elements[i].Category == elements[j].Category {
				continue
			}
			if res, ok := e.test(elements[i], elements[j]); ok {
				out = append(out, res)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ElementA != out[j].ElementA {
			return out[i].ElementA < out[j].ElementA
		}
		return out[i].ElementB < out[j].ElementB
	})
	return out
}
