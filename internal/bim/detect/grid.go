package detect

import "github.com/gcpanel/gcpanel-backend/internal/bim/domain"

// grid is a uniform spatial hash over element bounding boxes. It replaces the
// all-pairs scan as the broad phase: only elements sharing a cell become
// candidate pairs.
type grid struct {
	cellSize float64
	cells    map[[3]int][]int // cell coord -> element indices
}

func newGrid(elements []domain.Element, inflate float64) *grid {
	g := &grid{
		cellSize: pickCellSize(elements, inflate),
		cells:    map[[3]int][]int{},
	}
	for i, e := range elements {
		min, max := g.cellRange(e.BBox, inflate)
		for x := min[0]; x <= max[0]; x++ {
			for y := min[1]; y <= max[1]; y++ {
				for z := min[2]; z <= max[2]; z++ {
					key := [3]int{x, y, z}
					g.cells[key] = append(g.cells[key], i)
				}
			}
		}
	}
	return g
}

// candidatePairs returns deduplicated index pairs (i < j) that share a cell.
func (g *grid) candidatePairs() [][2]int {
	seen := map[[2]int]bool{}
	var out [][2]int
	for _, idxs := range g.cells {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				i, j := idxs[a], idxs[b]
				if j < i {
					i, j = j, i
				}
				key := [2]int{i, j}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, key)
			}
		}
	}
	return out
}

func (g *grid) cellRange(b domain.BBox, inflate float64) (min, max [3]int) {
	for i := 0; i < 3; i++ {
		min[i] = cellIndex(b.Min[i]-inflate, g.cellSize)
		max[i] = cellIndex(b.Max[i]+inflate, g.cellSize)
	}
	return
}

func cellIndex(v, size float64) int {
	idx := int(v / size)
	if v < 0 && v != float64(idx)*size {
		idx--
	}
	return idx
}

// pickCellSize targets the average box extent so a typical element spans a
// handful of cells; the clearance inflation keeps near-miss pairs in reach.
func pickCellSize(elements []domain.Element, inflate float64) float64 {
	const minCell = 0.5
	if len(elements) == 0 {
		return minCell
	}
	var sum float64
	for _, e := range elements {
		for i := 0; i < 3; i++ {
			sum += e.BBox.Max[i] - e.BBox.Min[i]
		}
	}
	avg := sum / float64(len(elements)*3)
	size := avg + 2*inflate
	if size < minCell {
		size = minCell
	}
	return size
}
