// Package raster burns country polygons onto lon/lat grids.
//
// Two burn rules are provided: centre-inside, where a cell is marked when its
// centre lies inside the polygon, and all-touched, where any cell the polygon
// overlaps is marked. Fractional masks combine
// both with sub-cell supersampling along the boundary.
package raster

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"

	"go.ngs.io/countrymasks/internal/adapter/geometry"
	"go.ngs.io/countrymasks/internal/domain"
)

// CenterInside marks every cell whose centre lies inside g.
func CenterInside(g orb.Geometry, grid domain.Grid) *domain.Mask {
	w := grid.Window(g.Bound())
	m := domain.NewMask(grid, w)
	if w.Empty() {
		return m
	}

	rs := rings(g)
	xs := make([]float64, 0, 16)
	for i := w.Row; i < w.Row+w.Rows; i++ {
		xs = crossings(rs, grid.Lat(i), xs[:0])
		sort.Float64s(xs)

		// Even-odd fill between successive crossings; holes and
		// disjoint parts fall out of the parity.
		for k := 0; k+1 < len(xs); k += 2 {
			j0 := max(firstCenterAtOrAfter(grid, xs[k]), w.Col)
			j1 := min(firstCenterAtOrAfter(grid, xs[k+1]), w.Col+w.Cols)
			for j := j0; j < j1; j++ {
				m.Set(i, j, 1)
			}
		}
	}
	return m
}

// AllTouched marks every cell whose interior g overlaps, including cells only
// crossed by a corner of its boundary. Cells that merely share an edge or a
// vertex with g are not marked. The result is always a superset of CenterInside
// for the same geometry and grid.
func AllTouched(g orb.Geometry, grid domain.Grid) *domain.Mask {
	m := CenterInside(g, grid)
	for _, r := range rings(g) {
		n := len(r)
		for k := 0; k < n; k++ {
			markSegment(m, grid, r[k], r[(k+1)%n])
		}
	}
	return m
}

// Binary burns g with the chosen rule. When no cell qualifies (e.g., an island
// smaller than a cell that misses every centre) the cell holding the centroid
// is marked so that every country appears in the dataset.
func Binary(g orb.Geometry, grid domain.Grid, allTouched bool) *domain.Mask {
	var m *domain.Mask
	if allTouched {
		m = AllTouched(g, grid)
	} else {
		m = CenterInside(g, grid)
	}
	if m.Count() == 0 {
		c := geometry.Centroid(g)
		if i, j, ok := grid.Index(c[0], c[1]); ok {
			m.Set(i, j, 1)
		}
	}
	return m
}

// lineEps is the distance, in cells, within which a coordinate counts as lying on a grid line.
const lineEps = 1e-9

// markSegment marks the cells whose interior segment a-b passes through, one
// grid row at a time. Pieces running along a cell edge touch no interior.
func markSegment(m *domain.Mask, grid domain.Grid, a, b orb.Point) {
	seg := orb.LineString{a, b}
	w := grid.Window(seg.Bound())
	if w.Empty() {
		return
	}

	full := grid.Bound()
	for i := w.Row; i < w.Row+w.Rows; i++ {
		band := grid.CellBound(i, 0)
		band.Min[0] = full.Min.X()
		band.Max[0] = full.Max.X()

		for _, piece := range clip.LineString(band, seg) {
			if len(piece) < 2 {
				continue
			}
			pb := piece.Bound()
			if onEdge(pb.Min.Y(), pb.Max.Y(), band.Min.Y(), grid.Res) ||
				onEdge(pb.Min.Y(), pb.Max.Y(), band.Max.Y(), grid.Res) {
				continue
			}
			j0, j1, ok := touchedCols(grid, pb.Min.X(), pb.Max.X())
			if !ok {
				continue
			}
			for j := j0; j <= j1; j++ {
				m.Set(i, j, 1)
			}
		}
	}
}

// onEdge reports whether the span [lo, hi] collapses onto the grid line at edge.
func onEdge(lo, hi, edge, res float64) bool {
	return math.Abs(lo-edge) < lineEps*res && math.Abs(hi-edge) < lineEps*res
}

// touchedCols returns the columns whose open interval meets [x0, x1]. A
// vertical piece lying on a column line meets none.
func touchedCols(grid domain.Grid, x0, x1 float64) (j0, j1 int, ok bool) {
	u0 := snap((x0 - grid.West) / grid.Res)
	u1 := snap((x1 - grid.West) / grid.Res)
	if u0 == u1 {
		if u0 == math.Trunc(u0) {
			return 0, 0, false
		}
		j := clampCol(grid, int(math.Floor(u0)))
		return j, j, true
	}
	return clampCol(grid, int(math.Floor(u0))), clampCol(grid, int(math.Ceil(u1))-1), true
}

// snap rounds v to the nearest integer when it is within lineEps of it.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < lineEps {
		return r
	}
	return v
}

// crossings appends the x positions where the horizontal line at y crosses ring edges.
func crossings(rs []orb.Ring, y float64, xs []float64) []float64 {
	for _, r := range rs {
		n := len(r)
		for k := 0; k < n; k++ {
			a, b := r[k], r[(k+1)%n]
			if (a[1] > y) == (b[1] > y) {
				continue
			}
			xs = append(xs, a[0]+(y-a[1])*(b[0]-a[0])/(b[1]-a[1]))
		}
	}
	return xs
}

// firstCenterAtOrAfter returns the first column whose centre is >= x.
func firstCenterAtOrAfter(grid domain.Grid, x float64) int {
	return int(math.Ceil((x-grid.West)/grid.Res - 0.5))
}

func clampCol(grid domain.Grid, j int) int {
	if j < 0 {
		return 0
	}
	if j >= grid.Cols {
		return grid.Cols - 1
	}
	return j
}

func rings(g orb.Geometry) []orb.Ring {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Ring(g)
	case orb.MultiPolygon:
		var rs []orb.Ring
		for _, p := range g {
			rs = append(rs, p...)
		}
		return rs
	case orb.Collection:
		var rs []orb.Ring
		for _, sub := range g {
			rs = append(rs, rings(sub)...)
		}
		return rs
	case orb.Ring:
		return []orb.Ring{g}
	default:
		return nil
	}
}
