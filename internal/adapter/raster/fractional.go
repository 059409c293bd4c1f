package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"

	"go.ngs.io/countrymasks/internal/adapter/geometry"
	"go.ngs.io/countrymasks/internal/domain"
)

// Sub-grid size bounds for supersampling boundary cells.
const (
	MinSubgrid = 10
	MaxSubgrid = 100
)

// Shrinker offsets a geometry by a signed distance (negative shrinks).
type Shrinker interface {
	Buffer(g orb.Geometry, dist float64) (orb.Geometry, error)
}

// Rasterizer computes fractional coverage masks.
type Rasterizer struct {
	shrinker Shrinker
	subgrid  int // Fixed sub-grid size; 0 picks one per polygon.
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithSubgrid fixes the supersampling sub-grid size instead of deriving it from polygon area.
func WithSubgrid(n int) Option {
	return func(r *Rasterizer) {
		r.subgrid = n
	}
}

// NewRasterizer creates a fractional rasterizer that uses shrinker to find interior cells.
func NewRasterizer(shrinker Shrinker, opts ...Option) *Rasterizer {
	r := &Rasterizer{shrinker: shrinker}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubgridSize picks the supersampling factor for a polygon: small polygons
// relative to the cell get finer sub-grids.
func SubgridSize(res, area float64) int {
	if area <= 0 {
		return MaxSubgrid
	}
	ratio := res / math.Sqrt(area)
	return int(math.Min(math.Max(MinSubgrid, ratio*MinSubgrid), MaxSubgrid))
}

// Fractional returns, for every cell, the fraction of its area covered by g.
//
// Parts of a multi-polygon are rasterized separately and summed; parts are
// assumed not to overlap, and per-cell totals are capped at 1.
func (r *Rasterizer) Fractional(g orb.Geometry, grid domain.Grid) (*domain.Mask, error) {
	parts, err := geometry.Parts(g)
	if err != nil {
		return nil, err
	}

	out := domain.NewMask(grid, grid.Window(g.Bound()))
	for k, p := range parts {
		pm, err := r.polygon(p, grid)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize part %d: %w", k, err)
		}
		out.Add(pm)
	}

	for k, v := range out.Values {
		if v > 1 {
			out.Values[k] = 1
		}
	}
	return out, nil
}

func (r *Rasterizer) polygon(p orb.Polygon, grid domain.Grid) (*domain.Mask, error) {
	area := geometry.Area(p)
	n := r.subgrid
	if n <= 0 {
		n = SubgridSize(grid.Res, area)
	}

	candidate := AllTouched(p, grid)

	interior, err := r.interior(p, grid)
	if err != nil {
		return nil, err
	}

	out := domain.NewMask(grid, candidate.Window)
	var (
		bandRow = -1
		band    orb.Polygon
	)
	candidate.Range(func(i, j int, _ float64) {
		if interior != nil && interior.At(i, j) > 0 {
			out.Set(i, j, 1)
			return
		}
		// Margin cell: clip to the row once, then to the cell.
		if i != bandRow {
			band = clipToRow(p, grid, i)
			bandRow = i
		}
		out.Set(i, j, coverage(band, grid, i, j, n))
	})

	if out.Count() == 0 {
		forceCentroid(out, p, grid, area)
	}
	return out, nil
}

// interior returns the cells lying fully inside p: those whose centre falls
// inside p shrunk by one cell diagonal. Nil when nothing survives the shrink.
func (r *Rasterizer) interior(p orb.Polygon, grid domain.Grid) (*domain.Mask, error) {
	if r.shrinker == nil {
		return nil, nil
	}
	shrunk, err := r.shrinker.Buffer(p, -grid.Res*math.Sqrt2)
	if err != nil {
		return nil, fmt.Errorf("failed to shrink polygon: %w", err)
	}
	if geometry.Area(shrunk) <= 0 {
		return nil, nil
	}
	return CenterInside(shrunk, grid), nil
}

// coverage returns the fraction of an n×n sub-grid of cell (i, j) whose centres lie inside p.
func coverage(p orb.Polygon, grid domain.Grid, i, j, n int) float64 {
	if len(p) == 0 {
		return 0
	}
	cell := clip.Polygon(grid.CellBound(i, j), p.Clone())
	if len(cell) == 0 {
		return 0
	}
	sub := CenterInside(cell, grid.Subgrid(i, j, n))
	return float64(sub.Count()) / float64(n*n)
}

// forceCentroid gives a polygon too small to cover any sub-cell centre a
// presence in the cell holding its centroid.
func forceCentroid(m *domain.Mask, p orb.Polygon, grid domain.Grid, area float64) {
	c := geometry.Centroid(p)
	i, j, ok := grid.Index(c[0], c[1])
	if !ok {
		return
	}

	frac := coverage(p, grid, i, j, MaxSubgrid)
	if frac == 0 {
		frac = math.Min(1, area/(grid.Res*grid.Res))
	}
	if frac == 0 {
		frac = 1.0 / (MaxSubgrid * MaxSubgrid)
	}
	m.Set(i, j, frac)
}

func clipToRow(p orb.Polygon, grid domain.Grid, i int) orb.Polygon {
	band := grid.CellBound(i, 0)
	full := grid.Bound()
	band.Min[0] = full.Min.X()
	band.Max[0] = full.Max.X()
	return clip.Polygon(band, p.Clone())
}
