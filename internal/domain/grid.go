package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Resolution is a named grid spacing in degrees.
type Resolution struct {
	Name    string
	Degrees float64
}

// Supported output resolutions.
var (
	Res05Deg    = Resolution{Name: "0.5deg", Degrees: 0.5}
	Res5ArcMin  = Resolution{Name: "5arcmin", Degrees: 5.0 / 60.0}
	Res30ArcSec = Resolution{Name: "30arcsec", Degrees: 30.0 / 3600.0}
)

// Resolutions lists the supported resolutions, coarsest first.
func Resolutions() []Resolution {
	return []Resolution{Res05Deg, Res5ArcMin, Res30ArcSec}
}

// ResolutionNames returns the names accepted by ParseResolution.
func ResolutionNames() []string {
	names := make([]string, 0, 3)
	for _, r := range Resolutions() {
		names = append(names, r.Name)
	}
	return names
}

// ParseResolution maps a resolution name (e.g., "5arcmin") to its spacing.
func ParseResolution(name string) (Resolution, error) {
	for _, r := range Resolutions() {
		if r.Name == name {
			return r, nil
		}
	}
	return Resolution{}, fmt.Errorf("unknown grid resolution %q (expected one of %v)", name, ResolutionNames())
}

// Grid is a regular lon/lat grid of square cells.
// Rows run from north to south, columns from west to east.
type Grid struct {
	West  float64 // Western edge of column 0.
	North float64 // Northern edge of row 0.
	Res   float64 // Cell size in degrees.
	Rows  int
	Cols  int
}

// NewGrid returns the global grid at the given spacing.
func NewGrid(res float64) Grid {
	return Grid{
		West:  -180,
		North: 90,
		Res:   res,
		Rows:  int(math.Round(180 / res)),
		Cols:  int(math.Round(360 / res)),
	}
}

// Size returns the number of cells.
func (g Grid) Size() int {
	return g.Rows * g.Cols
}

// Lon returns the centre longitude of column j.
func (g Grid) Lon(j int) float64 {
	return g.West + (float64(j)+0.5)*g.Res
}

// Lat returns the centre latitude of row i.
func (g Grid) Lat(i int) float64 {
	return g.North - (float64(i)+0.5)*g.Res
}

// Lons returns all column centres (ascending).
func (g Grid) Lons() []float64 {
	lon := make([]float64, g.Cols)
	for j := range lon {
		lon[j] = g.Lon(j)
	}
	return lon
}

// Lats returns all row centres (descending).
func (g Grid) Lats() []float64 {
	lat := make([]float64, g.Rows)
	for i := range lat {
		lat[i] = g.Lat(i)
	}
	return lat
}

// CellCenter returns the centre of cell (i, j).
func (g Grid) CellCenter(i, j int) orb.Point {
	return orb.Point{g.Lon(j), g.Lat(i)}
}

// CellBound returns the closed extent of cell (i, j).
func (g Grid) CellBound(i, j int) orb.Bound {
	west := g.West + float64(j)*g.Res
	north := g.North - float64(i)*g.Res
	return orb.Bound{
		Min: orb.Point{west, north - g.Res},
		Max: orb.Point{west + g.Res, north},
	}
}

// Bound returns the extent of the whole grid.
func (g Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.West, g.North - float64(g.Rows)*g.Res},
		Max: orb.Point{g.West + float64(g.Cols)*g.Res, g.North},
	}
}

// Index returns the cell containing the point. Points on the southern or
// eastern edge of the grid belong to the last row or column.
func (g Grid) Index(lon, lat float64) (i, j int, ok bool) {
	j = int(math.Floor((lon - g.West) / g.Res))
	i = int(math.Floor((g.North - lat) / g.Res))
	if j == g.Cols && lon <= g.Bound().Max.X() {
		j = g.Cols - 1
	}
	if i == g.Rows && lat >= g.Bound().Min.Y() {
		i = g.Rows - 1
	}
	if i < 0 || i >= g.Rows || j < 0 || j >= g.Cols {
		return 0, 0, false
	}
	return i, j, true
}

// Window returns the block of cells overlapping b, clipped to the grid.
func (g Grid) Window(b orb.Bound) Window {
	row0 := clampInt(int(math.Floor((g.North-b.Max.Y())/g.Res)), 0, g.Rows)
	row1 := clampInt(int(math.Ceil((g.North-b.Min.Y())/g.Res)), 0, g.Rows)
	col0 := clampInt(int(math.Floor((b.Min.X()-g.West)/g.Res)), 0, g.Cols)
	col1 := clampInt(int(math.Ceil((b.Max.X()-g.West)/g.Res)), 0, g.Cols)

	// Degenerate bounds (points, axis-aligned lines) still touch one cell.
	if row1 == row0 && row0 < g.Rows && b.Min.Y() >= g.Bound().Min.Y() {
		row1 = row0 + 1
	}
	if col1 == col0 && col0 < g.Cols && b.Max.X() <= g.Bound().Max.X() {
		col1 = col0 + 1
	}
	if row1 <= row0 || col1 <= col0 {
		return Window{}
	}
	return Window{Row: row0, Col: col0, Rows: row1 - row0, Cols: col1 - col0}
}

// Subgrid divides cell (i, j) into an n×n grid.
func (g Grid) Subgrid(i, j, n int) Grid {
	b := g.CellBound(i, j)
	return Grid{
		West:  b.Min.X(),
		North: b.Max.Y(),
		Res:   g.Res / float64(n),
		Rows:  n,
		Cols:  n,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
