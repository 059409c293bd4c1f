package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EarthRadiusM is the mean Earth radius used for cell areas.
const EarthRadiusM = 6371008.8

// CellAreas returns the spherical area (m²) of the cells in each grid row.
//
//	A = R² · Δλ · (sin φ_north − sin φ_south)
func CellAreas(g Grid) []float64 {
	areas := make([]float64, g.Rows)
	dLon := g.Res * math.Pi / 180
	for i := range areas {
		north := (g.North - float64(i)*g.Res) * math.Pi / 180
		south := (g.North - float64(i+1)*g.Res) * math.Pi / 180
		areas[i] = EarthRadiusM * EarthRadiusM * dLon * math.Abs(math.Sin(north)-math.Sin(south))
	}
	return areas
}

// CountryAreaKm2 returns Σ cell_area × value over the mask, in km².
// rowAreas must come from CellAreas for the mask's grid.
func CountryAreaKm2(m *Mask, rowAreas []float64) float64 {
	w := m.Window
	if w.Empty() {
		return 0
	}
	rowSums := make([]float64, w.Rows)
	row := make([]float64, w.Cols)
	for r := 0; r < w.Rows; r++ {
		for c, v := range m.Values[r*w.Cols : (r+1)*w.Cols] {
			row[c] = float64(v)
		}
		rowSums[r] = floats.Sum(row)
	}
	return floats.Dot(rowSums, rowAreas[w.Row:w.Row+w.Rows]) * 1e-6
}
