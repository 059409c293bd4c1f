package domain

import (
	"math"
	"testing"
)

func TestMask_SetGrowsWindow(t *testing.T) {
	g := NewGrid(10)
	m := NewMask(g, Window{Row: 5, Col: 5, Rows: 1, Cols: 1})
	m.Set(5, 5, 1)
	m.Set(2, 8, 0.5)

	if m.Window != (Window{Row: 2, Col: 5, Rows: 4, Cols: 4}) {
		t.Fatalf("unexpected window after grow: %+v", m.Window)
	}
	if m.At(5, 5) != 1 || m.At(2, 8) != 0.5 {
		t.Errorf("values lost after grow: (5,5)=%v (2,8)=%v", m.At(5, 5), m.At(2, 8))
	}
	if m.At(0, 0) != 0 {
		t.Errorf("cell outside window must read 0, got %v", m.At(0, 0))
	}
	if m.Count() != 2 {
		t.Errorf("expected 2 positive cells, got %d", m.Count())
	}
}

func TestMask_Add(t *testing.T) {
	g := NewGrid(10)
	a := NewMask(g, Window{Row: 0, Col: 0, Rows: 2, Cols: 2})
	a.Set(0, 0, 0.25)
	a.Set(1, 1, 0.5)

	b := NewMask(g, Window{Row: 1, Col: 1, Rows: 2, Cols: 2})
	b.Set(1, 1, 0.25)
	b.Set(2, 2, 1)

	a.Add(b)

	tests := []struct {
		i, j int
		want float64
	}{
		{0, 0, 0.25},
		{1, 1, 0.75},
		{2, 2, 1},
		{0, 2, 0},
	}
	for _, tt := range tests {
		if got := a.At(tt.i, tt.j); math.Abs(got-tt.want) > 1e-7 {
			t.Errorf("At(%d,%d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}
}

func TestMask_DenseRoundTrip(t *testing.T) {
	g := NewGrid(30)
	m := NewMask(g, Window{})
	m.Set(1, 2, 1)
	m.Set(3, 9, 0.5)

	dense := m.Dense()
	if len(dense) != g.Size() {
		t.Fatalf("dense size %d, want %d", len(dense), g.Size())
	}
	if dense[1*g.Cols+2] != 1 || dense[3*g.Cols+9] != 0.5 {
		t.Errorf("dense values misplaced")
	}

	back := MaskFromDense(g, dense)
	if back.Window != (Window{Row: 1, Col: 2, Rows: 3, Cols: 8}) {
		t.Errorf("unexpected tight window %+v", back.Window)
	}
	if back.At(1, 2) != 1 || back.At(3, 9) != 0.5 || back.Count() != 2 {
		t.Errorf("round trip lost values")
	}

	empty := MaskFromDense(g, make([]float32, g.Size()))
	if !empty.Window.Empty() || empty.Count() != 0 {
		t.Errorf("expected empty mask, got window %+v", empty.Window)
	}
}

func TestCellAreas_SumToSphere(t *testing.T) {
	g := NewGrid(0.5)
	areas := CellAreas(g)

	var total float64
	for _, a := range areas {
		total += a * float64(g.Cols)
	}
	sphere := 4 * math.Pi * EarthRadiusM * EarthRadiusM
	if math.Abs(total-sphere)/sphere > 1e-9 {
		t.Errorf("cell areas sum to %.6e, want %.6e", total, sphere)
	}
	if areas[0] >= areas[g.Rows/2] {
		t.Errorf("polar cells must be smaller than equatorial cells")
	}
}

func TestCountryAreaKm2(t *testing.T) {
	g := NewGrid(1)
	areas := CellAreas(g)

	m := NewMask(g, Window{})
	m.Set(89, 180, 1)
	m.Set(90, 180, 0.5)

	want := (areas[89] + 0.5*areas[90]) * 1e-6
	if got := CountryAreaKm2(m, areas); math.Abs(got-want) > 1e-6 {
		t.Errorf("CountryAreaKm2 = %v, want %v", got, want)
	}
	if got := CountryAreaKm2(NewMask(g, Window{}), areas); got != 0 {
		t.Errorf("empty mask area = %v, want 0", got)
	}
}
