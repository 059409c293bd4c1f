package domain

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		name    string
		want    float64
		wantErr bool
	}{
		{"0.5deg", 0.5, false},
		{"5arcmin", 5.0 / 60.0, false},
		{"30arcsec", 30.0 / 3600.0, false},
		{"1deg", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseResolution(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseResolution(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseResolution(%q): %v", tt.name, err)
		}
		if got.Degrees != tt.want {
			t.Errorf("ParseResolution(%q) = %v, want %v", tt.name, got.Degrees, tt.want)
		}
	}
}

// TestNewGrid_Coordinates checks cell centres and the north-to-south latitude order.
func TestNewGrid_Coordinates(t *testing.T) {
	g := NewGrid(0.5)
	if g.Rows != 360 || g.Cols != 720 {
		t.Fatalf("expected 360x720 grid, got %dx%d", g.Rows, g.Cols)
	}

	lon := g.Lons()
	lat := g.Lats()
	if lon[0] != -179.75 || lon[len(lon)-1] != 179.75 {
		t.Errorf("unexpected lon range [%v, %v]", lon[0], lon[len(lon)-1])
	}
	if lat[0] != 89.75 || lat[len(lat)-1] != -89.75 {
		t.Errorf("unexpected lat range [%v, %v]", lat[0], lat[len(lat)-1])
	}
	for i := 1; i < len(lat); i++ {
		if lat[i] >= lat[i-1] {
			t.Fatalf("latitudes must descend: lat[%d]=%v >= lat[%d]=%v", i, lat[i], i-1, lat[i-1])
		}
	}

	g5 := NewGrid(Res5ArcMin.Degrees)
	if g5.Rows != 2160 || g5.Cols != 4320 {
		t.Errorf("expected 2160x4320 grid at 5arcmin, got %dx%d", g5.Rows, g5.Cols)
	}
}

func TestGridIndex(t *testing.T) {
	g := NewGrid(1)

	tests := []struct {
		lon, lat float64
		i, j     int
		ok       bool
	}{
		{-179.5, 89.5, 0, 0, true},
		{0.5, 0.5, 89, 180, true},
		{0.5, -0.5, 90, 180, true},
		{180, -90, 179, 359, true},
		{-180, 90, 0, 0, true},
		{181, 0, 0, 0, false},
		{0, -91, 0, 0, false},
	}

	for _, tt := range tests {
		i, j, ok := g.Index(tt.lon, tt.lat)
		if ok != tt.ok {
			t.Errorf("Index(%v, %v): ok=%v, want %v", tt.lon, tt.lat, ok, tt.ok)
			continue
		}
		if ok && (i != tt.i || j != tt.j) {
			t.Errorf("Index(%v, %v) = (%d, %d), want (%d, %d)", tt.lon, tt.lat, i, j, tt.i, tt.j)
		}
	}
}

func TestGridWindow(t *testing.T) {
	g := NewGrid(1)

	w := g.Window(orb.Bound{Min: orb.Point{0.2, 0.2}, Max: orb.Point{2.5, 1.5}})
	want := Window{Row: 88, Col: 180, Rows: 2, Cols: 3}
	if w != want {
		t.Errorf("Window = %+v, want %+v", w, want)
	}

	// A point still touches the cell containing it.
	w = g.Window(orb.Bound{Min: orb.Point{10.5, 10.5}, Max: orb.Point{10.5, 10.5}})
	if w.Rows != 1 || w.Cols != 1 || !w.Contains(79, 190) {
		t.Errorf("point window = %+v, want single cell (79, 190)", w)
	}

	// A cell-aligned bound covers exactly its own cell.
	h := NewGrid(0.5)
	w = h.Window(orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{10.5, 20.5}})
	if w.Rows != 1 || w.Cols != 1 || !w.Contains(139, 380) {
		t.Errorf("aligned window = %+v, want single cell (139, 380)", w)
	}

	// Outside the grid.
	w = g.Window(orb.Bound{Min: orb.Point{190, 0}, Max: orb.Point{200, 1}})
	if !w.Empty() {
		t.Errorf("expected empty window outside grid, got %+v", w)
	}
}

func TestGridSubgrid(t *testing.T) {
	g := NewGrid(0.5)
	sub := g.Subgrid(0, 0, 10)

	if sub.Rows != 10 || sub.Cols != 10 {
		t.Fatalf("expected 10x10 subgrid, got %dx%d", sub.Rows, sub.Cols)
	}
	if math.Abs(sub.Res-0.05) > 1e-12 {
		t.Errorf("expected sub-cell size 0.05, got %v", sub.Res)
	}
	sb, cb := sub.Bound(), g.CellBound(0, 0)
	for k, d := range []float64{sb.Min.X() - cb.Min.X(), sb.Min.Y() - cb.Min.Y(), sb.Max.X() - cb.Max.X(), sb.Max.Y() - cb.Max.Y()} {
		if math.Abs(d) > 1e-9 {
			t.Errorf("subgrid bound %v differs from cell bound %v (component %d)", sb, cb, k)
		}
	}
}
