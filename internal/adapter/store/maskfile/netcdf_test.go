package maskfile

import (
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/countrymasks/internal/domain"
)

// coarseSet builds a 6x12 dataset (30 degree cells) with two countries and one group.
func coarseSet(kind domain.Kind) *domain.MaskSet {
	g := domain.NewGrid(30)

	aaa := domain.NewMask(g, domain.Window{})
	aaa.Set(1, 2, 1)
	aaa.Set(1, 3, 0.25)
	bbb := domain.NewMask(g, domain.Window{})
	bbb.Set(1, 3, 0.75)
	bbb.Set(4, 10, 1)

	grp := aaa.Clone()
	grp.Add(bbb)

	world := make([]float32, g.Size())
	for _, m := range []*domain.Mask{aaa, bbb} {
		m.Range(func(i, j int, v float64) { world[i*g.Cols+j] += float32(v) })
	}

	s := &domain.MaskSet{
		Grid:       g,
		Resolution: "30deg",
		Kind:       kind,
		Source:     "test boundaries",
		Repository: domain.Repository,
		Version:    "v0.1",
		Note:       kind.Note(),
		Countries: []*domain.CountryMask{
			{Code: "BBB", Name: "Bee", Mask: bbb},
			{Code: "AAA", Name: "Ay", Note: "disputed", Mask: aaa},
		},
		Groups: []*domain.GroupMask{
			{Group: domain.Group{Code: "GRP", Name: "Both", Members: []string{"AAA", "BBB"}}, Mask: grp},
		},
		World: world,
	}
	s.SortCountries()
	return s
}

func TestFileName(t *testing.T) {
	tests := []struct {
		kind domain.Kind
		want string
	}{
		{domain.KindBinary, "countrymasks_5arcmin.nc"},
		{domain.KindBinaryExclusive, "countrymasks_binary_exclusive_5arcmin.nc"},
		{domain.KindFractional, "countrymasks_fractional_5arcmin.nc"},
	}
	for _, tt := range tests {
		if got := FileName(tt.kind, "5arcmin"); got != tt.want {
			t.Errorf("FileName(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestWriteRead_Fractional(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(domain.KindFractional, "30deg"))
	in := coarseSet(domain.KindFractional)

	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if out.Grid != in.Grid {
		t.Errorf("grid = %+v, want %+v", out.Grid, in.Grid)
	}
	if out.Kind != domain.KindFractional || out.Version != "v0.1" || out.Source != "test boundaries" {
		t.Errorf("unexpected metadata: kind=%q version=%q source=%q", out.Kind, out.Version, out.Source)
	}
	if out.Repository != domain.Repository {
		t.Errorf("repository = %q", out.Repository)
	}

	codes := out.Codes()
	if len(codes) != 2 || codes[0] != "AAA" || codes[1] != "BBB" {
		t.Fatalf("codes = %v, want [AAA BBB]", codes)
	}
	aaa, _ := out.Country("AAA")
	if aaa.Name != "Ay" || aaa.Note != "disputed" {
		t.Errorf("AAA attributes: name=%q note=%q", aaa.Name, aaa.Note)
	}
	if v := aaa.Mask.At(1, 3); v != 0.25 {
		t.Errorf("AAA(1,3) = %v, want 0.25", v)
	}

	grp, ok := out.Group("GRP")
	if !ok {
		t.Fatalf("group GRP missing")
	}
	if len(grp.Members) != 2 || grp.Name != "Both" {
		t.Errorf("group = %+v", grp.Group)
	}
	if v := grp.Mask.At(1, 3); v != 1 {
		t.Errorf("GRP(1,3) = %v, want 1", v)
	}

	if out.World == nil {
		t.Fatalf("world mask missing")
	}
	if v := out.World[4*out.Grid.Cols+10]; v != 1 {
		t.Errorf("world(4,10) = %v, want 1", v)
	}
}

func TestWriteRead_BinaryWithLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(domain.KindBinary, "30deg"))
	in := coarseSet(domain.KindBinary)
	in.Labels = make([]int32, in.Grid.Size())
	in.Labels[1*in.Grid.Cols+2] = 1
	in.Labels[4*in.Grid.Cols+10] = 2
	in.LabelNames = map[int32]string{1: "AAA", 2: "BBB"}

	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Binary masks are stored as bytes.
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v, err := ds.Var(VarName("AAA"))
	if err != nil {
		t.Fatalf("var: %v", err)
	}
	if typ, err := v.Type(); err != nil || typ != netcdf.BYTE {
		t.Errorf("m_AAA type = %v (err %v), want BYTE", typ, err)
	}
	_ = ds.Close()

	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	bbb, _ := out.Country("BBB")
	// Fractions written into a binary file collapse to 1.
	if v := bbb.Mask.At(1, 3); v != 1 {
		t.Errorf("BBB(1,3) = %v, want 1", v)
	}
	if out.Labels[4*out.Grid.Cols+10] != 2 {
		t.Errorf("label(4,10) = %d, want 2", out.Labels[4*out.Grid.Cols+10])
	}
	if out.LabelNames[1] != "AAA" || out.LabelNames[2] != "BBB" {
		t.Errorf("label mapping = %v", out.LabelNames)
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.nc")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestGridFromCoords(t *testing.T) {
	g := domain.NewGrid(0.5)
	got, err := gridFromCoords(g.Lats(), g.Lons())
	if err != nil {
		t.Fatalf("gridFromCoords: %v", err)
	}
	if got != g {
		t.Errorf("grid = %+v, want %+v", got, g)
	}

	if _, err := gridFromCoords([]float64{-89.75, -89.25}, g.Lons()); err == nil {
		t.Errorf("expected error for ascending latitudes")
	}
}
