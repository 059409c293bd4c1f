package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"go.ngs.io/countrymasks/internal/adapter/raster"
	"go.ngs.io/countrymasks/internal/adapter/store/geojson"
	"go.ngs.io/countrymasks/internal/domain"
)

var res10 = domain.Resolution{Name: "10deg", Degrees: 10}

func rect(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

// overlapping returns two countries that overlap inside cell (8, 18) and a
// feature standing for their group.
func overlapping() *geojson.Collection {
	return &geojson.Collection{
		Version: "v9",
		Source:  "unit test",
		Features: []geojson.Feature{
			{Code: "AAA", Name: "Ay", Geometry: rect(0, 0, 6, 10)},
			{Code: "BBB", Name: "Bee", Geometry: rect(4, 0, 10, 10)},
			{Code: "GRP", Name: "Group feature", Geometry: rect(0, 0, 10, 10)},
		},
	}
}

func TestGenerateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerateRequest
		wantErr bool
	}{
		{"ok", GenerateRequest{Collection: overlapping(), Resolution: res10, Kind: domain.KindBinary}, false},
		{"no features", GenerateRequest{Collection: &geojson.Collection{}, Resolution: res10, Kind: domain.KindBinary}, true},
		{"bad kind", GenerateRequest{Collection: overlapping(), Resolution: res10, Kind: "labels"}, true},
		{"fractional labels", GenerateRequest{Collection: overlapping(), Resolution: res10, Kind: domain.KindFractional, LabelMask: true}, true},
		{"zero resolution", GenerateRequest{Collection: overlapping(), Kind: domain.KindBinary}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_Fractional(t *testing.T) {
	uc := NewGenerateUseCase(nil, nil)
	s, err := uc.Execute(context.Background(), GenerateRequest{
		Collection: overlapping(),
		Resolution: res10,
		Kind:       domain.KindFractional,
		Groups:     []domain.Group{{Code: "GRP", Name: "Both", Members: []string{"AAA", "BBB"}}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if s.Version != "v9" || s.Source != "unit test" || s.Repository != domain.Repository {
		t.Errorf("unexpected metadata: %q %q %q", s.Version, s.Source, s.Repository)
	}
	if codes := s.Codes(); len(codes) != 2 {
		t.Fatalf("group feature must not become a country, got %v", codes)
	}

	aaa, _ := s.Country("AAA")
	bbb, _ := s.Country("BBB")
	a, b := aaa.Mask.At(8, 18), bbb.Mask.At(8, 18)
	if math.Abs(a-0.5) > 1e-6 || math.Abs(b-0.5) > 1e-6 {
		t.Errorf("overlapping cell: AAA=%v BBB=%v, want 0.5 each", a, b)
	}
	if w := s.World[8*s.Grid.Cols+18]; w != 1 {
		t.Errorf("world = %v, want 1", w)
	}
	grp, _ := s.Group("GRP")
	if g := grp.Mask.At(8, 18); math.Abs(g-1) > 1e-6 {
		t.Errorf("group = %v, want 1", g)
	}
}

func TestGenerate_BinaryExclusiveWithLabels(t *testing.T) {
	uc := NewGenerateUseCase(nil, nil, raster.WithSubgrid(10))
	s, err := uc.Execute(context.Background(), GenerateRequest{
		Collection: &geojson.Collection{Features: []geojson.Feature{
			{Code: "AAA", Geometry: rect(0, 0, 20, 20)},
			{Code: "BBB", Geometry: rect(10, 0, 30, 20)},
		}},
		Resolution:       res10,
		Kind:             domain.KindBinaryExclusive,
		Version:          "override",
		ForceExclusivity: true,
		LabelMask:        true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if s.Version != "override" {
		t.Errorf("version = %q, want override", s.Version)
	}
	if len(s.Groups) != len(domain.DefaultGroups()) {
		t.Errorf("expected default groups, got %d", len(s.Groups))
	}

	// Cells centred on (15, 5) and (15, 15) are inside both squares; AAA comes first.
	aaa, _ := s.Country("AAA")
	bbb, _ := s.Country("BBB")
	i, j, _ := s.Grid.Index(15, 5)
	if aaa.Mask.At(i, j) != 1 || bbb.Mask.At(i, j) != 0 {
		t.Errorf("shared cell: AAA=%v BBB=%v, want 1/0", aaa.Mask.At(i, j), bbb.Mask.At(i, j))
	}
	if aaa.Mask.Count() != 4 || bbb.Mask.Count() != 2 {
		t.Errorf("cells: AAA=%d BBB=%d, want 4/2", aaa.Mask.Count(), bbb.Mask.Count())
	}
	if l := s.Labels[i*s.Grid.Cols+j]; l != 1 {
		t.Errorf("label = %d, want 1", l)
	}
	if s.World[i*s.Grid.Cols+j] != 1 {
		t.Errorf("world not set")
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerateUseCase(nil, nil).Execute(ctx, GenerateRequest{
		Collection: overlapping(),
		Resolution: res10,
		Kind:       domain.KindBinary,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
