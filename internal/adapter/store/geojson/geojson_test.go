package geojson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

const sample = `{
  "type": "FeatureCollection",
  "properties": {"version": "v1.2", "source": "Natural Earth 1:10m"},
  "features": [
    {
      "type": "Feature",
      "properties": {"ISIPEDIA": "FRA", "NAME": "France", "ISIPEDIA_NOTE": "Includes Corsica"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,40],[5,40],[5,45],[0,45],[0,40]]]}
    },
    {
      "type": "Feature",
      "properties": {"ISIPEDIA": "DEU"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[6,47],[10,47],[10,52],[6,52],[6,47]]],
        [[[11,54],[12,54],[12,55],[11,55],[11,54]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"ISIPEDIA": "FRA", "NAME": "France"},
      "geometry": {"type": "Polygon", "coordinates": [[[55,-21],[56,-21],[56,-20],[55,-20],[55,-21]]]}
    }
  ]
}`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.Version != "v1.2" || c.Source != "Natural Earth 1:10m" {
		t.Errorf("unexpected provenance: version=%q source=%q", c.Version, c.Source)
	}

	codes := c.Codes()
	if len(codes) != 2 || codes[0] != "DEU" || codes[1] != "FRA" {
		t.Fatalf("expected sorted codes [DEU FRA], got %v", codes)
	}

	deu := c.Features[0]
	if deu.Name != "Germany" {
		t.Errorf("expected ISO name fallback %q, got %q", "Germany", deu.Name)
	}
	if mp, ok := deu.Geometry.(orb.MultiPolygon); !ok || len(mp) != 2 {
		t.Errorf("expected 2-part MultiPolygon for DEU, got %T", deu.Geometry)
	}

	fra := c.Features[1]
	if fra.Note != "Includes Corsica" {
		t.Errorf("expected note to be kept, got %q", fra.Note)
	}
	mp, ok := fra.Geometry.(orb.MultiPolygon)
	if !ok || len(mp) != 2 {
		t.Errorf("expected duplicate FRA features merged into 2 parts, got %T", fra.Geometry)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing code", `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"NAME":"X"},
			 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`},
		{"point geometry", `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"ISIPEDIA":"XYZ"},
			 "geometry":{"type":"Point","coordinates":[0,0]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countrymasks.geojson")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Features) != 2 {
		t.Errorf("expected 2 features, got %d", len(c.Features))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
