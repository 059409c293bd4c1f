// Package geojson loads country boundaries from a GeoJSON FeatureCollection.
package geojson

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/biter777/countries"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"

	"go.ngs.io/countrymasks/internal/adapter/geometry"
)

// Feature property keys.
const (
	PropCode = "ISIPEDIA"
	PropName = "NAME"
	PropNote = "ISIPEDIA_NOTE"
)

// Feature is one country boundary.
type Feature struct {
	Code     string
	Name     string
	Note     string
	Geometry orb.Geometry // Polygon or MultiPolygon.
}

// Collection is the set of country boundaries plus dataset provenance.
type Collection struct {
	Version  string
	Source   string
	Features []Feature // Sorted by code.
}

// Codes returns the feature codes in order.
func (c *Collection) Codes() []string {
	codes := make([]string, len(c.Features))
	for i, f := range c.Features {
		codes[i] = f.Code
	}
	return codes
}

// Load reads and parses a GeoJSON file.
func Load(path string) (*Collection, error) {
	//nolint:gosec // G304: Path supplied by the operator on the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GeoJSON file %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a FeatureCollection of country polygons.
//
// Features sharing a code are merged into a single MultiPolygon. Features
// without a NAME fall back to the ISO 3166 name of their code when known.
func Parse(data []byte) (*Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}

	c := &Collection{}
	if props, ok := fc.ExtraMembers["properties"].(map[string]interface{}); ok {
		c.Version = stringProp(props, "version")
		c.Source = stringProp(props, "source")
	}

	byCode := make(map[string]int, len(fc.Features))
	for k, f := range fc.Features {
		code := strings.TrimSpace(stringProp(f.Properties, PropCode))
		if code == "" {
			return nil, fmt.Errorf("feature %d: missing %s property", k, PropCode)
		}

		parts, err := geometry.Parts(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", k, code, err)
		}

		if idx, ok := byCode[code]; ok {
			log.WithField("code", code).Warn("duplicate feature, merging geometries")
			prev, _ := geometry.Parts(c.Features[idx].Geometry)
			c.Features[idx].Geometry = orb.MultiPolygon(append(prev, parts...))
			continue
		}

		name := stringProp(f.Properties, PropName)
		if name == "" {
			name = countryName(code)
		}

		byCode[code] = len(c.Features)
		c.Features = append(c.Features, Feature{
			Code:     code,
			Name:     name,
			Note:     stringProp(f.Properties, PropNote),
			Geometry: f.Geometry,
		})
	}

	sort.Slice(c.Features, func(i, j int) bool { return c.Features[i].Code < c.Features[j].Code })
	return c, nil
}

// countryName looks up the English short name of an ISO 3166 code.
func countryName(code string) string {
	cc := countries.ByName(code)
	if cc == countries.Unknown {
		log.WithField("code", code).Warn("no NAME property and code is not an ISO 3166 country, using code as name")
		return code
	}
	return cc.String()
}

func stringProp(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
