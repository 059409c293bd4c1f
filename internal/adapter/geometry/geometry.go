// Package geometry provides polygon helpers for country boundaries.
//
// Planar measures come from orb/planar; buffering goes through GEOS, with
// geometries exchanged as WKB.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"
)

// DefaultQuadSegs is the number of segments used to approximate a quarter circle when buffering.
const DefaultQuadSegs = 8

// Parts splits a polygonal geometry into its polygons.
func Parts(g orb.Geometry) ([]orb.Polygon, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}, nil
	case orb.MultiPolygon:
		return []orb.Polygon(g), nil
	case orb.Collection:
		var parts []orb.Polygon
		for _, sub := range g {
			p, err := Parts(sub)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p...)
		}
		return parts, nil
	case nil:
		return nil, fmt.Errorf("missing geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}

// Area returns the planar area in square degrees.
func Area(g orb.Geometry) float64 {
	return planar.Area(g)
}

// Centroid returns the area-weighted centroid.
func Centroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	return c
}

// Contains reports whether p lies inside (or on the boundary of) a polygonal geometry.
func Contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	default:
		return false
	}
}

// Buffer offsets g by dist degrees; a negative distance shrinks it.
// Geometries that vanish are returned as an empty MultiPolygon.
func Buffer(g orb.Geometry, dist float64, quadSegs int) (orb.Geometry, error) {
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode geometry: %w", err)
	}

	gg, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load geometry into GEOS: %w", err)
	}

	buffered := gg.Buffer(dist, quadSegs)
	if buffered == nil || buffered.IsEmpty() {
		return orb.MultiPolygon{}, nil
	}

	out, err := wkb.Unmarshal(buffered.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("failed to decode buffered geometry: %w", err)
	}
	return out, nil
}

// GEOSBuffer buffers geometries with GEOS.
type GEOSBuffer struct {
	QuadSegs int
}

// NewGEOSBuffer creates a GEOS-backed buffer with the default segment count.
func NewGEOSBuffer() *GEOSBuffer {
	return &GEOSBuffer{QuadSegs: DefaultQuadSegs}
}

// Buffer implements raster.Shrinker.
func (b *GEOSBuffer) Buffer(g orb.Geometry, dist float64) (orb.Geometry, error) {
	quadSegs := b.QuadSegs
	if quadSegs <= 0 {
		quadSegs = DefaultQuadSegs
	}
	return Buffer(g, dist, quadSegs)
}
