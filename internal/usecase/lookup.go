package usecase

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.ngs.io/countrymasks/internal/domain"
)

var (
	// ErrNotFound is returned for unknown country or group codes.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCoordinate is returned for latitudes or longitudes that cannot be located.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// DatasetInfo describes the loaded mask dataset.
type DatasetInfo struct {
	Kind       string `json:"kind"`
	Resolution string `json:"resolution,omitempty"`
	Version    string `json:"version,omitempty"`
	Source     string `json:"source,omitempty"`
	Repository string `json:"repository,omitempty"`
	Countries  int    `json:"countries"`
	Groups     int    `json:"groups"`
}

// CountryInfo summarizes one country or group mask.
type CountryInfo struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Note    string   `json:"note,omitempty"`
	Members []string `json:"members,omitempty"`
	Cells   int      `json:"cells"`
	AreaKm2 float64  `json:"area_km2"`
}

// LookupMatch is a mask with a positive value at the looked-up cell.
type LookupMatch struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Group bool    `json:"group,omitempty"`
	Value float64 `json:"value"`
}

// LookupResult lists the masks covering the cell containing a point.
type LookupResult struct {
	Lat       float64       `json:"lat"`
	Lon       float64       `json:"lon"`
	Row       int           `json:"row"`
	Col       int           `json:"col"`
	CellLat   float64       `json:"cell_lat"`
	CellLon   float64       `json:"cell_lon"`
	World     float64       `json:"world"`
	Countries []LookupMatch `json:"countries"`
	Groups    []LookupMatch `json:"groups"`
}

// LookupUseCase answers queries against an in-memory mask dataset.
type LookupUseCase struct {
	set      *domain.MaskSet
	rowAreas []float64
}

// NewLookupUseCase creates a lookup use case over a loaded dataset.
func NewLookupUseCase(set *domain.MaskSet) *LookupUseCase {
	return &LookupUseCase{
		set:      set,
		rowAreas: domain.CellAreas(set.Grid),
	}
}

// Dataset returns the dataset metadata.
func (uc *LookupUseCase) Dataset() DatasetInfo {
	return DatasetInfo{
		Kind:       string(uc.set.Kind),
		Resolution: uc.set.Resolution,
		Version:    uc.set.Version,
		Source:     uc.set.Source,
		Repository: uc.set.Repository,
		Countries:  len(uc.set.Countries),
		Groups:     len(uc.set.Groups),
	}
}

// Countries lists every country mask, sorted by code.
func (uc *LookupUseCase) Countries() []CountryInfo {
	out := make([]CountryInfo, len(uc.set.Countries))
	for i, c := range uc.set.Countries {
		out[i] = uc.countryInfo(c)
	}
	return out
}

// Country returns the country or group with the given code (case-insensitive).
func (uc *LookupUseCase) Country(code string) (CountryInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := uc.set.Country(code); ok {
		return uc.countryInfo(c), nil
	}
	if g, ok := uc.set.Group(code); ok {
		return CountryInfo{
			Code:    g.Code,
			Name:    g.Name,
			Members: g.Members,
			Cells:   g.Mask.Count(),
			AreaKm2: domain.CountryAreaKm2(g.Mask, uc.rowAreas),
		}, nil
	}
	return CountryInfo{}, fmt.Errorf("country %q: %w", code, ErrNotFound)
}

// Lookup finds every mask covering the cell that contains (lat, lon).
// Longitudes outside [-180, 180) are wrapped.
func (uc *LookupUseCase) Lookup(lat, lon float64) (*LookupResult, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %v out of range [-90, 90]: %w", lat, ErrInvalidCoordinate)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, fmt.Errorf("longitude %v is not finite: %w", lon, ErrInvalidCoordinate)
	}
	lon = normalizeLon(lon)

	g := uc.set.Grid
	i, j, ok := g.Index(lon, lat)
	if !ok {
		return nil, fmt.Errorf("point (%v, %v) outside grid: %w", lat, lon, ErrInvalidCoordinate)
	}

	res := &LookupResult{
		Lat:       lat,
		Lon:       lon,
		Row:       i,
		Col:       j,
		CellLat:   g.Lat(i),
		CellLon:   g.Lon(j),
		Countries: []LookupMatch{},
		Groups:    []LookupMatch{},
	}
	if uc.set.World != nil {
		res.World = float64(uc.set.World[i*g.Cols+j])
	}
	for _, c := range uc.set.Countries {
		if v := c.Mask.At(i, j); v > 0 {
			res.Countries = append(res.Countries, LookupMatch{Code: c.Code, Name: c.Name, Value: v})
		}
	}
	for _, grp := range uc.set.Groups {
		if v := grp.Mask.At(i, j); v > 0 {
			res.Groups = append(res.Groups, LookupMatch{Code: grp.Code, Name: grp.Name, Group: true, Value: v})
		}
	}
	return res, nil
}

func (uc *LookupUseCase) countryInfo(c *domain.CountryMask) CountryInfo {
	return CountryInfo{
		Code:    c.Code,
		Name:    c.Name,
		Note:    c.Note,
		Cells:   c.Mask.Count(),
		AreaKm2: domain.CountryAreaKm2(c.Mask, uc.rowAreas),
	}
}

// normalizeLon maps arbitrary degree longitudes into the [-180, 180) range.
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
