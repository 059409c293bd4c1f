// Package maskfile reads and writes country mask datasets as NetCDF files.
//
// A file holds one lat×lon variable per mask: m_<CODE> for countries and
// groups, m_world for the union (binary) or total (fractional) of all
// countries, and optionally an integer labels array.
package maskfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/goccy/go-json"

	"go.ngs.io/countrymasks/internal/domain"
)

const (
	latVarName    = "lat"
	lonVarName    = "lon"
	worldVarName  = "m_world"
	labelsVarName = "labels"
	maskPrefix    = "m_"
)

// VarName returns the variable name for a country or group code.
func VarName(code string) string {
	return maskPrefix + code
}

// FileName returns the conventional file name for a dataset kind at a resolution.
func FileName(kind domain.Kind, resolution string) string {
	switch kind {
	case domain.KindBinaryExclusive:
		return fmt.Sprintf("countrymasks_binary_exclusive_%s.nc", resolution)
	case domain.KindFractional:
		return fmt.Sprintf("countrymasks_fractional_%s.nc", resolution)
	default:
		return fmt.Sprintf("countrymasks_%s.nc", resolution)
	}
}

type pendingMask struct {
	name string
	v    netcdf.Var
	mask *domain.Mask
}

// Write stores s as a NetCDF4 file, replacing any existing file at path.
func Write(path string, s *domain.MaskSet) (err error) {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file %s: %w", path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close NetCDF file %s: %w", path, cerr)
		}
	}()

	g := s.Grid
	latDim, err := ds.AddDim(latVarName, uint64(g.Rows))
	if err != nil {
		return fmt.Errorf("failed to add lat dimension: %w", err)
	}
	lonDim, err := ds.AddDim(lonVarName, uint64(g.Cols))
	if err != nil {
		return fmt.Errorf("failed to add lon dimension: %w", err)
	}
	dims := []netcdf.Dim{latDim, lonDim}

	groupCodes := make([]string, len(s.Groups))
	for i, gm := range s.Groups {
		groupCodes[i] = gm.Code
	}
	global := []struct{ name, value string }{
		{"source", s.Source},
		{"repository", s.Repository},
		{"version", s.Version},
		{"note", s.Note},
		{"kind", string(s.Kind)},
		{"resolution", s.Resolution},
		{"countries", strings.Join(s.Codes(), " ")},
		{"groups", strings.Join(groupCodes, " ")},
	}
	for _, a := range global {
		if err := writeText(ds.Attr(a.name), a.value); err != nil {
			return fmt.Errorf("failed to write global attribute %s: %w", a.name, err)
		}
	}

	latVar, err := ds.AddVar(latVarName, netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return fmt.Errorf("failed to add lat variable: %w", err)
	}
	lonVar, err := ds.AddVar(lonVarName, netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return fmt.Errorf("failed to add lon variable: %w", err)
	}
	if err := writeAttrs(latVar, "long_name", "latitude_coordinate", "units", "degree"); err != nil {
		return fmt.Errorf("failed to annotate lat: %w", err)
	}
	if err := writeAttrs(lonVar, "long_name", "longitude_coordinate", "units", "degree"); err != nil {
		return fmt.Errorf("failed to annotate lon: %w", err)
	}

	maskType := netcdf.BYTE
	if s.Kind.Fractional() {
		maskType = netcdf.FLOAT
	}

	var pending []pendingMask
	for _, c := range s.Countries {
		v, err := ds.AddVar(VarName(c.Code), maskType, dims)
		if err != nil {
			return fmt.Errorf("failed to add variable for %s: %w", c.Code, err)
		}
		if err := writeAttrs(v, "long_name", c.Name, "note", c.Note); err != nil {
			return fmt.Errorf("failed to annotate %s: %w", c.Code, err)
		}
		pending = append(pending, pendingMask{name: VarName(c.Code), v: v, mask: c.Mask})
	}
	for _, gm := range s.Groups {
		v, err := ds.AddVar(VarName(gm.Code), maskType, dims)
		if err != nil {
			return fmt.Errorf("failed to add variable for group %s: %w", gm.Code, err)
		}
		if err := writeAttrs(v, "long_name", gm.Name, "members", strings.Join(gm.Members, " ")); err != nil {
			return fmt.Errorf("failed to annotate group %s: %w", gm.Code, err)
		}
		pending = append(pending, pendingMask{name: VarName(gm.Code), v: v, mask: gm.Mask})
	}

	var worldVar netcdf.Var
	if s.World != nil {
		if worldVar, err = ds.AddVar(worldVarName, maskType, dims); err != nil {
			return fmt.Errorf("failed to add world variable: %w", err)
		}
		if err := writeAttrs(worldVar, "long_name", "World"); err != nil {
			return fmt.Errorf("failed to annotate world: %w", err)
		}
	}

	var labelsVar netcdf.Var
	if s.Labels != nil {
		if labelsVar, err = ds.AddVar(labelsVarName, netcdf.INT, dims); err != nil {
			return fmt.Errorf("failed to add labels variable: %w", err)
		}
		mapping, err := encodeLabelMapping(s.LabelNames)
		if err != nil {
			return err
		}
		if err := writeAttrs(labelsVar, "label_mapping", mapping); err != nil {
			return fmt.Errorf("failed to annotate labels: %w", err)
		}
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to leave define mode: %w", err)
	}

	if err := latVar.WriteFloat64s(g.Lats()); err != nil {
		return fmt.Errorf("failed to write lat: %w", err)
	}
	if err := lonVar.WriteFloat64s(g.Lons()); err != nil {
		return fmt.Errorf("failed to write lon: %w", err)
	}

	// One dense buffer is reused for every variable.
	buf := make([]float32, g.Size())
	var bytesBuf []int8
	if maskType == netcdf.BYTE {
		bytesBuf = make([]int8, g.Size())
	}

	for _, p := range pending {
		p.mask.DenseInto(buf)
		if err := writeDense(p.v, buf, bytesBuf); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}

	if s.World != nil {
		if err := writeDense(worldVar, s.World, bytesBuf); err != nil {
			return fmt.Errorf("failed to write %s: %w", worldVarName, err)
		}
	}

	if s.Labels != nil {
		if err := labelsVar.WriteInt32s(s.Labels); err != nil {
			return fmt.Errorf("failed to write %s: %w", labelsVarName, err)
		}
	}

	return nil
}

// writeDense writes buf as FLOAT, or as BYTE through bytesBuf when it is non-nil.
func writeDense(v netcdf.Var, buf []float32, bytesBuf []int8) error {
	if bytesBuf == nil {
		return v.WriteFloat32s(buf)
	}
	for k, x := range buf {
		if x > 0 {
			bytesBuf[k] = 1
		} else {
			bytesBuf[k] = 0
		}
	}
	return v.WriteInt8s(bytesBuf)
}

// writeAttrs writes name/value text attribute pairs, skipping empty values.
func writeAttrs(v netcdf.Var, kv ...string) error {
	for k := 0; k+1 < len(kv); k += 2 {
		if err := writeText(v.Attr(kv[k]), kv[k+1]); err != nil {
			return fmt.Errorf("failed to write attribute %s: %w", kv[k], err)
		}
	}
	return nil
}

func writeText(a netcdf.Attr, value string) error {
	if value == "" {
		return nil
	}
	return a.WriteBytes([]byte(value))
}

// readText returns a text attribute, or "" when it is missing.
func readText(a netcdf.Attr) (string, error) {
	n, err := a.Len()
	if err != nil || n == 0 {
		// Missing attribute.
		return "", nil
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", fmt.Errorf("failed to read text attribute: %w", err)
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

func encodeLabelMapping(names map[int32]string) (string, error) {
	m := make(map[string]string, len(names))
	for label, code := range names {
		m[strconv.Itoa(int(label))] = code
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode label mapping: %w", err)
	}
	return string(data), nil
}

func decodeLabelMapping(s string) (map[int32]string, error) {
	if s == "" {
		return map[int32]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("failed to decode label mapping: %w", err)
	}
	out := make(map[int32]string, len(m))
	for k, code := range m {
		label, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid label %q in mapping: %w", k, err)
		}
		out[int32(label)] = code
	}
	return out, nil
}

// Read loads a mask file written by Write back into memory.
func Read(path string) (*domain.MaskSet, error) {
	//nolint:gosec // G304: Path supplied by the operator.
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	defer func() { _ = ds.Close() }()

	lat, err := readCoordVar(ds, latVarName)
	if err != nil {
		return nil, err
	}
	lon, err := readCoordVar(ds, lonVarName)
	if err != nil {
		return nil, err
	}
	g, err := gridFromCoords(lat, lon)
	if err != nil {
		return nil, err
	}

	s := &domain.MaskSet{Grid: g}
	attrs := map[string]*string{
		"source":     &s.Source,
		"repository": &s.Repository,
		"version":    &s.Version,
		"note":       &s.Note,
		"resolution": &s.Resolution,
	}
	for name, dst := range attrs {
		if *dst, err = readText(ds.Attr(name)); err != nil {
			return nil, err
		}
	}
	kind, err := readText(ds.Attr("kind"))
	if err != nil {
		return nil, err
	}
	s.Kind = domain.Kind(kind)

	countryList, err := readText(ds.Attr("countries"))
	if err != nil {
		return nil, err
	}
	groupList, err := readText(ds.Attr("groups"))
	if err != nil {
		return nil, err
	}

	buf := make([]float32, g.Size())
	for _, code := range strings.Fields(countryList) {
		v, err := ds.Var(VarName(code))
		if err != nil {
			return nil, fmt.Errorf("variable %s listed but not found: %w", VarName(code), err)
		}
		if s.Kind == "" {
			s.Kind = kindFromType(v)
		}
		if err := readDense(v, g, buf); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", VarName(code), err)
		}
		name, err := readText(v.Attr("long_name"))
		if err != nil {
			return nil, err
		}
		note, err := readText(v.Attr("note"))
		if err != nil {
			return nil, err
		}
		s.Countries = append(s.Countries, &domain.CountryMask{
			Code: code,
			Name: name,
			Note: note,
			Mask: domain.MaskFromDense(g, buf),
		})
	}
	s.SortCountries()

	for _, code := range strings.Fields(groupList) {
		v, err := ds.Var(VarName(code))
		if err != nil {
			return nil, fmt.Errorf("group variable %s listed but not found: %w", VarName(code), err)
		}
		if err := readDense(v, g, buf); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", VarName(code), err)
		}
		name, err := readText(v.Attr("long_name"))
		if err != nil {
			return nil, err
		}
		members, err := readText(v.Attr("members"))
		if err != nil {
			return nil, err
		}
		s.Groups = append(s.Groups, &domain.GroupMask{
			Group: domain.Group{Code: code, Name: name, Members: strings.Fields(members)},
			Mask:  domain.MaskFromDense(g, buf),
		})
	}

	if v, err := ds.Var(worldVarName); err == nil {
		s.World = make([]float32, g.Size())
		if err := readDense(v, g, s.World); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", worldVarName, err)
		}
	}

	if v, err := ds.Var(labelsVarName); err == nil {
		s.Labels = make([]int32, g.Size())
		if err := v.ReadInt32s(s.Labels); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", labelsVarName, err)
		}
		mapping, err := readText(v.Attr("label_mapping"))
		if err != nil {
			return nil, err
		}
		if s.LabelNames, err = decodeLabelMapping(mapping); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func kindFromType(v netcdf.Var) domain.Kind {
	if t, err := v.Type(); err == nil && (t == netcdf.FLOAT || t == netcdf.DOUBLE) {
		return domain.KindFractional
	}
	return domain.KindBinary
}

// gridFromCoords rebuilds the grid from cell-centre coordinates.
func gridFromCoords(lat, lon []float64) (domain.Grid, error) {
	if len(lat) < 2 || len(lon) < 2 {
		return domain.Grid{}, fmt.Errorf("grid too small: %d lat x %d lon", len(lat), len(lon))
	}
	res := lon[1] - lon[0]
	if res <= 0 {
		return domain.Grid{}, fmt.Errorf("longitudes must ascend")
	}
	if dlat := lat[0] - lat[1]; math.Abs(dlat-res) > 1e-9*math.Max(1, res) {
		return domain.Grid{}, fmt.Errorf("latitudes must descend with the longitude spacing %v, got step %v", res, -dlat)
	}
	return domain.Grid{
		West:  lon[0] - res/2,
		North: lat[0] + res/2,
		Res:   res,
		Rows:  len(lat),
		Cols:  len(lon),
	}, nil
}

func readCoordVar(ds netcdf.Dataset, name string) ([]float64, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("%s variable not found: %w", name, err)
	}
	data, err := readFloat64Var(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// readFloat64Var reads a 1D numeric variable as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported coordinate type: %v", t)
	}
}

// readDense reads a lat×lon mask variable into buf, mapping fill values to 0.
func readDense(v netcdf.Var, g domain.Grid, buf []float32) error {
	dims, err := v.Dims()
	if err != nil {
		return fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 2 {
		return fmt.Errorf("expected 2D data, got %dD", len(dims))
	}
	nLat, err := dims[0].Len()
	if err != nil {
		return fmt.Errorf("failed to get dim0 length: %w", err)
	}
	nLon, err := dims[1].Len()
	if err != nil {
		return fmt.Errorf("failed to get dim1 length: %w", err)
	}
	if nLat != uint64(g.Rows) || nLon != uint64(g.Cols) {
		return fmt.Errorf("dimension mismatch: data is [%d, %d], expected [%d, %d]", nLat, nLon, g.Rows, g.Cols)
	}

	t, err := v.Type()
	if err != nil {
		return fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.FLOAT:
		if err := v.ReadFloat32s(buf); err != nil {
			return err
		}
	case netcdf.DOUBLE:
		tmp := make([]float64, len(buf))
		if err := v.ReadFloat64s(tmp); err != nil {
			return err
		}
		for i, val := range tmp {
			buf[i] = float32(val)
		}
	case netcdf.BYTE:
		tmp := make([]int8, len(buf))
		if err := v.ReadInt8s(tmp); err != nil {
			return err
		}
		for i, val := range tmp {
			buf[i] = float32(val)
		}
	case netcdf.INT:
		tmp := make([]int32, len(buf))
		if err := v.ReadInt32s(tmp); err != nil {
			return err
		}
		for i, val := range tmp {
			buf[i] = float32(val)
		}
	default:
		return fmt.Errorf("unsupported data type: %v", t)
	}

	if fv, ok := getFillValue(v); ok {
		for i, val := range buf {
			if float64(val) == fv {
				buf[i] = 0
			}
		}
	}
	return nil
}

// getFillValue returns the _FillValue or missing_value attribute if present as float64.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
		bufb := make([]int8, 1)
		if err := a.ReadInt8s(bufb); err == nil {
			return float64(bufb[0]), true
		}
	}
	return 0, false
}
