// Package sst reads gridded satellite SST snapshots and resamples them onto
// unstructured mesh nodes.
package sst

import (
	"fmt"
	"math"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/oceanmesh/sstprep/internal/adapter/interp"
	"github.com/oceanmesh/sstprep/internal/domain"
)

const (
	sstVarName  = "analysed_sst"
	maskVarName = "mask"
	lonVarName  = "lon"
	latVarName  = "lat"
	timeVarName = "time"

	kelvinOffset = 273.15
	validMask    = 1
)

// Snapshot holds the result of interpolating one SST source file: the file's
// timestamps and one temperature per mesh node, in mesh node order.
type Snapshot struct {
	Times  []time.Time
	Values []float64 // Celsius.
}

// InterpSnapshot reads the gridded temperature field at path, converts it to
// Celsius, blanks cells the validity mask rejects, and evaluates a
// nearest-neighbour interpolator at every node of the mesh. Any failure is
// reported as a DataSourceError attributed to the file.
func InterpSnapshot(mesh *domain.Mesh, path string) (*Snapshot, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: fmt.Errorf("open: %w", err)}
	}
	defer func() { _ = nc.Close() }()

	snap, err := interpOpened(nc, mesh)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}
	return snap, nil
}

func interpOpened(nc netcdf.Dataset, mesh *domain.Mesh) (*Snapshot, error) {
	lon, err := read1DVar(nc, lonVarName)
	if err != nil {
		return nil, err
	}
	lat, err := read1DVar(nc, latVarName)
	if err != nil {
		return nil, err
	}

	field, err := readField(nc, sstVarName, len(lat), len(lon))
	if err != nil {
		return nil, err
	}
	mask, err := readField(nc, maskVarName, len(lat), len(lon))
	if err != nil {
		return nil, err
	}

	// Kelvin to Celsius, with invalid cells blanked before the interpolator
	// ever sees them.
	for i := range field {
		for j := range field[i] {
			if mask[i][j] != validMask {
				field[i][j] = math.NaN()
			} else {
				field[i][j] -= kelvinOffset
			}
		}
	}

	// Some products order axes north-to-south or east-to-west; normalise to
	// strictly increasing coordinates.
	if len(lat) > 1 && lat[0] > lat[len(lat)-1] {
		reverseAxis(lat)
		reverseRows(field)
	}
	if len(lon) > 1 && lon[0] > lon[len(lon)-1] {
		reverseAxis(lon)
		for i := range field {
			reverseAxis(field[i])
		}
	}

	grid := &interp.Grid2D{X: lon, Y: lat, Values: field}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	times, err := readTimes(nc)
	if err != nil {
		return nil, err
	}

	values := make([]float64, mesh.NNode())
	for i := range values {
		values[i] = grid.Nearest(mesh.Lon[i], mesh.Lat[i])
	}

	return &Snapshot{Times: times, Values: values}, nil
}

// readTimes decodes the snapshot's time variable using its units attribute.
func readTimes(nc netcdf.Dataset) ([]time.Time, error) {
	v, err := nc.Var(timeVarName)
	if err != nil {
		return nil, fmt.Errorf("variable %q not found: %w", timeVarName, err)
	}
	raw, _, err := readNumericVar(v)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", timeVarName, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("variable %q is empty", timeVarName)
	}
	units, ok := attrString(v, "units")
	if !ok {
		return nil, fmt.Errorf("variable %q has no units attribute", timeVarName)
	}
	times, err := domain.ParseCFTime(raw, units)
	if err != nil {
		return nil, err
	}
	return times, nil
}

// readField reads a 2D [lat, lon] field, accepting a leading length-1 time
// dimension or transposed [lon, lat] storage, and applies packing and fill
// attributes.
func readField(nc netcdf.Dataset, name string, nLat, nLon int) ([][]float64, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q not found: %w", name, err)
	}

	flat, shape, err := readNumericVar(v)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}

	// Squeeze leading length-1 dimensions (e.g. a daily file's time axis).
	for len(shape) > 2 && shape[0] == 1 {
		shape = shape[1:]
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("variable %q: expected 2D field, got shape %v", name, shape)
	}

	if fv, ok := attrFloat(v, "_FillValue", "missing_value"); ok {
		for i, val := range flat {
			if val == fv {
				flat[i] = math.NaN()
			}
		}
	}

	// Packed products store shorts with scale/offset attributes.
	scale, hasScale := attrFloat(v, "scale_factor")
	offset, hasOffset := attrFloat(v, "add_offset")
	if hasScale || hasOffset {
		if !hasScale {
			scale = 1
		}
		for i := range flat {
			flat[i] = flat[i]*scale + offset
		}
	}

	switch {
	case shape[0] == nLat && shape[1] == nLon:
		return unflatten(flat, nLat, nLon), nil
	case shape[0] == nLon && shape[1] == nLat:
		return transpose2D(unflatten(flat, nLon, nLat)), nil
	default:
		return nil, fmt.Errorf("variable %q: shape %v does not match axes [%d, %d]", name, shape, nLat, nLon)
	}
}

// read1DVar reads a 1D coordinate axis as float64.
func read1DVar(nc netcdf.Dataset, name string) ([]float64, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q not found: %w", name, err)
	}
	data, shape, err := readNumericVar(v)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("variable %q: expected 1D axis, got shape %v", name, shape)
	}
	return data, nil
}

// readNumericVar reads a whole variable of any supported numeric type as
// float64, returning the flattened data and the dimension lengths.
func readNumericVar(v netcdf.Var) ([]float64, []int, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	shape := make([]int, len(dims))
	total := 1
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get dim %d length: %w", i, err)
		}
		shape[i] = int(n)
		total *= int(n)
	}

	t, err := v.Type()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get var type: %w", err)
	}

	flat := make([]float64, total)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(flat); err != nil {
			return nil, nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, nil, err
		}
		for i, val := range tmp {
			flat[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, nil, err
		}
		for i, val := range tmp {
			flat[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, nil, err
		}
		for i, val := range tmp {
			flat[i] = float64(val)
		}
	case netcdf.BYTE:
		tmp := make([]int8, total)
		if err := v.ReadInt8s(tmp); err != nil {
			return nil, nil, err
		}
		for i, val := range tmp {
			flat[i] = float64(val)
		}
	case netcdf.UBYTE:
		tmp := make([]uint8, total)
		if err := v.ReadUint8s(tmp); err != nil {
			return nil, nil, err
		}
		for i, val := range tmp {
			flat[i] = float64(val)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return flat, shape, nil
}

// attrFloat returns the first of the named attributes present as float64.
func attrFloat(v netcdf.Var, names ...string) (float64, bool) {
	for _, name := range names {
		a := v.Attr(name)
		if n, err := a.Len(); err == nil && n > 0 {
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
		}
	}
	return 0, false
}

// attrString returns the named text attribute, if present.
func attrString(v netcdf.Var, name string) (string, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return string(buf), true
}

func unflatten(flat []float64, nRows, nCols int) [][]float64 {
	values := make([][]float64, nRows)
	for i := 0; i < nRows; i++ {
		values[i] = flat[i*nCols : (i+1)*nCols]
	}
	return values
}

// transpose2D transposes a 2D array.
func transpose2D(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}
	nRows := len(data)
	nCols := len(data[0])
	transposed := make([][]float64, nCols)
	for i := 0; i < nCols; i++ {
		transposed[i] = make([]float64, nRows)
		for j := 0; j < nRows; j++ {
			transposed[i][j] = data[j][i]
		}
	}
	return transposed
}

func reverseAxis(a []float64) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}

func reverseRows(rows [][]float64) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
