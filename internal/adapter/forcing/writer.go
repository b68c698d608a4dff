// Package forcing writes model input files: dimensioned, attributed,
// multi-variable NetCDF containers built schema-first.
package forcing

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/oceanmesh/sstprep/internal/domain"
)

// Dimension declares a named axis. Len 0 creates the unlimited record
// dimension, which grows as record variables are written.
type Dimension struct {
	Name string
	Len  uint64
}

// Attribute is a named metadata value. Supported value types: string,
// float64, float32, int, int32 and []float64.
type Attribute struct {
	Name  string
	Value any
}

// Writer creates a forcing file. All dimensions and global attributes are
// declared at Create; variables are attached afterwards with AddVariable.
// Close is idempotent so it can back a defer on every exit path.
type Writer struct {
	ds     netcdf.Dataset
	dims   map[string]netcdf.Dim
	record map[string]bool // dims declared with Len 0
	closed bool
}

// Create opens a new forcing file at path, clobbering any existing file, and
// declares the given dimensions and global attributes.
func Create(path string, dims []Dimension, globalAttrs []Attribute) (*Writer, error) {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return nil, &domain.ConfigError{Path: path, Reason: fmt.Sprintf("cannot create output file: %v", err)}
	}

	w := &Writer{
		ds:     ds,
		dims:   make(map[string]netcdf.Dim, len(dims)),
		record: make(map[string]bool),
	}

	for _, d := range dims {
		nd, err := ds.AddDim(d.Name, d.Len)
		if err != nil {
			_ = ds.Close()
			return nil, fmt.Errorf("declare dimension %q: %w", d.Name, err)
		}
		w.dims[d.Name] = nd
		if d.Len == 0 {
			w.record[d.Name] = true
		}
	}

	for _, a := range globalAttrs {
		if err := writeAttr(ds.Attr(a.Name), a.Value); err != nil {
			_ = ds.Close()
			return nil, fmt.Errorf("global attribute %q: %w", a.Name, err)
		}
	}

	return w, nil
}

// AddVariable declares a variable over pre-declared dimensions, attaches its
// attributes and writes its data. Supported formats: "f8" (float64 variable
// from []float64), "f4" (float32 variable from []float64), "i4" (int32
// variable from []int32) and "c" (char variable from []string rows padded to
// the trailing dimension's width).
func (w *Writer) AddVariable(name string, data any, dimNames []string, attrs []Attribute, format string) error {
	if w.closed {
		return fmt.Errorf("variable %q: writer is closed", name)
	}

	varDims := make([]netcdf.Dim, len(dimNames))
	hasRecord := false
	fixed := 1
	for i, dn := range dimNames {
		d, ok := w.dims[dn]
		if !ok {
			return &domain.SchemaError{Variable: name, Reason: fmt.Sprintf("dimension %q not declared", dn)}
		}
		varDims[i] = d
		if w.record[dn] {
			hasRecord = true
			continue
		}
		n, err := d.Len()
		if err != nil {
			return fmt.Errorf("variable %q: dimension %q length: %w", name, dn, err)
		}
		fixed *= int(n)
	}

	flat64, flatBytes, flat32i, err := flattenData(name, data, format, fixed, hasRecord)
	if err != nil {
		return err
	}

	nctype, err := typeForFormat(name, format)
	if err != nil {
		return err
	}

	v, err := w.ds.AddVar(name, nctype, varDims)
	if err != nil {
		return fmt.Errorf("declare variable %q: %w", name, err)
	}
	for _, a := range attrs {
		if err := writeAttr(v.Attr(a.Name), a.Value); err != nil {
			return fmt.Errorf("variable %q attribute %q: %w", name, a.Name, err)
		}
	}

	switch format {
	case "f8":
		return w.writeFloat64s(name, v, varDims, flat64, false)
	case "f4":
		return w.writeFloat64s(name, v, varDims, flat64, true)
	case "c":
		return w.writeBytes(name, v, varDims, flatBytes)
	case "i4":
		if err := v.WriteInt32s(flat32i); err != nil {
			return fmt.Errorf("write variable %q: %w", name, err)
		}
		return nil
	}
	return nil // Unreachable; typeForFormat rejects unknown formats.
}

// Close flushes and releases the underlying file. Safe to call more than
// once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.ds.Close()
}

// writeFloat64s writes a float-typed variable, element-wise when the variable
// still needs to extend the record dimension.
func (w *Writer) writeFloat64s(name string, v netcdf.Var, dims []netcdf.Dim, data []float64, narrow bool) error {
	n, err := currentLen(dims)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	if n == len(data) {
		if narrow {
			tmp := make([]float32, len(data))
			for i, val := range data {
				tmp[i] = float32(val)
			}
			if err := v.WriteFloat32s(tmp); err != nil {
				return fmt.Errorf("write variable %q: %w", name, err)
			}
			return nil
		}
		if err := v.WriteFloat64s(data); err != nil {
			return fmt.Errorf("write variable %q: %w", name, err)
		}
		return nil
	}

	shape, err := w.resolveShape(dims, len(data))
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	idx := make([]uint64, len(shape))
	for k, val := range data {
		flatIndex(k, shape, idx)
		if narrow {
			err = v.WriteFloat32At(idx, float32(val))
		} else {
			err = v.WriteFloat64At(idx, val)
		}
		if err != nil {
			return fmt.Errorf("write variable %q at %v: %w", name, idx, err)
		}
	}
	return nil
}

func (w *Writer) writeBytes(name string, v netcdf.Var, dims []netcdf.Dim, data []byte) error {
	n, err := currentLen(dims)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	if n == len(data) {
		if err := v.WriteBytes(data); err != nil {
			return fmt.Errorf("write variable %q: %w", name, err)
		}
		return nil
	}

	shape, err := w.resolveShape(dims, len(data))
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	idx := make([]uint64, len(shape))
	for k, b := range data {
		flatIndex(k, shape, idx)
		if err := v.WriteBytesAt(idx, b); err != nil {
			return fmt.Errorf("write variable %q at %v: %w", name, idx, err)
		}
	}
	return nil
}

// resolveShape computes the write shape for a variable, sizing any record
// dimension from the data length.
func (w *Writer) resolveShape(dims []netcdf.Dim, dataLen int) ([]uint64, error) {
	shape := make([]uint64, len(dims))
	fixed := 1
	recordAt := -1
	for i, d := range dims {
		dn, err := d.Name()
		if err != nil {
			return nil, err
		}
		if w.record[dn] {
			recordAt = i
			continue
		}
		n, err := d.Len()
		if err != nil {
			return nil, err
		}
		shape[i] = n
		fixed *= int(n)
	}
	if recordAt >= 0 {
		shape[recordAt] = uint64(dataLen / fixed)
	}
	return shape, nil
}

// flattenData validates the data payload against the declared shape and
// flattens it to the representation the format needs.
func flattenData(name string, data any, format string, fixed int, hasRecord bool) ([]float64, []byte, []int32, error) {
	checkLen := func(n int) error {
		if hasRecord {
			if fixed == 0 || n%fixed != 0 {
				return &domain.SchemaError{
					Variable: name,
					Reason:   fmt.Sprintf("data length %d is not a multiple of the fixed shape %d", n, fixed),
				}
			}
			return nil
		}
		if n != fixed {
			return &domain.SchemaError{
				Variable: name,
				Reason:   fmt.Sprintf("data length %d does not match declared shape %d", n, fixed),
			}
		}
		return nil
	}

	switch format {
	case "f8", "f4":
		d, ok := data.([]float64)
		if !ok {
			return nil, nil, nil, &domain.SchemaError{Variable: name, Reason: fmt.Sprintf("format %q requires []float64 data", format)}
		}
		if err := checkLen(len(d)); err != nil {
			return nil, nil, nil, err
		}
		return d, nil, nil, nil
	case "i4":
		d, ok := data.([]int32)
		if !ok {
			return nil, nil, nil, &domain.SchemaError{Variable: name, Reason: `format "i4" requires []int32 data`}
		}
		if err := checkLen(len(d)); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, d, nil
	case "c":
		rows, ok := data.([]string)
		if !ok {
			return nil, nil, nil, &domain.SchemaError{Variable: name, Reason: `format "c" requires []string data`}
		}
		if fixed == 0 {
			return nil, nil, nil, &domain.SchemaError{Variable: name, Reason: "char variable needs a fixed string-length dimension"}
		}
		width := fixed
		if !hasRecord {
			// Without a record dimension the row count is part of the fixed
			// shape; the string width is the trailing dimension.
			if len(rows) == 0 || fixed%len(rows) != 0 {
				return nil, nil, nil, &domain.SchemaError{
					Variable: name,
					Reason:   fmt.Sprintf("%d string rows do not fit declared shape %d", len(rows), fixed),
				}
			}
			width = fixed / len(rows)
		}
		flat := make([]byte, 0, len(rows)*width)
		for _, row := range rows {
			if len(row) > width {
				return nil, nil, nil, &domain.SchemaError{
					Variable: name,
					Reason:   fmt.Sprintf("string %q exceeds declared width %d", row, width),
				}
			}
			padded := make([]byte, width)
			copy(padded, row)
			flat = append(flat, padded...)
		}
		return nil, flat, nil, nil
	default:
		return nil, nil, nil, &domain.SchemaError{Variable: name, Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

func typeForFormat(name, format string) (netcdf.Type, error) {
	switch format {
	case "f8":
		return netcdf.DOUBLE, nil
	case "f4":
		return netcdf.FLOAT, nil
	case "i4":
		return netcdf.INT, nil
	case "c":
		return netcdf.CHAR, nil
	default:
		return 0, &domain.SchemaError{Variable: name, Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

// currentLen is the variable's present element count, the product of its
// dimension lengths.
func currentLen(dims []netcdf.Dim) (int, error) {
	n := 1
	for _, d := range dims {
		l, err := d.Len()
		if err != nil {
			return 0, err
		}
		n *= int(l)
	}
	return n, nil
}

// flatIndex converts a flat offset to a multi-dimensional index (row-major).
func flatIndex(k int, shape []uint64, idx []uint64) {
	for i := len(shape) - 1; i >= 0; i-- {
		idx[i] = uint64(k) % shape[i]
		k /= int(shape[i])
	}
}

// writeAttr writes one attribute value of a supported Go type.
func writeAttr(a netcdf.Attr, value any) error {
	switch v := value.(type) {
	case string:
		return a.WriteBytes([]byte(v))
	case float64:
		return a.WriteFloat64s([]float64{v})
	case float32:
		return a.WriteFloat32s([]float32{v})
	case int:
		return a.WriteInt32s([]int32{int32(v)})
	case int32:
		return a.WriteInt32s([]int32{v})
	case []float64:
		return a.WriteFloat64s(v)
	default:
		return fmt.Errorf("unsupported attribute value type %T", value)
	}
}
