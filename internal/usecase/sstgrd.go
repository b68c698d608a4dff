package usecase

import (
	"fmt"

	"github.com/oceanmesh/sstprep/internal/adapter/forcing"
	"github.com/oceanmesh/sstprep/internal/domain"
)

const mjdUnits = "days since 1858-11-17 00:00:00"

// WriteSSTGrid writes the interpolated series as an FVCOM-style SST
// assimilation forcing file. This is a pure mapping stage: geometry and the
// already-interpolated series go in, the fixed sstgrd schema comes out.
func WriteSSTGrid(path string, mesh *domain.Mesh, series *Series) error {
	if len(series.Times) == 0 {
		return fmt.Errorf("write %s: empty series", path)
	}
	for i, vec := range series.SST {
		if len(vec) != mesh.NNode() {
			return fmt.Errorf("write %s: series entry %d has %d values for %d nodes", path, i, len(vec), mesh.NNode())
		}
	}

	dims := []forcing.Dimension{
		{Name: "nele", Len: uint64(mesh.NElem)},
		{Name: "node", Len: uint64(mesh.NNode())},
		{Name: "time", Len: 0},
		{Name: "DateStrLen", Len: domain.CalendarStringLen},
		{Name: "three", Len: 3},
	}
	globals := []forcing.Attribute{
		// The boundary snapshots sit in the neighbouring years; the middle of
		// the series is always inside the target year.
		{Name: "year", Value: series.Times[len(series.Times)/2].Year()},
		{Name: "title", Value: "FVCOM SST 1km merged product File"},
		{Name: "institution", Value: "Plymouth Marine Laboratory"},
		{Name: "source", Value: "FVCOM grid (unstructured) surface forcing"},
		{Name: "history", Value: "File created with sstprep"},
		{Name: "references", Value: "http://fvcom.smast.umassd.edu, http://codfish.smast.umassd.edu"},
		{Name: "Conventions", Value: "CF-1.0"},
		{Name: "CoordinateProjection", Value: "init=WGS84"},
	}

	w, err := forcing.Create(path, dims, globals)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	err = w.AddVariable("lon", mesh.Lon, []string{"node"}, []forcing.Attribute{
		{Name: "long_name", Value: "nodal longitude"},
		{Name: "units", Value: "degrees_east"},
	}, "f8")
	if err != nil {
		return err
	}
	err = w.AddVariable("lat", mesh.Lat, []string{"node"}, []forcing.Attribute{
		{Name: "long_name", Value: "nodal latitude"},
		{Name: "units", Value: "degrees_north"},
	}, "f8")
	if err != nil {
		return err
	}

	mjd := make([]float64, len(series.Times))
	stamps := make([]string, len(series.Times))
	for i, t := range series.Times {
		mjd[i] = domain.ModifiedJulianDay(t)
		stamps[i] = domain.FormatCalendarString(t)
	}

	err = w.AddVariable("time", mjd, []string{"time"}, []forcing.Attribute{
		{Name: "units", Value: mjdUnits},
		{Name: "delta_t", Value: "0000-00-00 01:00:00"},
		{Name: "format", Value: "modified julian day (MJD)"},
		{Name: "time_zone", Value: "UTC"},
	}, "f8")
	if err != nil {
		return err
	}
	err = w.AddVariable("Times", stamps, []string{"time", "DateStrLen"}, []forcing.Attribute{
		{Name: "long_name", Value: "Calendar Date"},
		{Name: "format", Value: "String: Calendar Time"},
		{Name: "time_zone", Value: "UTC"},
	}, "c")
	if err != nil {
		return err
	}

	flat := make([]float64, 0, len(series.SST)*mesh.NNode())
	for _, vec := range series.SST {
		flat = append(flat, vec...)
	}
	err = w.AddVariable("sst", flat, []string{"time", "node"}, []forcing.Attribute{
		{Name: "long_name", Value: "sea surface Temperature"},
		{Name: "units", Value: "Celsius Degree"},
		{Name: "grid", Value: "fvcom_grid"},
		{Name: "type", Value: "data"},
	}, "f4")
	if err != nil {
		return err
	}

	return w.Close()
}
