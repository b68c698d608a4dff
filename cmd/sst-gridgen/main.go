// Command sst-gridgen generates synthetic satellite SST snapshot files laid
// out in the per-year directory structure sst-forcing expects, so the
// pipeline can be exercised without real satellite data.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

// epoch matches the time units the real products carry.
var epoch = time.Date(1981, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	timeUnits   = "seconds since 1981-01-01 00:00:00"
	scaleFactor = 0.01
	addOffset   = 273.15
)

// RegionalGrid defines the geographic bounds and resolution.
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

func main() {
	outDir := flag.String("out", "./data/sst", "Output directory for per-year snapshot directories")
	year := flag.Int("year", 2006, "Target year to generate")
	days := flag.Int("days", 10, "Number of daily snapshots in the target year")
	latMin := flag.Float64("lat-min", 49.0, "Minimum latitude")
	latMax := flag.Float64("lat-max", 52.0, "Maximum latitude")
	lonMin := flag.Float64("lon-min", -6.0, "Minimum longitude")
	lonMax := flag.Float64("lon-max", -2.0, "Maximum longitude")
	resolution := flag.Float64("resolution", 0.05, "Grid resolution in degrees")
	flag.Parse()

	grid := RegionalGrid{
		LatMin:     *latMin,
		LatMax:     *latMax,
		LonMin:     *lonMin,
		LonMax:     *lonMax,
		Resolution: *resolution,
	}

	// One boundary snapshot either side of the target year, plus the daily
	// series itself.
	snapshots := []time.Time{time.Date(*year-1, time.December, 31, 0, 0, 0, 0, time.UTC)}
	for d := 0; d < *days; d++ {
		snapshots = append(snapshots, time.Date(*year, time.January, 1+d, 0, 0, 0, 0, time.UTC))
	}
	snapshots = append(snapshots, time.Date(*year+1, time.January, 1, 0, 0, 0, 0, time.UTC))

	for _, day := range snapshots {
		dir := filepath.Join(*outDir, fmt.Sprintf("%d", day.Year()))
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("sst_%s.nc", day.Format("20060102")))
		if err := writeSnapshot(path, day, grid); err != nil {
			log.Fatalf("Failed to generate %s: %v", path, err)
		}
		log.Printf("✓ Generated %s", path)
	}

	nLat := int((grid.LatMax-grid.LatMin)/grid.Resolution) + 1
	nLon := int((grid.LonMax-grid.LonMin)/grid.Resolution) + 1
	log.Printf("Grid size: %d × %d points, %d snapshots", nLat, nLon, len(snapshots))
}

// writeSnapshot creates one packed-short snapshot file with an analytic
// temperature field and a coastal land mask.
func writeSnapshot(path string, day time.Time, grid RegionalGrid) error {
	nLat := int((grid.LatMax-grid.LatMin)/grid.Resolution) + 1
	nLon := int((grid.LonMax-grid.LonMin)/grid.Resolution) + 1

	lat := make([]float64, nLat)
	for i := 0; i < nLat; i++ {
		lat[i] = grid.LatMin + float64(i)*grid.Resolution
	}
	lon := make([]float64, nLon)
	for j := 0; j < nLon; j++ {
		lon[j] = grid.LonMin + float64(j)*grid.Resolution
	}

	// Smooth seasonal field in Celsius: warmer south, a mild annual cycle.
	doy := float64(day.YearDay())
	packed := make([]int16, nLat*nLon)
	maskVals := make([]int8, nLat*nLon)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			idx := i*nLon + j
			celsius := 12.0 -
				0.3*(lat[i]-grid.LatMin) +
				2.5*math.Sin(2*math.Pi*(doy-120)/365.25) +
				0.2*math.Cos(lon[j]*math.Pi/10.0)
			kelvin := celsius + addOffset
			packed[idx] = int16(math.Round((kelvin - addOffset) / scaleFactor))

			// Land in the north-east corner of the box.
			if lat[i] > grid.LatMax-0.5 && lon[j] > grid.LonMax-0.5 {
				maskVals[idx] = 2
			} else {
				maskVals[idx] = 1
			}
		}
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	timeDim, err := ds.AddDim("time", 1)
	if err != nil {
		return err
	}
	latDim, err := ds.AddDim("lat", uint64(nLat))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(nLon))
	if err != nil {
		return err
	}

	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	if err := latVar.Attr("units").WriteBytes([]byte("degrees_north")); err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(lat); err != nil {
		return err
	}

	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	if err := lonVar.Attr("units").WriteBytes([]byte("degrees_east")); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return err
	}

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	if err := timeVar.Attr("units").WriteBytes([]byte(timeUnits)); err != nil {
		return err
	}
	if err := timeVar.WriteFloat64s([]float64{day.Sub(epoch).Seconds()}); err != nil {
		return err
	}

	sstVar, err := ds.AddVar("analysed_sst", netcdf.SHORT, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		return err
	}
	if err := sstVar.Attr("units").WriteBytes([]byte("kelvin")); err != nil {
		return err
	}
	if err := sstVar.Attr("scale_factor").WriteFloat64s([]float64{scaleFactor}); err != nil {
		return err
	}
	if err := sstVar.Attr("add_offset").WriteFloat64s([]float64{addOffset}); err != nil {
		return err
	}
	if err := sstVar.WriteInt16s(packed); err != nil {
		return err
	}

	maskVar, err := ds.AddVar("mask", netcdf.BYTE, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		return err
	}
	if err := maskVar.Attr("comment").WriteBytes([]byte("1 = sea, 2 = land")); err != nil {
		return err
	}
	if err := maskVar.WriteInt8s(maskVals); err != nil {
		return err
	}

	return nil
}
