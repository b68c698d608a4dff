package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanmesh/sstprep/internal/domain"
)

var testEpoch = time.Date(1981, time.January, 1, 0, 0, 0, 0, time.UTC)

// writeTestSnapshot creates a minimal 2x2 snapshot for the given midnight,
// with every cell at base kelvin.
func writeTestSnapshot(t *testing.T, dir string, day time.Time, base float64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "sst_"+day.Format("20060102")+".nc")

	f, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	require.NoError(t, err)
	defer f.Close()

	timeDim, _ := f.AddDim("time", 1)
	latDim, _ := f.AddDim("lat", 2)
	lonDim, _ := f.AddDim("lon", 2)

	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	vtime, _ := f.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	vsst, _ := f.AddVar("analysed_sst", netcdf.DOUBLE, []netcdf.Dim{timeDim, latDim, lonDim})
	vmask, _ := f.AddVar("mask", netcdf.BYTE, []netcdf.Dim{timeDim, latDim, lonDim})

	require.NoError(t, vtime.Attr("units").WriteBytes([]byte("seconds since 1981-01-01 00:00:00")))
	require.NoError(t, vlat.WriteFloat64s([]float64{50.0, 51.0}))
	require.NoError(t, vlon.WriteFloat64s([]float64{-5.0, -4.0}))
	require.NoError(t, vtime.WriteFloat64s([]float64{day.Sub(testEpoch).Seconds()}))
	require.NoError(t, vsst.WriteFloat64s([]float64{base, base + 1, base + 2, base + 3}))
	require.NoError(t, vmask.WriteInt8s([]int8{1, 1, 1, 1}))
}

// buildSSTDir lays out a standard fixture: `days` daily files in the target
// year plus one boundary file either side.
func buildSSTDir(t *testing.T, year, days int) string {
	t.Helper()
	root := t.TempDir()
	writeTestSnapshot(t, filepath.Join(root, strconv.Itoa(year-1)),
		time.Date(year-1, time.December, 31, 0, 0, 0, 0, time.UTC), 280.0)
	for d := 0; d < days; d++ {
		writeTestSnapshot(t, filepath.Join(root, strconv.Itoa(year)),
			time.Date(year, time.January, 1+d, 0, 0, 0, 0, time.UTC), 285.0+float64(d))
	}
	writeTestSnapshot(t, filepath.Join(root, strconv.Itoa(year+1)),
		time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC), 290.0)
	return root
}

func fixtureMesh(t *testing.T) *domain.Mesh {
	t.Helper()
	m, err := domain.NewMesh([]float64{-5.0, -4.0, -4.0}, []float64{50.0, 50.0, 51.0}, 1)
	require.NoError(t, err)
	return m
}

func TestInterpSSTAssimilation_FileCountAndAlignment(t *testing.T) {
	const year, days = 2006, 3
	root := buildSSTDir(t, year, days)
	mesh := fixtureMesh(t)

	series, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: true})
	require.NoError(t, err)

	// Target-year files plus exactly one boundary snapshot either side.
	require.Len(t, series.Times, days+2)
	require.Len(t, series.SST, days+2)

	// Midnight sources shifted to midday, strictly increasing.
	assert.True(t, series.Times[0].Equal(time.Date(year-1, time.December, 31, 12, 0, 0, 0, time.UTC)))
	assert.True(t, series.Times[1].Equal(time.Date(year, time.January, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, series.Times[days+1].Equal(time.Date(year+1, time.January, 1, 12, 0, 0, 0, time.UTC)))
	for i := 1; i < len(series.Times); i++ {
		assert.True(t, series.Times[i].After(series.Times[i-1]))
	}

	// One value per mesh node, in file order.
	for i, vec := range series.SST {
		assert.Len(t, vec, mesh.NNode(), "entry %d", i)
	}
	// Boundary file first (base 280), then the daily series (285, 286, ...).
	assert.InDelta(t, 280.0-273.15, series.SST[0][0], 1e-9)
	assert.InDelta(t, 285.0-273.15, series.SST[1][0], 1e-9)
	assert.InDelta(t, 287.0-273.15, series.SST[days][0], 1e-9)
}

func TestInterpSSTAssimilation_SerialParallelIdentical(t *testing.T) {
	const year = 2006
	root := buildSSTDir(t, year, 5)
	mesh := fixtureMesh(t)

	serial, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: true})
	require.NoError(t, err)

	for _, pool := range []int{1, 2, 8, 0} {
		parallel, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{PoolSize: pool})
		require.NoError(t, err, "pool size %d", pool)

		require.Equal(t, len(serial.Times), len(parallel.Times))
		for i := range serial.Times {
			assert.True(t, serial.Times[i].Equal(parallel.Times[i]), "pool %d, time %d", pool, i)
			assert.Equal(t, serial.SST[i], parallel.SST[i], "pool %d, vector %d", pool, i)
		}
	}
}

func TestInterpSSTAssimilation_MissingBoundaryYear(t *testing.T) {
	const year = 2006
	mesh := fixtureMesh(t)

	t.Run("missing prior year", func(t *testing.T) {
		root := buildSSTDir(t, year, 2)
		require.NoError(t, os.RemoveAll(filepath.Join(root, strconv.Itoa(year-1))))

		_, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: true})
		var cerr *domain.ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Path, strconv.Itoa(year-1))
	})

	t.Run("missing next year", func(t *testing.T) {
		root := buildSSTDir(t, year, 2)
		require.NoError(t, os.RemoveAll(filepath.Join(root, strconv.Itoa(year+1))))

		_, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: true})
		var cerr *domain.ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Path, strconv.Itoa(year+1))
	})

	t.Run("empty boundary directory", func(t *testing.T) {
		root := buildSSTDir(t, year, 2)
		require.NoError(t, os.RemoveAll(filepath.Join(root, strconv.Itoa(year+1))))
		require.NoError(t, os.MkdirAll(filepath.Join(root, strconv.Itoa(year+1)), 0o755))

		_, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: true})
		var cerr *domain.ConfigError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestInterpSSTAssimilation_EmptyTargetYear(t *testing.T) {
	const year = 2006
	root := buildSSTDir(t, year, 2)
	mesh := fixtureMesh(t)

	require.NoError(t, os.RemoveAll(filepath.Join(root, strconv.Itoa(year))))
	require.NoError(t, os.MkdirAll(filepath.Join(root, strconv.Itoa(year)), 0o755))

	_, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: true})
	var dserr *domain.DataSourceError
	require.ErrorAs(t, err, &dserr)
	assert.Contains(t, dserr.Path, strconv.Itoa(year))
}

func TestInterpSSTAssimilation_WorkerFailureIsAttributed(t *testing.T) {
	const year = 2006
	root := buildSSTDir(t, year, 3)
	mesh := fixtureMesh(t)

	// Corrupt one target-year snapshot.
	bad := filepath.Join(root, strconv.Itoa(year), "sst_20060102.nc")
	require.NoError(t, os.WriteFile(bad, []byte("not a netcdf file"), 0o644))

	for _, serial := range []bool{true, false} {
		series, err := InterpSSTAssimilation(context.Background(), mesh, root, year, Options{Serial: serial})
		var dserr *domain.DataSourceError
		require.ErrorAs(t, err, &dserr, "serial=%v", serial)
		assert.Equal(t, bad, dserr.Path, "serial=%v", serial)

		// Partial results stay available for diagnostics.
		require.NotNil(t, series)
		assert.Less(t, len(series.Times), 5)
	}
}

func TestCollectSnapshotFiles_Order(t *testing.T) {
	const year = 2006
	root := buildSSTDir(t, year, 3)

	files, err := collectSnapshotFiles(root, year)
	require.NoError(t, err)
	require.Len(t, files, 5)

	assert.Contains(t, files[0], filepath.Join("2005", "sst_20051231.nc"))
	assert.Contains(t, files[1], filepath.Join("2006", "sst_20060101.nc"))
	assert.Contains(t, files[3], filepath.Join("2006", "sst_20060103.nc"))
	assert.Contains(t, files[4], filepath.Join("2007", "sst_20070101.nc"))
}
