// Package usecase orchestrates SST assimilation forcing preparation: batch
// interpolation of satellite snapshots onto a mesh and the forcing-file
// write.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oceanmesh/sstprep/internal/adapter/sst"
	"github.com/oceanmesh/sstprep/internal/domain"
)

// middayShift aligns the satellite products' nominal-midnight timestamps
// with the model's midday convention.
const middayShift = 12 * time.Hour

// Options controls batch execution.
type Options struct {
	Serial   bool         // Run workers one at a time, in input order.
	PoolSize int          // Parallel worker limit; 0 means all CPUs.
	Logger   *slog.Logger // nil means slog.Default().
}

// Series is the interpolated SST time series for a mesh: timestamps paired
// with per-node temperature vectors, one vector per source snapshot, in
// source file order.
type Series struct {
	Times []time.Time
	SST   [][]float64 // [time][node], Celsius.
}

// InterpSSTAssimilation interpolates a year of gridded SST snapshots onto the
// mesh nodes. The file set is every snapshot in {sstDir}/{year} plus the last
// snapshot of the prior year and the first of the next, so downstream
// consumers can align across the year boundaries. On a worker failure the
// partial series computed so far is returned alongside the error and no
// output is written.
func InterpSSTAssimilation(ctx context.Context, mesh *domain.Mesh, sstDir string, year int, opts Options) (*Series, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	files, err := collectSnapshotFiles(sstDir, year)
	if err != nil {
		return nil, err
	}
	log.Debug("collected snapshot files", "year", year, "count", len(files))

	results := make([]*sst.Snapshot, len(files))
	if opts.Serial {
		err = runSerial(mesh, files, results, log)
	} else {
		err = runPool(ctx, mesh, files, results, poolSize(opts.PoolSize), log)
	}
	if err != nil {
		return assembleSeries(results), err
	}

	series := assembleSeries(results)
	if err := checkIncreasing(series.Times, files); err != nil {
		return series, err
	}
	return series, nil
}

// collectSnapshotFiles builds the ordered input list: prior-year boundary
// snapshot, the target year's snapshots, next-year boundary snapshot.
func collectSnapshotFiles(sstDir string, year int) ([]string, error) {
	prev, err := sortedSnapshots(filepath.Join(sstDir, strconv.Itoa(year-1)))
	if err != nil {
		return nil, err
	}
	cur, err := sortedSnapshots(filepath.Join(sstDir, strconv.Itoa(year)))
	if err != nil {
		return nil, err
	}
	next, err := sortedSnapshots(filepath.Join(sstDir, strconv.Itoa(year+1)))
	if err != nil {
		return nil, err
	}

	// Boundary directories must hold at least one padding snapshot; an empty
	// target year is a data problem, not a configuration one.
	if len(prev) == 0 {
		return nil, &domain.ConfigError{Path: filepath.Join(sstDir, strconv.Itoa(year-1)), Reason: "year directory contains no snapshot files"}
	}
	if len(next) == 0 {
		return nil, &domain.ConfigError{Path: filepath.Join(sstDir, strconv.Itoa(year+1)), Reason: "year directory contains no snapshot files"}
	}
	if len(cur) == 0 {
		return nil, &domain.DataSourceError{
			Path: filepath.Join(sstDir, strconv.Itoa(year)),
			Err:  errors.New("no snapshot files for target year"),
		}
	}

	files := make([]string, 0, len(cur)+2)
	files = append(files, prev[len(prev)-1])
	files = append(files, cur...)
	files = append(files, next[0])
	return files, nil
}

// sortedSnapshots lists a year directory in lexicographic order. A missing
// directory is a precondition failure.
func sortedSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.ConfigError{Path: dir, Reason: fmt.Sprintf("year directory unavailable: %v", err)}
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func runSerial(mesh *domain.Mesh, files []string, results []*sst.Snapshot, log *slog.Logger) error {
	for i, f := range files {
		snap, err := sst.InterpSnapshot(mesh, f)
		if err != nil {
			return err
		}
		results[i] = snap
		log.Debug("interpolated snapshot", "file", f, "index", i)
	}
	return nil
}

// runPool executes the workers over a bounded goroutine pool. Completion
// order is arbitrary; each result lands in its input slot so the collected
// order always matches the file list.
func runPool(ctx context.Context, mesh *domain.Mesh, files []string, results []*sst.Snapshot, limit int, log *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snap, err := sst.InterpSnapshot(mesh, f)
			if err != nil {
				return err
			}
			results[i] = snap
			log.Debug("interpolated snapshot", "file", f, "index", i)
			return nil
		})
	}
	return g.Wait()
}

func poolSize(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// assembleSeries applies the midday shift and collects results in input
// order, skipping slots a failed batch never filled.
func assembleSeries(results []*sst.Snapshot) *Series {
	s := &Series{
		Times: make([]time.Time, 0, len(results)),
		SST:   make([][]float64, 0, len(results)),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Times = append(s.Times, r.Times[0].Add(middayShift))
		s.SST = append(s.SST, r.Values)
	}
	return s
}

func checkIncreasing(times []time.Time, files []string) error {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return &domain.DataSourceError{
				Path: files[i],
				Err:  fmt.Errorf("timestamp %s does not increase past %s", times[i], times[i-1]),
			}
		}
	}
	return nil
}
