// Command sst-forcing interpolates a year of gridded satellite SST snapshots
// onto an unstructured model mesh and writes an SST assimilation forcing
// file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/oceanmesh/sstprep/internal/adapter/mesh"
	"github.com/oceanmesh/sstprep/internal/config"
	"github.com/oceanmesh/sstprep/internal/domain"
	"github.com/oceanmesh/sstprep/internal/usecase"
)

func main() {
	meshPath := flag.String("mesh", "", "Path to mesh node CSV (lon,lat header)")
	nelem := flag.Int("nele", 0, "Number of mesh elements")
	sstDir := flag.String("sst-dir", "", "Directory containing per-year SST snapshot directories")
	year := flag.Int("year", 0, "Target year")
	out := flag.String("out", "", "Output forcing file path (default sstgrd.nc)")
	serial := flag.Bool("serial", false, "Run workers serially instead of in parallel")
	pool := flag.Int("pool", 0, "Worker pool size (0 = all CPUs)")
	verbose := flag.Bool("v", false, "Enable progress output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Environment variables supply defaults for flags left unset.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *sstDir == "" {
		*sstDir = cfg.SSTDir
	}
	if *out == "" {
		*out = cfg.OutputPath
	}
	if *out == "" {
		*out = "sstgrd.nc"
	}
	if *pool == 0 {
		*pool = cfg.PoolSize
	}

	if *meshPath == "" || *sstDir == "" || *year == 0 || *nelem <= 0 {
		logger.Error("missing required arguments: -mesh, -nele and -year are required, and -sst-dir or SSTPREP_SST_DIR must be set")
		flag.Usage()
		os.Exit(2)
	}

	lon, lat, err := mesh.LoadNodes(*meshPath)
	if err != nil {
		logger.Error("failed to load mesh", "path", *meshPath, "error", err)
		os.Exit(1)
	}
	m, err := domain.NewMesh(lon, lat, *nelem)
	if err != nil {
		logger.Error("invalid mesh", "error", err)
		os.Exit(1)
	}
	logger.Info("mesh loaded", "nodes", m.NNode(), "elements", m.NElem)

	series, err := usecase.InterpSSTAssimilation(context.Background(), m, *sstDir, *year, usecase.Options{
		Serial:   *serial,
		PoolSize: *pool,
		Logger:   logger,
	})
	if err != nil {
		partial := 0
		if series != nil {
			partial = len(series.Times)
		}
		logger.Error("interpolation failed", "error", err, "partial_snapshots", partial)
		os.Exit(1)
	}
	logger.Info("interpolation complete", "snapshots", len(series.Times))

	if err := usecase.WriteSSTGrid(*out, m, series); err != nil {
		logger.Error("failed to write forcing file", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("forcing file written", "path", *out, "snapshots", len(series.Times))
}
