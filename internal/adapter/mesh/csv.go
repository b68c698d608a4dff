// Package mesh provides CSV-based mesh node loading.
package mesh

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadNodes reads node coordinates from a CSV file with a "lon,lat" header,
// one node per row.
func LoadNodes(path string) (lon, lat []float64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open mesh file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read mesh header: %w", err)
	}
	if len(header) != 2 || header[0] != "lon" || header[1] != "lat" {
		return nil, nil, fmt.Errorf("invalid mesh header: expected [lon lat], got %v", header)
	}

	for {
		record, err := reader.Read()
		if err != nil {
			// EOF is expected.
			if err.Error() == "EOF" {
				break
			}
			return nil, nil, fmt.Errorf("failed to read mesh record: %w", err)
		}
		if len(record) != 2 {
			return nil, nil, fmt.Errorf("invalid mesh record: expected 2 columns, got %d", len(record))
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid node longitude %q: %w", record[0], err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid node latitude %q: %w", record[1], err)
		}

		lon = append(lon, x)
		lat = append(lat, y)
	}

	if len(lon) == 0 {
		return nil, nil, fmt.Errorf("no nodes found in %s", path)
	}

	return lon, lat, nil
}
