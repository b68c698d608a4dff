package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMeshFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNodes(t *testing.T) {
	path := writeMeshFile(t, "lon,lat\n-4.1,50.3\n-4.2, 50.4\n-4.3,50.5\n")

	lon, lat, err := LoadNodes(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{-4.1, -4.2, -4.3}, lon)
	assert.Equal(t, []float64{50.3, 50.4, 50.5}, lat)
}

func TestLoadNodes_BadHeader(t *testing.T) {
	path := writeMeshFile(t, "x,y\n1,2\n")
	_, _, err := LoadNodes(path)
	assert.Error(t, err)
}

func TestLoadNodes_BadValue(t *testing.T) {
	path := writeMeshFile(t, "lon,lat\n-4.1,north\n")
	_, _, err := LoadNodes(path)
	assert.Error(t, err)
}

func TestLoadNodes_Empty(t *testing.T) {
	path := writeMeshFile(t, "lon,lat\n")
	_, _, err := LoadNodes(path)
	assert.Error(t, err)
}

func TestLoadNodes_MissingFile(t *testing.T) {
	_, _, err := LoadNodes(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
