package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bridgesCSV = `Latitude,Longitude,Name
40.4447,-80.0036,Clemente
40.4453,-80.0010,Warhol
40.4460,-79.9985,Carson
`

func TestParse(t *testing.T) {
	path, err := Parse([]byte(bridgesCSV))
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, geo.Point{Lat: 40.4447, Lng: -80.0036}, path[0])
	assert.Equal(t, geo.Point{Lat: 40.4460, Lng: -79.9985}, path[2])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"header only", "Latitude,Longitude\n"},
		{"not a number", "Latitude,Longitude\nabc,1\n"},
		{"out of range", "Latitude,Longitude\n95,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bridges_preset_route.csv"), []byte(bridgesCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"bridges"}, reg.Names())

	path, err := reg.Get("Bridges")
	require.NoError(t, err)
	assert.Len(t, path, 3)

	// callers get their own copy
	path[0] = geo.Point{}
	again, _ := reg.Get("bridges")
	assert.Equal(t, 40.4447, again[0].Lat)

	_, err = reg.Get("hills")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadDir_Missing(t *testing.T) {
	reg, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, reg.Names())
}
