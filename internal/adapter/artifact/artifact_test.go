package artifact

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/crash-data-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, dir, name string) {
	t.Helper()
	weather := model.NewLabelEncoder([]string{"CLEAR", "RAIN"})
	a := model.Artifact{
		Name:          name,
		Target:        "RISK_LEVEL",
		Features:      []model.Feature{{Name: "WEATHER_CONDITION", Encoder: &weather}},
		TargetEncoder: model.NewLabelEncoder([]string{"High", "Low"}),
		Forest: model.Forest{NClasses: 2, Trees: []model.Tree{{
			ChildrenLeft:  []int{1, -1, -1},
			ChildrenRight: []int{2, -1, -1},
			Feature:       []int{0, -2, -2},
			Threshold:     []float64{0.5, -2, -2},
			Value:         [][]float64{{1, 1}, {0, 1}, {1, 0}},
		}}},
	}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), b, 0o600))
}

func TestMapStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")
	store := NewMapStore(path)

	_, err := store.HTML()
	require.Error(t, err, "missing file")

	require.NoError(t, os.WriteFile(path, []byte("<html>map</html>"), 0o600))
	html, err := store.HTML()
	require.NoError(t, err)
	assert.Equal(t, "<html>map</html>", string(html))

	// Served from memory once loaded.
	require.NoError(t, os.Remove(path))
	html, err = store.HTML()
	require.NoError(t, err)
	assert.Equal(t, "<html>map</html>", string(html))
}

func TestModelStore_Get(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "risk")
	store := NewModelStore(dir, slog.Default())

	c, err := store.Get("risk")
	require.NoError(t, err)
	assert.Equal(t, "risk", c.Name())

	again, err := store.Get("risk")
	require.NoError(t, err)
	assert.Same(t, c, again)

	p, err := c.Predict(map[string]string{"WEATHER_CONDITION": "RAIN"})
	require.NoError(t, err)
	assert.Equal(t, "High", p.Label)
}

func TestModelStore_NotFound(t *testing.T) {
	store := NewModelStore(t.TempDir(), slog.Default())

	for _, name := range []string{"absent", "../etc/passwd", ""} {
		_, err := store.Get(name)
		require.ErrorIs(t, err, model.ErrModelNotFound, name)
	}
}

func TestModelStore_InvalidArtifactNotCached(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{}"), 0o600))
	store := NewModelStore(dir, slog.Default())

	_, err := store.Get("broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrModelNotFound)

	writeModel(t, dir, "broken")
	c, err := store.Get("broken")
	require.NoError(t, err)
	assert.Equal(t, "broken", c.Name())
}

func TestModelStore_Names(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "risk")
	writeModel(t, dir, "crash_type")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), nil, 0o600))

	names, err := NewModelStore(dir, slog.Default()).Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"crash_type", "risk"}, names)

	names, err = NewModelStore(filepath.Join(dir, "nope"), slog.Default()).Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}
