package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/region-augment/pkg/types"
)

const sampleStore = `{
  "img1": {
    "filename": "photo.jpg",
    "size": 12345,
    "regions": [
      {
        "shape_attributes": {"name": "polygon", "all_points_x": [1, 5, 9], "all_points_y": [2, 8, 3]},
        "region_attributes": {"class":"car"}
      }
    ],
    "file_attributes": {"source":"camera-2"}
  },
  "img2": {
    "filename": "empty.png",
    "size": 99,
    "file_attributes": {}
  }
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	writeFile(t, path, sampleStore)

	ds, err := Load(path)
	require.NoError(t, err)
	require.Len(t, ds, 2)

	rec := ds["img1"]
	assert.Equal(t, "photo.jpg", rec.Filename)
	assert.Equal(t, int64(12345), rec.Size)
	require.Len(t, rec.Regions, 1)
	assert.Equal(t, []float64{1, 5, 9}, rec.Regions[0].ShapeAttributes.AllPointsX)
	assert.JSONEq(t, `{"class":"car"}`, string(rec.Regions[0].RegionAttributes))
	assert.JSONEq(t, `{"source":"camera-2"}`, string(rec.FileAttributes))

	assert.NotNil(t, ds["img2"].Regions)
	assert.Empty(t, ds["img2"].Regions)
}

func TestLoadMalformedRegion(t *testing.T) {
	tests := map[string]string{
		"uneven":    `{"k":{"filename":"a.jpg","size":1,"regions":[{"shape_attributes":{"name":"polygon","all_points_x":[1,2],"all_points_y":[1]},"region_attributes":{}}]}}`,
		"no points": `{"k":{"filename":"a.jpg","size":1,"regions":[{"shape_attributes":{"name":"rect","x":1,"y":1},"region_attributes":{}}]}}`,
		"no shape":  `{"k":{"filename":"a.jpg","size":1,"regions":[{"region_attributes":{}}]}}`,
	}

	for name, content := range tests {
		path := filepath.Join(t.TempDir(), "annotations.json")
		writeFile(t, path, content)

		_, err := Load(path)
		assert.ErrorIs(t, err, types.ErrMalformedRegion, name)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)

	path := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, path, `[1,2,3]`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "annotations.json")
	writeFile(t, in, sampleStore)

	ds, err := Load(in)
	require.NoError(t, err)

	out := filepath.Join(dir, "out", DefaultOutputName)
	require.NoError(t, Save(out, ds))

	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, ds, again)

	// nothing but the store is left behind in the output directory
	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultOutputName, entries[0].Name())
}

func TestSaveIsIndentedAndSorted(t *testing.T) {
	out := filepath.Join(t.TempDir(), "store.json")
	ds := types.Dataset{
		"b": {Filename: "b.jpg", Regions: []types.Region{}},
		"a": {Filename: "a.jpg", Regions: []types.Region{}},
	}
	require.NoError(t, Save(out, ds))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "{\n  \"a\": {\n    \"filename\": \"a.jpg\""), text)
	assert.Less(t, strings.Index(text, `"a":`), strings.Index(text, `"b":`))
}

func TestSaveKeepsPassthroughFields(t *testing.T) {
	out := filepath.Join(t.TempDir(), "store.json")
	ds := types.Dataset{
		"k": {
			Filename:       "a.jpg",
			Size:           7,
			Regions:        []types.Region{types.NewPolygon([]types.Point{{X: 1, Y: 2}}, json.RawMessage(`{"a":[1,{"b":null}]}`))},
			FileAttributes: json.RawMessage(`{"caption":"x"}`),
		},
	}
	require.NoError(t, Save(out, ds))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":{"filename":"a.jpg","size":7,"regions":[{"shape_attributes":{"name":"polygon","all_points_x":[1],"all_points_y":[2]},"region_attributes":{"a":[1,{"b":null}]}}],"file_attributes":{"caption":"x"}}}`, string(raw))
}

func TestResolveAnnotationsPath(t *testing.T) {
	dir := t.TempDir()

	_, err := ResolveAnnotationsPath(dir)
	assert.ErrorIs(t, err, ErrNotFound)

	file := filepath.Join(dir, DefaultInputName)
	writeFile(t, file, `{}`)

	got, err := ResolveAnnotationsPath(dir)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	got, err = ResolveAnnotationsPath(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	assert.Equal(t, filepath.Join(dir, DefaultOutputName), DefaultOutputPath(file))
}
