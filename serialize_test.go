package schemaconf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceSchema() *Schema {
	server := NewSchema("Server").
		Field("host", String, "localhost").
		Field("port", Int, 8080).
		Field("timeout", Duration, 5*time.Second)

	return NewSchema("Service").
		Field("name", String, "svc").
		Field("tags", ListOf(String), []any{"a", "b"}).
		Field("labels", Map, map[string]any{"tier": "web"}).
		Field("ratio", Float, 0.25).
		Field("debug", Bool, false).
		Section("server", server)
}

func TestToYAML(t *testing.T) {
	t.Run("SchemaOrder", func(t *testing.T) {
		s := NewSchema("Ordered").
			Field("zeta", Int, 1).
			Field("alpha", Int, 2).
			Section("mid", NewSchema("Mid").Field("y", String, "b").Field("x", String, "a"))
		tree, err := New(s, nil, testOpts(t)...)
		require.NoError(t, err)

		out, err := tree.ToYAML()
		require.NoError(t, err)
		assert.Equal(t, "zeta: 1\nalpha: 2\nmid:\n  y: b\n  x: a\n", out)
	})

	t.Run("RoundTripIsIdempotent", func(t *testing.T) {
		tree, err := New(serviceSchema(), map[string]any{
			"name":   "api",
			"tags":   []any{"x", "y"},
			"server": map[string]any{"port": "9090", "timeout": "1m"},
		}, testOpts(t)...)
		require.NoError(t, err)

		first, err := tree.YAML()
		require.NoError(t, err)

		reparsed, err := Parse(serviceSchema(), first, testOpts(t, WithExtra(ExtraRaise))...)
		require.NoError(t, err)

		second, err := reparsed.YAML()
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))

		want, err := tree.ToMap()
		require.NoError(t, err)
		got, err := reparsed.ToMap()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("WriteYAML", func(t *testing.T) {
		tree, err := New(simpleSchema(), nil, testOpts(t)...)
		require.NoError(t, err)

		var buf bytes.Buffer
		out, err := tree.WriteYAML(&buf)
		require.NoError(t, err)
		assert.Equal(t, out, buf.String())
		assert.Equal(t, "a: 1\nb:\n  c: x\n", out)
	})

	t.Run("SaveYAML", func(t *testing.T) {
		tree, err := New(simpleSchema(), map[string]any{"a": 7}, testOpts(t)...)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "nested", "out.yaml")
		out, err := tree.SaveYAML(path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, out, string(data))
	})
}

func TestToMapAndFlatten(t *testing.T) {
	tree, err := New(simpleSchema(), map[string]any{"a": 3}, testOpts(t)...)
	require.NoError(t, err)

	m, err := tree.ToMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 3, "b": map[string]any{"c": "x"}}, m)

	flat, err := tree.Flatten()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 3, "b.c": "x"}, flat)

	sub, err := tree.Section("b")
	require.NoError(t, err)
	flat, err = sub.Flatten()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b.c": "x"}, flat)
}

func TestOtherFormats(t *testing.T) {
	tree, err := New(serviceSchema(), map[string]any{"name": "api"}, testOpts(t)...)
	require.NoError(t, err)

	t.Run("JSON", func(t *testing.T) {
		data, err := tree.JSON()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "api", decoded["name"])
		assert.Equal(t, float64(8080), decoded["server"].(map[string]any)["port"])
	})

	t.Run("TOML", func(t *testing.T) {
		data, err := tree.TOML()
		require.NoError(t, err)
		assert.Contains(t, string(data), `name = "api"`)
		assert.Contains(t, string(data), "[server]")
	})

	t.Run("SaveByExtension", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"out.yaml", "out.json", "out.toml"} {
			path := filepath.Join(dir, name)
			require.NoError(t, tree.Save(path), name)

			loaded, err := Load(serviceSchema(), path, testOpts(t, WithExtra(ExtraRaise))...)
			require.NoError(t, err, name)

			port, err := loaded.GetInt("server.port")
			require.NoError(t, err, name)
			assert.Equal(t, 8080, port, name)

			labels, err := loaded.Get("labels")
			require.NoError(t, err, name)
			assert.Equal(t, map[string]any{"tier": "web"}, labels, name)
		}
	})
}
