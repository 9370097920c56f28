package schemaconf

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// simpleSchema has a leaf "a" and a section "b" with leaf "c".
func simpleSchema() *Schema {
	return NewSchema("Simple").
		Field("a", Int, 1).
		Section("b", NewSchema("B").Field("c", String, "x"))
}

func testOpts(t *testing.T, opts ...Option) []Option {
	return append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
}

func TestNew(t *testing.T) {
	t.Run("ConvertsSuppliedValues", func(t *testing.T) {
		tree, err := New(simpleSchema(), map[string]any{
			"a": "5",
			"b": map[string]any{"c": "y"},
		}, testOpts(t)...)
		require.NoError(t, err)

		a, err := tree.Get("a")
		require.NoError(t, err)
		assert.Equal(t, 5, a)

		c, err := tree.Get("b.c")
		require.NoError(t, err)
		assert.Equal(t, "y", c)
	})

	t.Run("NestedDefaultsPresent", func(t *testing.T) {
		tree, err := New(simpleSchema(), nil, testOpts(t)...)
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, tree.Keys())
		c, err := tree.Get("b.c")
		require.NoError(t, err)
		assert.Equal(t, "x", c)

		sub, err := tree.Section("b")
		require.NoError(t, err)
		assert.Equal(t, "b", sub.Path())
	})

	t.Run("InputNotModified", func(t *testing.T) {
		values := map[string]any{"a": 2, "z": 1}
		_, err := New(simpleSchema(), values, testOpts(t, WithExtra(ExtraIgnore))...)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 2, "z": 1}, values)
	})

	t.Run("ConversionErrorCarriesPath", func(t *testing.T) {
		_, err := New(simpleSchema(), map[string]any{"a": "five"}, testOpts(t)...)
		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "a", ce.Path)

		s := NewSchema("Outer").Section("inner", NewSchema("Inner").Field("n", Int, 0))
		_, err = New(s, map[string]any{"inner": map[string]any{"n": "x"}}, testOpts(t)...)
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "inner.n", ce.Path)
	})

	t.Run("SectionRequiresMapping", func(t *testing.T) {
		_, err := New(simpleSchema(), map[string]any{"b": "scalar"}, testOpts(t)...)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchema)
		assert.Contains(t, err.Error(), "section must be a mapping")

		_, err = New(simpleSchema(), map[string]any{"b": nil}, testOpts(t)...)
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("SectionAcceptsAnyStringKeyedMap", func(t *testing.T) {
		tree, err := New(simpleSchema(), map[string]any{
			"b": map[any]any{"c": "from-any-map"},
		}, testOpts(t)...)
		require.NoError(t, err)
		c, _ := tree.GetString("b.c")
		assert.Equal(t, "from-any-map", c)
	})

	t.Run("NilSchema", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("InvalidSchema", func(t *testing.T) {
		_, err := New(NewSchema("Bad").Field("a b", Int, 1), nil)
		assert.ErrorIs(t, err, ErrSchema)
	})

	t.Run("RequiredSurfacesOnAccess", func(t *testing.T) {
		s := NewSchema("App").Require("name", String).Field("port", Int, 80)
		tree, err := New(s, nil, testOpts(t)...)
		require.NoError(t, err)

		_, err = tree.Get("name")
		var me *MissingRequiredError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, []string{"name"}, me.Paths)

		_, err = tree.ToMap()
		assert.ErrorIs(t, err, ErrMissingRequired)
		_, err = tree.ToYAML()
		assert.ErrorIs(t, err, ErrMissingRequired)

		err = tree.Validate()
		require.ErrorAs(t, err, &me)
		assert.Equal(t, []string{"name"}, me.Paths)

		require.NoError(t, tree.Set("name", "svc"))
		assert.NoError(t, tree.Validate())
	})
}

func TestExtraPolicy(t *testing.T) {
	values := map[string]any{"a": 5, "z": 1}

	t.Run("Raise", func(t *testing.T) {
		_, err := New(simpleSchema(), values, testOpts(t, WithExtra(ExtraRaise))...)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrExtraValues))

		var ee *ExtraValuesError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, []string{"z"}, ee.Keys())
		assert.Equal(t, map[string]any{"z": 1}, ee.Values)
		assert.Contains(t, err.Error(), "z=1")
	})

	t.Run("RaiseNested", func(t *testing.T) {
		_, err := New(simpleSchema(), map[string]any{
			"b": map[string]any{"c": "y", "d": true},
		}, testOpts(t, WithExtra(ExtraRaise))...)

		var ee *ExtraValuesError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "b", ee.Path)
		assert.Equal(t, []string{"d"}, ee.Keys())
	})

	t.Run("Ignore", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		tree, err := New(simpleSchema(), values, WithExtra(ExtraIgnore), WithLogger(zap.New(core)))
		require.NoError(t, err)
		assert.False(t, tree.Has("z"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("Warn", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		tree, err := New(simpleSchema(), values, WithExtra(ExtraWarn), WithLogger(zap.New(core)))
		require.NoError(t, err)
		assert.False(t, tree.Has("z"))

		a, _ := tree.GetInt("a")
		assert.Equal(t, 5, a)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "received unexpected config values", entry.Message)
		assert.Equal(t, []any{"z"}, entry.ContextMap()["keys"])
	})

	t.Run("WarnNestedUsesFullPaths", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		_, err := New(simpleSchema(), map[string]any{
			"b": map[string]any{"d": 1},
		}, WithExtra(ExtraWarn), WithLogger(zap.New(core)))
		require.NoError(t, err)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, []any{"b.d"}, logs.All()[0].ContextMap()["keys"])
	})

	t.Run("PolicyFromEnvironment", func(t *testing.T) {
		t.Setenv(EnvExtraPolicy, "RAISE")
		_, err := New(simpleSchema(), values, testOpts(t)...)
		assert.ErrorIs(t, err, ErrExtraValues)

		_, err = New(simpleSchema(), values, testOpts(t, WithExtra(ExtraIgnore))...)
		assert.NoError(t, err, "explicit option wins over the environment")
	})

	t.Run("InvalidPolicy", func(t *testing.T) {
		_, err := New(simpleSchema(), nil, WithExtra("sometimes"))
		assert.ErrorIs(t, err, ErrSchema)

		t.Setenv(EnvExtraPolicy, "bogus")
		_, err = New(simpleSchema(), nil)
		assert.ErrorIs(t, err, ErrSchema)
	})
}

func TestTreeAccess(t *testing.T) {
	newTree := func(t *testing.T) *Tree {
		tree, err := New(simpleSchema(), nil, testOpts(t)...)
		require.NoError(t, err)
		return tree
	}

	t.Run("UnknownKeys", func(t *testing.T) {
		tree := newTree(t)

		_, err := tree.Get("missing")
		var ue *UnknownKeyError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "missing", ue.Path)
		assert.Equal(t, `config does not have key "missing"`, err.Error())

		_, err = tree.Get("b.missing")
		assert.ErrorIs(t, err, ErrUnknownKey)
		_, err = tree.Get("a.deeper")
		assert.ErrorIs(t, err, ErrUnknownKey)

		assert.ErrorIs(t, tree.Set("z", 1), ErrUnknownKey)
		assert.False(t, tree.Has("z"))
		assert.True(t, tree.Has("b.c"))
	})

	t.Run("SetLeafConverts", func(t *testing.T) {
		tree := newTree(t)
		require.NoError(t, tree.Set("a", "42"))
		a, _ := tree.Get("a")
		assert.Equal(t, 42, a)

		err := tree.Set("a", "forty-two")
		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "a", ce.Path)
	})

	t.Run("SetSectionFromMapping", func(t *testing.T) {
		tree := newTree(t)
		require.NoError(t, tree.Set("b", map[string]any{"c": "z"}))
		c, _ := tree.Get("b.c")
		assert.Equal(t, "z", c)

		assert.ErrorIs(t, tree.Set("b", 3), ErrSchema)
	})

	t.Run("SetSectionFromTree", func(t *testing.T) {
		tree := newTree(t)
		b := NewSchema("Standalone").Field("c", String, "x")
		other, err := New(b, map[string]any{"c": "other"}, testOpts(t)...)
		require.NoError(t, err)
		assert.ErrorIs(t, tree.Set("b", other), ErrSchema, "different schema is rejected")

		sub, err := tree.Section("b")
		require.NoError(t, err)
		replacement, err := New(sub.Schema(), map[string]any{"c": "replaced"}, testOpts(t)...)
		require.NoError(t, err)
		require.NoError(t, tree.Set("b", replacement))

		c, _ := tree.Get("b.c")
		assert.Equal(t, "replaced", c)
		sub, _ = tree.Section("b")
		assert.Equal(t, "b", sub.Path())

		require.NoError(t, replacement.Set("c", "later"))
		c, _ = tree.Get("b.c")
		assert.Equal(t, "replaced", c, "assigned tree is copied")
	})

	t.Run("GetSectionReturnsTree", func(t *testing.T) {
		tree := newTree(t)
		v, err := tree.Get("b")
		require.NoError(t, err)
		sub, ok := v.(*Tree)
		require.True(t, ok)
		assert.Equal(t, []string{"c"}, sub.Keys())

		_, err = tree.Section("a")
		assert.ErrorIs(t, err, ErrSchema)
		_, err = tree.Param("b")
		assert.ErrorIs(t, err, ErrSchema)

		p, err := tree.Param("b.c")
		require.NoError(t, err)
		assert.Equal(t, "c", p.Key())
	})

	t.Run("TypedGetters", func(t *testing.T) {
		s := NewSchema("Typed").
			Field("name", String, "svc").
			Field("port", Int, 80).
			Field("ratio", Float, 0.5).
			Field("debug", Bool, true).
			Field("timeout", Duration, "2s").
			Section("sub", NewSchema("Sub"))
		tree, err := New(s, map[string]any{"timeout": "3s"}, testOpts(t)...)
		require.NoError(t, err)

		name, err := tree.GetString("name")
		require.NoError(t, err)
		assert.Equal(t, "svc", name)

		port, err := tree.GetInt("port")
		require.NoError(t, err)
		assert.Equal(t, 80, port)

		portText, err := tree.GetString("port")
		require.NoError(t, err)
		assert.Equal(t, "80", portText)

		ratio, err := tree.GetFloat("ratio")
		require.NoError(t, err)
		assert.Equal(t, 0.5, ratio)

		debug, err := tree.GetBool("debug")
		require.NoError(t, err)
		assert.True(t, debug)

		timeout, err := tree.GetDuration("timeout")
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, timeout)

		_, err = tree.GetInt("sub")
		assert.ErrorIs(t, err, ErrSchema)
		_, err = tree.GetBool("name")
		assert.Error(t, err)
	})

	t.Run("WalkInSchemaOrder", func(t *testing.T) {
		tree := newTree(t)
		var paths []string
		require.NoError(t, tree.Walk(func(path string, p *Param) error {
			paths = append(paths, path)
			return nil
		}))
		assert.Equal(t, []string{"a", "b.c"}, paths)
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		tree := newTree(t)
		clone := tree.Clone()
		require.NoError(t, clone.Set("b.c", "changed"))

		c, _ := tree.Get("b.c")
		assert.Equal(t, "x", c)
		c, _ = clone.Get("b.c")
		assert.Equal(t, "changed", c)
	})

	t.Run("String", func(t *testing.T) {
		tree, err := New(simpleSchema(), map[string]any{"a": 5, "b": map[string]any{"c": "y"}}, testOpts(t)...)
		require.NoError(t, err)
		assert.Equal(t, "Simple(\n  a: 5\n  b:\n    c: y\n)", tree.String())

		missing, err := New(NewSchema("Req").Require("name", String), nil, testOpts(t)...)
		require.NoError(t, err)
		assert.Contains(t, missing.String(), "Req(<")
	})
}

func TestLogger(t *testing.T) {
	original := Logger()
	t.Cleanup(func() { SetLogger(original) })

	SetLogger(nil)
	assert.NotNil(t, Logger())

	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	_, err := New(simpleSchema(), map[string]any{"z": 1}, WithExtra(ExtraWarn))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}
