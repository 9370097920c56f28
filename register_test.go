package schemaconf

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerDB struct {
	URL      string `yaml:"url" required:"true" desc:"Database URL"`
	MaxConns int    `yaml:"max_conns"`
}

type registerServer struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
	Bind    net.IP        `yaml:"bind"`
}

type registerApp struct {
	Name     string            `yaml:"name"`
	Tags     []string          `yaml:"tags"`
	Limits   map[string]int    `yaml:"limits"`
	Server   registerServer    `yaml:"server"`
	DB       *registerDB       `yaml:"db"`
	Skipped  string            `yaml:"-"`
	Callback func()            `yaml:"callback"`
	Labels   map[string]string `yaml:"labels"`
	Untagged bool
	internal int
}

func TestSchemaOf(t *testing.T) {
	defaults := registerApp{
		Name:   "svc",
		Tags:   []string{"a"},
		Limits: map[string]int{"rps": 100},
		Server: registerServer{Host: "localhost", Port: 8080, Timeout: time.Second, Bind: net.ParseIP("127.0.0.1")},
	}

	s, err := SchemaOf(defaults)
	require.NoError(t, err)
	assert.Equal(t, "registerApp", s.Name())
	assert.Equal(t, []string{"name", "tags", "limits", "server", "db", "labels", "Untagged"}, s.Keys())

	t.Run("Sections", func(t *testing.T) {
		f, ok := s.Lookup("server")
		require.True(t, ok)
		require.True(t, f.IsSection())
		assert.Equal(t, []string{"host", "port", "timeout", "bind"}, f.Section.Keys())

		f, ok = s.Lookup("db")
		require.True(t, ok)
		require.True(t, f.IsSection(), "nil pointer still yields a section")

		url, ok := f.Section.Lookup("url")
		require.True(t, ok)
		assert.True(t, url.Param.IsRequired())
		assert.Equal(t, "Database URL", url.Param.Desc())
	})

	t.Run("DefaultsNormalized", func(t *testing.T) {
		f, _ := s.Lookup("tags")
		assert.Equal(t, []any{"a"}, mustValue(t, f.Param.Default()))
		assert.Equal(t, "list[string]", f.Param.Type().Name())

		f, _ = s.Lookup("limits")
		assert.Equal(t, map[string]any{"rps": 100}, mustValue(t, f.Param.Default()))
	})

	t.Run("BuildAndScanBack", func(t *testing.T) {
		tree, err := New(s, map[string]any{
			"db":     map[string]any{"url": "postgres://db"},
			"server": map[string]any{"bind": "10.1.2.3", "timeout": "5s"},
		}, testOpts(t, WithExtra(ExtraRaise))...)
		require.NoError(t, err)
		require.NoError(t, tree.Validate())

		var out registerApp
		require.NoError(t, tree.Scan("", &out))
		assert.Equal(t, "svc", out.Name)
		assert.Equal(t, []string{"a"}, out.Tags)
		assert.Equal(t, map[string]int{"rps": 100}, out.Limits)
		assert.Equal(t, 5*time.Second, out.Server.Timeout)
		assert.Equal(t, "10.1.2.3", out.Server.Bind.String())
		require.NotNil(t, out.DB)
		assert.Equal(t, "postgres://db", out.DB.URL)
	})

	t.Run("RequiredFromTag", func(t *testing.T) {
		tree, err := New(s, nil, testOpts(t)...)
		require.NoError(t, err)

		var me *MissingRequiredError
		require.ErrorAs(t, tree.Validate(), &me)
		assert.Equal(t, []string{"db.url"}, me.Paths)
	})
}

func TestSchemaOfEmbedded(t *testing.T) {
	type Base struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	}
	type Derived struct {
		Base
		Port  int  `yaml:"port"`
		Debug bool `yaml:"debug"`
	}

	s, err := SchemaOf(&Derived{Base: Base{Name: "base", Port: 1}, Port: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "port", "debug"}, s.Keys())

	f, _ := s.Lookup("port")
	assert.Equal(t, 2, mustValue(t, f.Param.Default()))

	f, _ = s.Lookup("name")
	assert.Equal(t, "base", mustValue(t, f.Param.Default()))
}

func TestSchemaOfErrors(t *testing.T) {
	_, err := SchemaOf(42)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = SchemaOf((*registerApp)(nil))
	assert.ErrorIs(t, err, ErrSchema)
}
