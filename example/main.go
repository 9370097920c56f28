// Example: a struct-derived schema layered from a file, environment and flags,
// then decoded back into the struct.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/schemaconf"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Host        string        `yaml:"host" desc:"Listen address"`
	Port        int           `yaml:"port" desc:"Listen port"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type AppConfig struct {
	Name     string       `yaml:"name" required:"true" desc:"Application name"`
	Debug    bool         `yaml:"debug"`
	Tags     []string     `yaml:"tags"`
	Server   ServerConfig `yaml:"server"`
	Internal string       `yaml:"-"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	defaults := AppConfig{
		Tags: []string{"default"},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			IdleTimeout: 30 * time.Second,
		},
	}

	schema, err := schemaconf.SchemaOf(defaults)
	if err != nil {
		log.Fatal("Failed to derive schema:", err)
	}

	dir, err := os.MkdirTemp("", "schemaconf-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	configFile := filepath.Join(dir, "app.yaml")
	content := []byte("name: example\nserver:\n  port: 9000\n  unknown: true\n")
	if err := os.WriteFile(configFile, content, 0644); err != nil {
		log.Fatal(err)
	}

	os.Setenv("EXAMPLE_SERVER_HOST", "0.0.0.0")
	defer os.Unsetenv("EXAMPLE_SERVER_HOST")

	var cfg AppConfig
	tree, err := schemaconf.NewBuilder(schema).
		WithLogger(logger).
		WithEnvPrefix("EXAMPLE_").
		WithArgs([]string{configFile, "--debug", "--tags", "[api, internal]"}).
		WithValidator(func(t *schemaconf.Tree) error {
			port, err := t.GetInt("server.port")
			if err != nil {
				return err
			}
			if port < 1024 {
				return fmt.Errorf("server.port %d is privileged", port)
			}
			return nil
		}).
		BuildAndScan(&cfg)
	if err != nil {
		log.Fatal("Failed to build config:", err)
	}

	fmt.Printf("%s on %s:%d (debug=%v, tags=%v, idle=%s)\n",
		cfg.Name, cfg.Server.Host, cfg.Server.Port, cfg.Debug, cfg.Tags, cfg.Server.IdleTimeout)

	out, err := tree.ToYAML()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(out)
}
