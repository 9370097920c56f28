package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lixenwraith/schemaconf"
	"github.com/spf13/cobra"
)

const envPrefix = "SERVICE_"

// serviceSchema is the demo configuration.
func serviceSchema() *schemaconf.Schema {
	server := schemaconf.NewSchema("Server").
		Field("host", schemaconf.String, "localhost", schemaconf.WithDesc("Listen address")).
		Field("port", schemaconf.Int, 8080, schemaconf.WithDesc("Listen port")).
		Field("read_timeout", schemaconf.Duration, 5*time.Second, schemaconf.WithDesc("Request read timeout"))

	database := schemaconf.NewSchema("Database").
		Field("url", schemaconf.String, "postgres://localhost/service").
		Field("max_conns", schemaconf.Int, 10)

	return schemaconf.NewSchema("Service").
		Require("name", schemaconf.String, schemaconf.WithDesc("Service name")).
		Field("debug", schemaconf.Bool, false, schemaconf.WithDesc("Enable debug mode")).
		Field("tags", schemaconf.ListOf(schemaconf.String), []any{}, schemaconf.WithDesc("Service tags as a YAML list")).
		Section("server", server).
		Section("database", database)
}

func newShowCmd() *cobra.Command {
	schema := serviceSchema()
	cmd := &cobra.Command{
		Use:   "show [config files...]",
		Short: "Print the resolved configuration",
		Long: `Resolve every layer and print the final configuration.

Examples:
  schemaconf show base.yaml --name api
  SERVICE_SERVER_PORT=9000 schemaconf show -o json --name api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := schemaconf.NewBuilder(schema).
				WithFile(args...).
				WithEnvPrefix(envPrefix).
				WithFlagSet(cmd.Flags()).
				WithFlagStyle(style).
				Build()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), tree, outputFlag)
		},
	}
	if err := schemaconf.BindFlags(cmd, schema, style); err != nil {
		panic(err)
	}
	return cmd
}

func newValidateCmd() *cobra.Command {
	schema := serviceSchema()
	cmd := &cobra.Command{
		Use:   "validate [config files...]",
		Short: "Check that files and flags form a complete configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			tree, err := schemaconf.FromCommand(cmd, schema, args, style, schemaconf.WithExtra(schemaconf.ExtraRaise))
			if err == nil {
				err = tree.Validate()
			}

			var missing *schemaconf.MissingRequiredError
			var extra *schemaconf.ExtraValuesError
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s configuration is valid\n", green("✓"))
				return nil
			case errors.As(err, &missing):
				for _, path := range missing.Paths {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s missing required value: %s\n", red("✗"), path)
				}
			case errors.As(err, &extra):
				for _, key := range extra.Keys() {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s unexpected key: %s\n", red("✗"), joinKey(extra.Path, key))
				}
			}
			return err
		},
	}
	if err := schemaconf.BindFlags(cmd, schema, style); err != nil {
		panic(err)
	}
	return cmd
}

func newFlagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "List configuration flags and environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bold := color.New(color.Bold).SprintFunc()
			cyan := color.New(color.FgCyan).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()

			out := cmd.OutOrStdout()
			for _, spec := range serviceSchema().FlagSpecs(style) {
				env := schemaconf.EnvName(envPrefix, spec.Dest)
				line := fmt.Sprintf("%-26s %-30s %s", bold("--"+spec.Name), cyan(env), spec.Usage)
				if spec.Required {
					line += " " + yellow("(required)")
				}
				fmt.Fprintln(out, strings.TrimRight(line, " "))
			}
			return nil
		},
	}
}

func render(w io.Writer, tree *schemaconf.Tree, format string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err = tree.YAML()
	case "json":
		data, err = tree.JSON()
	case "toml":
		data, err = tree.TOML()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
