// Command schemaconf demonstrates layered configuration for a small service
// schema: files given as arguments, SERVICE_* environment variables and
// flags named after dotted field paths.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/lixenwraith/schemaconf"
	"github.com/spf13/cobra"
)

var (
	outputFlag  string
	noColorFlag bool
)

var style = schemaconf.FlagStyle{Hyphenate: true}

var rootCmd = &cobra.Command{
	Use:   "schemaconf",
	Short: "Inspect layered configuration for the demo service schema",
	Long: `schemaconf resolves the demo service configuration from YAML, JSON or
TOML files, SERVICE_* environment variables and command-line flags.

Examples:
  schemaconf show base.yaml prod.yaml --server.port 9090
  schemaconf validate --name api
  schemaconf flags`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "yaml", "Output format: yaml, json, toml")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newFlagsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
