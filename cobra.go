package schemaconf

import "github.com/spf13/cobra"

// BindFlags registers schema fields as flags of cmd. cobra parses the flags
// itself, so bool fields take --flag or --flag=false there; a separate
// value token is only joined by FromArgs and MergeArgs.
func BindFlags(cmd *cobra.Command, schema *Schema, style FlagStyle) error {
	_, err := AddFlags(cmd.Flags(), schema, style)
	return err
}

// FromCommand builds a tree from a command whose flags were registered with
// BindFlags. args are the command's positional arguments, read as config
// files and applied before flag overrides.
func FromCommand(cmd *cobra.Command, schema *Schema, args []string, style FlagStyle, opts ...Option) (*Tree, error) {
	values, err := NewBuilder(schema).
		WithFile(args...).
		WithFlagSet(cmd.Flags()).
		WithFlagStyle(style).
		Merge()
	if err != nil {
		return nil, err
	}
	return New(schema, values, opts...)
}
