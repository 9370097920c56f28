package schemaconf

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagSpecs returns one flag description per leaf in schema order. Nested
// fields are named by their dot-joined path, e.g. "server.port".
func (s *Schema) FlagSpecs(style FlagStyle) []FlagSpec {
	return s.flagSpecs("", style)
}

func (s *Schema) flagSpecs(prefix string, style FlagStyle) []FlagSpec {
	var specs []FlagSpec
	for _, f := range s.Fields() {
		if f.Section != nil {
			specs = append(specs, f.Section.flagSpecs(prefix+f.Key+".", style)...)
			continue
		}
		specs = append(specs, f.Param.FlagSpec(prefix, style))
	}
	return specs
}

// AddFlags registers a string flag per schema leaf on fs. Flags default to
// unset; only flags given on the command line override other layers. Bool
// fields also accept the bare form --flag.
func AddFlags(fs *pflag.FlagSet, schema *Schema, style FlagStyle) ([]FlagSpec, error) {
	if err := schema.Err(); err != nil {
		return nil, err
	}
	specs := schema.FlagSpecs(style)
	for _, spec := range specs {
		if fs.Lookup(spec.Name) != nil {
			return nil, &SchemaError{Path: spec.Dest, Msg: fmt.Sprintf("flag --%s is already defined", spec.Name)}
		}
		usage := spec.Usage
		if spec.Required {
			usage = strings.TrimSpace(usage + " (required)")
		}
		fs.String(spec.Name, "", usage)
		if spec.IsBool {
			fs.Lookup(spec.Name).NoOptDefVal = "true"
		}
	}
	return specs, nil
}

// FlagSet builds a standalone flag set for schema.
func FlagSet(name string, schema *Schema, style FlagStyle) (*pflag.FlagSet, []FlagSpec, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	specs, err := AddFlags(fs, schema, style)
	if err != nil {
		return nil, nil, err
	}
	return fs, specs, nil
}

// override is one explicitly supplied value destined for a dotted path.
type override struct {
	path  string
	value any
}

// flagOverrides collects the flags set on the command line, in spec order.
func flagOverrides(fs *pflag.FlagSet, specs []FlagSpec) ([]override, error) {
	var out []override
	for _, spec := range specs {
		f := fs.Lookup(spec.Name)
		if f == nil || !f.Changed {
			continue
		}
		v, err := spec.Parse(f.Value.String())
		if err != nil {
			return nil, fmt.Errorf("%w: --%s: %w", ErrCLIParse, spec.Name, err)
		}
		out = append(out, override{path: spec.Dest, value: v})
	}
	return out, nil
}

// parseArgs parses args against schema flags, returning positional file
// paths and the explicitly supplied overrides.
func parseArgs(schema *Schema, args []string, style FlagStyle) ([]string, []override, error) {
	fs, specs, err := FlagSet("schemaconf", schema, style)
	if err != nil {
		return nil, nil, err
	}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(joinBoolValues(args, specs)); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCLIParse, err)
	}
	overrides, err := flagOverrides(fs, specs)
	if err != nil {
		return nil, nil, err
	}
	return fs.Args(), overrides, nil
}

// joinBoolValues rewrites "--flag false" into "--flag=false" for bool flags.
// Bool flags also accept the bare form, so pflag would otherwise read the
// value as a positional file.
func joinBoolValues(args []string, specs []FlagSpec) []string {
	bools := make(map[string]bool)
	for _, spec := range specs {
		if spec.IsBool {
			bools[spec.Name] = true
		}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if name, ok := strings.CutPrefix(arg, "--"); ok && bools[name] && i+1 < len(args) {
			if _, err := strconv.ParseBool(args[i+1]); err == nil {
				out = append(out, arg+"="+args[i+1])
				i++
				continue
			}
		}
		out = append(out, arg)
	}
	return out
}

// MergeArgs returns the raw mapping command-line arguments produce before
// type conversion: positional YAML files merged in order, then flag values
// inserted at their dotted paths.
func MergeArgs(schema *Schema, args []string, style FlagStyle) (map[string]any, error) {
	return NewBuilder(schema).WithArgs(args).WithFlagStyle(style).Merge()
}

// FromArgs builds a tree from command-line arguments: zero or more positional
// config files followed by flag overrides.
func FromArgs(schema *Schema, args []string, style FlagStyle, opts ...Option) (*Tree, error) {
	values, err := MergeArgs(schema, args, style)
	if err != nil {
		return nil, err
	}
	return New(schema, values, opts...)
}

// FromProcessArgs is FromArgs over os.Args[1:].
func FromProcessArgs(schema *Schema, style FlagStyle, opts ...Option) (*Tree, error) {
	return FromArgs(schema, os.Args[1:], style, opts...)
}

// EnvName returns the environment variable read for a dotted field path,
// e.g. "server.max-conns" with prefix "APP_" is APP_SERVER_MAX_CONNS.
func EnvName(prefix, path string) string {
	env := strings.NewReplacer(".", "_", "-", "_").Replace(path)
	return prefix + strings.ToUpper(env)
}

// defaultEnvTransform maps a dotted path to PREFIX_SECTION_KEY.
func defaultEnvTransform(prefix string) func(path string) string {
	return func(path string) string {
		return EnvName(prefix, path)
	}
}

// envOverrides reads one environment variable per leaf. Composite values
// are parsed as YAML literals, like flags.
func envOverrides(specs []FlagSpec, prefix string) ([]override, error) {
	transform := defaultEnvTransform(prefix)
	var out []override
	for _, spec := range specs {
		name := transform(spec.Dest)
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		v, err := spec.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("environment variable %s: %w", name, err)
		}
		out = append(out, override{path: spec.Dest, value: v})
	}
	return out, nil
}
