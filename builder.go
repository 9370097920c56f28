package schemaconf

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// ValidatorFunc defines the signature for a function that can validate a Tree.
// It receives the fully built tree and should return an error if validation fails.
type ValidatorFunc func(t *Tree) error

// Builder merges configuration layers for a schema. Layers apply in this
// order, later ones overriding earlier ones:
//
//  1. schema defaults
//  2. in-memory values (WithValues)
//  3. the discovered file (WithFileDiscovery)
//  4. files (WithFile), then positional file arguments (WithArgs)
//  5. environment variables (WithEnvPrefix)
//  6. flags set on the command line (WithArgs or WithFlagSet)
type Builder struct {
	schema     *Schema
	values     map[string]any
	files      []string
	args       []string
	argsSet    bool
	flagSet    *pflag.FlagSet
	envPrefix  string
	envSet     bool
	style      FlagStyle
	discovery  *FileDiscoveryOptions
	opts       []Option
	logger     *zap.Logger
	validators []ValidatorFunc
	err        error
}

// NewBuilder creates a new configuration builder for schema.
func NewBuilder(schema *Schema) *Builder {
	b := &Builder{schema: schema}
	if schema == nil {
		b.err = &SchemaError{Msg: "nil schema"}
	}
	return b
}

// WithValues sets an in-memory layer applied right above the schema defaults.
func (b *Builder) WithValues(values map[string]any) *Builder {
	b.values = values
	return b
}

// WithFile appends configuration files, merged in the given order.
func (b *Builder) WithFile(paths ...string) *Builder {
	b.files = append(b.files, paths...)
	return b
}

// WithArgs sets command-line arguments: flags plus positional file paths.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	b.argsSet = true
	return b
}

// WithFlagSet reads overrides from an already parsed flag set whose flags
// were registered with AddFlags.
func (b *Builder) WithFlagSet(fs *pflag.FlagSet) *Builder {
	b.flagSet = fs
	return b
}

// WithEnvPrefix enables the environment layer. "server.port" with prefix
// "MYAPP_" reads MYAPP_SERVER_PORT.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	b.envSet = true
	return b
}

// WithFlagStyle sets flag naming for WithArgs and WithFlagSet.
func (b *Builder) WithFlagStyle(style FlagStyle) *Builder {
	b.style = style
	return b
}

// WithFileDiscovery enables automatic config file discovery
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = &opts
	return b
}

// WithExtra sets the extra-keys policy.
func (b *Builder) WithExtra(p ExtraPolicy) *Builder {
	b.opts = append(b.opts, WithExtra(p))
	return b
}

// WithLogger sets the logger for warnings and layer tracing.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	b.opts = append(b.opts, WithLogger(l))
	return b
}

// WithOptions appends tree construction options.
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

func (b *Builder) log() *zap.Logger {
	if b.logger != nil {
		return b.logger
	}
	return Logger()
}

// Merge returns the raw mapping of all layers above the schema defaults,
// before type conversion.
func (b *Builder) Merge() (map[string]any, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.schema.Err(); err != nil {
		return nil, err
	}
	log := b.log()

	merged := make(map[string]any)
	if b.values != nil {
		mergeMaps(merged, b.values)
		log.Debug("applied config layer", zap.String("source", "values"))
	}

	files := make([]string, 0, len(b.files)+1)
	if b.discovery != nil {
		if path, ok := DiscoverFile(*b.discovery); ok {
			files = append(files, path)
		}
	}
	files = append(files, b.files...)

	var flags []override
	if b.argsSet {
		positional, overrides, err := parseArgs(b.schema, b.args, b.style)
		if err != nil {
			return nil, err
		}
		files = append(files, positional...)
		flags = overrides
	}
	if b.flagSet != nil {
		overrides, err := flagOverrides(b.flagSet, b.schema.FlagSpecs(b.style))
		if err != nil {
			return nil, err
		}
		flags = append(flags, overrides...)
	}

	for _, path := range files {
		data, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		mergeMaps(merged, data)
		log.Debug("applied config layer", zap.String("source", "file"), zap.String("path", path))
	}

	if b.envSet {
		env, err := envOverrides(b.schema.FlagSpecs(FlagStyle{}), b.envPrefix)
		if err != nil {
			return nil, err
		}
		for _, o := range env {
			setNestedValue(merged, o.path, o.value)
		}
		log.Debug("applied config layer", zap.String("source", "env"), zap.Int("count", len(env)))
	}

	for _, o := range flags {
		setNestedValue(merged, o.path, o.value)
	}
	if len(flags) > 0 {
		log.Debug("applied config layer", zap.String("source", "cli"), zap.Int("count", len(flags)))
	}

	return merged, nil
}

// Build merges all layers, constructs the tree, checks required fields and
// runs validators in order.
func (b *Builder) Build() (*Tree, error) {
	values, err := b.Merge()
	if err != nil {
		return nil, err
	}

	tree, err := New(b.schema, values, b.opts...)
	if err != nil {
		return nil, err
	}

	if err := tree.Validate(); err != nil {
		return nil, err
	}

	for _, validator := range b.validators {
		if err := validator(tree); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return tree, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Tree {
	tree, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return tree
}

// BuildAndScan builds and decodes the final configuration into target.
func (b *Builder) BuildAndScan(target any) (*Tree, error) {
	tree, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := tree.Scan("", target); err != nil {
		return nil, fmt.Errorf("failed to scan final config into target: %w", err)
	}
	return tree, nil
}

// IsNotFound reports whether err stems from a missing config file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}
